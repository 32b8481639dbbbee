package rest

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/soscomida/soscomida/internal/domain"
	"github.com/soscomida/soscomida/internal/present/rest/middleware"
	"github.com/soscomida/soscomida/internal/present/rest/presenter"
	"github.com/soscomida/soscomida/internal/usecase"
)

// EventStream feeds the moderator realtime socket.
type EventStream interface {
	Realtime(ctx context.Context) <-chan domain.Event
}

type Handler struct {
	requests    *usecase.RequestUsecase
	delegations *usecase.DelegationUsecase
	campaigns   *usecase.CampaignUsecase
	reports     *usecase.ReportUsecase
	audit       *usecase.AuditUsecase
	events      EventStream
}

func NewHandler(
	requests *usecase.RequestUsecase,
	delegations *usecase.DelegationUsecase,
	campaigns *usecase.CampaignUsecase,
	reports *usecase.ReportUsecase,
	audit *usecase.AuditUsecase,
	events EventStream,
) *Handler {
	return &Handler{
		requests:    requests,
		delegations: delegations,
		campaigns:   campaigns,
		reports:     reports,
		audit:       audit,
		events:      events,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.handleHealth)

	v1 := e.Group("/api/v1")

	v1.POST("/requests/receipts", h.handleCreateReceipt)
	v1.POST("/requests/donations", h.handleCreateDonation)
	v1.GET("/requests/mine", h.handleListMine)
	v1.GET("/requests/receipts/approved", h.handleApprovedReceipts)
	v1.POST("/requests/:kind/:id/approve", h.handleApprove)
	v1.POST("/requests/:kind/:id/reject", h.handleReject)
	v1.DELETE("/requests/:kind/:id", h.handleCancel)

	v1.POST("/delegations", h.handleCreateDelegation)
	v1.GET("/delegations/:id", h.handleGetDelegation)
	v1.POST("/delegations/:id/accept", h.handleAcceptDelegation)
	v1.POST("/delegations/:id/decline", h.handleDeclineDelegation)
	v1.POST("/delegations/:id/delivery", h.handleReportDelivery)

	v1.GET("/institution/delegations", h.handleInstitutionDelegations)
	v1.GET("/institution/impact", h.handleInstitutionImpact)

	v1.GET("/campaigns", h.handleListCampaigns)
	v1.POST("/campaigns", h.handleCreateCampaign)
	v1.GET("/campaigns/:id", h.handleGetCampaign)
	v1.PATCH("/campaigns/:id", h.handleEditCampaign)
	v1.POST("/campaigns/:id/delegate", h.handleDelegateCampaign)
	v1.POST("/campaigns/:id/accept", h.handleAcceptCampaign)
	v1.POST("/campaigns/:id/decline", h.handleDeclineCampaign)
	v1.POST("/campaigns/:id/status", h.handleCampaignStatus)
	v1.POST("/campaigns/:id/volunteer", h.handleVolunteer)
	v1.POST("/campaigns/:id/pledge", h.handlePledge)
	v1.POST("/campaigns/:id/pledge-items", h.handlePledgeItems)
	v1.POST("/campaigns/:id/reports", h.handleReportVolunteer)

	v1.GET("/sanctions/mine", h.handleMySanctions)
	v1.POST("/sanctions/:id/seen", h.handleSanctionSeen)

	v1.GET("/moderation/queue", h.handleModerationQueue)
	v1.GET("/moderation/institutions", h.handleInstitutions)
	v1.GET("/moderation/campaigns", h.handleModerationCampaigns)
	v1.GET("/moderation/reports", h.handleListReports)
	v1.POST("/moderation/reports/:id/resolve", h.handleResolveReport)
	v1.GET("/moderation/sanctions", h.handleListSanctions)
	v1.GET("/moderation/audit", h.handleAuditList)
	v1.GET("/moderation/audit/stats", h.handleAuditStats)
	v1.GET("/moderation/realtime", h.handleRealtime)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

// actor returns the authenticated caller or writes a 401.
func actor(c echo.Context) (domain.Actor, bool) {
	a, ok := middleware.ActorFrom(c.Request().Context())
	if !ok {
		_ = presenter.Unauthorized(c)
	}
	return a, ok
}

func queryLimit(c echo.Context) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil {
		return 0
	}
	return limit
}

func requestRef(c echo.Context) (domain.RequestRef, error) {
	return domain.NewRequestRef(c.Param("kind"), c.Param("id"))
}

// --- requests ---

func (h *Handler) handleCreateReceipt(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var input domain.NewReceiptInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequest(c, err)
	}
	r, err := h.requests.CreateReceipt(c.Request().Context(), a, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, r)
}

func (h *Handler) handleCreateDonation(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var input domain.NewDonationInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequest(c, err)
	}
	d, err := h.requests.CreateDonation(c.Request().Context(), a, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, d)
}

func (h *Handler) handleListMine(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	mine, err := h.requests.ListMine(c.Request().Context(), a)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, mine)
}

func (h *Handler) handleApprovedReceipts(c echo.Context) error {
	list, err := h.requests.ListApprovedReceipts(c.Request().Context(), queryLimit(c))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, list)
}

func (h *Handler) handleApprove(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	ref, err := requestRef(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	r, err := h.requests.Approve(c.Request().Context(), a, ref)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, r)
}

type rejectBody struct {
	Detail string `json:"detail"`
}

func (h *Handler) handleReject(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	ref, err := requestRef(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	var body rejectBody
	if err := c.Bind(&body); err != nil {
		return presenter.BadRequest(c, err)
	}
	r, err := h.requests.Reject(c.Request().Context(), a, ref, body.Detail)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, r)
}

func (h *Handler) handleCancel(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	ref, err := requestRef(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	if err := h.requests.Cancel(c.Request().Context(), a, ref); err != nil {
		return presenter.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) handleModerationQueue(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	q, err := h.requests.ModerationQueue(c.Request().Context(), a, queryLimit(c))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, q)
}

// --- delegations ---

type createDelegationBody struct {
	Kind          string `json:"kind"`
	RequestID     string `json:"requestId"`
	InstitutionID string `json:"institutionId"`
}

func (h *Handler) handleCreateDelegation(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var body createDelegationBody
	if err := c.Bind(&body); err != nil {
		return presenter.BadRequest(c, err)
	}
	ref, err := domain.NewRequestRef(body.Kind, body.RequestID)
	if err != nil {
		return presenter.Error(c, err)
	}
	d, err := h.delegations.Create(c.Request().Context(), a, usecase.CreateDelegationInput{
		Ref:           ref,
		InstitutionID: body.InstitutionID,
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, d)
}

func (h *Handler) handleGetDelegation(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	d, err := h.delegations.Get(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, d)
}

func (h *Handler) handleAcceptDelegation(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	d, err := h.delegations.Accept(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, d)
}

func (h *Handler) handleDeclineDelegation(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	d, err := h.delegations.Decline(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, d)
}

func (h *Handler) handleReportDelivery(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var metrics domain.DeliveryMetrics
	if err := c.Bind(&metrics); err != nil {
		return presenter.BadRequest(c, err)
	}
	r, err := h.delegations.ReportDelivery(c.Request().Context(), a, c.Param("id"), metrics)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, r)
}

func (h *Handler) handleInstitutionDelegations(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var status *domain.DelegationStatus
	if raw := c.QueryParam("status"); raw != "" {
		s := domain.DelegationStatus(raw)
		status = &s
	}
	list, err := h.delegations.ListForInstitution(c.Request().Context(), a, status)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, list)
}

func (h *Handler) handleInstitutionImpact(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	impact, err := h.delegations.Impact(c.Request().Context(), a)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, impact)
}

func (h *Handler) handleInstitutions(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	list, err := h.delegations.Institutions(c.Request().Context(), a)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, list)
}

// --- campaigns ---

type campaignView struct {
	domain.Campaign
	Progress float64 `json:"progress"`
}

func viewCampaign(c domain.Campaign) campaignView {
	return campaignView{Campaign: c, Progress: c.Progress()}
}

func viewCampaigns(list []domain.Campaign) []campaignView {
	out := make([]campaignView, 0, len(list))
	for _, c := range list {
		out = append(out, viewCampaign(c))
	}
	return out
}

func (h *Handler) handleListCampaigns(c echo.Context) error {
	list, err := h.campaigns.ListActive(c.Request().Context())
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, viewCampaigns(list))
}

func (h *Handler) handleGetCampaign(c echo.Context) error {
	campaign, err := h.campaigns.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, viewCampaign(campaign))
}

func (h *Handler) handleModerationCampaigns(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	status := domain.CampaignStatus(c.QueryParam("status"))
	if status == "" {
		status = domain.CampaignPending
	}
	list, err := h.campaigns.ListByStatus(c.Request().Context(), a, status)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, viewCampaigns(list))
}

func (h *Handler) handleCreateCampaign(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var input domain.NewCampaignInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequest(c, err)
	}
	campaign, err := h.campaigns.Create(c.Request().Context(), a, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, viewCampaign(campaign))
}

func (h *Handler) handleEditCampaign(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var patch domain.CampaignPatch
	if err := c.Bind(&patch); err != nil {
		return presenter.BadRequest(c, err)
	}
	campaign, err := h.campaigns.Edit(c.Request().Context(), a, c.Param("id"), patch)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, viewCampaign(campaign))
}

type delegateCampaignBody struct {
	InstitutionID string `json:"institutionId"`
}

func (h *Handler) handleDelegateCampaign(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var body delegateCampaignBody
	if err := c.Bind(&body); err != nil {
		return presenter.BadRequest(c, err)
	}
	campaign, err := h.campaigns.Delegate(c.Request().Context(), a, c.Param("id"), body.InstitutionID)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, viewCampaign(campaign))
}

func (h *Handler) handleAcceptCampaign(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	campaign, err := h.campaigns.Accept(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, viewCampaign(campaign))
}

func (h *Handler) handleDeclineCampaign(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	campaign, err := h.campaigns.Decline(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, viewCampaign(campaign))
}

type campaignStatusBody struct {
	Status domain.CampaignStatus `json:"status"`
	Detail string                `json:"detail"`
}

func (h *Handler) handleCampaignStatus(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var body campaignStatusBody
	if err := c.Bind(&body); err != nil {
		return presenter.BadRequest(c, err)
	}
	campaign, err := h.campaigns.SetStatus(c.Request().Context(), a, c.Param("id"), body.Status, body.Detail)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, viewCampaign(campaign))
}

func (h *Handler) handleVolunteer(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	campaign, err := h.campaigns.Volunteer(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, viewCampaign(campaign))
}

type pledgeBody struct {
	Amount float64 `json:"amount"`
}

func (h *Handler) handlePledge(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var body pledgeBody
	if err := c.Bind(&body); err != nil {
		return presenter.BadRequest(c, err)
	}
	campaign, err := h.campaigns.Pledge(c.Request().Context(), a, c.Param("id"), body.Amount)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, viewCampaign(campaign))
}

func (h *Handler) handlePledgeItems(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var input domain.ItemPledgeInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequest(c, err)
	}
	pledge, err := h.campaigns.PledgeItems(c.Request().Context(), a, c.Param("id"), input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, pledge)
}

// --- reports and sanctions ---

func (h *Handler) handleReportVolunteer(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var input domain.ReportInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequest(c, err)
	}
	report, err := h.reports.ReportVolunteer(c.Request().Context(), a, c.Param("id"), input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, report)
}

func (h *Handler) handleListReports(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	status := domain.ReportStatus(c.QueryParam("status"))
	reports, err := h.reports.ListReports(c.Request().Context(), a, status, queryLimit(c))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, reports)
}

func (h *Handler) handleResolveReport(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	var input domain.SanctionInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequest(c, err)
	}
	sanction, err := h.reports.Resolve(c.Request().Context(), a, c.Param("id"), input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, sanction)
}

func (h *Handler) handleListSanctions(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	sanctions, err := h.reports.ListSanctions(c.Request().Context(), a, queryLimit(c))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, sanctions)
}

func (h *Handler) handleMySanctions(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	sanctions, err := h.reports.MySanctions(c.Request().Context(), a)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, sanctions)
}

func (h *Handler) handleSanctionSeen(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	sanction, err := h.reports.MarkSeen(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, sanction)
}

// --- audit ---

func (h *Handler) handleAuditList(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	entries, err := h.audit.List(c.Request().Context(), a, domain.AuditFilter{
		ModeratorID: c.QueryParam("moderator"),
		ItemType:    c.QueryParam("itemType"),
		Limit:       queryLimit(c),
	})
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, entries)
}

func (h *Handler) handleAuditStats(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	stats, err := h.audit.Stats(c.Request().Context(), a, c.QueryParam("moderator"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, stats)
}

// --- realtime ---

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type socketRequest struct {
	Type      string   `json:"type"`
	ItemTypes []string `json:"itemTypes"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	if err := a.Require(domain.RoleModerator, "watch realtime events"); err != nil {
		return presenter.Error(c, err)
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	events := h.events.Realtime(ctx)
	filters := make(chan []string, 1)
	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req socketRequest
			err := ws.ReadJSON(&req)
			if err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}

			switch req.Type {
			case "listen":
				select {
				case filters <- req.ItemTypes:
				case <-ctx.Done():
					return
				}
			case "h": // heartbeat
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	var itemTypes []string
	for {
		select {
		case <-quit:
			return nil
		case itemTypes = <-filters:
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if len(itemTypes) > 0 && !slices.Contains(itemTypes, event.ItemType) {
				continue
			}
			if err := ws.WriteJSON(event); err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
