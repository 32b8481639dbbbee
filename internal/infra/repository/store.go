package repository

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soscomida/soscomida/internal/domain"
	"github.com/soscomida/soscomida/internal/infra/database/models"
	"github.com/soscomida/soscomida/internal/usecase"
)

var tracer = otel.Tracer("repository")

// Store runs usecase steps inside a database transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Atomic(ctx context.Context, fn func(tx usecase.Tx) error) error {
	ctx, span := tracer.Start(ctx, "Repository.Store.Atomic")
	defer span.End()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) forUpdate(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *gormTx) GetPrincipal(ctx context.Context, id string) (domain.Principal, error) {
	var m models.Principal
	if err := t.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return domain.Principal{}, translate(err, "principal")
	}
	return principalFromModel(m), nil
}

func (t *gormTx) LockRequest(ctx context.Context, ref domain.RequestRef) (domain.Request, error) {
	switch ref := ref.(type) {
	case domain.DonationRef:
		var m models.DonationRequest
		if err := t.forUpdate(ctx).Where("id = ?", ref.ID).Take(&m).Error; err != nil {
			return nil, translate(err, "donation request")
		}
		d := donationFromModel(m)
		return &d, nil
	case domain.ReceiptRef:
		var m models.ReceiptRequest
		if err := t.forUpdate(ctx).Where("id = ?", ref.ID).Take(&m).Error; err != nil {
			return nil, translate(err, "receipt request")
		}
		r := receiptFromModel(m)
		return &r, nil
	}
	return nil, domain.ValidationError{Reason: "unknown request reference"}
}

// SaveRequest writes back the mutable columns of a locked request.
func (t *gormTx) SaveRequest(ctx context.Context, r domain.Request) error {
	switch r := r.(type) {
	case *domain.DonationRequest:
		err := t.db.WithContext(ctx).Model(&models.DonationRequest{}).
			Where("id = ?", r.ID).
			Update("status", string(r.Status)).Error
		return translate(err, "donation request")
	case *domain.ReceiptRequest:
		err := t.db.WithContext(ctx).Model(&models.ReceiptRequest{}).
			Where("id = ?", r.ID).
			Updates(map[string]any{
				"status":            string(r.Status),
				"baskets_delivered": r.Fulfillment.BasketsDelivered,
				"food_kg_delivered": r.Fulfillment.FoodKgDelivered,
				"value_delivered":   r.Fulfillment.ValueDelivered,
				"delivered_at":      r.Fulfillment.DeliveredAt,
			}).Error
		return translate(err, "receipt request")
	}
	return domain.ValidationError{Reason: "unknown request type"}
}

func (t *gormTx) CreateDonationRequest(ctx context.Context, d domain.DonationRequest) error {
	m := donationToModel(d)
	return translate(t.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error, "donation request")
}

func (t *gormTx) CreateReceiptRequest(ctx context.Context, r domain.ReceiptRequest) error {
	m := receiptToModel(r)
	return translate(t.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error, "receipt request")
}

func (t *gormTx) DeleteRequest(ctx context.Context, ref domain.RequestRef) error {
	var err error
	switch ref := ref.(type) {
	case domain.DonationRef:
		err = t.db.WithContext(ctx).Delete(&models.DonationRequest{}, "id = ?", ref.ID).Error
	case domain.ReceiptRef:
		err = t.db.WithContext(ctx).Delete(&models.ReceiptRequest{}, "id = ?", ref.ID).Error
	default:
		return domain.ValidationError{Reason: "unknown request reference"}
	}
	return translate(err, string(ref.Kind()))
}

func (t *gormTx) LockDelegation(ctx context.Context, id string) (domain.Delegation, error) {
	var m models.Delegation
	if err := t.forUpdate(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return domain.Delegation{}, translate(err, "delegation")
	}
	return delegationFromModel(m)
}

func (t *gormTx) FindActiveDelegation(ctx context.Context, ref domain.RequestRef) (*domain.Delegation, error) {
	column, id := targetColumn(ref)
	if column == "" {
		return nil, domain.ValidationError{Reason: "unknown request reference"}
	}

	var m models.Delegation
	err := t.db.WithContext(ctx).
		Where(column+" = ?", id).
		Where("status IN ?", []string{string(domain.DelegationPending), string(domain.DelegationAccepted)}).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "delegation")
	}
	d, err := delegationFromModel(m)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// HasDelegations counts delegations of any status that target ref.
func (t *gormTx) HasDelegations(ctx context.Context, ref domain.RequestRef) (bool, error) {
	column, id := targetColumn(ref)
	if column == "" {
		return false, domain.ValidationError{Reason: "unknown request reference"}
	}

	var count int64
	err := t.db.WithContext(ctx).Model(&models.Delegation{}).
		Where(column+" = ?", id).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "delegation")
	}
	return count > 0, nil
}

// CreateDelegation relies on the partial unique indexes to turn a lost race
// into a ConflictError.
func (t *gormTx) CreateDelegation(ctx context.Context, d domain.Delegation) error {
	m := delegationToModel(d)
	return translate(t.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error, "active delegation")
}

func (t *gormTx) UpdateDelegationStatus(ctx context.Context, d domain.Delegation) error {
	res := t.db.WithContext(ctx).Model(&models.Delegation{}).
		Where("id = ?", d.ID).
		Update("status", string(d.Status))
	if res.Error != nil {
		return translate(res.Error, "delegation")
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "delegation"}
	}
	return nil
}

func (t *gormTx) LockCampaign(ctx context.Context, id string) (domain.Campaign, error) {
	var m models.Campaign
	if err := t.forUpdate(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return domain.Campaign{}, translate(err, "campaign")
	}
	c := campaignFromModel(m)

	var count int64
	err := t.db.WithContext(ctx).Model(&models.CampaignVolunteer{}).
		Where("campaign_id = ?", id).
		Count(&count).Error
	if err != nil {
		return domain.Campaign{}, translate(err, "campaign volunteers")
	}
	c.VolunteerCount = int(count)
	return c, nil
}

func (t *gormTx) CreateCampaign(ctx context.Context, c domain.Campaign) error {
	m := campaignToModel(c)
	return translate(t.db.WithContext(ctx).Create(&m).Error, "campaign")
}

func (t *gormTx) SaveCampaign(ctx context.Context, c domain.Campaign) error {
	err := t.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"title":          c.Title,
			"description":    c.Description,
			"location":       c.Location,
			"volunteer_goal": c.VolunteerGoal,
			"funding_goal":   c.FundingGoal,
			"raised":         c.Raised,
			"status":         string(c.Status),
			"institution_id": c.InstitutionID,
			"ends_at":        c.EndsAt,
		}).Error
	return translate(err, "campaign")
}

func (t *gormTx) HasVolunteer(ctx context.Context, campaignID, principalID string) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&models.CampaignVolunteer{}).
		Where("campaign_id = ? AND principal_id = ?", campaignID, principalID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "campaign volunteer")
	}
	return count > 0, nil
}

func (t *gormTx) AddVolunteer(ctx context.Context, v domain.CampaignVolunteer) error {
	m := models.CampaignVolunteer{
		ID:          v.ID,
		CampaignID:  v.CampaignID,
		PrincipalID: v.PrincipalID,
		CDate:       v.CreatedAt,
	}
	return translate(t.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error, "campaign volunteer")
}

func (t *gormTx) AddItemPledge(ctx context.Context, p domain.CampaignItemPledge) error {
	m := models.CampaignItemPledge{
		ID:           p.ID,
		CampaignID:   p.CampaignID,
		PrincipalID:  p.PrincipalID,
		Baskets:      p.Baskets,
		HygieneKits:  p.HygieneKits,
		Water:        p.Water,
		ChildDiapers: p.ChildDiapers,
		CDate:        p.CreatedAt,
	}
	return translate(t.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error, "campaign item pledge")
}

func (t *gormTx) CreateReport(ctx context.Context, r domain.VolunteerReport) error {
	m := reportToModel(r)
	return translate(t.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error, "volunteer report")
}

func (t *gormTx) LockReport(ctx context.Context, id string) (domain.VolunteerReport, error) {
	var m models.VolunteerReport
	if err := t.forUpdate(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return domain.VolunteerReport{}, translate(err, "volunteer report")
	}
	return reportFromModel(m), nil
}

func (t *gormTx) SaveReport(ctx context.Context, r domain.VolunteerReport) error {
	err := t.db.WithContext(ctx).Model(&models.VolunteerReport{}).
		Where("id = ?", r.ID).
		Updates(map[string]any{
			"status":          string(r.Status),
			"moderator_id":    r.ModeratorID,
			"moderator_notes": r.ModeratorNotes,
			"action_taken":    string(r.ActionTaken),
			"resolved_at":     r.ResolvedAt,
		}).Error
	return translate(err, "volunteer report")
}

// CreateSanction relies on the unique report_id index to reject a second
// sanction for the same report.
func (t *gormTx) CreateSanction(ctx context.Context, s domain.Sanction) error {
	m := sanctionToModel(s)
	return translate(t.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error, "sanction for report "+s.ReportID)
}

func (t *gormTx) LockSanction(ctx context.Context, id string) (domain.Sanction, error) {
	var m models.Sanction
	if err := t.forUpdate(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return domain.Sanction{}, translate(err, "sanction")
	}
	return sanctionFromModel(m), nil
}

func (t *gormTx) SaveSanction(ctx context.Context, s domain.Sanction) error {
	err := t.db.WithContext(ctx).Model(&models.Sanction{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"seen":    s.Seen,
			"seen_at": s.SeenAt,
		}).Error
	return translate(err, "sanction")
}
