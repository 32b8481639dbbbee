package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type CampaignStatus string

const (
	CampaignPending   CampaignStatus = "pendente"
	CampaignActive    CampaignStatus = "ativa"
	CampaignSuspended CampaignStatus = "suspensa"
	CampaignRejected  CampaignStatus = "rejeitada"
)

var campaignTransitions = transitions[CampaignStatus]{
	CampaignPending:   {CampaignActive, CampaignRejected},
	CampaignActive:    {CampaignSuspended, CampaignPending},
	CampaignSuspended: {CampaignActive, CampaignRejected},
	CampaignRejected:  {},
}

var campaignStatusActions = map[CampaignStatus]string{
	CampaignActive:    "aprovou_campanha",
	CampaignSuspended: "suspendeu_campanha",
	CampaignRejected:  "rejeitou_campanha",
	CampaignPending:   "reabriu_campanha",
}

// Campaign is a fundraising and volunteering drive. A non-nil InstitutionID
// on a pending campaign means the institution has not answered yet.
type Campaign struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Location       string         `json:"location"`
	VolunteerGoal  int            `json:"volunteerGoal"`
	FundingGoal    float64        `json:"fundingGoal"`
	Raised         float64        `json:"raised"`
	Status         CampaignStatus `json:"status"`
	RequesterID    *string        `json:"requesterId,omitempty"`
	InstitutionID  *string        `json:"institutionId,omitempty"`
	EndsAt         *time.Time     `json:"endsAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	VolunteerCount int            `json:"volunteerCount"`
}

// Progress is the funded share of the goal in percent, capped at 100.
func (c Campaign) Progress() float64 {
	if c.FundingGoal <= 0 {
		return 0
	}
	return math.Min(100, c.Raised/c.FundingGoal*100)
}

func (c *Campaign) event(t EventType, action string, actor Actor, detail string, now time.Time) Event {
	e := Event{
		Type:       t,
		Action:     action,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Origin:     actor.Origin,
		ItemType:   ItemTypeCampaign,
		ItemID:     c.ID,
		ItemName:   c.Title,
		Detail:     detail,
		Status:     string(c.Status),
		OccurredAt: now,
	}
	if c.InstitutionID != nil {
		e.InstitutionID = *c.InstitutionID
	}
	return e
}

type NewCampaignInput struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Location      string     `json:"location"`
	VolunteerGoal int        `json:"volunteerGoal"`
	FundingGoal   float64    `json:"fundingGoal"`
	EndsAt        *time.Time `json:"endsAt"`
}

func (in NewCampaignInput) validate() error {
	if len([]rune(strings.TrimSpace(in.Title))) < 5 {
		return ValidationError{Reason: "title must have at least 5 characters"}
	}
	if len([]rune(strings.TrimSpace(in.Description))) < 20 {
		return ValidationError{Reason: "description must have at least 20 characters"}
	}
	if in.VolunteerGoal < 0 {
		return ValidationError{Reason: "volunteer goal cannot be negative"}
	}
	if in.FundingGoal <= 0 || math.IsInf(in.FundingGoal, 0) || math.IsNaN(in.FundingGoal) {
		return ValidationError{Reason: "funding goal must be positive"}
	}
	return nil
}

// NewCampaign creates a campaign. Moderators publish it directly; requesters
// submit it for moderation.
func NewCampaign(id string, actor Actor, in NewCampaignInput, now time.Time) (Campaign, Event, error) {
	if actor.Role != RoleModerator && actor.Role != RoleRequester {
		return Campaign{}, Event{}, PermissionError{Reason: "role " + string(actor.Role) + " cannot create campaigns"}
	}
	if actor.ID == "" {
		return Campaign{}, Event{}, PermissionError{Reason: "anonymous actor cannot create campaigns"}
	}
	if err := in.validate(); err != nil {
		return Campaign{}, Event{}, err
	}

	c := Campaign{
		ID:            id,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Location:      strings.TrimSpace(in.Location),
		VolunteerGoal: in.VolunteerGoal,
		FundingGoal:   in.FundingGoal,
		EndsAt:        in.EndsAt,
		CreatedAt:     now,
	}

	action := ""
	if actor.Role == RoleModerator {
		c.Status = CampaignActive
		action = "criou_campanha"
	} else {
		c.Status = CampaignPending
		requester := actor.ID
		c.RequesterID = &requester
	}
	return c, c.event(EventCampaignCreated, action, actor, "", now), nil
}

// Delegate assigns a pending campaign to an institution, which must then
// accept or decline it.
func (c *Campaign) Delegate(moderator Actor, institution *Principal, now time.Time) (Event, error) {
	if err := moderator.Require(RoleModerator, "delegate campaigns"); err != nil {
		return Event{}, err
	}
	if institution == nil {
		return Event{}, ValidationError{Reason: "institution does not exist"}
	}
	if err := institution.CheckDelegationTarget(); err != nil {
		return Event{}, err
	}
	if c.Status != CampaignPending {
		return Event{}, StateError{Reason: "campaign " + c.ID + " is " + string(c.Status) + ", only pending campaigns can be delegated"}
	}
	if c.InstitutionID != nil {
		return Event{}, ConflictError{Reason: "campaign " + c.ID + " is already awaiting institution " + *c.InstitutionID}
	}
	id := institution.ID
	c.InstitutionID = &id
	return c.event(EventCampaignDelegated, "delegou_campanha", moderator, "delegada para "+institution.DisplayName(), now), nil
}

func (c *Campaign) checkAssigned(actor Actor, operation string) error {
	if err := actor.Require(RoleInstitution, operation); err != nil {
		return err
	}
	if c.InstitutionID == nil || *c.InstitutionID != actor.ID {
		return StateError{Reason: "campaign " + c.ID + " is not assigned to institution " + actor.ID}
	}
	return nil
}

// Accept activates the campaign. Accepting a campaign the institution
// already runs is a no-op.
func (c *Campaign) Accept(actor Actor, now time.Time) (changed bool, e Event, err error) {
	if err := c.checkAssigned(actor, "accept campaigns"); err != nil {
		return false, Event{}, err
	}
	if c.Status == CampaignActive {
		return false, Event{}, nil
	}
	if c.Status != CampaignPending {
		return false, Event{}, StateError{Reason: "campaign " + c.ID + " is " + string(c.Status)}
	}
	c.Status = CampaignActive
	return true, c.event(EventCampaignAccepted, "", actor, "", now), nil
}

// Decline clears the assignment and leaves the campaign pending.
func (c *Campaign) Decline(actor Actor, now time.Time) (Event, error) {
	if err := c.checkAssigned(actor, "decline campaigns"); err != nil {
		return Event{}, err
	}
	if c.Status != CampaignPending {
		return Event{}, StateError{Reason: "campaign " + c.ID + " is " + string(c.Status) + " and can no longer be declined"}
	}
	e := c.event(EventCampaignDeclined, "", actor, "", now)
	c.InstitutionID = nil
	return e, nil
}

// CampaignPatch lists the fields a moderator may edit. Nil fields are left
// untouched; an empty InstitutionID clears the assignment.
type CampaignPatch struct {
	Title         *string         `json:"title"`
	Description   *string         `json:"description"`
	Location      *string         `json:"location"`
	VolunteerGoal *int            `json:"volunteerGoal"`
	FundingGoal   *float64        `json:"fundingGoal"`
	EndsAt        *time.Time      `json:"endsAt"`
	InstitutionID *string         `json:"institutionId"`
	Status        *CampaignStatus `json:"status"`
}

// Edit applies a moderator patch. institution is the resolved principal for
// a non-empty patch.InstitutionID. Changing the institution of an active
// campaign always sends it back to pending.
func (c *Campaign) Edit(moderator Actor, patch CampaignPatch, institution *Principal, now time.Time) (Event, error) {
	if err := moderator.Require(RoleModerator, "edit campaigns"); err != nil {
		return Event{}, err
	}
	if campaignTransitions.terminal(c.Status) {
		return Event{}, StateError{Reason: "campaign " + c.ID + " is " + string(c.Status)}
	}

	next := *c
	if patch.Title != nil {
		next.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Location != nil {
		next.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.VolunteerGoal != nil {
		next.VolunteerGoal = *patch.VolunteerGoal
	}
	if patch.FundingGoal != nil {
		next.FundingGoal = *patch.FundingGoal
	}
	if patch.EndsAt != nil {
		next.EndsAt = patch.EndsAt
	}
	err := NewCampaignInput{
		Title:         next.Title,
		Description:   next.Description,
		Location:      next.Location,
		VolunteerGoal: next.VolunteerGoal,
		FundingGoal:   next.FundingGoal,
	}.validate()
	if err != nil {
		return Event{}, err
	}

	if patch.Status != nil && *patch.Status != c.Status {
		if err := campaignTransitions.check("campaign "+c.ID, c.Status, *patch.Status); err != nil {
			return Event{}, err
		}
		next.Status = *patch.Status
	}

	institutionChanged := false
	if patch.InstitutionID != nil {
		requested := strings.TrimSpace(*patch.InstitutionID)
		current := ""
		if c.InstitutionID != nil {
			current = *c.InstitutionID
		}
		if requested != current {
			institutionChanged = true
			if requested == "" {
				next.InstitutionID = nil
			} else {
				if institution == nil || institution.ID != requested {
					return Event{}, ValidationError{Reason: "institution does not exist"}
				}
				if err := institution.CheckDelegationTarget(); err != nil {
					return Event{}, err
				}
				next.InstitutionID = &requested
			}
		}
	}
	if institutionChanged && (c.Status == CampaignActive || next.Status == CampaignActive) {
		next.Status = CampaignPending
	}
	if next.Status == CampaignActive && c.Status == CampaignPending && next.InstitutionID != nil {
		return Event{}, StateError{Reason: "campaign " + c.ID + " is awaiting its institution's answer"}
	}

	detail := ""
	if next.Status != c.Status {
		detail = fmt.Sprintf("status %s -> %s", c.Status, next.Status)
	}
	next.VolunteerCount = c.VolunteerCount
	*c = next
	return c.event(EventCampaignEdited, "editou_campanha", moderator, detail, now), nil
}

// SetStatus is the moderator's direct status control.
func (c *Campaign) SetStatus(moderator Actor, to CampaignStatus, detail string, now time.Time) (Event, error) {
	if err := moderator.Require(RoleModerator, "change campaign status"); err != nil {
		return Event{}, err
	}
	if _, ok := campaignTransitions[to]; !ok {
		return Event{}, ValidationError{Reason: "unknown campaign status " + string(to)}
	}
	if err := campaignTransitions.check("campaign "+c.ID, c.Status, to); err != nil {
		return Event{}, err
	}
	if to == CampaignActive && c.Status == CampaignPending && c.InstitutionID != nil {
		return Event{}, StateError{Reason: "campaign " + c.ID + " is awaiting its institution's answer"}
	}
	c.Status = to
	return c.event(EventCampaignStatusChanged, campaignStatusActions[to], moderator, detail, now), nil
}

func (c *Campaign) requireActive() error {
	if c.Status != CampaignActive {
		return StateError{Reason: "campaign " + c.ID + " is " + string(c.Status) + " and does not take contributions"}
	}
	return nil
}

// Pledge records a monetary pledge. Raised only ever grows here.
func (c *Campaign) Pledge(actor Actor, amount float64, now time.Time) (Event, error) {
	if actor.ID == "" {
		return Event{}, PermissionError{Reason: "anonymous actor cannot pledge"}
	}
	if amount <= 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return Event{}, ValidationError{Reason: "pledge amount must be positive"}
	}
	if err := c.requireActive(); err != nil {
		return Event{}, err
	}
	c.Raised += amount
	return c.event(EventCampaignPledged, "", actor, fmt.Sprintf("R$%.2f", amount), now), nil
}

// CampaignVolunteer enrols a principal in a campaign.
type CampaignVolunteer struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaignId"`
	PrincipalID string    `json:"principalId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Volunteer enrols actor; enrolled reports an existing enrolment.
func (c *Campaign) Volunteer(id string, actor Actor, enrolled bool, now time.Time) (CampaignVolunteer, Event, error) {
	if actor.ID == "" {
		return CampaignVolunteer{}, Event{}, PermissionError{Reason: "anonymous actor cannot volunteer"}
	}
	if err := c.requireActive(); err != nil {
		return CampaignVolunteer{}, Event{}, err
	}
	if enrolled {
		return CampaignVolunteer{}, Event{}, ConflictError{Reason: "already volunteering for campaign " + c.ID}
	}
	c.VolunteerCount++
	v := CampaignVolunteer{ID: id, CampaignID: c.ID, PrincipalID: actor.ID, CreatedAt: now}
	return v, c.event(EventCampaignVolunteered, "", actor, "", now), nil
}

// CampaignItemPledge is a pledge of goods to a campaign.
type CampaignItemPledge struct {
	ID           string    `json:"id"`
	CampaignID   string    `json:"campaignId"`
	PrincipalID  string    `json:"principalId"`
	Baskets      int       `json:"baskets"`
	HygieneKits  int       `json:"hygieneKits"`
	Water        int       `json:"water"`
	ChildDiapers int       `json:"childDiapers"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ItemPledgeInput struct {
	Baskets      int `json:"baskets"`
	HygieneKits  int `json:"hygieneKits"`
	Water        int `json:"water"`
	ChildDiapers int `json:"childDiapers"`
}

func (c *Campaign) PledgeItems(id string, actor Actor, in ItemPledgeInput, now time.Time) (CampaignItemPledge, Event, error) {
	if actor.ID == "" {
		return CampaignItemPledge{}, Event{}, PermissionError{Reason: "anonymous actor cannot pledge"}
	}
	if in.Baskets < 0 || in.HygieneKits < 0 || in.Water < 0 || in.ChildDiapers < 0 {
		return CampaignItemPledge{}, Event{}, ValidationError{Reason: "item quantities cannot be negative"}
	}
	if in.Baskets+in.HygieneKits+in.Water+in.ChildDiapers == 0 {
		return CampaignItemPledge{}, Event{}, ValidationError{Reason: "pledge at least one item"}
	}
	if err := c.requireActive(); err != nil {
		return CampaignItemPledge{}, Event{}, err
	}
	p := CampaignItemPledge{
		ID:           id,
		CampaignID:   c.ID,
		PrincipalID:  actor.ID,
		Baskets:      in.Baskets,
		HygieneKits:  in.HygieneKits,
		Water:        in.Water,
		ChildDiapers: in.ChildDiapers,
		CreatedAt:    now,
	}
	detail := fmt.Sprintf("%d cestas, %d higiene, %d agua, %d fraldas", in.Baskets, in.HygieneKits, in.Water, in.ChildDiapers)
	return p, c.event(EventCampaignPledged, "", actor, detail, now), nil
}
