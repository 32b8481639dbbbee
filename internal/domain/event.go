package domain

import "time"

// EventType names a committed state change.
type EventType string

const (
	EventRequestCreated        EventType = "RequestCreated"
	EventRequestApproved       EventType = "RequestApproved"
	EventRequestRejected       EventType = "RequestRejected"
	EventRequestCancelled      EventType = "RequestCancelled"
	EventDelegationCreated     EventType = "DelegationCreated"
	EventDelegationAccepted    EventType = "DelegationAccepted"
	EventDelegationDeclined    EventType = "DelegationDeclined"
	EventDeliveryReported      EventType = "DeliveryReported"
	EventCampaignCreated       EventType = "CampaignCreated"
	EventCampaignDelegated     EventType = "CampaignDelegated"
	EventCampaignAccepted      EventType = "CampaignAccepted"
	EventCampaignDeclined      EventType = "CampaignDeclined"
	EventCampaignEdited        EventType = "CampaignEdited"
	EventCampaignStatusChanged EventType = "CampaignStatusChanged"
	EventCampaignVolunteered   EventType = "CampaignVolunteered"
	EventCampaignPledged       EventType = "CampaignPledged"
	EventVolunteerReported     EventType = "VolunteerReported"
	EventSanctionApplied       EventType = "SanctionApplied"
)

// Event is emitted by the core for every committed state change and is
// delivered to sinks only after the transaction commits.
type Event struct {
	Type      EventType `json:"type"`
	Action    string    `json:"action,omitempty"`
	ActorID   string    `json:"actorId"`
	ActorRole Role      `json:"actorRole"`
	Origin    string    `json:"origin,omitempty"`
	ItemType  string    `json:"itemType"`
	ItemID    string    `json:"itemId"`
	ItemName  string    `json:"itemName,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Status    string    `json:"status,omitempty"`
	// InstitutionID is set on events that concern an institution's work.
	InstitutionID string    `json:"institutionId,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Audited reports whether the event belongs in the moderator audit log.
func (e Event) Audited() bool {
	return e.ActorRole == RoleModerator && e.Action != ""
}
