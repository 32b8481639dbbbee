package domain

import "time"

// AuditLogEntry is an immutable record of a moderator action.
type AuditLogEntry struct {
	ID          string    `json:"id"`
	ModeratorID string    `json:"moderatorId"`
	Action      string    `json:"action"`
	ItemType    string    `json:"itemType"`
	ItemID      string    `json:"itemId"`
	ItemName    string    `json:"itemName,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	Origin      string    `json:"origin,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewAuditLogEntry derives the log entry for an audited event.
func NewAuditLogEntry(id string, e Event) AuditLogEntry {
	return AuditLogEntry{
		ID:          id,
		ModeratorID: e.ActorID,
		Action:      e.Action,
		ItemType:    e.ItemType,
		ItemID:      e.ItemID,
		ItemName:    e.ItemName,
		Detail:      e.Detail,
		Origin:      e.Origin,
		CreatedAt:   e.OccurredAt,
	}
}

// AuditFilter selects audit entries; empty fields match everything.
type AuditFilter struct {
	ModeratorID string
	ItemType    string
	Limit       int
}

// ModeratorStats summarizes a moderator's logged actions.
type ModeratorStats struct {
	ModeratorID string `json:"moderatorId"`
	Total       int64  `json:"total"`
	Approvals   int64  `json:"approvals"`
	Rejections  int64  `json:"rejections"`
	Delegations int64  `json:"delegations"`
}
