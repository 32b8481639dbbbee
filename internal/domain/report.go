package domain

import (
	"strings"
	"time"
)

type ReportStatus string

const (
	ReportPending  ReportStatus = "pendente"
	ReportResolved ReportStatus = "resolvida"
)

type SanctionKind string

const (
	SanctionWarning    SanctionKind = "advertencia"
	SanctionSuspension SanctionKind = "suspensao"
	SanctionRevocation SanctionKind = "revogacao"
)

func (k SanctionKind) valid() bool {
	switch k {
	case SanctionWarning, SanctionSuspension, SanctionRevocation:
		return true
	}
	return false
}

const (
	ItemTypeReport   = "denuncia"
	ItemTypeSanction = "advertencia"

	maxReportReason  = 50
	maxSuspensionDay = 365
)

// VolunteerReport is a complaint about a fellow volunteer of a campaign.
// It is resolved exactly once, by a moderator applying a sanction.
type VolunteerReport struct {
	ID             string       `json:"id"`
	ReporterID     string       `json:"reporterId"`
	ReportedID     string       `json:"reportedId"`
	CampaignID     string       `json:"campaignId"`
	Reason         string       `json:"reason"`
	Description    string       `json:"description"`
	Status         ReportStatus `json:"status"`
	ModeratorID    *string      `json:"moderatorId,omitempty"`
	ModeratorNotes string       `json:"moderatorNotes,omitempty"`
	ActionTaken    SanctionKind `json:"actionTaken,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	ResolvedAt     *time.Time   `json:"resolvedAt,omitempty"`
}

type ReportInput struct {
	ReportedID  string `json:"reportedId"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

// NewVolunteerReport files a report against a volunteer of campaign c.
// enrolled tells whether in.ReportedID volunteers for c.
func NewVolunteerReport(id string, reporter Actor, c Campaign, in ReportInput, enrolled bool, now time.Time) (VolunteerReport, Event, error) {
	if reporter.ID == "" {
		return VolunteerReport{}, Event{}, PermissionError{Reason: "anonymous actor cannot report volunteers"}
	}
	reported := strings.TrimSpace(in.ReportedID)
	reason := strings.TrimSpace(in.Reason)
	description := strings.TrimSpace(in.Description)
	switch {
	case reported == "":
		return VolunteerReport{}, Event{}, ValidationError{Reason: "reported volunteer is required"}
	case reported == reporter.ID:
		return VolunteerReport{}, Event{}, ValidationError{Reason: "cannot report yourself"}
	case reason == "":
		return VolunteerReport{}, Event{}, ValidationError{Reason: "reason is required"}
	case len([]rune(reason)) > maxReportReason:
		return VolunteerReport{}, Event{}, ValidationError{Reason: "reason is too long"}
	case description == "":
		return VolunteerReport{}, Event{}, ValidationError{Reason: "description is required"}
	}
	if !enrolled {
		return VolunteerReport{}, Event{}, ValidationError{Reason: "principal " + reported + " does not volunteer for campaign " + c.ID}
	}

	r := VolunteerReport{
		ID:          id,
		ReporterID:  reporter.ID,
		ReportedID:  reported,
		CampaignID:  c.ID,
		Reason:      reason,
		Description: description,
		Status:      ReportPending,
		CreatedAt:   now,
	}
	e := Event{
		Type:       EventVolunteerReported,
		ActorID:    reporter.ID,
		ActorRole:  reporter.Role,
		Origin:     reporter.Origin,
		ItemType:   ItemTypeReport,
		ItemID:     r.ID,
		ItemName:   c.Title,
		Detail:     reason,
		Status:     string(r.Status),
		OccurredAt: now,
	}
	return r, e, nil
}

// Sanction is the measure a moderator applied to a reported principal.
// Enforcing suspensions and revocations belongs to the identity provider;
// the sanction is the record it acts on.
type Sanction struct {
	ID             string       `json:"id"`
	PrincipalID    string       `json:"principalId"`
	ModeratorID    string       `json:"moderatorId"`
	ReportID       string       `json:"reportId"`
	Kind           SanctionKind `json:"kind"`
	Message        string       `json:"message"`
	Reason         string       `json:"reason"`
	SuspendedFrom  *time.Time   `json:"suspendedFrom,omitempty"`
	SuspendedUntil *time.Time   `json:"suspendedUntil,omitempty"`
	Seen           bool         `json:"seen"`
	SeenAt         *time.Time   `json:"seenAt,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// Suspended reports whether the sanction suspends its principal at t.
func (s Sanction) Suspended(t time.Time) bool {
	if s.Kind != SanctionSuspension || s.SuspendedFrom == nil || s.SuspendedUntil == nil {
		return false
	}
	return !t.Before(*s.SuspendedFrom) && t.Before(*s.SuspendedUntil)
}

type SanctionInput struct {
	Kind           SanctionKind `json:"kind"`
	Message        string       `json:"message"`
	SuspensionDays int          `json:"suspensionDays"`
}

// Resolve closes the report with a sanction against the reported principal.
func (r *VolunteerReport) Resolve(sanctionID string, moderator Actor, reported Principal, in SanctionInput, now time.Time) (Sanction, Event, error) {
	if err := moderator.Require(RoleModerator, "apply sanctions"); err != nil {
		return Sanction{}, Event{}, err
	}
	if r.Status != ReportPending {
		return Sanction{}, Event{}, StateError{Reason: "report " + r.ID + " is already " + string(r.Status)}
	}
	if !in.Kind.valid() {
		return Sanction{}, Event{}, ValidationError{Reason: "unknown sanction kind " + string(in.Kind)}
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return Sanction{}, Event{}, ValidationError{Reason: "message is required"}
	}
	if reported.ID != r.ReportedID {
		return Sanction{}, Event{}, StateError{Reason: "principal " + reported.ID + " is not the subject of report " + r.ID}
	}

	s := Sanction{
		ID:          sanctionID,
		PrincipalID: r.ReportedID,
		ModeratorID: moderator.ID,
		ReportID:    r.ID,
		Kind:        in.Kind,
		Message:     message,
		Reason:      r.Reason,
		CreatedAt:   now,
	}
	if in.Kind == SanctionSuspension {
		if in.SuspensionDays <= 0 || in.SuspensionDays > maxSuspensionDay {
			return Sanction{}, Event{}, ValidationError{Reason: "suspension days must be between 1 and 365"}
		}
		from, until := now, now.AddDate(0, 0, in.SuspensionDays)
		s.SuspendedFrom, s.SuspendedUntil = &from, &until
	}

	mod := moderator.ID
	r.Status = ReportResolved
	r.ModeratorID = &mod
	r.ModeratorNotes = message
	r.ActionTaken = in.Kind
	r.ResolvedAt = &now

	e := Event{
		Type:       EventSanctionApplied,
		Action:     "aplicou_" + string(in.Kind),
		ActorID:    moderator.ID,
		ActorRole:  moderator.Role,
		Origin:     moderator.Origin,
		ItemType:   ItemTypeSanction,
		ItemID:     s.ID,
		ItemName:   "Advertência para " + reported.Name,
		Detail:     message,
		Status:     string(in.Kind),
		OccurredAt: now,
	}
	return s, e, nil
}

// MarkSeen acknowledges the sanction. Only its principal may do so and
// repeating it keeps the first timestamp.
func (s *Sanction) MarkSeen(actor Actor, now time.Time) (changed bool, err error) {
	if actor.ID == "" {
		return false, PermissionError{Reason: "anonymous actor cannot acknowledge sanctions"}
	}
	if actor.ID != s.PrincipalID {
		return false, PermissionError{Reason: "sanction " + s.ID + " belongs to another principal"}
	}
	if s.Seen {
		return false, nil
	}
	s.Seen = true
	s.SeenAt = &now
	return true, nil
}
