package models

import (
	"time"
)

type VolunteerReport struct {
	ID             string     `json:"id" gorm:"primaryKey;type:text"`
	ReporterID     string     `json:"reporterId" gorm:"type:text;not null;index"`
	ReportedID     string     `json:"reportedId" gorm:"type:text;not null;index"`
	CampaignID     string     `json:"campaignId" gorm:"type:text;not null;index"`
	Campaign       Campaign   `json:"-" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:RESTRICT;"`
	Reason         string     `json:"reason" gorm:"type:varchar(50);not null"`
	Description    string     `json:"description" gorm:"type:text;not null"`
	Status         string     `json:"status" gorm:"type:text;not null;index"`
	ModeratorID    *string    `json:"moderatorId" gorm:"type:text"`
	ModeratorNotes string     `json:"moderatorNotes" gorm:"type:text"`
	ActionTaken    string     `json:"actionTaken" gorm:"type:text"`
	CDate          time.Time  `json:"cdate" gorm:"type:timestamp with time zone;not null"`
	ResolvedAt     *time.Time `json:"resolvedAt" gorm:"type:timestamp with time zone"`
}

// Sanction rows are never deleted; a report is sanctioned at most once.
type Sanction struct {
	ID             string          `json:"id" gorm:"primaryKey;type:text"`
	PrincipalID    string          `json:"principalId" gorm:"type:text;not null;index"`
	ModeratorID    string          `json:"moderatorId" gorm:"type:text;not null"`
	ReportID       string          `json:"reportId" gorm:"type:text;not null;uniqueIndex"`
	Report         VolunteerReport `json:"-" gorm:"foreignKey:ReportID;references:ID;constraint:OnDelete:RESTRICT;"`
	Kind           string          `json:"kind" gorm:"type:text;not null"`
	Message        string          `json:"message" gorm:"type:text;not null"`
	Reason         string          `json:"reason" gorm:"type:text"`
	SuspendedFrom  *time.Time      `json:"suspendedFrom" gorm:"type:timestamp with time zone"`
	SuspendedUntil *time.Time      `json:"suspendedUntil" gorm:"type:timestamp with time zone"`
	Seen           bool            `json:"seen" gorm:"not null;default:false"`
	SeenAt         *time.Time      `json:"seenAt" gorm:"type:timestamp with time zone"`
	CDate          time.Time       `json:"cdate" gorm:"type:timestamp with time zone;not null;index"`
}
