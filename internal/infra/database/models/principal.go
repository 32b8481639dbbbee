package models

import (
	"time"
)

// Principal mirrors the accounts owned by the identity provider.
type Principal struct {
	ID              string    `json:"id" gorm:"primaryKey;type:text"`
	Name            string    `json:"name" gorm:"type:text;not null"`
	Email           string    `json:"email" gorm:"type:text;uniqueIndex"`
	Role            string    `json:"role" gorm:"type:text;not null;index"`
	ApprovalStatus  string    `json:"approvalStatus" gorm:"type:text;not null;default:'pendente'"`
	InstitutionName string    `json:"institutionName" gorm:"type:text"`
	CDate           time.Time `json:"cdate" gorm:"type:timestamp with time zone;not null"`
}
