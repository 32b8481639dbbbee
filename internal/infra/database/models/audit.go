package models

import (
	"time"
)

// AuditLog is append-only.
type AuditLog struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	ModeratorID string    `json:"moderatorId" gorm:"type:text;not null;index"`
	Action      string    `json:"action" gorm:"type:text;not null"`
	ItemType    string    `json:"itemType" gorm:"type:text;not null;index"`
	ItemID      string    `json:"itemId" gorm:"type:text;not null"`
	ItemName    string    `json:"itemName" gorm:"type:text"`
	Detail      string    `json:"detail" gorm:"type:text"`
	Origin      string    `json:"origin" gorm:"type:text"`
	CDate       time.Time `json:"cdate" gorm:"type:timestamp with time zone;not null;index"`
}
