package models

import (
	"time"
)

// Delegation references exactly one request; the check constraint rejects
// rows with zero or two targets. Delegations are never deleted, so the rows
// they reference cannot be either.
type Delegation struct {
	ID                string           `json:"id" gorm:"primaryKey;type:text"`
	ModeratorID       string           `json:"moderatorId" gorm:"type:text;not null"`
	InstitutionID     string           `json:"institutionId" gorm:"type:text;not null;index"`
	Institution       Principal        `json:"-" gorm:"foreignKey:InstitutionID;references:ID;constraint:OnDelete:RESTRICT;"`
	DonationRequestID *string          `json:"donationRequestId" gorm:"type:text;check:delegation_single_target,(donation_request_id IS NULL) <> (receipt_request_id IS NULL)"`
	DonationRequest   *DonationRequest `json:"-" gorm:"foreignKey:DonationRequestID;references:ID;constraint:OnDelete:RESTRICT;"`
	ReceiptRequestID  *string          `json:"receiptRequestId" gorm:"type:text"`
	ReceiptRequest    *ReceiptRequest  `json:"-" gorm:"foreignKey:ReceiptRequestID;references:ID;constraint:OnDelete:RESTRICT;"`
	Status            string           `json:"status" gorm:"type:text;not null;index"`
	CDate             time.Time        `json:"cdate" gorm:"type:timestamp with time zone;not null"`
}
