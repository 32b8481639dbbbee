package models

import (
	"time"
)

type DonationRequest struct {
	ID               string     `json:"id" gorm:"primaryKey;type:text"`
	OwnerID          string     `json:"ownerId" gorm:"type:text;not null;index"`
	Owner            Principal  `json:"-" gorm:"foreignKey:OwnerID;references:ID;constraint:OnDelete:CASCADE;"`
	Kind             string     `json:"kind" gorm:"type:text;not null"`
	DonorName        string     `json:"donorName" gorm:"type:text;not null"`
	Phone            string     `json:"phone" gorm:"type:text"`
	Address          string     `json:"address" gorm:"type:text"`
	ReceiptRequestID *string    `json:"receiptRequestId" gorm:"type:text;index"`
	DeliveryPlace    string     `json:"deliveryPlace" gorm:"type:text"`
	DeliveryDate     *time.Time `json:"deliveryDate" gorm:"type:timestamp with time zone"`
	Value            float64    `json:"value" gorm:"type:numeric(12,2);not null;default:0"`
	Status           string     `json:"status" gorm:"type:text;not null;index"`
	CDate            time.Time  `json:"cdate" gorm:"type:timestamp with time zone;not null"`
}

type ReceiptRequest struct {
	ID               string     `json:"id" gorm:"primaryKey;type:text"`
	OwnerID          string     `json:"ownerId" gorm:"type:text;not null;index"`
	Owner            Principal  `json:"-" gorm:"foreignKey:OwnerID;references:ID;constraint:OnDelete:CASCADE;"`
	Name             string     `json:"name" gorm:"type:text;not null"`
	Phone            string     `json:"phone" gorm:"type:text"`
	Address          string     `json:"address" gorm:"type:text"`
	HouseholdSize    int        `json:"householdSize" gorm:"not null"`
	Needs            string     `json:"needs" gorm:"type:text"`
	Baskets          int        `json:"baskets" gorm:"not null;default:0"`
	HygieneKits      int        `json:"hygieneKits" gorm:"not null;default:0"`
	Pads             int        `json:"pads" gorm:"not null;default:0"`
	ChildDiapers     int        `json:"childDiapers" gorm:"not null;default:0"`
	ElderlyDiapers   int        `json:"elderlyDiapers" gorm:"not null;default:0"`
	PixKeyType       string     `json:"pixKeyType" gorm:"type:text"`
	PixKey           string     `json:"pixKey" gorm:"type:text"`
	BasketsDelivered int        `json:"basketsDelivered" gorm:"not null;default:0"`
	FoodKgDelivered  float64    `json:"foodKgDelivered" gorm:"type:numeric(12,2);not null;default:0"`
	ValueDelivered   float64    `json:"valueDelivered" gorm:"type:numeric(12,2);not null;default:0"`
	DeliveredAt      *time.Time `json:"deliveredAt" gorm:"type:timestamp with time zone"`
	Status           string     `json:"status" gorm:"type:text;not null;index"`
	CDate            time.Time  `json:"cdate" gorm:"type:timestamp with time zone;not null"`
}
