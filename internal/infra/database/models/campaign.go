package models

import (
	"time"
)

type Campaign struct {
	ID            string     `json:"id" gorm:"primaryKey;type:text"`
	Title         string     `json:"title" gorm:"type:text;not null"`
	Description   string     `json:"description" gorm:"type:text;not null"`
	Location      string     `json:"location" gorm:"type:text"`
	VolunteerGoal int        `json:"volunteerGoal" gorm:"not null;default:0"`
	FundingGoal   float64    `json:"fundingGoal" gorm:"type:numeric(12,2);not null"`
	Raised        float64    `json:"raised" gorm:"type:numeric(12,2);not null;default:0"`
	Status        string     `json:"status" gorm:"type:text;not null;index"`
	RequesterID   *string    `json:"requesterId" gorm:"type:text"`
	InstitutionID *string    `json:"institutionId" gorm:"type:text;index"`
	EndsAt        *time.Time `json:"endsAt" gorm:"type:timestamp with time zone"`
	CDate         time.Time  `json:"cdate" gorm:"type:timestamp with time zone;not null"`
}

type CampaignVolunteer struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	CampaignID  string    `json:"campaignId" gorm:"type:text;not null;uniqueIndex:uniq_campaign_volunteer"`
	Campaign    Campaign  `json:"-" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE;"`
	PrincipalID string    `json:"principalId" gorm:"type:text;not null;uniqueIndex:uniq_campaign_volunteer"`
	CDate       time.Time `json:"cdate" gorm:"type:timestamp with time zone;not null"`
}

type CampaignItemPledge struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text"`
	CampaignID   string    `json:"campaignId" gorm:"type:text;not null;index"`
	Campaign     Campaign  `json:"-" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE;"`
	PrincipalID  string    `json:"principalId" gorm:"type:text;not null"`
	Baskets      int       `json:"baskets" gorm:"not null;default:0"`
	HygieneKits  int       `json:"hygieneKits" gorm:"not null;default:0"`
	Water        int       `json:"water" gorm:"not null;default:0"`
	ChildDiapers int       `json:"childDiapers" gorm:"not null;default:0"`
	CDate        time.Time `json:"cdate" gorm:"type:timestamp with time zone;not null"`
}
