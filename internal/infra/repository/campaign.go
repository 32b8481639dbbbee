package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/soscomida/soscomida/internal/domain"
	"github.com/soscomida/soscomida/internal/infra/database/models"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

type campaignRow struct {
	models.Campaign
	VolunteerCount int
}

func (r *CampaignRepository) withCounts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Select("campaigns.*, (SELECT COUNT(*) FROM campaign_volunteers v WHERE v.campaign_id = campaigns.id) AS volunteer_count")
}

func (r *CampaignRepository) GetCampaign(ctx context.Context, id string) (domain.Campaign, error) {
	var row campaignRow
	if err := r.withCounts(ctx).Where("campaigns.id = ?", id).Take(&row).Error; err != nil {
		return domain.Campaign{}, translate(err, "campaign")
	}
	c := campaignFromModel(row.Campaign)
	c.VolunteerCount = row.VolunteerCount
	return c, nil
}

func (r *CampaignRepository) ListCampaignsByStatus(ctx context.Context, status domain.CampaignStatus) ([]domain.Campaign, error) {
	var rows []campaignRow
	err := r.withCounts(ctx).
		Where("campaigns.status = ?", string(status)).
		Order("campaigns.c_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "campaigns")
	}
	return mapSlice(rows, func(row campaignRow) domain.Campaign {
		c := campaignFromModel(row.Campaign)
		c.VolunteerCount = row.VolunteerCount
		return c
	}), nil
}
