package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/soscomida/soscomida/internal/domain"
	"github.com/soscomida/soscomida/internal/infra/database/models"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) ListReportsByStatus(ctx context.Context, status domain.ReportStatus, limit int) ([]domain.VolunteerReport, error) {
	var rows []models.VolunteerReport
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("c_date DESC").
		Limit(domain.ClampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "volunteer reports")
	}
	return mapSlice(rows, reportFromModel), nil
}

func (r *ReportRepository) ListSanctions(ctx context.Context, limit int) ([]domain.Sanction, error) {
	var rows []models.Sanction
	err := r.db.WithContext(ctx).
		Order("c_date DESC").
		Limit(domain.ClampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "sanctions")
	}
	return mapSlice(rows, sanctionFromModel), nil
}

func (r *ReportRepository) ListSanctionsByPrincipal(ctx context.Context, principalID string) ([]domain.Sanction, error) {
	var rows []models.Sanction
	err := r.db.WithContext(ctx).
		Where("principal_id = ?", principalID).
		Order("c_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "sanctions")
	}
	return mapSlice(rows, sanctionFromModel), nil
}
