package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/soscomida/soscomida/internal/domain"
	"github.com/soscomida/soscomida/internal/infra/database/models"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) ListDonationsByOwner(ctx context.Context, ownerID string) ([]domain.DonationRequest, error) {
	var rows []models.DonationRequest
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("c_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "donation requests")
	}
	return mapSlice(rows, donationFromModel), nil
}

func (r *RequestRepository) ListReceiptsByOwner(ctx context.Context, ownerID string) ([]domain.ReceiptRequest, error) {
	var rows []models.ReceiptRequest
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("c_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "receipt requests")
	}
	return mapSlice(rows, receiptFromModel), nil
}

func (r *RequestRepository) ListDonationsByStatus(ctx context.Context, status domain.RequestStatus, limit int) ([]domain.DonationRequest, error) {
	var rows []models.DonationRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("c_date DESC").
		Limit(domain.ClampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "donation requests")
	}
	return mapSlice(rows, donationFromModel), nil
}

func (r *RequestRepository) ListReceiptsByStatus(ctx context.Context, status domain.RequestStatus, limit int) ([]domain.ReceiptRequest, error) {
	var rows []models.ReceiptRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("c_date DESC").
		Limit(domain.ClampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "receipt requests")
	}
	return mapSlice(rows, receiptFromModel), nil
}

func mapSlice[M any, D any](rows []M, conv func(M) D) []D {
	out := make([]D, 0, len(rows))
	for _, row := range rows {
		out = append(out, conv(row))
	}
	return out
}
