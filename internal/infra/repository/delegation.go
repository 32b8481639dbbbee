package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/soscomida/soscomida/internal/domain"
	"github.com/soscomida/soscomida/internal/infra/database/models"
)

type DelegationRepository struct {
	db *gorm.DB
}

func NewDelegationRepository(db *gorm.DB) *DelegationRepository {
	return &DelegationRepository{db: db}
}

func (r *DelegationRepository) GetDelegation(ctx context.Context, id string) (domain.Delegation, error) {
	var m models.Delegation
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return domain.Delegation{}, translate(err, "delegation")
	}
	return delegationFromModel(m)
}

func (r *DelegationRepository) ListDelegationsByInstitution(ctx context.Context, institutionID string, status *domain.DelegationStatus) ([]domain.Delegation, error) {
	ctx, span := tracer.Start(ctx, "Repository.Delegation.ListByInstitution")
	defer span.End()

	q := r.db.WithContext(ctx).Where("institution_id = ?", institutionID)
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}

	var rows []models.Delegation
	if err := q.Order("c_date DESC").Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, translate(err, "delegations")
	}

	out := make([]domain.Delegation, 0, len(rows))
	for _, row := range rows {
		d, err := delegationFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
