package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/soscomida/soscomida/internal/domain"
	"github.com/soscomida/soscomida/internal/infra/database/models"
)

// PrincipalRepository reads accounts; they are written by the identity
// provider, never by this service.
type PrincipalRepository struct {
	db *gorm.DB
}

func NewPrincipalRepository(db *gorm.DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

func (r *PrincipalRepository) Get(ctx context.Context, id string) (domain.Principal, error) {
	var m models.Principal
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return domain.Principal{}, translate(err, "principal")
	}
	return principalFromModel(m), nil
}

func (r *PrincipalRepository) ListApprovedInstitutions(ctx context.Context) ([]domain.Principal, error) {
	var rows []models.Principal
	err := r.db.WithContext(ctx).
		Where("role = ? AND approval_status = ?", string(domain.RoleInstitution), string(domain.ApprovalApproved)).
		Order("institution_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "institutions")
	}
	return mapSlice(rows, principalFromModel), nil
}
