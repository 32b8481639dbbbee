package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/soscomida/soscomida/internal/domain"
	"github.com/soscomida/soscomida/internal/infra/database/models"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	m := models.AuditLog{
		ID:          entry.ID,
		ModeratorID: entry.ModeratorID,
		Action:      entry.Action,
		ItemType:    entry.ItemType,
		ItemID:      entry.ItemID,
		ItemName:    entry.ItemName,
		Detail:      entry.Detail,
		Origin:      entry.Origin,
		CDate:       entry.CreatedAt,
	}
	return translate(r.db.WithContext(ctx).Create(&m).Error, "audit log entry")
}

func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLogEntry, error) {
	ctx, span := tracer.Start(ctx, "Repository.Audit.List")
	defer span.End()

	q := r.db.WithContext(ctx)
	if filter.ModeratorID != "" {
		q = q.Where("moderator_id = ?", filter.ModeratorID)
	}
	if filter.ItemType != "" {
		q = q.Where("item_type = ?", filter.ItemType)
	}

	var rows []models.AuditLog
	err := q.Order("c_date DESC").Limit(domain.ClampLimit(filter.Limit)).Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, translate(err, "audit log")
	}
	return mapSlice(rows, auditFromModel), nil
}

// Stats buckets actions by verb prefix: aprovou_, rejeitou_ and delegou_.
func (r *AuditRepository) Stats(ctx context.Context, moderatorID string) (domain.ModeratorStats, error) {
	var out struct {
		Total       int64
		Approvals   int64
		Rejections  int64
		Delegations int64
	}
	err := r.db.WithContext(ctx).Model(&models.AuditLog{}).
		Select(`COUNT(*) AS total,
			COUNT(*) FILTER (WHERE action LIKE 'aprovou%') AS approvals,
			COUNT(*) FILTER (WHERE action LIKE 'rejeitou%') AS rejections,
			COUNT(*) FILTER (WHERE action LIKE 'delegou%') AS delegations`).
		Where("moderator_id = ?", moderatorID).
		Scan(&out).Error
	if err != nil {
		return domain.ModeratorStats{}, translate(err, "moderator stats")
	}
	return domain.ModeratorStats{
		ModeratorID: moderatorID,
		Total:       out.Total,
		Approvals:   out.Approvals,
		Rejections:  out.Rejections,
		Delegations: out.Delegations,
	}, nil
}
