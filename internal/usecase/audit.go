package usecase

import (
	"context"

	"github.com/soscomida/soscomida/internal/domain"
)

type AuditUsecase struct {
	repo AuditRepository
}

func NewAuditUsecase(repo AuditRepository) *AuditUsecase {
	return &AuditUsecase{repo: repo}
}

// List returns the most recent audit entries matching filter, newest first.
func (uc *AuditUsecase) List(ctx context.Context, actor domain.Actor, filter domain.AuditFilter) ([]domain.AuditLogEntry, error) {
	ctx, span := tracer.Start(ctx, "Audit.Usecase.List")
	defer span.End()

	if err := actor.Require(domain.RoleModerator, "read the audit log"); err != nil {
		return nil, err
	}
	filter.Limit = domain.ClampLimit(filter.Limit)
	return uc.repo.List(ctx, filter)
}

// Stats summarizes one moderator's actions. An empty id means the caller.
func (uc *AuditUsecase) Stats(ctx context.Context, actor domain.Actor, moderatorID string) (domain.ModeratorStats, error) {
	ctx, span := tracer.Start(ctx, "Audit.Usecase.Stats")
	defer span.End()

	if err := actor.Require(domain.RoleModerator, "read moderator stats"); err != nil {
		return domain.ModeratorStats{}, err
	}
	if moderatorID == "" {
		moderatorID = actor.ID
	}
	return uc.repo.Stats(ctx, moderatorID)
}
