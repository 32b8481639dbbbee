package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/soscomida/soscomida/internal/domain"
	"github.com/soscomida/soscomida/internal/usecase"
)

// AuditSink appends moderator actions to the audit log.
type AuditSink struct {
	repo  usecase.AuditRepository
	newID func() string
}

func NewAuditSink(repo usecase.AuditRepository) *AuditSink {
	return &AuditSink{repo: repo, newID: uuid.NewString}
}

func (s *AuditSink) Name() string { return "audit" }

func (s *AuditSink) Handle(ctx context.Context, event domain.Event) error {
	if !event.Audited() {
		return nil
	}
	return s.repo.Append(ctx, domain.NewAuditLogEntry(s.newID(), event))
}

// ImpactSink drops cached impact totals once a delivery lands.
type ImpactSink struct {
	stats usecase.StatsRepository
}

func NewImpactSink(stats usecase.StatsRepository) *ImpactSink {
	return &ImpactSink{stats: stats}
}

func (s *ImpactSink) Name() string { return "impact" }

func (s *ImpactSink) Handle(ctx context.Context, event domain.Event) error {
	if event.Type != domain.EventDeliveryReported || event.InstitutionID == "" {
		return nil
	}
	return s.stats.InvalidateInstitution(ctx, event.InstitutionID)
}
