package usecase

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/soscomida/soscomida/internal/domain"
)

// ReportUsecase handles volunteer reports and the sanctions moderators apply
// when resolving them.
type ReportUsecase struct {
	store  Store
	reader ReportReader
	events EventPublisher
	env
}

func NewReportUsecase(store Store, reader ReportReader, events EventPublisher) *ReportUsecase {
	return &ReportUsecase{
		store:  store,
		reader: reader,
		events: events,
		env:    defaultEnv(),
	}
}

// ReportVolunteer files a report against a volunteer of the campaign.
func (uc *ReportUsecase) ReportVolunteer(ctx context.Context, actor domain.Actor, campaignID string, input domain.ReportInput) (domain.VolunteerReport, error) {
	ctx, span := tracer.Start(ctx, "Report.Usecase.ReportVolunteer")
	defer span.End()
	span.SetAttributes(attribute.String("campaign.id", campaignID))

	if campaignID == "" {
		return domain.VolunteerReport{}, domain.ValidationError{Reason: "campaign id is required"}
	}

	var (
		report domain.VolunteerReport
		event  domain.Event
	)
	err := uc.store.Atomic(ctx, func(tx Tx) error {
		c, err := tx.LockCampaign(ctx, campaignID)
		if err != nil {
			return err
		}
		enrolled, err := tx.HasVolunteer(ctx, c.ID, input.ReportedID)
		if err != nil {
			return err
		}
		report, event, err = domain.NewVolunteerReport(uc.newID(), actor, c, input, enrolled, uc.now())
		if err != nil {
			return err
		}
		return tx.CreateReport(ctx, report)
	})
	if err != nil {
		span.RecordError(err)
		return domain.VolunteerReport{}, err
	}

	uc.events.Publish(ctx, event)
	return report, nil
}

// Resolve applies a sanction and closes the report in one step.
func (uc *ReportUsecase) Resolve(ctx context.Context, actor domain.Actor, reportID string, input domain.SanctionInput) (domain.Sanction, error) {
	ctx, span := tracer.Start(ctx, "Report.Usecase.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("report.id", reportID))

	if err := actor.Require(domain.RoleModerator, "apply sanctions"); err != nil {
		span.RecordError(err)
		return domain.Sanction{}, err
	}
	if reportID == "" {
		return domain.Sanction{}, domain.ValidationError{Reason: "report id is required"}
	}

	var (
		sanction domain.Sanction
		event    domain.Event
	)
	err := uc.store.Atomic(ctx, func(tx Tx) error {
		r, err := tx.LockReport(ctx, reportID)
		if err != nil {
			return err
		}
		reported, err := tx.GetPrincipal(ctx, r.ReportedID)
		if err != nil {
			return err
		}
		sanction, event, err = r.Resolve(uc.newID(), actor, reported, input, uc.now())
		if err != nil {
			return err
		}
		if err := tx.CreateSanction(ctx, sanction); err != nil {
			return err
		}
		return tx.SaveReport(ctx, r)
	})
	if err != nil {
		span.RecordError(err)
		return domain.Sanction{}, err
	}

	uc.events.Publish(ctx, event)
	return sanction, nil
}

// MarkSeen acknowledges one of the caller's sanctions.
func (uc *ReportUsecase) MarkSeen(ctx context.Context, actor domain.Actor, sanctionID string) (domain.Sanction, error) {
	ctx, span := tracer.Start(ctx, "Report.Usecase.MarkSeen")
	defer span.End()

	var result domain.Sanction
	err := uc.store.Atomic(ctx, func(tx Tx) error {
		s, err := tx.LockSanction(ctx, sanctionID)
		if err != nil {
			return err
		}
		changed, err := s.MarkSeen(actor, uc.now())
		if err != nil {
			return err
		}
		result = s
		if !changed {
			return nil
		}
		return tx.SaveSanction(ctx, s)
	})
	if err != nil {
		span.RecordError(err)
		return domain.Sanction{}, err
	}
	return result, nil
}

func (uc *ReportUsecase) ListReports(ctx context.Context, actor domain.Actor, status domain.ReportStatus, limit int) ([]domain.VolunteerReport, error) {
	ctx, span := tracer.Start(ctx, "Report.Usecase.ListReports")
	defer span.End()

	if err := actor.Require(domain.RoleModerator, "list reports"); err != nil {
		return nil, err
	}
	if status == "" {
		status = domain.ReportPending
	}
	return uc.reader.ListReportsByStatus(ctx, status, limit)
}

func (uc *ReportUsecase) ListSanctions(ctx context.Context, actor domain.Actor, limit int) ([]domain.Sanction, error) {
	ctx, span := tracer.Start(ctx, "Report.Usecase.ListSanctions")
	defer span.End()

	if err := actor.Require(domain.RoleModerator, "list sanctions"); err != nil {
		return nil, err
	}
	return uc.reader.ListSanctions(ctx, limit)
}

// MySanctions lists the sanctions applied to the caller.
func (uc *ReportUsecase) MySanctions(ctx context.Context, actor domain.Actor) ([]domain.Sanction, error) {
	ctx, span := tracer.Start(ctx, "Report.Usecase.MySanctions")
	defer span.End()

	if actor.ID == "" {
		return nil, domain.PermissionError{Reason: "anonymous actor has no sanctions"}
	}
	return uc.reader.ListSanctionsByPrincipal(ctx, actor.ID)
}
