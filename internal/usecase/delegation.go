package usecase

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/soscomida/soscomida/internal/domain"
)

// CreateDelegationInput names the request to delegate and its target.
type CreateDelegationInput struct {
	Ref           domain.RequestRef
	InstitutionID string
}

type DelegationUsecase struct {
	store      Store
	reader     DelegationReader
	principals PrincipalRepository
	stats      StatsRepository
	events     EventPublisher
	env
}

func NewDelegationUsecase(
	store Store,
	reader DelegationReader,
	principals PrincipalRepository,
	stats StatsRepository,
	events EventPublisher,
) *DelegationUsecase {
	return &DelegationUsecase{
		store:      store,
		reader:     reader,
		principals: principals,
		stats:      stats,
		events:     events,
		env:        defaultEnv(),
	}
}

// Create delegates a pending request to an approved institution.
func (uc *DelegationUsecase) Create(ctx context.Context, actor domain.Actor, input CreateDelegationInput) (domain.Delegation, error) {
	ctx, span := tracer.Start(ctx, "Delegation.Usecase.Create")
	defer span.End()

	if err := actor.Require(domain.RoleModerator, "delegate requests"); err != nil {
		span.RecordError(err)
		return domain.Delegation{}, err
	}
	if input.Ref == nil {
		return domain.Delegation{}, domain.ValidationError{Reason: "request reference is required"}
	}
	if input.InstitutionID == "" {
		return domain.Delegation{}, domain.ValidationError{Reason: "institution id is required"}
	}
	span.SetAttributes(
		attribute.String("request.kind", string(input.Ref.Kind())),
		attribute.String("request.id", input.Ref.RequestID()),
		attribute.String("institution.id", input.InstitutionID),
	)

	var (
		created domain.Delegation
		event   domain.Event
	)
	err := uc.store.Atomic(ctx, func(tx Tx) error {
		request, err := tx.LockRequest(ctx, input.Ref)
		if err != nil {
			return err
		}

		var institution *domain.Principal
		p, err := tx.GetPrincipal(ctx, input.InstitutionID)
		switch {
		case err == nil:
			institution = &p
		case !isNotFound(err):
			return err
		}

		active, err := tx.FindActiveDelegation(ctx, input.Ref)
		if err != nil {
			return err
		}

		created, event, err = domain.Delegate(uc.newID(), actor, institution, request, active, uc.now())
		if err != nil {
			return err
		}
		if err := tx.CreateDelegation(ctx, created); err != nil {
			return err
		}
		return tx.SaveRequest(ctx, request)
	})
	if err != nil {
		span.RecordError(err)
		return domain.Delegation{}, err
	}

	uc.events.Publish(ctx, event)
	return created, nil
}

// Accept is the institution's acceptance of a delegation.
func (uc *DelegationUsecase) Accept(ctx context.Context, actor domain.Actor, delegationID string) (domain.Delegation, error) {
	ctx, span := tracer.Start(ctx, "Delegation.Usecase.Accept")
	defer span.End()
	span.SetAttributes(attribute.String("delegation.id", delegationID))

	var (
		result  domain.Delegation
		event   domain.Event
		changed bool
	)
	err := uc.store.Atomic(ctx, func(tx Tx) error {
		d, request, err := uc.lockPair(ctx, tx, delegationID)
		if err != nil {
			return err
		}
		changed, event, err = d.Accept(actor, request, uc.now())
		if err != nil {
			return err
		}
		result = d
		if !changed {
			return nil
		}
		if err := tx.UpdateDelegationStatus(ctx, d); err != nil {
			return err
		}
		return tx.SaveRequest(ctx, request)
	})
	if err != nil {
		span.RecordError(err)
		return domain.Delegation{}, err
	}

	if changed {
		uc.events.Publish(ctx, event)
	}
	return result, nil
}

// Decline is the institution's refusal. The request returns to pending.
func (uc *DelegationUsecase) Decline(ctx context.Context, actor domain.Actor, delegationID string) (domain.Delegation, error) {
	ctx, span := tracer.Start(ctx, "Delegation.Usecase.Decline")
	defer span.End()
	span.SetAttributes(attribute.String("delegation.id", delegationID))

	var (
		result domain.Delegation
		event  domain.Event
	)
	err := uc.store.Atomic(ctx, func(tx Tx) error {
		d, request, err := uc.lockPair(ctx, tx, delegationID)
		if err != nil {
			return err
		}
		event, err = d.Decline(actor, request, uc.now())
		if err != nil {
			return err
		}
		result = d
		if err := tx.UpdateDelegationStatus(ctx, d); err != nil {
			return err
		}
		return tx.SaveRequest(ctx, request)
	})
	if err != nil {
		span.RecordError(err)
		return domain.Delegation{}, err
	}

	uc.events.Publish(ctx, event)
	return result, nil
}

// ReportDelivery concludes an accepted delegation and closes its receipt
// request with the delivered metrics.
func (uc *DelegationUsecase) ReportDelivery(ctx context.Context, actor domain.Actor, delegationID string, metrics domain.DeliveryMetrics) (domain.ReceiptRequest, error) {
	ctx, span := tracer.Start(ctx, "Delegation.Usecase.ReportDelivery")
	defer span.End()
	span.SetAttributes(attribute.String("delegation.id", delegationID))

	var (
		receipt domain.ReceiptRequest
		event   domain.Event
	)
	err := uc.store.Atomic(ctx, func(tx Tx) error {
		d, request, err := uc.lockPair(ctx, tx, delegationID)
		if err != nil {
			return err
		}
		event, err = d.ReportDelivery(actor, request, metrics, uc.now())
		if err != nil {
			return err
		}
		if err := tx.UpdateDelegationStatus(ctx, d); err != nil {
			return err
		}
		if err := tx.SaveRequest(ctx, request); err != nil {
			return err
		}
		receipt = *request.(*domain.ReceiptRequest)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return domain.ReceiptRequest{}, err
	}

	uc.events.Publish(ctx, event)
	return receipt, nil
}

// lockPair locks a delegation and then the request it references, always in
// that order.
func (uc *DelegationUsecase) lockPair(ctx context.Context, tx Tx, delegationID string) (domain.Delegation, domain.Request, error) {
	if delegationID == "" {
		return domain.Delegation{}, nil, domain.ValidationError{Reason: "delegation id is required"}
	}
	d, err := tx.LockDelegation(ctx, delegationID)
	if err != nil {
		return domain.Delegation{}, nil, err
	}
	request, err := tx.LockRequest(ctx, d.Target)
	if err != nil {
		return domain.Delegation{}, nil, err
	}
	return d, request, nil
}

// Get returns one delegation. Institutions only see their own.
func (uc *DelegationUsecase) Get(ctx context.Context, actor domain.Actor, id string) (domain.Delegation, error) {
	d, err := uc.reader.GetDelegation(ctx, id)
	if err != nil {
		return domain.Delegation{}, err
	}
	switch actor.Role {
	case domain.RoleModerator:
		return d, nil
	case domain.RoleInstitution:
		if d.InstitutionID == actor.ID {
			return d, nil
		}
	}
	return domain.Delegation{}, domain.PermissionError{Reason: "delegation " + id + " is not visible to " + actor.ID}
}

// ListForInstitution lists the delegations addressed to the calling
// institution, optionally filtered by status.
func (uc *DelegationUsecase) ListForInstitution(ctx context.Context, actor domain.Actor, status *domain.DelegationStatus) ([]domain.Delegation, error) {
	ctx, span := tracer.Start(ctx, "Delegation.Usecase.ListForInstitution")
	defer span.End()

	if err := actor.Require(domain.RoleInstitution, "list delegations"); err != nil {
		return nil, err
	}
	if status != nil && !status.Valid() {
		return nil, domain.ValidationError{Reason: "unknown delegation status " + string(*status)}
	}
	return uc.reader.ListDelegationsByInstitution(ctx, actor.ID, status)
}

// Impact returns the delivery totals of the calling institution.
func (uc *DelegationUsecase) Impact(ctx context.Context, actor domain.Actor) (domain.InstitutionImpact, error) {
	ctx, span := tracer.Start(ctx, "Delegation.Usecase.Impact")
	defer span.End()

	if err := actor.Require(domain.RoleInstitution, "view impact totals"); err != nil {
		return domain.InstitutionImpact{}, err
	}
	return uc.stats.InstitutionImpact(ctx, actor.ID)
}

// Institutions lists the approved institutions a moderator can delegate to.
func (uc *DelegationUsecase) Institutions(ctx context.Context, actor domain.Actor) ([]domain.Principal, error) {
	ctx, span := tracer.Start(ctx, "Delegation.Usecase.Institutions")
	defer span.End()

	if err := actor.Require(domain.RoleModerator, "list institutions"); err != nil {
		return nil, err
	}
	return uc.principals.ListApprovedInstitutions(ctx)
}
