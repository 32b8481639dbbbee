package usecase

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/soscomida/soscomida/internal/domain"
)

type RequestUsecase struct {
	store  Store
	reader RequestReader
	events EventPublisher
	env
}

func NewRequestUsecase(store Store, reader RequestReader, events EventPublisher) *RequestUsecase {
	return &RequestUsecase{
		store:  store,
		reader: reader,
		events: events,
		env:    defaultEnv(),
	}
}

// CreateReceipt files a new request for aid.
func (uc *RequestUsecase) CreateReceipt(ctx context.Context, actor domain.Actor, input domain.NewReceiptInput) (domain.ReceiptRequest, error) {
	ctx, span := tracer.Start(ctx, "Request.Usecase.CreateReceipt")
	defer span.End()

	r, event, err := domain.NewReceiptRequest(uc.newID(), actor, input, uc.now())
	if err != nil {
		span.RecordError(err)
		return domain.ReceiptRequest{}, err
	}

	err = uc.store.Atomic(ctx, func(tx Tx) error {
		return tx.CreateReceiptRequest(ctx, r)
	})
	if err != nil {
		span.RecordError(err)
		return domain.ReceiptRequest{}, err
	}

	uc.events.Publish(ctx, event)
	return r, nil
}

// CreateDonation files a donation offer, optionally pointed at an approved
// receipt request.
func (uc *RequestUsecase) CreateDonation(ctx context.Context, actor domain.Actor, input domain.NewDonationInput) (domain.DonationRequest, error) {
	ctx, span := tracer.Start(ctx, "Request.Usecase.CreateDonation")
	defer span.End()

	var (
		created domain.DonationRequest
		event   domain.Event
	)
	err := uc.store.Atomic(ctx, func(tx Tx) error {
		var target *domain.ReceiptRequest
		if input.ReceiptRequestID != nil {
			r, err := tx.LockRequest(ctx, domain.ReceiptRef{ID: *input.ReceiptRequestID})
			switch {
			case err == nil:
				target, _ = r.(*domain.ReceiptRequest)
			case !isNotFound(err):
				return err
			}
		}

		var err error
		created, event, err = domain.NewDonationRequest(uc.newID(), actor, input, target, uc.now())
		if err != nil {
			return err
		}
		return tx.CreateDonationRequest(ctx, created)
	})
	if err != nil {
		span.RecordError(err)
		return domain.DonationRequest{}, err
	}

	uc.events.Publish(ctx, event)
	return created, nil
}

// Approve clears a pending receipt request for donors.
func (uc *RequestUsecase) Approve(ctx context.Context, actor domain.Actor, ref domain.RequestRef) (domain.Request, error) {
	return uc.moderate(ctx, "Request.Usecase.Approve", ref, func(r domain.Request) (domain.Event, error) {
		return domain.Approve(actor, r, uc.now())
	})
}

// Reject closes a request for good.
func (uc *RequestUsecase) Reject(ctx context.Context, actor domain.Actor, ref domain.RequestRef, detail string) (domain.Request, error) {
	return uc.moderate(ctx, "Request.Usecase.Reject", ref, func(r domain.Request) (domain.Event, error) {
		return domain.Reject(actor, r, detail, uc.now())
	})
}

func (uc *RequestUsecase) moderate(ctx context.Context, name string, ref domain.RequestRef, step func(domain.Request) (domain.Event, error)) (domain.Request, error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	if ref == nil {
		return nil, domain.ValidationError{Reason: "request reference is required"}
	}
	span.SetAttributes(
		attribute.String("request.kind", string(ref.Kind())),
		attribute.String("request.id", ref.RequestID()),
	)

	var (
		result domain.Request
		event  domain.Event
	)
	err := uc.store.Atomic(ctx, func(tx Tx) error {
		r, err := tx.LockRequest(ctx, ref)
		if err != nil {
			return err
		}
		event, err = step(r)
		if err != nil {
			return err
		}
		result = r
		return tx.SaveRequest(ctx, r)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.events.Publish(ctx, event)
	return result, nil
}

// Cancel lets the owner withdraw a request that is still pending.
func (uc *RequestUsecase) Cancel(ctx context.Context, actor domain.Actor, ref domain.RequestRef) error {
	ctx, span := tracer.Start(ctx, "Request.Usecase.Cancel")
	defer span.End()

	if ref == nil {
		return domain.ValidationError{Reason: "request reference is required"}
	}

	var event domain.Event
	err := uc.store.Atomic(ctx, func(tx Tx) error {
		r, err := tx.LockRequest(ctx, ref)
		if err != nil {
			return err
		}
		referenced, err := tx.HasDelegations(ctx, ref)
		if err != nil {
			return err
		}
		event, err = domain.Cancel(actor, r, referenced, uc.now())
		if err != nil {
			return err
		}
		return tx.DeleteRequest(ctx, ref)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	uc.events.Publish(ctx, event)
	return nil
}

// MyRequests groups the caller's own requests.
type MyRequests struct {
	Donations []domain.DonationRequest `json:"donations"`
	Receipts  []domain.ReceiptRequest  `json:"receipts"`
}

func (uc *RequestUsecase) ListMine(ctx context.Context, actor domain.Actor) (MyRequests, error) {
	ctx, span := tracer.Start(ctx, "Request.Usecase.ListMine")
	defer span.End()

	if err := actor.Require(domain.RoleRequester, "list own requests"); err != nil {
		return MyRequests{}, err
	}

	donations, err := uc.reader.ListDonationsByOwner(ctx, actor.ID)
	if err != nil {
		span.RecordError(err)
		return MyRequests{}, err
	}
	receipts, err := uc.reader.ListReceiptsByOwner(ctx, actor.ID)
	if err != nil {
		span.RecordError(err)
		return MyRequests{}, err
	}
	return MyRequests{Donations: donations, Receipts: receipts}, nil
}

// ListApprovedReceipts is the public list donors pick from.
func (uc *RequestUsecase) ListApprovedReceipts(ctx context.Context, limit int) ([]domain.ReceiptRequest, error) {
	ctx, span := tracer.Start(ctx, "Request.Usecase.ListApprovedReceipts")
	defer span.End()

	return uc.reader.ListReceiptsByStatus(ctx, domain.RequestApproved, domain.ClampLimit(limit))
}

// ModerationQueue lists what still awaits a moderator decision.
type ModerationQueue struct {
	Donations []domain.DonationRequest `json:"donations"`
	Receipts  []domain.ReceiptRequest  `json:"receipts"`
	Approved  []domain.ReceiptRequest  `json:"approved"`
}

func (uc *RequestUsecase) ModerationQueue(ctx context.Context, actor domain.Actor, limit int) (ModerationQueue, error) {
	ctx, span := tracer.Start(ctx, "Request.Usecase.ModerationQueue")
	defer span.End()

	if err := actor.Require(domain.RoleModerator, "view the moderation queue"); err != nil {
		return ModerationQueue{}, err
	}
	limit = domain.ClampLimit(limit)

	var (
		q   ModerationQueue
		err error
	)
	if q.Donations, err = uc.reader.ListDonationsByStatus(ctx, domain.RequestPending, limit); err != nil {
		span.RecordError(err)
		return ModerationQueue{}, err
	}
	if q.Receipts, err = uc.reader.ListReceiptsByStatus(ctx, domain.RequestPending, limit); err != nil {
		span.RecordError(err)
		return ModerationQueue{}, err
	}
	if q.Approved, err = uc.reader.ListReceiptsByStatus(ctx, domain.RequestApproved, limit); err != nil {
		span.RecordError(err)
		return ModerationQueue{}, err
	}
	return q, nil
}
