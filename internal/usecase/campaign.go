package usecase

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/soscomida/soscomida/internal/domain"
)

type CampaignUsecase struct {
	store  Store
	reader CampaignReader
	events EventPublisher
	env
}

func NewCampaignUsecase(store Store, reader CampaignReader, events EventPublisher) *CampaignUsecase {
	return &CampaignUsecase{
		store:  store,
		reader: reader,
		events: events,
		env:    defaultEnv(),
	}
}

func (uc *CampaignUsecase) Create(ctx context.Context, actor domain.Actor, input domain.NewCampaignInput) (domain.Campaign, error) {
	ctx, span := tracer.Start(ctx, "Campaign.Usecase.Create")
	defer span.End()

	c, event, err := domain.NewCampaign(uc.newID(), actor, input, uc.now())
	if err != nil {
		span.RecordError(err)
		return domain.Campaign{}, err
	}
	err = uc.store.Atomic(ctx, func(tx Tx) error {
		return tx.CreateCampaign(ctx, c)
	})
	if err != nil {
		span.RecordError(err)
		return domain.Campaign{}, err
	}

	uc.events.Publish(ctx, event)
	return c, nil
}

// mutate locks the campaign, applies step and saves the result. A step
// returning a zero event made no change and nothing is written.
func (uc *CampaignUsecase) mutate(ctx context.Context, name, id string, step func(tx Tx, c *domain.Campaign) (domain.Event, error)) (domain.Campaign, error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()
	span.SetAttributes(attribute.String("campaign.id", id))

	if id == "" {
		return domain.Campaign{}, domain.ValidationError{Reason: "campaign id is required"}
	}

	var (
		result domain.Campaign
		event  domain.Event
	)
	err := uc.store.Atomic(ctx, func(tx Tx) error {
		c, err := tx.LockCampaign(ctx, id)
		if err != nil {
			return err
		}
		event, err = step(tx, &c)
		if err != nil {
			return err
		}
		result = c
		if event.Type == "" {
			return nil
		}
		return tx.SaveCampaign(ctx, c)
	})
	if err != nil {
		span.RecordError(err)
		return domain.Campaign{}, err
	}

	if event.Type != "" {
		uc.events.Publish(ctx, event)
	}
	return result, nil
}

func lookupInstitution(ctx context.Context, tx Tx, id string) (*domain.Principal, error) {
	p, err := tx.GetPrincipal(ctx, id)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delegate assigns a pending campaign to an institution.
func (uc *CampaignUsecase) Delegate(ctx context.Context, actor domain.Actor, id, institutionID string) (domain.Campaign, error) {
	if err := actor.Require(domain.RoleModerator, "delegate campaigns"); err != nil {
		return domain.Campaign{}, err
	}
	if institutionID == "" {
		return domain.Campaign{}, domain.ValidationError{Reason: "institution id is required"}
	}
	return uc.mutate(ctx, "Campaign.Usecase.Delegate", id, func(tx Tx, c *domain.Campaign) (domain.Event, error) {
		institution, err := lookupInstitution(ctx, tx, institutionID)
		if err != nil {
			return domain.Event{}, err
		}
		return c.Delegate(actor, institution, uc.now())
	})
}

func (uc *CampaignUsecase) Accept(ctx context.Context, actor domain.Actor, id string) (domain.Campaign, error) {
	return uc.mutate(ctx, "Campaign.Usecase.Accept", id, func(_ Tx, c *domain.Campaign) (domain.Event, error) {
		_, event, err := c.Accept(actor, uc.now())
		return event, err
	})
}

func (uc *CampaignUsecase) Decline(ctx context.Context, actor domain.Actor, id string) (domain.Campaign, error) {
	return uc.mutate(ctx, "Campaign.Usecase.Decline", id, func(_ Tx, c *domain.Campaign) (domain.Event, error) {
		return c.Decline(actor, uc.now())
	})
}

func (uc *CampaignUsecase) Edit(ctx context.Context, actor domain.Actor, id string, patch domain.CampaignPatch) (domain.Campaign, error) {
	if err := actor.Require(domain.RoleModerator, "edit campaigns"); err != nil {
		return domain.Campaign{}, err
	}
	return uc.mutate(ctx, "Campaign.Usecase.Edit", id, func(tx Tx, c *domain.Campaign) (domain.Event, error) {
		var institution *domain.Principal
		if patch.InstitutionID != nil {
			if requested := strings.TrimSpace(*patch.InstitutionID); requested != "" {
				var err error
				if institution, err = lookupInstitution(ctx, tx, requested); err != nil {
					return domain.Event{}, err
				}
			}
		}
		return c.Edit(actor, patch, institution, uc.now())
	})
}

func (uc *CampaignUsecase) SetStatus(ctx context.Context, actor domain.Actor, id string, to domain.CampaignStatus, detail string) (domain.Campaign, error) {
	return uc.mutate(ctx, "Campaign.Usecase.SetStatus", id, func(_ Tx, c *domain.Campaign) (domain.Event, error) {
		return c.SetStatus(actor, to, detail, uc.now())
	})
}

func (uc *CampaignUsecase) Pledge(ctx context.Context, actor domain.Actor, id string, amount float64) (domain.Campaign, error) {
	return uc.mutate(ctx, "Campaign.Usecase.Pledge", id, func(_ Tx, c *domain.Campaign) (domain.Event, error) {
		return c.Pledge(actor, amount, uc.now())
	})
}

// Volunteer enrols the caller. Enrolling twice is a ConflictError.
func (uc *CampaignUsecase) Volunteer(ctx context.Context, actor domain.Actor, id string) (domain.Campaign, error) {
	return uc.mutate(ctx, "Campaign.Usecase.Volunteer", id, func(tx Tx, c *domain.Campaign) (domain.Event, error) {
		enrolled, err := tx.HasVolunteer(ctx, c.ID, actor.ID)
		if err != nil {
			return domain.Event{}, err
		}
		v, event, err := c.Volunteer(uc.newID(), actor, enrolled, uc.now())
		if err != nil {
			return domain.Event{}, err
		}
		return event, tx.AddVolunteer(ctx, v)
	})
}

func (uc *CampaignUsecase) PledgeItems(ctx context.Context, actor domain.Actor, id string, input domain.ItemPledgeInput) (domain.CampaignItemPledge, error) {
	var pledge domain.CampaignItemPledge
	_, err := uc.mutate(ctx, "Campaign.Usecase.PledgeItems", id, func(tx Tx, c *domain.Campaign) (domain.Event, error) {
		p, event, err := c.PledgeItems(uc.newID(), actor, input, uc.now())
		if err != nil {
			return domain.Event{}, err
		}
		pledge = p
		return event, tx.AddItemPledge(ctx, p)
	})
	if err != nil {
		return domain.CampaignItemPledge{}, err
	}
	return pledge, nil
}

// ListActive is the public campaign listing.
func (uc *CampaignUsecase) ListActive(ctx context.Context) ([]domain.Campaign, error) {
	ctx, span := tracer.Start(ctx, "Campaign.Usecase.ListActive")
	defer span.End()

	return uc.reader.ListCampaignsByStatus(ctx, domain.CampaignActive)
}

// ListByStatus is the moderator view over any status.
func (uc *CampaignUsecase) ListByStatus(ctx context.Context, actor domain.Actor, status domain.CampaignStatus) ([]domain.Campaign, error) {
	ctx, span := tracer.Start(ctx, "Campaign.Usecase.ListByStatus")
	defer span.End()

	if err := actor.Require(domain.RoleModerator, "list campaigns by status"); err != nil {
		return nil, err
	}
	return uc.reader.ListCampaignsByStatus(ctx, status)
}

func (uc *CampaignUsecase) Get(ctx context.Context, id string) (domain.Campaign, error) {
	ctx, span := tracer.Start(ctx, "Campaign.Usecase.Get")
	defer span.End()

	return uc.reader.GetCampaign(ctx, id)
}
