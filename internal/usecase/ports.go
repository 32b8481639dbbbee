package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/soscomida/soscomida/internal/domain"
)

var tracer = otel.Tracer("usecase")

// Tx is the storage view inside one state-machine step. Lock* methods take
// a row lock held until the step commits or rolls back.
type Tx interface {
	GetPrincipal(ctx context.Context, id string) (domain.Principal, error)

	LockRequest(ctx context.Context, ref domain.RequestRef) (domain.Request, error)
	SaveRequest(ctx context.Context, r domain.Request) error
	CreateDonationRequest(ctx context.Context, d domain.DonationRequest) error
	CreateReceiptRequest(ctx context.Context, r domain.ReceiptRequest) error
	DeleteRequest(ctx context.Context, ref domain.RequestRef) error

	LockDelegation(ctx context.Context, id string) (domain.Delegation, error)
	FindActiveDelegation(ctx context.Context, ref domain.RequestRef) (*domain.Delegation, error)
	HasDelegations(ctx context.Context, ref domain.RequestRef) (bool, error)
	CreateDelegation(ctx context.Context, d domain.Delegation) error
	UpdateDelegationStatus(ctx context.Context, d domain.Delegation) error

	LockCampaign(ctx context.Context, id string) (domain.Campaign, error)
	CreateCampaign(ctx context.Context, c domain.Campaign) error
	SaveCampaign(ctx context.Context, c domain.Campaign) error
	HasVolunteer(ctx context.Context, campaignID, principalID string) (bool, error)
	AddVolunteer(ctx context.Context, v domain.CampaignVolunteer) error
	AddItemPledge(ctx context.Context, p domain.CampaignItemPledge) error

	CreateReport(ctx context.Context, r domain.VolunteerReport) error
	LockReport(ctx context.Context, id string) (domain.VolunteerReport, error)
	SaveReport(ctx context.Context, r domain.VolunteerReport) error
	CreateSanction(ctx context.Context, s domain.Sanction) error
	LockSanction(ctx context.Context, id string) (domain.Sanction, error)
	SaveSanction(ctx context.Context, s domain.Sanction) error
}

// Store runs fn in a single transaction: everything fn wrote is committed
// together when it returns nil and rolled back otherwise.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// RequestReader serves the request listings.
type RequestReader interface {
	ListDonationsByOwner(ctx context.Context, ownerID string) ([]domain.DonationRequest, error)
	ListReceiptsByOwner(ctx context.Context, ownerID string) ([]domain.ReceiptRequest, error)
	ListDonationsByStatus(ctx context.Context, status domain.RequestStatus, limit int) ([]domain.DonationRequest, error)
	ListReceiptsByStatus(ctx context.Context, status domain.RequestStatus, limit int) ([]domain.ReceiptRequest, error)
}

// DelegationReader serves the institution side listings.
type DelegationReader interface {
	GetDelegation(ctx context.Context, id string) (domain.Delegation, error)
	ListDelegationsByInstitution(ctx context.Context, institutionID string, status *domain.DelegationStatus) ([]domain.Delegation, error)
}

// CampaignReader serves campaign listings with volunteer counts filled in.
type CampaignReader interface {
	GetCampaign(ctx context.Context, id string) (domain.Campaign, error)
	ListCampaignsByStatus(ctx context.Context, status domain.CampaignStatus) ([]domain.Campaign, error)
}

// ReportReader serves the moderation listings of reports and sanctions,
// newest first.
type ReportReader interface {
	ListReportsByStatus(ctx context.Context, status domain.ReportStatus, limit int) ([]domain.VolunteerReport, error)
	ListSanctions(ctx context.Context, limit int) ([]domain.Sanction, error)
	ListSanctionsByPrincipal(ctx context.Context, principalID string) ([]domain.Sanction, error)
}

// PrincipalRepository is the read side of the identity provider.
type PrincipalRepository interface {
	Get(ctx context.Context, id string) (domain.Principal, error)
	ListApprovedInstitutions(ctx context.Context) ([]domain.Principal, error)
}

// AuditRepository stores the moderator audit log.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLogEntry, error)
	Stats(ctx context.Context, moderatorID string) (domain.ModeratorStats, error)
}

// StatsRepository computes institution impact totals.
type StatsRepository interface {
	InstitutionImpact(ctx context.Context, institutionID string) (domain.InstitutionImpact, error)
	InvalidateInstitution(ctx context.Context, institutionID string) error
}

// EventPublisher receives committed events. Delivery is best-effort and
// never reports failure to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event)
}

// clock and id generation shared by the usecases.
type env struct {
	now   func() time.Time
	newID func() string
}

func defaultEnv() env {
	return env{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
