package usecase

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soscomida/soscomida/internal/domain"
)

// memStore is a transactional in-memory Store. Atomic serializes steps on a
// single mutex and restores a snapshot when fn fails.
type memStore struct {
	mu          sync.Mutex
	principals  map[string]domain.Principal
	donations   map[string]domain.DonationRequest
	receipts    map[string]domain.ReceiptRequest
	delegations map[string]domain.Delegation
	campaigns   map[string]domain.Campaign
	volunteers  map[string]domain.CampaignVolunteer
	itemPledges map[string]domain.CampaignItemPledge
	reports     map[string]domain.VolunteerReport
	sanctions   map[string]domain.Sanction
}

func newMemStore() *memStore {
	return &memStore{
		principals:  map[string]domain.Principal{},
		donations:   map[string]domain.DonationRequest{},
		receipts:    map[string]domain.ReceiptRequest{},
		delegations: map[string]domain.Delegation{},
		campaigns:   map[string]domain.Campaign{},
		volunteers:  map[string]domain.CampaignVolunteer{},
		itemPledges: map[string]domain.CampaignItemPledge{},
		reports:     map[string]domain.VolunteerReport{},
		sanctions:   map[string]domain.Sanction{},
	}
}

func (s *memStore) snapshot() *memStore {
	return &memStore{
		principals:  maps.Clone(s.principals),
		donations:   maps.Clone(s.donations),
		receipts:    maps.Clone(s.receipts),
		delegations: maps.Clone(s.delegations),
		campaigns:   maps.Clone(s.campaigns),
		volunteers:  maps.Clone(s.volunteers),
		itemPledges: maps.Clone(s.itemPledges),
		reports:     maps.Clone(s.reports),
		sanctions:   maps.Clone(s.sanctions),
	}
}

func (s *memStore) restore(from *memStore) {
	s.principals = from.principals
	s.donations = from.donations
	s.receipts = from.receipts
	s.delegations = from.delegations
	s.campaigns = from.campaigns
	s.volunteers = from.volunteers
	s.itemPledges = from.itemPledges
	s.reports = from.reports
	s.sanctions = from.sanctions
}

func (s *memStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.snapshot()
	if err := fn(memTx{s}); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

func (s *memStore) addPrincipal(p domain.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals[p.ID] = p
}

func (s *memStore) addReceipt(r domain.ReceiptRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[r.ID] = r
}

func (s *memStore) addDonation(d domain.DonationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donations[d.ID] = d
}

func (s *memStore) addCampaign(c domain.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = c
}

func (s *memStore) receipt(id string) domain.ReceiptRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipts[id]
}

func (s *memStore) donation(id string) domain.DonationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.donations[id]
}

func (s *memStore) campaign(id string) domain.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.campaigns[id]
}

func (s *memStore) addVolunteer(v domain.CampaignVolunteer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volunteers[v.ID] = v
}

func (s *memStore) report(id string) domain.VolunteerReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports[id]
}

func (s *memStore) sanction(id string) domain.Sanction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sanctions[id]
}

func (s *memStore) delegationsFor(ref domain.RequestRef) []domain.Delegation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Delegation
	for _, d := range s.delegations {
		if d.Target == ref {
			out = append(out, d)
		}
	}
	return out
}

// memTx runs under memStore.mu, so its methods touch the maps directly.
type memTx struct{ s *memStore }

func (t memTx) GetPrincipal(ctx context.Context, id string) (domain.Principal, error) {
	p, ok := t.s.principals[id]
	if !ok {
		return domain.Principal{}, domain.NotFoundError{Resource: "principal"}
	}
	return p, nil
}

func (t memTx) LockRequest(ctx context.Context, ref domain.RequestRef) (domain.Request, error) {
	switch ref := ref.(type) {
	case domain.DonationRef:
		d, ok := t.s.donations[ref.ID]
		if !ok {
			return nil, domain.NotFoundError{Resource: "donation request"}
		}
		return &d, nil
	case domain.ReceiptRef:
		r, ok := t.s.receipts[ref.ID]
		if !ok {
			return nil, domain.NotFoundError{Resource: "receipt request"}
		}
		return &r, nil
	}
	return nil, domain.ValidationError{Reason: "unknown request reference"}
}

func (t memTx) SaveRequest(ctx context.Context, r domain.Request) error {
	switch r := r.(type) {
	case *domain.DonationRequest:
		t.s.donations[r.ID] = *r
	case *domain.ReceiptRequest:
		t.s.receipts[r.ID] = *r
	default:
		return fmt.Errorf("unexpected request %T", r)
	}
	return nil
}

func (t memTx) CreateDonationRequest(ctx context.Context, d domain.DonationRequest) error {
	t.s.donations[d.ID] = d
	return nil
}

func (t memTx) CreateReceiptRequest(ctx context.Context, r domain.ReceiptRequest) error {
	t.s.receipts[r.ID] = r
	return nil
}

func (t memTx) DeleteRequest(ctx context.Context, ref domain.RequestRef) error {
	switch ref.(type) {
	case domain.DonationRef:
		delete(t.s.donations, ref.RequestID())
	case domain.ReceiptRef:
		delete(t.s.receipts, ref.RequestID())
	}
	return nil
}

func (t memTx) LockDelegation(ctx context.Context, id string) (domain.Delegation, error) {
	d, ok := t.s.delegations[id]
	if !ok {
		return domain.Delegation{}, domain.NotFoundError{Resource: "delegation"}
	}
	return d, nil
}

func (t memTx) FindActiveDelegation(ctx context.Context, ref domain.RequestRef) (*domain.Delegation, error) {
	for _, d := range t.s.delegations {
		if d.Target == ref && d.Status.Active() {
			return &d, nil
		}
	}
	return nil, nil
}

func (t memTx) HasDelegations(ctx context.Context, ref domain.RequestRef) (bool, error) {
	for _, d := range t.s.delegations {
		if d.Target == ref {
			return true, nil
		}
	}
	return false, nil
}

// CreateDelegation enforces the same uniqueness the partial index does.
func (t memTx) CreateDelegation(ctx context.Context, d domain.Delegation) error {
	for _, other := range t.s.delegations {
		if other.Target == d.Target && other.Status.Active() {
			return domain.ConflictError{Reason: "duplicate active delegation"}
		}
	}
	t.s.delegations[d.ID] = d
	return nil
}

func (t memTx) UpdateDelegationStatus(ctx context.Context, d domain.Delegation) error {
	if _, ok := t.s.delegations[d.ID]; !ok {
		return domain.NotFoundError{Resource: "delegation"}
	}
	t.s.delegations[d.ID] = d
	return nil
}

func (t memTx) LockCampaign(ctx context.Context, id string) (domain.Campaign, error) {
	c, ok := t.s.campaigns[id]
	if !ok {
		return domain.Campaign{}, domain.NotFoundError{Resource: "campaign"}
	}
	return c, nil
}

func (t memTx) CreateCampaign(ctx context.Context, c domain.Campaign) error {
	t.s.campaigns[c.ID] = c
	return nil
}

func (t memTx) SaveCampaign(ctx context.Context, c domain.Campaign) error {
	t.s.campaigns[c.ID] = c
	return nil
}

func (t memTx) HasVolunteer(ctx context.Context, campaignID, principalID string) (bool, error) {
	for _, v := range t.s.volunteers {
		if v.CampaignID == campaignID && v.PrincipalID == principalID {
			return true, nil
		}
	}
	return false, nil
}

func (t memTx) AddVolunteer(ctx context.Context, v domain.CampaignVolunteer) error {
	t.s.volunteers[v.ID] = v
	return nil
}

func (t memTx) AddItemPledge(ctx context.Context, p domain.CampaignItemPledge) error {
	t.s.itemPledges[p.ID] = p
	return nil
}

func (t memTx) CreateReport(ctx context.Context, r domain.VolunteerReport) error {
	t.s.reports[r.ID] = r
	return nil
}

func (t memTx) LockReport(ctx context.Context, id string) (domain.VolunteerReport, error) {
	r, ok := t.s.reports[id]
	if !ok {
		return domain.VolunteerReport{}, domain.NotFoundError{Resource: "report"}
	}
	return r, nil
}

func (t memTx) SaveReport(ctx context.Context, r domain.VolunteerReport) error {
	t.s.reports[r.ID] = r
	return nil
}

// CreateSanction mirrors the unique index on report_id.
func (t memTx) CreateSanction(ctx context.Context, s domain.Sanction) error {
	for _, other := range t.s.sanctions {
		if other.ReportID == s.ReportID {
			return domain.ConflictError{Reason: "report already sanctioned"}
		}
	}
	t.s.sanctions[s.ID] = s
	return nil
}

func (t memTx) LockSanction(ctx context.Context, id string) (domain.Sanction, error) {
	s, ok := t.s.sanctions[id]
	if !ok {
		return domain.Sanction{}, domain.NotFoundError{Resource: "sanction"}
	}
	return s, nil
}

func (t memTx) SaveSanction(ctx context.Context, s domain.Sanction) error {
	t.s.sanctions[s.ID] = s
	return nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

func (p *recordingPublisher) all() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Event(nil), p.events...)
}

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func testEnv() env {
	var seq atomic.Int64
	return env{
		now:   func() time.Time { return fixedNow },
		newID: func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	}
}

var (
	moderator   = domain.Actor{ID: "mod-1", Role: domain.RoleModerator, Origin: "10.0.0.1"}
	requester   = domain.Actor{ID: "user-1", Role: domain.RoleRequester}
	institution = domain.Actor{ID: "inst-1", Role: domain.RoleInstitution}
	otherInst   = domain.Actor{ID: "inst-2", Role: domain.RoleInstitution}
)

func seedPrincipals(s *memStore) {
	s.addPrincipal(domain.Principal{ID: "mod-1", Name: "Mod", Role: domain.RoleModerator})
	s.addPrincipal(domain.Principal{ID: "user-1", Name: "Ana", Role: domain.RoleRequester})
	s.addPrincipal(domain.Principal{ID: "inst-1", Name: "Ong", InstitutionName: "Casa Solidaria", Role: domain.RoleInstitution, ApprovalStatus: domain.ApprovalApproved})
	s.addPrincipal(domain.Principal{ID: "inst-2", Name: "Outra", Role: domain.RoleInstitution, ApprovalStatus: domain.ApprovalApproved})
	s.addPrincipal(domain.Principal{ID: "inst-pending", Name: "Nova", Role: domain.RoleInstitution, ApprovalStatus: domain.ApprovalPending})
}
