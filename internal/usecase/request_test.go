package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soscomida/soscomida/internal/domain"
)

type stubRequestReader struct {
	donations []domain.DonationRequest
	receipts  []domain.ReceiptRequest
	limits    []int
}

func (r *stubRequestReader) ListDonationsByOwner(ctx context.Context, ownerID string) ([]domain.DonationRequest, error) {
	var out []domain.DonationRequest
	for _, d := range r.donations {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *stubRequestReader) ListReceiptsByOwner(ctx context.Context, ownerID string) ([]domain.ReceiptRequest, error) {
	var out []domain.ReceiptRequest
	for _, rr := range r.receipts {
		if rr.OwnerID == ownerID {
			out = append(out, rr)
		}
	}
	return out, nil
}

func (r *stubRequestReader) ListDonationsByStatus(ctx context.Context, status domain.RequestStatus, limit int) ([]domain.DonationRequest, error) {
	r.limits = append(r.limits, limit)
	var out []domain.DonationRequest
	for _, d := range r.donations {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *stubRequestReader) ListReceiptsByStatus(ctx context.Context, status domain.RequestStatus, limit int) ([]domain.ReceiptRequest, error) {
	r.limits = append(r.limits, limit)
	var out []domain.ReceiptRequest
	for _, rr := range r.receipts {
		if rr.Status == status {
			out = append(out, rr)
		}
	}
	return out, nil
}

func newRequestFixture(t *testing.T) (*RequestUsecase, *memStore, *recordingPublisher) {
	t.Helper()
	store := newMemStore()
	seedPrincipals(store)
	events := &recordingPublisher{}
	uc := NewRequestUsecase(store, &stubRequestReader{}, events)
	uc.env = testEnv()
	return uc, store, events
}

func validReceiptInput() domain.NewReceiptInput {
	return domain.NewReceiptInput{
		Name:          "Maria",
		Phone:         "11999990000",
		Address:       "Rua A, 10",
		HouseholdSize: 3,
		Needs:         "alimentos",
		Baskets:       2,
	}
}

func TestCreateReceipt(t *testing.T) {
	uc, store, events := newRequestFixture(t)

	r, err := uc.CreateReceipt(context.Background(), requester, validReceiptInput())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, r.Status)
	assert.Equal(t, "user-1", r.OwnerID)
	assert.Equal(t, fixedNow, r.CreatedAt)
	assert.Equal(t, r, store.receipt(r.ID))

	all := events.all()
	require.Len(t, all, 1)
	assert.Equal(t, domain.EventRequestCreated, all[0].Type)
	assert.False(t, all[0].Audited())
}

func TestCreateReceiptValidation(t *testing.T) {
	uc, _, _ := newRequestFixture(t)

	in := validReceiptInput()
	in.HouseholdSize = 0
	_, err := uc.CreateReceipt(context.Background(), requester, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.CreateReceipt(context.Background(), moderator, validReceiptInput())
	assert.ErrorIs(t, err, domain.ErrPermission)
}

func TestCreateDonation(t *testing.T) {
	uc, store, _ := newRequestFixture(t)
	store.addReceipt(domain.ReceiptRequest{ID: "open", Status: domain.RequestApproved})
	store.addReceipt(domain.ReceiptRequest{ID: "closed", Status: domain.RequestPending})
	ctx := context.Background()
	when := fixedNow.Add(48 * time.Hour)

	item, err := uc.CreateDonation(ctx, requester, domain.NewDonationInput{
		Kind: domain.DonationItem, DonorName: "Joao", DeliveryPlace: "Centro", DeliveryDate: &when,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, item.Status)
	assert.Equal(t, item, store.donation(item.ID))

	open := "open"
	pix, err := uc.CreateDonation(ctx, requester, domain.NewDonationInput{
		Kind: domain.DonationMonetary, DonorName: "Joao", Value: 50, ReceiptRequestID: &open,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestAccepted, pix.Status)

	closed := "closed"
	_, err = uc.CreateDonation(ctx, requester, domain.NewDonationInput{
		Kind: domain.DonationMonetary, DonorName: "Joao", Value: 50, ReceiptRequestID: &closed,
	})
	assert.ErrorIs(t, err, domain.ErrState)

	missing := "missing"
	_, err = uc.CreateDonation(ctx, requester, domain.NewDonationInput{
		Kind: domain.DonationMonetary, DonorName: "Joao", Value: 50, ReceiptRequestID: &missing,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.CreateDonation(ctx, requester, domain.NewDonationInput{Kind: domain.DonationMonetary, DonorName: "Joao"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestApproveAndReject(t *testing.T) {
	uc, store, events := newRequestFixture(t)
	store.addReceipt(domain.ReceiptRequest{ID: "r1", Name: "Maria", Status: domain.RequestPending})
	store.addDonation(domain.DonationRequest{ID: "d1", DonorName: "Joao", Status: domain.RequestPending})
	ctx := context.Background()

	_, err := uc.Approve(ctx, moderator, domain.ReceiptRef{ID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, store.receipt("r1").Status)

	_, err = uc.Approve(ctx, moderator, domain.ReceiptRef{ID: "r1"})
	assert.ErrorIs(t, err, domain.ErrState)

	_, err = uc.Approve(ctx, moderator, domain.DonationRef{ID: "d1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	rejected, err := uc.Reject(ctx, moderator, domain.DonationRef{ID: "d1"}, "duplicada")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, rejected.State())
	assert.Equal(t, domain.RequestRejected, store.donation("d1").Status)

	_, err = uc.Reject(ctx, moderator, domain.DonationRef{ID: "d1"}, "")
	assert.ErrorIs(t, err, domain.ErrState)

	_, err = uc.Reject(ctx, requester, domain.ReceiptRef{ID: "r1"}, "")
	assert.ErrorIs(t, err, domain.ErrPermission)

	actions := []string{}
	for _, e := range events.all() {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"aprovou_recebimento", "rejeitou_doacao"}, actions)
}

func TestRejectDelegatedRequest(t *testing.T) {
	uc, store, _ := newRequestFixture(t)
	store.addReceipt(domain.ReceiptRequest{ID: "r1", Status: domain.RequestDelegated})

	_, err := uc.Reject(context.Background(), moderator, domain.ReceiptRef{ID: "r1"}, "")
	assert.ErrorIs(t, err, domain.ErrState)
	assert.Equal(t, domain.RequestDelegated, store.receipt("r1").Status)
}

func TestCancel(t *testing.T) {
	uc, store, _ := newRequestFixture(t)
	store.addReceipt(domain.ReceiptRequest{ID: "mine", OwnerID: "user-1", Status: domain.RequestPending})
	store.addReceipt(domain.ReceiptRequest{ID: "approved", OwnerID: "user-1", Status: domain.RequestApproved})
	store.addReceipt(domain.ReceiptRequest{ID: "theirs", OwnerID: "user-9", Status: domain.RequestPending})
	ctx := context.Background()

	require.NoError(t, uc.Cancel(ctx, requester, domain.ReceiptRef{ID: "mine"}))
	_, err := memTx{store}.LockRequest(ctx, domain.ReceiptRef{ID: "mine"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, uc.Cancel(ctx, requester, domain.ReceiptRef{ID: "approved"}), domain.ErrState)
	assert.ErrorIs(t, uc.Cancel(ctx, requester, domain.ReceiptRef{ID: "theirs"}), domain.ErrPermission)
	assert.ErrorIs(t, uc.Cancel(ctx, requester, domain.ReceiptRef{ID: "gone"}), domain.ErrNotFound)
}

func TestCancelKeepsDelegationHistory(t *testing.T) {
	uc, store, _ := newRequestFixture(t)
	store.addReceipt(domain.ReceiptRequest{ID: "r1", OwnerID: "user-1", Name: "Familia Souza", HouseholdSize: 4, Status: domain.RequestPending})
	delegations := NewDelegationUsecase(store, stubDelegationReader{}, memPrincipals{store}, &stubStats{}, &recordingPublisher{})
	delegations.env = testEnv()
	ctx := context.Background()
	ref := domain.ReceiptRef{ID: "r1"}

	d, err := delegations.Create(ctx, moderator, CreateDelegationInput{Ref: ref, InstitutionID: "inst-1"})
	require.NoError(t, err)
	_, err = delegations.Decline(ctx, institution, d.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RequestPending, store.receipt("r1").Status)

	err = uc.Cancel(ctx, requester, ref)
	assert.ErrorIs(t, err, domain.ErrState)

	_, err = memTx{store}.LockRequest(ctx, ref)
	assert.NoError(t, err)
	history := store.delegationsFor(ref)
	require.Len(t, history, 1)
	assert.Equal(t, domain.DelegationDeclined, history[0].Status)
}

func TestListings(t *testing.T) {
	reader := &stubRequestReader{
		donations: []domain.DonationRequest{
			{ID: "d1", OwnerID: "user-1", Status: domain.RequestPending},
			{ID: "d2", OwnerID: "user-2", Status: domain.RequestRejected},
		},
		receipts: []domain.ReceiptRequest{
			{ID: "r1", OwnerID: "user-1", Status: domain.RequestApproved},
			{ID: "r2", OwnerID: "user-2", Status: domain.RequestPending},
		},
	}
	uc := NewRequestUsecase(newMemStore(), reader, &recordingPublisher{})
	ctx := context.Background()

	mine, err := uc.ListMine(ctx, requester)
	require.NoError(t, err)
	assert.Len(t, mine.Donations, 1)
	assert.Len(t, mine.Receipts, 1)

	approved, err := uc.ListApprovedReceipts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "r1", approved[0].ID)

	q, err := uc.ModerationQueue(ctx, moderator, 1000)
	require.NoError(t, err)
	assert.Len(t, q.Donations, 1)
	assert.Len(t, q.Receipts, 1)
	assert.Len(t, q.Approved, 1)
	assert.Equal(t, []int{domain.DefaultListLimit, domain.MaxListLimit, domain.MaxListLimit, domain.MaxListLimit}, reader.limits)

	_, err = uc.ModerationQueue(ctx, requester, 0)
	assert.ErrorIs(t, err, domain.ErrPermission)
}
