package usecase

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soscomida/soscomida/internal/domain"
)

type storeReportReader struct{ s *memStore }

func (r storeReportReader) ListReportsByStatus(ctx context.Context, status domain.ReportStatus, limit int) ([]domain.VolunteerReport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.VolunteerReport
	for _, rep := range r.s.reports {
		if rep.Status == status {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r storeReportReader) ListSanctions(ctx context.Context, limit int) ([]domain.Sanction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Sanction
	for _, s := range r.s.sanctions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r storeReportReader) ListSanctionsByPrincipal(ctx context.Context, principalID string) ([]domain.Sanction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Sanction
	for _, s := range r.s.sanctions {
		if s.PrincipalID == principalID {
			out = append(out, s)
		}
	}
	return out, nil
}

var volunteer = domain.Actor{ID: "vol-1", Role: domain.RoleRequester}

func newReportFixture(t *testing.T) (*ReportUsecase, *memStore, *recordingPublisher) {
	t.Helper()
	store := newMemStore()
	seedPrincipals(store)
	store.addPrincipal(domain.Principal{ID: "vol-1", Name: "Bia", Role: domain.RoleRequester})
	store.addCampaign(domain.Campaign{ID: "c1", Title: "Inverno solidario", Status: domain.CampaignActive, FundingGoal: 100})
	store.addVolunteer(domain.CampaignVolunteer{ID: "v1", CampaignID: "c1", PrincipalID: "vol-1"})
	store.addVolunteer(domain.CampaignVolunteer{ID: "v2", CampaignID: "c1", PrincipalID: "user-1"})

	events := &recordingPublisher{}
	uc := NewReportUsecase(store, storeReportReader{store}, events)
	uc.env = testEnv()
	return uc, store, events
}

func reportInput() domain.ReportInput {
	return domain.ReportInput{ReportedID: "vol-1", Reason: "ofensas", Description: "tratou mal as familias na fila"}
}

func TestReportAndResolve(t *testing.T) {
	uc, store, events := newReportFixture(t)
	ctx := context.Background()

	rep, err := uc.ReportVolunteer(ctx, requester, "c1", reportInput())
	require.NoError(t, err)
	assert.Equal(t, domain.ReportPending, store.report(rep.ID).Status)

	s, err := uc.Resolve(ctx, moderator, rep.ID, domain.SanctionInput{Kind: domain.SanctionWarning, Message: "primeiro aviso"})
	require.NoError(t, err)
	assert.Equal(t, "vol-1", s.PrincipalID)
	assert.Equal(t, s, store.sanction(s.ID))

	resolved := store.report(rep.ID)
	assert.Equal(t, domain.ReportResolved, resolved.Status)
	assert.Equal(t, domain.SanctionWarning, resolved.ActionTaken)

	all := events.all()
	require.Len(t, all, 2)
	assert.Equal(t, domain.EventVolunteerReported, all[0].Type)
	assert.Equal(t, domain.EventSanctionApplied, all[1].Type)
	assert.True(t, all[1].Audited())
	assert.Equal(t, "Advertência para Bia", all[1].ItemName)
	assert.Equal(t, "10.0.0.1", all[1].Origin)

	_, err = uc.Resolve(ctx, moderator, rep.ID, domain.SanctionInput{Kind: domain.SanctionRevocation, Message: "de novo"})
	assert.ErrorIs(t, err, domain.ErrState)
	assert.Len(t, events.all(), 2)
}

func TestReportVolunteerRequiresEnrolment(t *testing.T) {
	uc, store, events := newReportFixture(t)
	ctx := context.Background()

	in := reportInput()
	in.ReportedID = "inst-1"
	_, err := uc.ReportVolunteer(ctx, requester, "c1", in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.ReportVolunteer(ctx, requester, "missing", reportInput())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, store.reports)
	assert.Empty(t, events.all())
}

func TestResolveFailureLeavesReportPending(t *testing.T) {
	uc, store, events := newReportFixture(t)
	ctx := context.Background()

	rep, err := uc.ReportVolunteer(ctx, requester, "c1", reportInput())
	require.NoError(t, err)

	_, err = uc.Resolve(ctx, requester, rep.ID, domain.SanctionInput{Kind: domain.SanctionWarning, Message: "x"})
	assert.ErrorIs(t, err, domain.ErrPermission)

	_, err = uc.Resolve(ctx, moderator, rep.ID, domain.SanctionInput{Kind: domain.SanctionSuspension, Message: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.Resolve(ctx, moderator, "missing", domain.SanctionInput{Kind: domain.SanctionWarning, Message: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, domain.ReportPending, store.report(rep.ID).Status)
	assert.Empty(t, store.sanctions)
	assert.Len(t, events.all(), 1)
}

func TestSanctionAcknowledgement(t *testing.T) {
	uc, store, _ := newReportFixture(t)
	ctx := context.Background()

	rep, err := uc.ReportVolunteer(ctx, requester, "c1", reportInput())
	require.NoError(t, err)
	s, err := uc.Resolve(ctx, moderator, rep.ID, domain.SanctionInput{Kind: domain.SanctionSuspension, Message: "sete dias", SuspensionDays: 7})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, 0, 7), *s.SuspendedUntil)

	_, err = uc.MarkSeen(ctx, requester, s.ID)
	assert.ErrorIs(t, err, domain.ErrPermission)
	assert.False(t, store.sanction(s.ID).Seen)

	seen, err := uc.MarkSeen(ctx, volunteer, s.ID)
	require.NoError(t, err)
	assert.True(t, seen.Seen)
	assert.True(t, store.sanction(s.ID).Seen)

	mine, err := uc.MySanctions(ctx, volunteer)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = uc.ListSanctions(ctx, volunteer, 0)
	assert.ErrorIs(t, err, domain.ErrPermission)
	all, err := uc.ListSanctions(ctx, moderator, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	pending, err := uc.ListReports(ctx, moderator, "", 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
