package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

var (
	mod   = Actor{ID: "m1", Role: RoleModerator}
	inst  = Actor{ID: "i1", Role: RoleInstitution}
	owner = Actor{ID: "u1", Role: RoleRequester}
)

func approvedInstitution(id string) *Principal {
	return &Principal{ID: id, Name: "ong", InstitutionName: "Banco de Alimentos", Role: RoleInstitution, ApprovalStatus: ApprovalApproved}
}

func TestNewRequestRef(t *testing.T) {
	ref, err := NewRequestRef("recebimento", " 42 ")
	require.NoError(t, err)
	assert.Equal(t, ReceiptRef{ID: "42"}, ref)

	ref, err = NewRequestRef("doacao", "7")
	require.NoError(t, err)
	assert.Equal(t, KindDonation, ref.Kind())

	_, err = NewRequestRef("campanha", "7")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = NewRequestRef("doacao", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDelegateIsPure(t *testing.T) {
	r := &ReceiptRequest{ID: "r1", Name: "Maria", Status: RequestPending}

	d, e, err := Delegate("d1", mod, approvedInstitution("i1"), r, nil, now)
	require.NoError(t, err)
	assert.Equal(t, DelegationPending, d.Status)
	assert.Equal(t, ReceiptRef{ID: "r1"}, d.Target)
	assert.Equal(t, RequestDelegated, r.Status)
	assert.Equal(t, EventDelegationCreated, e.Type)
	assert.Equal(t, "i1", e.InstitutionID)
	assert.Equal(t, "delegada para Banco de Alimentos", e.Detail)
}

func TestDelegateChecks(t *testing.T) {
	pendingInst := approvedInstitution("i2")
	pendingInst.ApprovalStatus = ApprovalPending
	active := &Delegation{ID: "old", Status: DelegationAccepted}

	testCases := []struct {
		name        string
		actor       Actor
		institution *Principal
		status      RequestStatus
		active      *Delegation
		want        error
	}{
		{"wrong role", owner, approvedInstitution("i1"), RequestPending, nil, ErrPermission},
		{"missing institution", mod, nil, RequestPending, nil, ErrValidation},
		{"unapproved institution", mod, pendingInst, RequestPending, nil, ErrValidation},
		{"active delegation", mod, approvedInstitution("i1"), RequestDelegated, active, ErrConflict},
		{"terminal request", mod, approvedInstitution("i1"), RequestDelivered, nil, ErrState},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := &ReceiptRequest{ID: "r1", Status: tc.status}
			_, _, err := Delegate("d1", tc.actor, tc.institution, r, tc.active, now)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.status, r.Status)
		})
	}
}

func TestDelegationAcceptDeclineDeliver(t *testing.T) {
	r := &ReceiptRequest{ID: "r1", Status: RequestPending}
	d, _, err := Delegate("d1", mod, approvedInstitution("i1"), r, nil, now)
	require.NoError(t, err)

	changed, _, err := d.Accept(inst, r, now)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, _, err = d.Accept(inst, r, now)
	require.NoError(t, err)
	assert.False(t, changed)

	e, err := d.ReportDelivery(inst, r, DeliveryMetrics{BasketsDelivered: 3, FoodKgDelivered: 12.5}, now)
	require.NoError(t, err)
	assert.Equal(t, EventDeliveryReported, e.Type)
	assert.Equal(t, RequestDelivered, r.Status)
	assert.Equal(t, DelegationConcluded, d.Status)
	assert.Equal(t, 3, r.Fulfillment.BasketsDelivered)

	_, err = d.Decline(inst, r, now)
	assert.ErrorIs(t, err, ErrState)
}

func TestDelegationRejectsMismatchedRequest(t *testing.T) {
	r := &ReceiptRequest{ID: "r1", Status: RequestPending}
	d, _, err := Delegate("d1", mod, approvedInstitution("i1"), r, nil, now)
	require.NoError(t, err)

	other := &ReceiptRequest{ID: "r2", Status: RequestDelegated}
	_, _, err = d.Accept(inst, other, now)
	assert.ErrorIs(t, err, ErrState)
}

func TestDelegationJSON(t *testing.T) {
	d := Delegation{ID: "d1", InstitutionID: "i1", Target: DonationRef{ID: "9"}, Status: DelegationPending, CreatedAt: now}
	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "doacao", out["kind"])
	assert.Equal(t, "9", out["requestId"])
	assert.Equal(t, "pendente", out["status"])
}

func TestRejectAndCancel(t *testing.T) {
	r := &ReceiptRequest{ID: "r1", OwnerID: "u1", Status: RequestAccepted}
	_, err := Reject(mod, r, "", now)
	assert.ErrorIs(t, err, ErrState)

	r.Status = RequestApproved
	e, err := Reject(mod, r, "fraude", now)
	require.NoError(t, err)
	assert.Equal(t, "rejeitou_recebimento", e.Action)
	assert.True(t, e.Audited())

	p := &DonationRequest{ID: "d1", OwnerID: "u1", Status: RequestPending}
	_, err = Cancel(owner, p, false, now)
	assert.NoError(t, err)
	_, err = Cancel(Actor{ID: "u2", Role: RoleRequester}, p, false, now)
	assert.ErrorIs(t, err, ErrPermission)

	// back at pendente after a declined delegation, but still referenced
	_, err = Cancel(owner, p, true, now)
	assert.ErrorIs(t, err, ErrState)
}

func TestDeliveryMetricsValidate(t *testing.T) {
	assert.NoError(t, DeliveryMetrics{}.Validate())
	assert.ErrorIs(t, DeliveryMetrics{FoodKgDelivered: -0.5}.Validate(), ErrValidation)
	assert.ErrorIs(t, DeliveryMetrics{ValueDelivered: -1}.Validate(), ErrValidation)
}
