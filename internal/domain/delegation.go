package domain

import (
	"encoding/json"
	"time"
)

type DelegationStatus string

const (
	DelegationPending   DelegationStatus = "pendente"
	DelegationAccepted  DelegationStatus = "aceita"
	DelegationDeclined  DelegationStatus = "recusada"
	DelegationConcluded DelegationStatus = "concluida"
)

var delegationTransitions = transitions[DelegationStatus]{
	DelegationPending:   {DelegationAccepted, DelegationDeclined},
	DelegationAccepted:  {DelegationDeclined, DelegationConcluded},
	DelegationDeclined:  {},
	DelegationConcluded: {},
}

// Active reports whether the delegation still binds its request.
func (s DelegationStatus) Active() bool {
	return s == DelegationPending || s == DelegationAccepted
}

func (s DelegationStatus) Valid() bool {
	_, ok := delegationTransitions[s]
	return ok
}

// Delegation binds one request to the moderator who delegated it and the
// institution that must answer.
type Delegation struct {
	ID            string
	ModeratorID   string
	InstitutionID string
	Target        RequestRef
	Status        DelegationStatus
	CreatedAt     time.Time
}

type delegationJSON struct {
	ID            string           `json:"id"`
	ModeratorID   string           `json:"moderatorId"`
	InstitutionID string           `json:"institutionId"`
	Kind          RequestKind      `json:"kind"`
	RequestID     string           `json:"requestId"`
	Status        DelegationStatus `json:"status"`
	CreatedAt     time.Time        `json:"createdAt"`
}

func (d Delegation) MarshalJSON() ([]byte, error) {
	v := delegationJSON{
		ID:            d.ID,
		ModeratorID:   d.ModeratorID,
		InstitutionID: d.InstitutionID,
		Status:        d.Status,
		CreatedAt:     d.CreatedAt,
	}
	if d.Target != nil {
		v.Kind = d.Target.Kind()
		v.RequestID = d.Target.RequestID()
	}
	return json.Marshal(v)
}

// Delegate binds r to institution. active is the request's current
// non-terminal delegation, nil when there is none; institution is nil when
// the id did not resolve.
func Delegate(id string, moderator Actor, institution *Principal, r Request, active *Delegation, now time.Time) (Delegation, Event, error) {
	if err := moderator.Require(RoleModerator, "delegate requests"); err != nil {
		return Delegation{}, Event{}, err
	}
	if institution == nil {
		return Delegation{}, Event{}, ValidationError{Reason: "institution does not exist"}
	}
	if err := institution.CheckDelegationTarget(); err != nil {
		return Delegation{}, Event{}, err
	}
	if active != nil && active.Status.Active() {
		return Delegation{}, Event{}, ConflictError{Reason: "request " + r.Ref().RequestID() + " already has delegation " + active.ID}
	}
	if err := r.canMove(RequestDelegated); err != nil {
		return Delegation{}, Event{}, err
	}

	d := Delegation{
		ID:            id,
		ModeratorID:   moderator.ID,
		InstitutionID: institution.ID,
		Target:        r.Ref(),
		Status:        DelegationPending,
		CreatedAt:     now,
	}
	r.move(RequestDelegated)

	e := newRequestEvent(EventDelegationCreated, "delegou_", moderator, r, "delegada para "+institution.DisplayName(), now)
	e.InstitutionID = institution.ID
	return d, e, nil
}

func (d *Delegation) checkTarget(actor Actor, r Request, operation string) error {
	if err := actor.Require(RoleInstitution, operation); err != nil {
		return err
	}
	if d.InstitutionID != actor.ID {
		return StateError{Reason: "delegation " + d.ID + " targets a different institution"}
	}
	if d.Target == nil || r == nil || d.Target != r.Ref() {
		return StateError{Reason: "delegation " + d.ID + " does not reference the given request"}
	}
	return nil
}

// Accept records the institution's acceptance. Accepting an already
// accepted delegation is a no-op and reports changed=false.
func (d *Delegation) Accept(actor Actor, r Request, now time.Time) (changed bool, e Event, err error) {
	if err := d.checkTarget(actor, r, "accept delegations"); err != nil {
		return false, Event{}, err
	}
	if d.Status == DelegationAccepted {
		return false, Event{}, nil
	}
	if err := delegationTransitions.check("delegation "+d.ID, d.Status, DelegationAccepted); err != nil {
		return false, Event{}, err
	}
	if err := r.canMove(RequestAccepted); err != nil {
		return false, Event{}, err
	}
	d.Status = DelegationAccepted
	r.move(RequestAccepted)

	e = newRequestEvent(EventDelegationAccepted, "", actor, r, "", now)
	e.InstitutionID = d.InstitutionID
	return true, e, nil
}

// Decline ends the delegation for good and hands the request back to the
// moderation queue.
func (d *Delegation) Decline(actor Actor, r Request, now time.Time) (Event, error) {
	if err := d.checkTarget(actor, r, "decline delegations"); err != nil {
		return Event{}, err
	}
	if err := delegationTransitions.check("delegation "+d.ID, d.Status, DelegationDeclined); err != nil {
		return Event{}, err
	}
	if err := r.canMove(RequestPending); err != nil {
		return Event{}, err
	}
	d.Status = DelegationDeclined
	r.move(RequestPending)

	e := newRequestEvent(EventDelegationDeclined, "", actor, r, "", now)
	e.InstitutionID = d.InstitutionID
	return e, nil
}
