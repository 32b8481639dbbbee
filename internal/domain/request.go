package domain

import (
	"strings"
	"time"
)

// RequestStatus is shared by both request kinds; each kind admits its own
// subset through its transition table.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pendente"
	RequestApproved  RequestStatus = "aprovada"
	RequestDelegated RequestStatus = "delegada"
	RequestAccepted  RequestStatus = "aceita"
	RequestRejected  RequestStatus = "rejeitada"
	RequestDelivered RequestStatus = "entregue"
)

var donationTransitions = transitions[RequestStatus]{
	RequestPending:   {RequestDelegated, RequestRejected},
	RequestDelegated: {RequestAccepted, RequestPending},
	RequestAccepted:  {RequestPending},
	RequestRejected:  {},
}

var receiptTransitions = transitions[RequestStatus]{
	RequestPending:   {RequestApproved, RequestDelegated, RequestRejected},
	RequestApproved:  {RequestDelegated, RequestRejected},
	RequestDelegated: {RequestAccepted, RequestPending},
	RequestAccepted:  {RequestPending, RequestDelivered},
	RequestRejected:  {},
	RequestDelivered: {},
}

// RequestKind names the two request variants.
type RequestKind string

const (
	KindDonation RequestKind = ItemTypeDonation
	KindReceipt  RequestKind = ItemTypeReceipt
)

// RequestRef identifies exactly one request of one kind. It is implemented
// only by DonationRef and ReceiptRef.
type RequestRef interface {
	Kind() RequestKind
	RequestID() string
	isRequestRef()
}

type DonationRef struct{ ID string }

func (r DonationRef) Kind() RequestKind { return KindDonation }
func (r DonationRef) RequestID() string { return r.ID }
func (DonationRef) isRequestRef()       {}

type ReceiptRef struct{ ID string }

func (r ReceiptRef) Kind() RequestKind { return KindReceipt }
func (r ReceiptRef) RequestID() string { return r.ID }
func (ReceiptRef) isRequestRef()       {}

// NewRequestRef parses the (kind, id) pair used on the wire.
func NewRequestRef(kind string, id string) (RequestRef, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ValidationError{Reason: "request id is required"}
	}
	switch RequestKind(kind) {
	case KindDonation:
		return DonationRef{ID: id}, nil
	case KindReceipt:
		return ReceiptRef{ID: id}, nil
	default:
		return nil, ValidationError{Reason: "unknown request kind " + kind}
	}
}

// Request is the behaviour the delegation engine needs from either kind.
type Request interface {
	Ref() RequestRef
	Owner() string
	Title() string
	State() RequestStatus
	canMove(to RequestStatus) error
	move(to RequestStatus)
}

// DonationKind distinguishes monetary pledges from item donations.
type DonationKind string

const (
	DonationMonetary DonationKind = "monetaria"
	DonationItem     DonationKind = "item"
)

// DonationRequest is an offer to give.
type DonationRequest struct {
	ID               string        `json:"id"`
	OwnerID          string        `json:"ownerId"`
	Kind             DonationKind  `json:"kind"`
	DonorName        string        `json:"donorName"`
	Phone            string        `json:"phone"`
	Address          string        `json:"address"`
	ReceiptRequestID *string       `json:"receiptRequestId,omitempty"`
	DeliveryPlace    string        `json:"deliveryPlace,omitempty"`
	DeliveryDate     *time.Time    `json:"deliveryDate,omitempty"`
	Value            float64       `json:"value,omitempty"`
	Status           RequestStatus `json:"status"`
	CreatedAt        time.Time     `json:"createdAt"`
}

func (d *DonationRequest) Ref() RequestRef      { return DonationRef{ID: d.ID} }
func (d *DonationRequest) Owner() string        { return d.OwnerID }
func (d *DonationRequest) Title() string        { return d.DonorName }
func (d *DonationRequest) State() RequestStatus { return d.Status }

func (d *DonationRequest) canMove(to RequestStatus) error {
	return donationTransitions.check("donation request "+d.ID, d.Status, to)
}

func (d *DonationRequest) move(to RequestStatus) { d.Status = to }

// Fulfillment holds the delivery metrics written by Delivery Reporting.
type Fulfillment struct {
	BasketsDelivered int        `json:"basketsDelivered"`
	FoodKgDelivered  float64    `json:"foodKgDelivered"`
	ValueDelivered   float64    `json:"valueDelivered"`
	DeliveredAt      *time.Time `json:"deliveredAt,omitempty"`
}

// ReceiptRequest is a request for aid.
type ReceiptRequest struct {
	ID             string        `json:"id"`
	OwnerID        string        `json:"ownerId"`
	Name           string        `json:"name"`
	Phone          string        `json:"phone"`
	Address        string        `json:"address"`
	HouseholdSize  int           `json:"householdSize"`
	Needs          string        `json:"needs"`
	Baskets        int           `json:"baskets"`
	HygieneKits    int           `json:"hygieneKits"`
	Pads           int           `json:"pads"`
	ChildDiapers   int           `json:"childDiapers"`
	ElderlyDiapers int           `json:"elderlyDiapers"`
	PixKeyType     string        `json:"pixKeyType,omitempty"`
	PixKey         string        `json:"pixKey,omitempty"`
	Fulfillment    Fulfillment   `json:"fulfillment"`
	Status         RequestStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
}

func (r *ReceiptRequest) Ref() RequestRef      { return ReceiptRef{ID: r.ID} }
func (r *ReceiptRequest) Owner() string        { return r.OwnerID }
func (r *ReceiptRequest) Title() string        { return r.Name }
func (r *ReceiptRequest) State() RequestStatus { return r.Status }

func (r *ReceiptRequest) canMove(to RequestStatus) error {
	return receiptTransitions.check("receipt request "+r.ID, r.Status, to)
}

func (r *ReceiptRequest) move(to RequestStatus) { r.Status = to }

// NewReceiptInput carries the fields a requester submits when asking for aid.
type NewReceiptInput struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	HouseholdSize  int    `json:"householdSize"`
	Needs          string `json:"needs"`
	Baskets        int    `json:"baskets"`
	HygieneKits    int    `json:"hygieneKits"`
	Pads           int    `json:"pads"`
	ChildDiapers   int    `json:"childDiapers"`
	ElderlyDiapers int    `json:"elderlyDiapers"`
	PixKeyType     string `json:"pixKeyType"`
	PixKey         string `json:"pixKey"`
}

// NewReceiptRequest validates the input and builds a pending request.
func NewReceiptRequest(id string, actor Actor, in NewReceiptInput, now time.Time) (ReceiptRequest, Event, error) {
	if err := actor.Require(RoleRequester, "request aid"); err != nil {
		return ReceiptRequest{}, Event{}, err
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Phone) == "" || strings.TrimSpace(in.Address) == "" {
		return ReceiptRequest{}, Event{}, ValidationError{Reason: "name, phone and address are required"}
	}
	if strings.TrimSpace(in.Needs) == "" {
		return ReceiptRequest{}, Event{}, ValidationError{Reason: "needs description is required"}
	}
	if in.HouseholdSize < 1 {
		return ReceiptRequest{}, Event{}, ValidationError{Reason: "household size must be at least 1"}
	}
	if in.Baskets < 0 || in.HygieneKits < 0 || in.Pads < 0 || in.ChildDiapers < 0 || in.ElderlyDiapers < 0 {
		return ReceiptRequest{}, Event{}, ValidationError{Reason: "item quantities cannot be negative"}
	}

	r := ReceiptRequest{
		ID:             id,
		OwnerID:        actor.ID,
		Name:           strings.TrimSpace(in.Name),
		Phone:          strings.TrimSpace(in.Phone),
		Address:        strings.TrimSpace(in.Address),
		HouseholdSize:  in.HouseholdSize,
		Needs:          strings.TrimSpace(in.Needs),
		Baskets:        in.Baskets,
		HygieneKits:    in.HygieneKits,
		Pads:           in.Pads,
		ChildDiapers:   in.ChildDiapers,
		ElderlyDiapers: in.ElderlyDiapers,
		PixKeyType:     in.PixKeyType,
		PixKey:         in.PixKey,
		Status:         RequestPending,
		CreatedAt:      now,
	}
	return r, newRequestEvent(EventRequestCreated, "", actor, &r, "", now), nil
}

// NewDonationInput carries the fields of a donation offer.
type NewDonationInput struct {
	Kind             DonationKind `json:"kind"`
	DonorName        string       `json:"donorName"`
	Phone            string       `json:"phone"`
	Address          string       `json:"address"`
	ReceiptRequestID *string      `json:"receiptRequestId"`
	DeliveryPlace    string       `json:"deliveryPlace"`
	DeliveryDate     *time.Time   `json:"deliveryDate"`
	Value            float64      `json:"value"`
}

// NewDonationRequest validates a donation offer. target is the receipt
// request the offer points at, nil when it is untargeted.
func NewDonationRequest(id string, actor Actor, in NewDonationInput, target *ReceiptRequest, now time.Time) (DonationRequest, Event, error) {
	if err := actor.Require(RoleRequester, "offer a donation"); err != nil {
		return DonationRequest{}, Event{}, err
	}
	if strings.TrimSpace(in.DonorName) == "" {
		return DonationRequest{}, Event{}, ValidationError{Reason: "donor name is required"}
	}
	if in.ReceiptRequestID != nil && target == nil {
		return DonationRequest{}, Event{}, NotFoundError{Resource: "receipt request"}
	}
	if target != nil && target.Status != RequestApproved {
		return DonationRequest{}, Event{}, StateError{Reason: "receipt request " + target.ID + " is not open for donations"}
	}

	d := DonationRequest{
		ID:               id,
		OwnerID:          actor.ID,
		Kind:             in.Kind,
		DonorName:        strings.TrimSpace(in.DonorName),
		Phone:            in.Phone,
		Address:          in.Address,
		ReceiptRequestID: in.ReceiptRequestID,
		Status:           RequestPending,
		CreatedAt:        now,
	}

	switch in.Kind {
	case DonationMonetary:
		if in.Value <= 0 {
			return DonationRequest{}, Event{}, ValidationError{Reason: "donation value must be positive"}
		}
		d.Value = in.Value
		if target != nil {
			// Pix pledges to an approved request are recorded as accepted.
			d.Status = RequestAccepted
		}
	case DonationItem:
		if strings.TrimSpace(in.DeliveryPlace) == "" || in.DeliveryDate == nil {
			return DonationRequest{}, Event{}, ValidationError{Reason: "delivery place and date are required"}
		}
		d.DeliveryPlace = strings.TrimSpace(in.DeliveryPlace)
		d.DeliveryDate = in.DeliveryDate
	default:
		return DonationRequest{}, Event{}, ValidationError{Reason: "unknown donation kind " + string(in.Kind)}
	}

	return d, newRequestEvent(EventRequestCreated, "", actor, &d, "", now), nil
}

// Approve clears a receipt request for public donor matching.
func Approve(moderator Actor, r Request, now time.Time) (Event, error) {
	if err := moderator.Require(RoleModerator, "approve requests"); err != nil {
		return Event{}, err
	}
	if _, ok := r.(*ReceiptRequest); !ok {
		return Event{}, ValidationError{Reason: "only receipt requests can be approved"}
	}
	if err := r.canMove(RequestApproved); err != nil {
		return Event{}, err
	}
	r.move(RequestApproved)
	return newRequestEvent(EventRequestApproved, "aprovou_", moderator, r, "", now), nil
}

// Reject moves a request to the terminal rejected status. Requests with an
// active delegation must be declined by their institution first.
func Reject(moderator Actor, r Request, detail string, now time.Time) (Event, error) {
	if err := moderator.Require(RoleModerator, "reject requests"); err != nil {
		return Event{}, err
	}
	switch r.State() {
	case RequestDelegated, RequestAccepted:
		return Event{}, StateError{Reason: "request " + r.Ref().RequestID() + " has an active delegation"}
	}
	if err := r.canMove(RequestRejected); err != nil {
		return Event{}, err
	}
	r.move(RequestRejected)
	return newRequestEvent(EventRequestRejected, "rejeitou_", moderator, r, detail, now), nil
}

// Cancel checks that the owner may withdraw r. The caller deletes the row.
// referenced reports whether any delegation, of any status, points at r;
// those rows are kept forever, so r cannot be deleted under them.
func Cancel(owner Actor, r Request, referenced bool, now time.Time) (Event, error) {
	if owner.ID == "" || owner.ID != r.Owner() {
		return Event{}, PermissionError{Reason: "only the owner can cancel a request"}
	}
	if r.State() != RequestPending {
		return Event{}, StateError{Reason: "request " + r.Ref().RequestID() + " is " + string(r.State()) + " and can no longer be cancelled"}
	}
	if referenced {
		return Event{}, StateError{Reason: "request " + r.Ref().RequestID() + " has delegation history and can no longer be cancelled"}
	}
	return newRequestEvent(EventRequestCancelled, "", owner, r, "", now), nil
}

func newRequestEvent(t EventType, actionPrefix string, actor Actor, r Request, detail string, now time.Time) Event {
	kind := string(r.Ref().Kind())
	action := ""
	if actionPrefix != "" {
		action = actionPrefix + kind
	}
	return Event{
		Type:       t,
		Action:     action,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Origin:     actor.Origin,
		ItemType:   kind,
		ItemID:     r.Ref().RequestID(),
		ItemName:   r.Title(),
		Detail:     detail,
		Status:     string(r.State()),
		OccurredAt: now,
	}
}
