package domain

import (
	"fmt"
	"math"
	"time"
)

// DeliveryMetrics is what an institution reports when it concludes work.
type DeliveryMetrics struct {
	BasketsDelivered int     `json:"basketsDelivered"`
	FoodKgDelivered  float64 `json:"foodKgDelivered"`
	ValueDelivered   float64 `json:"valueDelivered"`
}

func (m DeliveryMetrics) Validate() error {
	if m.BasketsDelivered < 0 {
		return ValidationError{Reason: "delivered baskets cannot be negative"}
	}
	if m.FoodKgDelivered < 0 || math.IsNaN(m.FoodKgDelivered) || math.IsInf(m.FoodKgDelivered, 0) {
		return ValidationError{Reason: "delivered food weight must be a non-negative number"}
	}
	if m.ValueDelivered < 0 || math.IsNaN(m.ValueDelivered) || math.IsInf(m.ValueDelivered, 0) {
		return ValidationError{Reason: "delivered value must be a non-negative number"}
	}
	return nil
}

// ReportDelivery closes an accepted delegation over a receipt request,
// writing the metrics onto the request.
func (d *Delegation) ReportDelivery(actor Actor, r Request, m DeliveryMetrics, now time.Time) (Event, error) {
	if err := d.checkTarget(actor, r, "report deliveries"); err != nil {
		return Event{}, err
	}
	if d.Status != DelegationAccepted {
		return Event{}, StateError{Reason: "delegation " + d.ID + " is " + string(d.Status) + ", deliveries need an accepted delegation"}
	}
	receipt, ok := r.(*ReceiptRequest)
	if !ok {
		return Event{}, StateError{Reason: "deliveries can only be reported for receipt requests"}
	}
	if err := m.Validate(); err != nil {
		return Event{}, err
	}
	if err := receipt.canMove(RequestDelivered); err != nil {
		return Event{}, err
	}

	deliveredAt := now
	receipt.Fulfillment = Fulfillment{
		BasketsDelivered: m.BasketsDelivered,
		FoodKgDelivered:  m.FoodKgDelivered,
		ValueDelivered:   m.ValueDelivered,
		DeliveredAt:      &deliveredAt,
	}
	receipt.move(RequestDelivered)
	d.Status = DelegationConcluded

	e := newRequestEvent(EventDeliveryReported, "", actor, receipt, fmt.Sprintf("%d cestas, %.2f kg, R$%.2f", m.BasketsDelivered, m.FoodKgDelivered, m.ValueDelivered), now)
	e.InstitutionID = d.InstitutionID
	return e, nil
}

// InstitutionImpact totals the deliveries an institution concluded.
type InstitutionImpact struct {
	InstitutionID    string  `json:"institutionId"`
	BasketsDelivered int64   `json:"basketsDelivered"`
	FoodKgDelivered  float64 `json:"foodKgDelivered"`
	ValueDelivered   float64 `json:"valueDelivered"`
	RequestsHelped   int64   `json:"requestsHelped"`
}
