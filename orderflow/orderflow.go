// Package orderflow implements the order lifecycle: the three status axes,
// the legal transitions between them, and the checkout snapshot rules.
//
// The three axes are always updated together per transition so an order can
// never be observed in a combination the transition table cannot produce.
package orderflow

import (
	"errors"
	"regexp"
)

type Status string

const (
	StatusCreated         Status = "created"
	StatusPaid            Status = "paid"
	StatusProcessing      Status = "processing"
	StatusShipped         Status = "shipped"
	StatusDelivered       Status = "delivered"
	StatusPickedUp        Status = "picked_up"
	StatusCompleted       Status = "completed"
	StatusCanceled        Status = "canceled"
	StatusReturnRequested Status = "return_requested"
	StatusReturned        Status = "returned"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type ShippingStatus string

const (
	ShippingNotShipped ShippingStatus = "not_shipped"
	ShippingPending    ShippingStatus = "pending"
	ShippingInTransit  ShippingStatus = "in_transit"
	ShippingDelivered  ShippingStatus = "delivered"
	ShippingPickedUp   ShippingStatus = "picked_up"
	ShippingReturning  ShippingStatus = "returning"
	ShippingReturned   ShippingStatus = "returned"
)

// Actor identifies who is attempting a transition.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorAdmin    Actor = "admin"
	ActorGateway  Actor = "gateway"
)

var (
	// ErrInvalidTransition is returned when a transition is attempted from a
	// state it is not legal in. Reaching it means either a concurrent actor
	// changed the order or a client bug; it is reported, never swallowed.
	ErrInvalidTransition = errors.New("orderflow: transition not allowed from current state")

	// ErrForbiddenActor is returned when the actor may not trigger the
	// requested transition at all.
	ErrForbiddenActor = errors.New("orderflow: actor may not perform this transition")

	// ErrBadTrackingNo is returned for tracking numbers that are not 8-20
	// alphanumeric characters.
	ErrBadTrackingNo = errors.New("orderflow: invalid tracking number")
)

var trackingNoRe = regexp.MustCompile(`^[A-Za-z0-9]{8,20}$`)

// State bundles the three axes an order carries.
type State struct {
	Status         Status
	PaymentStatus  PaymentStatus
	ShippingStatus ShippingStatus
}

// NewState is the state of a freshly created order.
func NewState() State {
	return State{
		Status:         StatusCreated,
		PaymentStatus:  PaymentUnpaid,
		ShippingStatus: ShippingNotShipped,
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s.Status {
	case StatusCompleted, StatusCanceled, StatusReturned:
		return true
	}
	return false
}

// CanRepay reports whether the customer may be sent back to checkout to pay.
func (s State) CanRepay() bool {
	return s.PaymentStatus == PaymentUnpaid && s.Status != StatusCanceled
}

// MarkPaid records a verified payment callback. Only the gateway actor may
// call it. It is idempotent: an already-paid order is returned unchanged so
// callback re-delivery never double-applies, and a state later than "created"
// is never regressed.
func (s State) MarkPaid(actor Actor) (State, bool, error) {
	if actor != ActorGateway {
		return s, false, ErrForbiddenActor
	}
	if s.PaymentStatus == PaymentPaid {
		return s, false, nil
	}
	if s.Status == StatusCanceled {
		return s, false, ErrInvalidTransition
	}
	s.PaymentStatus = PaymentPaid
	if s.Status == StatusCreated {
		s.Status = StatusPaid
	}
	return s, true, nil
}

// StartProcessing moves a paid order into preparation.
func (s State) StartProcessing(actor Actor) (State, error) {
	if actor != ActorAdmin {
		return s, ErrForbiddenActor
	}
	if s.Status != StatusPaid {
		return s, ErrInvalidTransition
	}
	s.Status = StatusProcessing
	s.ShippingStatus = ShippingPending
	return s, nil
}

// Ship dispatches a paid order with a carrier tracking number.
func (s State) Ship(actor Actor, trackingNo string) (State, error) {
	if actor != ActorAdmin {
		return s, ErrForbiddenActor
	}
	if !trackingNoRe.MatchString(trackingNo) {
		return s, ErrBadTrackingNo
	}
	if s.Status != StatusPaid && s.Status != StatusProcessing {
		return s, ErrInvalidTransition
	}
	s.Status = StatusShipped
	s.ShippingStatus = ShippingInTransit
	return s, nil
}

// MarkDelivered records carrier delivery; pickup selects the store-pickup
// variant of the same step.
func (s State) MarkDelivered(actor Actor, pickup bool) (State, error) {
	if actor != ActorAdmin {
		return s, ErrForbiddenActor
	}
	if s.Status != StatusShipped {
		return s, ErrInvalidTransition
	}
	if pickup {
		s.Status = StatusPickedUp
		s.ShippingStatus = ShippingPickedUp
	} else {
		s.Status = StatusDelivered
		s.ShippingStatus = ShippingDelivered
	}
	return s, nil
}

// Complete is the customer's self-attested receipt of the order.
func (s State) Complete(actor Actor) (State, error) {
	if actor != ActorCustomer {
		return s, ErrForbiddenActor
	}
	if s.Status != StatusDelivered && s.Status != StatusPickedUp {
		return s, ErrInvalidTransition
	}
	s.Status = StatusCompleted
	return s, nil
}

// Cancel aborts an order. Customers may cancel only before payment; admins
// may also cancel paid orders that have not shipped yet.
func (s State) Cancel(actor Actor) (State, error) {
	switch actor {
	case ActorCustomer:
		if s.Status != StatusCreated {
			return s, ErrInvalidTransition
		}
	case ActorAdmin:
		switch s.Status {
		case StatusCreated, StatusPaid, StatusProcessing:
		default:
			return s, ErrInvalidTransition
		}
	default:
		return s, ErrForbiddenActor
	}
	s.Status = StatusCanceled
	return s, nil
}

// RequestReturn opens a return on a delivered or picked-up order.
func (s State) RequestReturn(actor Actor) (State, error) {
	if actor != ActorCustomer {
		return s, ErrForbiddenActor
	}
	if s.Status != StatusDelivered && s.Status != StatusPickedUp {
		return s, ErrInvalidTransition
	}
	s.Status = StatusReturnRequested
	s.ShippingStatus = ShippingReturning
	return s, nil
}

// AcceptReturn closes a requested return and refunds the payment.
func (s State) AcceptReturn(actor Actor) (State, error) {
	if actor != ActorAdmin {
		return s, ErrForbiddenActor
	}
	if s.Status != StatusReturnRequested {
		return s, ErrInvalidTransition
	}
	s.Status = StatusReturned
	s.ShippingStatus = ShippingReturned
	if s.PaymentStatus == PaymentPaid {
		s.PaymentStatus = PaymentRefunded
	}
	return s, nil
}
