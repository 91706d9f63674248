package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is the delivery order aggregate root. It owns the order status and
// the courier assignment; customer, merchant and money fields are written
// once by the storefront and only read here.
//
// Order follows these invariants:
//   - id, customer and merchant are valid UUIDs
//   - subtotal and delivery fee are non-negative and total is their sum
//   - a pending order has no courier, any later non-cancelled status has one
//   - status only changes through Apply, following Transitions
type Order struct {
	id         kernel.UUID
	customerID kernel.UUID
	merchantID kernel.UUID

	// courierID is nil until a courier accepts the order.
	courierID *kernel.UUID

	// vehicleID is the courier's approved vehicle at accept time, if any.
	vehicleID *kernel.UUID

	status Status

	// money in minor units
	subtotal    int64
	deliveryFee int64
	total       int64

	deliveryAddress string

	createdAt   time.Time
	deliveredAt *time.Time

	isConstructed bool
}

// NewOrder creates a pending order without courier.
//
// Example:
//
//	o, err := order.NewOrder(kernel.NewUUID(), customerID, merchantID, 1500, 300,
//	    "Av. Principal, Caracas", time.Now())
//	if err != nil {
//	    return err
//	}
func NewOrder(
	id, customerID, merchantID kernel.UUID,
	subtotal, deliveryFee int64,
	deliveryAddress string,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		createdAt:     createdAt,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomer(customerID),
		o.setMerchant(merchantID),
		o.setAmounts(subtotal, deliveryFee),
		o.setDeliveryAddress(deliveryAddress),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder rebuilds an order from storage. It checks the same field
// rules as NewOrder plus the status/courier pairing.
func RestoreOrder(
	id, customerID, merchantID kernel.UUID,
	courierID, vehicleID *kernel.UUID,
	status Status,
	subtotal, deliveryFee int64,
	deliveryAddress string,
	createdAt time.Time,
	deliveredAt *time.Time,
) (*Order, error) {
	o := &Order{
		courierID:     courierID,
		vehicleID:     vehicleID,
		status:        status,
		createdAt:     createdAt,
		deliveredAt:   deliveredAt,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomer(customerID),
		o.setMerchant(merchantID),
		o.setAmounts(subtotal, deliveryFee),
		o.setDeliveryAddress(deliveryAddress),
		status.Validate(),
		status.ValidateCanHaveCourier(courierID != nil),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order was built by a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares orders by identity.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) Customer() kernel.UUID {
	return o.customerID
}

func (o *Order) Merchant() kernel.UUID {
	return o.merchantID
}

// Courier returns the assigned courier, or nil while the order is pending.
func (o *Order) Courier() *kernel.UUID {
	return o.courierID
}

func (o *Order) Vehicle() *kernel.UUID {
	return o.vehicleID
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) Subtotal() int64 {
	return o.subtotal
}

func (o *Order) DeliveryFee() int64 {
	return o.deliveryFee
}

func (o *Order) Total() int64 {
	return o.total
}

func (o *Order) DeliveryAddress() string {
	return o.deliveryAddress
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) DeliveredAt() *time.Time {
	return o.deliveredAt
}

// Apply fires event on the order on behalf of actorID and returns the
// status the order was in before. vehicleID is the actor's approved
// vehicle and is only recorded on accept; it may be nil.
//
// Apply checks the source status and the event's state guards; whether the
// actor is allowed to request the event at all is decided by the caller
// before Apply runs. On error the order is left untouched.
//
// Field updates per event:
//   - accept: courier = actor, vehicle = vehicleID (guard: no courier yet)
//   - deliver: deliveredAt = now
func (o *Order) Apply(event Event, actorID kernel.UUID, vehicleID *kernel.UUID, now time.Time) (Status, error) {
	if err := o.Validate(); err != nil {
		return Unknown, err
	}
	if err := actorID.Validate(); err != nil {
		return Unknown, err
	}

	from := o.status
	to, err := from.Fire(event)
	if err != nil {
		return Unknown, err
	}

	switch event {
	case Accept:
		if o.courierID != nil {
			return Unknown, errs.NewStateConflictError(AggregateName, string(event), from.String(), "courier already assigned")
		}
		courier := actorID
		o.courierID = &courier
		o.vehicleID = vehicleID
	case Deliver:
		at := now
		o.deliveredAt = &at
	case MarkReady, StartDelivery, Cancel:
	}

	o.status = to
	return from, nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomer(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer", err)
	}
	o.customerID = id
	return nil
}

func (o *Order) setMerchant(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("merchant", err)
	}
	o.merchantID = id
	return nil
}

func (o *Order) setAmounts(subtotal, deliveryFee int64) error {
	if subtotal < 0 {
		return errs.NewValueIsInvalidErrorWithCause("subtotal", fmt.Errorf("%d is negative", subtotal))
	}
	if deliveryFee < 0 {
		return errs.NewValueIsInvalidErrorWithCause("delivery fee", fmt.Errorf("%d is negative", deliveryFee))
	}
	o.subtotal = subtotal
	o.deliveryFee = deliveryFee
	o.total = subtotal + deliveryFee
	return nil
}

func (o *Order) setDeliveryAddress(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return errs.NewValueIsRequiredError("delivery address")
	}
	o.deliveryAddress = address
	return nil
}
