package trip

import (
	"errors"
	"fmt"
	"time"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/vehicle"
	"superservice/internal/pkg/errs"
)

var ErrTripIsNotConstructed = errors.New("Trip must be created via NewTrip constructor")

// ServiceType is the class of vehicle the customer asked for.
type ServiceType string

const (
	Economy  ServiceType = "economy"
	Premium  ServiceType = "premium"
	MotoTaxi ServiceType = "moto"
)

func (s ServiceType) Validate() error {
	switch s {
	case Economy, Premium, MotoTaxi:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("service type", fmt.Errorf("%q is not a service type", string(s)))
	}
}

// Trip is the ride aggregate root. Like order.Order it only changes status
// through Apply.
type Trip struct {
	id          kernel.UUID
	customerID  kernel.UUID
	driverID    *kernel.UUID
	vehicleID   *kernel.UUID
	origin      kernel.GeoPoint
	destination kernel.GeoPoint
	serviceType ServiceType
	status      Status

	// fares in minor units, nil when not yet known
	estimatedFare *int64
	finalFare     *int64

	createdAt   time.Time
	startedAt   *time.Time
	finalizedAt *time.Time

	isConstructed bool
}

// NewTrip creates a requested trip.
func NewTrip(
	id, customerID kernel.UUID,
	origin, destination kernel.GeoPoint,
	serviceType ServiceType,
	estimatedFare *int64,
	createdAt time.Time,
) (*Trip, error) {
	t := &Trip{
		status:        Requested,
		serviceType:   serviceType,
		createdAt:     createdAt,
		isConstructed: true,
	}

	if err := errors.Join(
		t.setID(id),
		t.setCustomer(customerID),
		t.setRoute(origin, destination),
		serviceType.Validate(),
		t.setEstimatedFare(estimatedFare),
	); err != nil {
		return nil, err
	}
	return t, nil
}

// RestoreTrip rebuilds a trip from storage.
func RestoreTrip(
	id, customerID kernel.UUID,
	driverID, vehicleID *kernel.UUID,
	origin, destination kernel.GeoPoint,
	serviceType ServiceType,
	status Status,
	estimatedFare, finalFare *int64,
	createdAt time.Time,
	startedAt, finalizedAt *time.Time,
) (*Trip, error) {
	t := &Trip{
		driverID:      driverID,
		vehicleID:     vehicleID,
		serviceType:   serviceType,
		status:        status,
		finalFare:     finalFare,
		createdAt:     createdAt,
		startedAt:     startedAt,
		finalizedAt:   finalizedAt,
		isConstructed: true,
	}

	if err := errors.Join(
		t.setID(id),
		t.setCustomer(customerID),
		t.setRoute(origin, destination),
		serviceType.Validate(),
		t.setEstimatedFare(estimatedFare),
		status.Validate(),
		status.ValidateCanHaveDriver(driverID != nil),
	); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trip) Validate() error {
	if t == nil || !t.isConstructed {
		return ErrTripIsNotConstructed
	}
	return nil
}

func (t *Trip) IsEqual(other *Trip) bool {
	return other != nil && t.id.IsEqual(other.id)
}

func (t *Trip) ID() kernel.UUID {
	return t.id
}

func (t *Trip) Customer() kernel.UUID {
	return t.customerID
}

// Driver returns the assigned driver, nil while requested.
func (t *Trip) Driver() *kernel.UUID {
	return t.driverID
}

func (t *Trip) Vehicle() *kernel.UUID {
	return t.vehicleID
}

func (t *Trip) Origin() kernel.GeoPoint {
	return t.origin
}

func (t *Trip) Destination() kernel.GeoPoint {
	return t.destination
}

func (t *Trip) ServiceType() ServiceType {
	return t.serviceType
}

func (t *Trip) Status() Status {
	return t.status
}

func (t *Trip) EstimatedFare() *int64 {
	return t.estimatedFare
}

func (t *Trip) FinalFare() *int64 {
	return t.finalFare
}

func (t *Trip) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Trip) StartedAt() *time.Time {
	return t.startedAt
}

func (t *Trip) FinalizedAt() *time.Time {
	return t.finalizedAt
}

// Apply fires event on behalf of actorID and returns the previous status.
// On accept, v must be an approved vehicle owned by the actor; it is
// ignored for the other events.
//
// Field updates per event:
//   - accept: driver = actor, vehicle = v
//   - start_trip: startedAt = now
//   - complete: finalizedAt = now, final fare defaults to the estimate
//
// On error the trip is left untouched.
func (t *Trip) Apply(event Event, actorID kernel.UUID, v *vehicle.Vehicle, now time.Time) (Status, error) {
	if err := t.Validate(); err != nil {
		return Unknown, err
	}
	if err := actorID.Validate(); err != nil {
		return Unknown, err
	}

	from := t.status
	to, err := from.Fire(event)
	if err != nil {
		return Unknown, err
	}

	switch event {
	case Accept:
		if t.driverID != nil {
			return Unknown, errs.NewStateConflictError(AggregateName, string(event), from.String(), "driver already assigned")
		}
		if !v.CanServe(actorID) {
			return Unknown, errs.NewForbiddenError(actorID.String(), event.Action(), "driver has no approved vehicle")
		}
		driver := actorID
		vehicleID := v.ID()
		t.driverID = &driver
		t.vehicleID = &vehicleID
	case StartTrip:
		at := now
		t.startedAt = &at
	case Complete:
		at := now
		t.finalizedAt = &at
		if t.finalFare == nil && t.estimatedFare != nil {
			fare := *t.estimatedFare
			t.finalFare = &fare
		}
	case StartPickup, Cancel:
	}

	t.status = to
	return from, nil
}

func (t *Trip) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.id = id
	return nil
}

func (t *Trip) setCustomer(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer", err)
	}
	t.customerID = id
	return nil
}

func (t *Trip) setRoute(origin, destination kernel.GeoPoint) error {
	if err := errors.Join(origin.Validate(), destination.Validate()); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("route", err)
	}
	t.origin = origin
	t.destination = destination
	return nil
}

func (t *Trip) setEstimatedFare(fare *int64) error {
	if fare != nil && *fare < 0 {
		return errs.NewValueIsInvalidErrorWithCause("estimated fare", fmt.Errorf("%d is negative", *fare))
	}
	t.estimatedFare = fare
	return nil
}
