package vehicle

import (
	"errors"
	"fmt"
	"strings"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/errs"
)

var ErrVehicleIsNotConstructed = errors.New("Vehicle must be created via NewVehicle constructor")

// Kind is the vehicle category registered by its driver.
type Kind string

const (
	Car        Kind = "car"
	Motorcycle Kind = "motorcycle"
	Bus        Kind = "bus"
	Van        Kind = "van"
)

func (k Kind) Validate() error {
	switch k {
	case Car, Motorcycle, Bus, Van:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("kind", fmt.Errorf("%q is not a vehicle kind", string(k)))
	}
}

// Vehicle is registered by a driver or courier and must be approved by an
// administrator before its owner can accept trips.
type Vehicle struct {
	id       kernel.UUID
	driverID kernel.UUID
	kind     Kind
	model    string
	plate    string
	approved bool

	isConstructed bool
}

// NewVehicle registers an unapproved vehicle.
func NewVehicle(id, driverID kernel.UUID, kind Kind, model, plate string) (*Vehicle, error) {
	return RestoreVehicle(id, driverID, kind, model, plate, false)
}

// RestoreVehicle rebuilds a vehicle from storage.
func RestoreVehicle(id, driverID kernel.UUID, kind Kind, model, plate string, approved bool) (*Vehicle, error) {
	v := &Vehicle{
		kind:          kind,
		model:         strings.TrimSpace(model),
		approved:      approved,
		isConstructed: true,
	}

	if err := errors.Join(
		v.setID(id),
		v.setDriver(driverID),
		kind.Validate(),
		v.setPlate(plate),
	); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vehicle) Validate() error {
	if v == nil || !v.isConstructed {
		return ErrVehicleIsNotConstructed
	}
	return nil
}

func (v *Vehicle) ID() kernel.UUID {
	return v.id
}

// Driver returns the owning driver or courier.
func (v *Vehicle) Driver() kernel.UUID {
	return v.driverID
}

func (v *Vehicle) Kind() Kind {
	return v.kind
}

func (v *Vehicle) Model() string {
	return v.model
}

func (v *Vehicle) Plate() string {
	return v.plate
}

func (v *Vehicle) IsApproved() bool {
	return v.approved
}

// CanServe reports whether the vehicle lets driverID accept work: it has to
// belong to that driver and be approved.
func (v *Vehicle) CanServe(driverID kernel.UUID) bool {
	return v.Validate() == nil && v.approved && v.driverID.IsEqual(driverID)
}

// Approve marks the vehicle as approved. Approving twice is a no-op.
func (v *Vehicle) Approve() error {
	if err := v.Validate(); err != nil {
		return err
	}
	v.approved = true
	return nil
}

func (v *Vehicle) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	v.id = id
	return nil
}

func (v *Vehicle) setDriver(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("driver", err)
	}
	v.driverID = id
	return nil
}

func (v *Vehicle) setPlate(plate string) error {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	if plate == "" {
		return errs.NewValueIsRequiredError("plate")
	}
	if len(plate) > 10 {
		return errs.NewValueIsOutOfRangeError("plate length", len(plate), 1, 10)
	}
	v.plate = plate
	return nil
}
