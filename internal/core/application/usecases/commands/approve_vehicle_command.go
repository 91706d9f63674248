package commands

import (
	"errors"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/guard"
)

var ErrApproveVehicleCommandIsNotConstructed = errors.New(
	"ApproveVehicleCommand must be created via NewApproveVehicleCommand constructor",
)

// ApproveVehicleCommand is an administrator approving a driver's vehicle.
type ApproveVehicleCommand struct { //nolint:recvcheck //using for validation
	actorID   kernel.UUID
	vehicleID kernel.UUID

	guard guard.ConstructorGuard
}

func NewApproveVehicleCommand(actorID, vehicleID kernel.UUID) (ApproveVehicleCommand, error) {
	if err := errors.Join(actorID.Validate(), vehicleID.Validate()); err != nil {
		return ApproveVehicleCommand{}, err
	}

	return ApproveVehicleCommand{
		actorID:   actorID,
		vehicleID: vehicleID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c ApproveVehicleCommand) Validate() error {
	return c.guard.Validate(ErrApproveVehicleCommandIsNotConstructed)
}

func (c ApproveVehicleCommand) ActorID() kernel.UUID {
	return c.actorID
}

func (c ApproveVehicleCommand) VehicleID() kernel.UUID {
	return c.vehicleID
}
