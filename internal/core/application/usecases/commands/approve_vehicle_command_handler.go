package commands

import (
	"context"
	"log/slog"

	"superservice/internal/core/ports"
	"superservice/internal/pkg/errs"
)

const approveVehicleAction = "vehicle.approve"

// ApproveVehicleCommandHandler approves a vehicle and makes its driver
// available, so the driver can start accepting trips right away.
// Only administrators may approve.
type ApproveVehicleCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	logger     *slog.Logger
}

func NewApproveVehicleCommandHandler(uowFactory ports.UnitOfWorkFactory, logger *slog.Logger) *ApproveVehicleCommandHandler {
	return &ApproveVehicleCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "vehicle_approval"),
	}
}

func (h *ApproveVehicleCommandHandler) Handle(ctx context.Context, cmd ApproveVehicleCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow, release, err := begin(ctx, h.uowFactory)
	if err != nil {
		return err
	}
	defer release()

	actor, err := loadActor(ctx, uow, cmd.ActorID())
	if err != nil {
		return err
	}
	if !actor.IsAdministrator() {
		return errs.NewForbiddenError(actor.ID().String(), approveVehicleAction, "only administrators approve vehicles")
	}

	vehicles := uow.VehicleRepository()
	v, err := vehicles.Get(ctx, cmd.VehicleID())
	if err != nil {
		return persistence("load vehicle", err)
	}
	if err = v.Approve(); err != nil {
		return err
	}
	if err = vehicles.Update(ctx, v); err != nil {
		return persistence("update vehicle", err)
	}

	participants := uow.ParticipantRepository()
	driver, err := participants.Get(ctx, v.Driver())
	if err != nil {
		return persistence("load driver", err)
	}
	if driver.Role().TracksAvailability() {
		if err = driver.SetAvailability(true); err != nil {
			return err
		}
		if err = participants.Update(ctx, driver); err != nil {
			return persistence("update driver", err)
		}
	}

	if err = commit(ctx, uow, h.logger); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "vehicle approved",
		"vehicle_id", v.ID().String(),
		"driver_id", driver.ID().String(),
		"actor_id", actor.ID().String())
	return nil
}
