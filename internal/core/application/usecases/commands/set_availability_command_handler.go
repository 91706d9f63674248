package commands

import (
	"context"
	"log/slog"

	"superservice/internal/core/ports"
)

// SetAvailabilityCommandHandler stores the availability flag of the acting
// courier or driver. Other roles get a validation error.
type SetAvailabilityCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	logger     *slog.Logger
}

func NewSetAvailabilityCommandHandler(uowFactory ports.UnitOfWorkFactory, logger *slog.Logger) *SetAvailabilityCommandHandler {
	return &SetAvailabilityCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "availability"),
	}
}

func (h *SetAvailabilityCommandHandler) Handle(ctx context.Context, cmd SetAvailabilityCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow, release, err := begin(ctx, h.uowFactory)
	if err != nil {
		return err
	}
	defer release()

	actor, err := loadActor(ctx, uow, cmd.ParticipantID())
	if err != nil {
		return err
	}

	if err = actor.SetAvailability(cmd.Available()); err != nil {
		return err
	}

	if err = uow.ParticipantRepository().Update(ctx, actor); err != nil {
		return persistence("update participant", err)
	}

	if err = commit(ctx, uow, h.logger); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "availability changed",
		"participant_id", actor.ID().String(),
		"available", cmd.Available())
	return nil
}
