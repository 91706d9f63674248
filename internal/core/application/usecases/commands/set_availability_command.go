package commands

import (
	"errors"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/guard"
)

var ErrSetAvailabilityCommandIsNotConstructed = errors.New(
	"SetAvailabilityCommand must be created via NewSetAvailabilityCommand constructor",
)

// SetAvailabilityCommand toggles whether a courier or driver takes new work.
type SetAvailabilityCommand struct { //nolint:recvcheck //using for validation
	participantID kernel.UUID
	available     bool

	guard guard.ConstructorGuard
}

func NewSetAvailabilityCommand(participantID kernel.UUID, available bool) (SetAvailabilityCommand, error) {
	if err := participantID.Validate(); err != nil {
		return SetAvailabilityCommand{}, err
	}

	return SetAvailabilityCommand{
		participantID: participantID,
		available:     available,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (c SetAvailabilityCommand) Validate() error {
	return c.guard.Validate(ErrSetAvailabilityCommandIsNotConstructed)
}

func (c SetAvailabilityCommand) ParticipantID() kernel.UUID {
	return c.participantID
}

func (c SetAvailabilityCommand) Available() bool {
	return c.available
}
