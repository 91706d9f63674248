package commands

import (
	"errors"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/trip"
	"superservice/internal/pkg/errs"
	"superservice/internal/pkg/guard"
)

var ErrApplyTransitionCommandIsNotConstructed = errors.New(
	"ApplyTransitionCommand must be created via NewApplyTransitionCommand constructor",
)

// ApplyTransitionCommand asks to fire an event on an order or a trip on
// behalf of an actor.
//
// Example:
//
//	cmd, err := NewApplyTransitionCommand("order", orderID, courierID, "accept")
//	if err != nil {
//	    return err // unknown entity kind or event name
//	}
//	result, err := handler.Handle(ctx, cmd)
type ApplyTransitionCommand struct { //nolint:recvcheck //using for validation
	entity   message.RoomKind
	entityID kernel.UUID
	actorID  kernel.UUID
	event    string

	guard guard.ConstructorGuard
}

// NewApplyTransitionCommand validates the entity kind ("order" or "trip")
// and that event belongs to that entity's transition table.
func NewApplyTransitionCommand(
	entity string,
	entityID kernel.UUID,
	actorID kernel.UUID,
	event string,
) (ApplyTransitionCommand, error) {
	cmd := ApplyTransitionCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setEntity(entity, event),
		cmd.setEntityID(entityID),
		cmd.setActorID(actorID),
	); err != nil {
		return ApplyTransitionCommand{}, err
	}

	return cmd, nil
}

func (c ApplyTransitionCommand) Validate() error {
	return c.guard.Validate(ErrApplyTransitionCommandIsNotConstructed)
}

// Entity is message.OrderRoom or message.TripRoom.
func (c ApplyTransitionCommand) Entity() message.RoomKind {
	return c.entity
}

func (c ApplyTransitionCommand) EntityID() kernel.UUID {
	return c.entityID
}

func (c ApplyTransitionCommand) ActorID() kernel.UUID {
	return c.actorID
}

func (c ApplyTransitionCommand) Event() string {
	return c.event
}

func (c *ApplyTransitionCommand) setEntity(entity, event string) error {
	kind, err := message.ParseRoomKind(entity)
	if err != nil {
		return err
	}

	switch kind {
	case message.OrderRoom:
		if _, err = order.ParseEvent(event); err != nil {
			return err
		}
	case message.TripRoom:
		if _, err = trip.ParseEvent(event); err != nil {
			return err
		}
	default:
		return errs.NewValueIsInvalidError("entity")
	}

	c.entity = kind
	c.event = event
	return nil
}

func (c *ApplyTransitionCommand) setEntityID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.entityID = id
	return nil
}

func (c *ApplyTransitionCommand) setActorID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.actorID = id
	return nil
}
