package ports

import (
	"context"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/outbox"
)

// EventPublisher delivers integration events to the outside world.
type EventPublisher interface {
	Publish(ctx context.Context, event *outbox.Event) error
}

// Payload is a frame rendered separately for every recipient, so fields
// like "is_me" can depend on who receives it.
type Payload interface {
	RenderFor(recipient kernel.UUID) ([]byte, error)
}

// RoomPublisher fans a payload out to everybody connected to a room at the
// time of the call. Delivery failures are handled by the implementation and
// never returned.
type RoomPublisher interface {
	Publish(ctx context.Context, room message.RoomKey, payload Payload)
}
