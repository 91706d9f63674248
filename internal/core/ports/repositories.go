package ports

import (
	"context"
	"time"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/outbox"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/model/trip"
	"superservice/internal/core/domain/model/vehicle"
)

// ParticipantRepository reads accounts and stores availability changes.
// Get returns an errs.ObjectNotFoundError for unknown ids.
type ParticipantRepository interface {
	Add(ctx context.Context, aggregate *participant.Participant) error
	Update(ctx context.Context, aggregate *participant.Participant) error
	Get(ctx context.Context, id kernel.UUID) (*participant.Participant, error)
}

// OrderRepository is the persistence contract for orders.
type OrderRepository interface {
	// Add persists an order created by the storefront.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get returns an errs.ObjectNotFoundError for unknown ids.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// UpdateIfStatus writes the aggregate only if the stored status is
	// still one of from. When no row matches it returns an
	// errs.StateConflictError and nothing is written.
	UpdateIfStatus(ctx context.Context, aggregate *order.Order, from []order.Status) error
}

// TripRepository is the persistence contract for trips. It follows the
// same rules as OrderRepository.
type TripRepository interface {
	Add(ctx context.Context, aggregate *trip.Trip) error
	Get(ctx context.Context, id kernel.UUID) (*trip.Trip, error)
	UpdateIfStatus(ctx context.Context, aggregate *trip.Trip, from []trip.Status) error
}

// VehicleRepository stores vehicles and answers the approved-vehicle lookup
// used when a driver accepts work.
type VehicleRepository interface {
	Add(ctx context.Context, aggregate *vehicle.Vehicle) error
	Update(ctx context.Context, aggregate *vehicle.Vehicle) error
	Get(ctx context.Context, id kernel.UUID) (*vehicle.Vehicle, error)

	// FindApprovedByDriver returns one approved vehicle of the driver, or
	// an errs.ObjectNotFoundError when there is none.
	FindApprovedByDriver(ctx context.Context, driverID kernel.UUID) (*vehicle.Vehicle, error)
}

// MessageRepository appends and reads chat messages.
type MessageRepository interface {
	// Add makes the message durable. A subsequent ListByRoom sees it.
	Add(ctx context.Context, msg *message.Message) error

	// ListByRoom returns the latest limit messages of the room in
	// ascending (created_at, id) order.
	ListByRoom(ctx context.Context, room message.RoomKey, limit int) ([]*message.Message, error)
}

// OutboxRepository stores integration events until they are relayed.
type OutboxRepository interface {
	Add(ctx context.Context, event *outbox.Event) error

	// ListUnpublished returns up to limit events, oldest first.
	ListUnpublished(ctx context.Context, limit int) ([]*outbox.Event, error)

	MarkPublished(ctx context.Context, ids []kernel.UUID, at time.Time) error
}
