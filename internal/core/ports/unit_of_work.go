package ports

import (
	"context"
)

// UnitOfWorkFactory creates a fresh UnitOfWork per command, query or frame.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is a business transaction boundary. Repositories obtained
// after Begin share its transaction; repositories obtained without Begin
// run each call on its own.
type UnitOfWork interface {
	Begin(ctx context.Context) error

	// Commit returns an error if no transaction is active.
	Commit(ctx context.Context) error

	// Rollback is safe to defer: it returns an error, which callers ignore,
	// when the transaction has already been committed.
	Rollback(ctx context.Context) error

	ParticipantRepository() ParticipantRepository
	OrderRepository() OrderRepository
	TripRepository() TripRepository
	VehicleRepository() VehicleRepository
	MessageRepository() MessageRepository
	OutboxRepository() OutboxRepository
}
