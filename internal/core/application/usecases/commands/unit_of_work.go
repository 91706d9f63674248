// Package commands contains business operations that modify system state.
// Every handler validates its command, runs inside one unit of work and
// reports failures with the errs taxonomy.
package commands

import (
	"context"
	"errors"
	"log/slog"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/ports"
	"superservice/internal/pkg/errs"
)

// aggregateTracker is implemented by units of work that remember which
// aggregates their repositories wrote.
type aggregateTracker interface {
	TrackedIDs() []kernel.UUID
}

// begin starts a transaction on a fresh unit of work. The returned release
// func is meant to be deferred; after a successful commit it is a no-op.
func begin(ctx context.Context, factory ports.UnitOfWorkFactory) (ports.UnitOfWork, func(), error) {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, errs.NewPersistenceError("begin transaction", err)
	}
	return uow, func() { _ = uow.Rollback(ctx) }, nil
}

// commit keeps conflicts detected at commit time as conflicts and reports
// everything else as a store failure. Aggregates written in the transaction
// are logged at debug level when the unit of work tracks them.
func commit(ctx context.Context, uow ports.UnitOfWork, logger *slog.Logger) error {
	if err := uow.Commit(ctx); err != nil {
		return persistence("commit transaction", err)
	}

	if tracker, ok := uow.(aggregateTracker); ok {
		ids := tracker.TrackedIDs()
		written := make([]string, 0, len(ids))
		for _, id := range ids {
			written = append(written, id.String())
		}
		logger.DebugContext(ctx, "transaction committed", "aggregates", written)
	}
	return nil
}

// persistence wraps err unless it already belongs to the taxonomy.
func persistence(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errs.ErrPersistence),
		errors.Is(err, errs.ErrStateConflict),
		errors.Is(err, errs.ErrObjectNotFound),
		errors.Is(err, errs.ErrForbidden),
		errors.Is(err, errs.ErrUnauthenticated),
		errs.IsValidation(err):
		return err
	default:
		return errs.NewPersistenceError(op, err)
	}
}

// loadActor reads the participant acting on the command. An id with no
// account behind it is an authentication failure.
func loadActor(ctx context.Context, uow ports.UnitOfWork, id kernel.UUID) (*participant.Participant, error) {
	actor, err := uow.ParticipantRepository().Get(ctx, id)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, errs.NewUnauthenticatedErrorWithCause("unknown participant", err)
	}
	if err != nil {
		return nil, persistence("load participant", err)
	}
	return actor, nil
}
