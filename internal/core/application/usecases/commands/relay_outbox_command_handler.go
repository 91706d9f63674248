package commands

import (
	"context"
	"log/slog"
	"time"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/ports"
)

// RelayOutboxCommandHandler moves committed integration events to the
// event publisher, oldest first. A publish failure stops the batch so
// events leave in order; what was published before it is marked and the
// rest is retried on the next run.
//
// Example:
//
//	cmd, _ := NewRelayOutboxCommand(100)
//	published, err := handler.Handle(ctx, cmd)
type RelayOutboxCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	publisher  ports.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

func NewRelayOutboxCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *RelayOutboxCommandHandler {
	return &RelayOutboxCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger.With("component", "outbox_relay"),
		now:        time.Now,
	}
}

// Handle returns how many events were published.
func (h *RelayOutboxCommandHandler) Handle(ctx context.Context, cmd RelayOutboxCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	repo := h.uowFactory.Create().OutboxRepository()

	events, err := repo.ListUnpublished(ctx, cmd.BatchSize())
	if err != nil {
		return 0, persistence("list unpublished events", err)
	}

	published := make([]kernel.UUID, 0, len(events))
	var publishErr error
	for _, event := range events {
		if publishErr = h.publisher.Publish(ctx, event); publishErr != nil {
			h.logger.WarnContext(ctx, "publish failed",
				"event_id", event.ID().String(),
				"routing_key", event.RoutingKey(),
				"error", publishErr)
			break
		}
		published = append(published, event.ID())
	}

	if len(published) > 0 {
		if err = repo.MarkPublished(ctx, published, h.now()); err != nil {
			return 0, persistence("mark events published", err)
		}
		h.logger.DebugContext(ctx, "events relayed", "count", len(published))
	}

	return len(published), publishErr
}
