// Package eventlog is the event publisher used when no broker is configured.
// It writes each integration event to the structured log.
package eventlog

import (
	"context"
	"log/slog"

	"superservice/internal/core/domain/model/outbox"
)

type Publisher struct {
	logger *slog.Logger
}

func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger.With("component", "event_log")}
}

func (p *Publisher) Publish(ctx context.Context, event *outbox.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "integration event",
		"routing_key", event.RoutingKey(),
		"event_id", event.ID().String(),
		"aggregate_id", event.AggregateID().String(),
		"from", event.FromStatus(),
		"to", event.ToStatus(),
		"actor_id", event.ActorID().String(),
		"occurred_at", event.OccurredAt(),
	)
	return nil
}
