package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"superservice/internal/core/application/usecases/commands"
)

// OutboxRelayJob publishes pending integration events every second.
// A run that is still going when the next tick fires makes that tick skip.
type OutboxRelayJob struct {
	handler   *commands.RelayOutboxCommandHandler
	batchSize int
	cron      *cron.Cron
	logger    *slog.Logger
}

func NewOutboxRelayJob(handler *commands.RelayOutboxCommandHandler, batchSize int, logger *slog.Logger) *OutboxRelayJob {
	return &OutboxRelayJob{
		handler:   handler,
		batchSize: batchSize,
		cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:    logger.With("component", "outbox_relay_job"),
	}
}

// Start validates the batch size and schedules the relay.
func (j *OutboxRelayJob) Start() error {
	cmd, err := commands.NewRelayOutboxCommand(j.batchSize)
	if err != nil {
		return err
	}

	if _, err = j.cron.AddFunc("* * * * * *", func() {
		j.run(context.Background(), cmd)
	}); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Outbox relay job started (running every second)", "batch_size", j.batchSize)
	return nil
}

// Stop waits for a running relay to finish.
func (j *OutboxRelayJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Outbox relay job stopped")
}

func (j *OutboxRelayJob) run(ctx context.Context, cmd commands.RelayOutboxCommand) int {
	published, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Outbox relay failed", "published", published, "error", err)
	}
	return published
}
