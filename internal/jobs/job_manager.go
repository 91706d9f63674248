package jobs

import (
	"fmt"
	"log/slog"

	"superservice/internal/core/application/usecases/commands"
)

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	outboxRelayJob *OutboxRelayJob
	roomStatsJob   *RoomStatsJob
}

func NewJobManager(
	relayHandler *commands.RelayOutboxCommandHandler,
	batchSize int,
	rooms StatsSource,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		outboxRelayJob: NewOutboxRelayJob(relayHandler, batchSize, logger),
		roomStatsJob:   NewRoomStatsJob(rooms, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.outboxRelayJob.Start(); err != nil {
		return fmt.Errorf("failed to start outbox relay job: %w", err)
	}

	if err := jm.roomStatsJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.outboxRelayJob.Stop()
		return fmt.Errorf("failed to start room stats job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.roomStatsJob.Stop()
	jm.outboxRelayJob.Stop()
}
