// Package jobs provides scheduled background tasks.
//
// Jobs use github.com/robfig/cron/v3 with a seconds field.
//
// # Available Jobs
//
// 1. OutboxRelayJob - every second, publishes unpublished integration events
// in creation order and marks them published
// 2. RoomStatsJob - every minute, logs the number of live rooms and connections
//
// # Usage
//
//	jobManager := jobs.NewJobManager(relayHandler, cfg.OutboxBatchSize, registry, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// A failed relay is logged and retried on the next tick; events that were
// not published stay in the outbox. Failed job starts stop any already
// running jobs.
package jobs
