package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"superservice/internal/core/application/realtime"
)

// StatsSource reports the live rooms. *realtime.Registry implements it.
type StatsSource interface {
	Stats() realtime.RegistryStats
}

// RoomStatsJob logs how many rooms and connections are live, once a minute.
type RoomStatsJob struct {
	source StatsSource
	cron   *cron.Cron
	logger *slog.Logger
}

func NewRoomStatsJob(source StatsSource, logger *slog.Logger) *RoomStatsJob {
	return &RoomStatsJob{
		source: source,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With("component", "room_stats_job"),
	}
}

func (j *RoomStatsJob) Start() error {
	if _, err := j.cron.AddFunc("0 * * * * *", func() {
		j.run(context.Background())
	}); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Room stats job started (running every minute)")
	return nil
}

func (j *RoomStatsJob) Stop() {
	j.cron.Stop()
	j.logger.Info("Room stats job stopped")
}

func (j *RoomStatsJob) run(ctx context.Context) realtime.RegistryStats {
	stats := j.source.Stats()
	j.logger.InfoContext(ctx, "Live rooms", "rooms", stats.Rooms, "connections", stats.Connections)
	return stats
}
