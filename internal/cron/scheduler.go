package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const refreshTimeout = 30 * time.Second

// StatsRefresher publishes entity counts.
type StatsRefresher interface {
	RefreshStats(ctx context.Context) error
}

// StartJobs schedules the stats refresher and runs it once right away. The
// caller stops the returned scheduler on shutdown.
func StartJobs(schedule string, stats StatsRefresher, log *logrus.Logger) (*cron.Cron, error) {
	c := cron.New()

	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if err := stats.RefreshStats(ctx); err != nil {
			log.WithError(err).Error("Failed to refresh stats")
		}
	}

	if _, err := c.AddFunc(schedule, job); err != nil {
		return nil, err
	}

	log.WithField("schedule", schedule).Info("Stats refresher scheduled")
	go job()
	c.Start()
	return c, nil
}
