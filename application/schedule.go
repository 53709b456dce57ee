package application

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// nextDailyRun returns how long to wait until hour:00 UTC, today or tomorrow
func nextDailyRun(now time.Time, hour int) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

// runDaily calls run once a day at hour:00 UTC until ctx is cancelled or the returned stop is called
func runDaily(ctx context.Context, name string, hour int, run func(ctx context.Context, now time.Time)) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithFields(log.Fields{"worker": name, "hour": hour}).Info("Worker started")

		for {
			wait := nextDailyRun(time.Now(), hour)
			log.WithFields(log.Fields{"worker": name, "wait": wait}).Debug("Worker waiting for next run")

			select {
			case <-ctx.Done():
				log.WithField("worker", name).Info("Worker shutting down (context cancelled)")
				return
			case <-stopChan:
				log.WithField("worker", name).Info("Worker shutting down (stop requested)")
				return
			case <-time.After(wait):
				run(ctx, time.Now().UTC())
			}
		}
	}()

	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() { close(stopChan) })
	}
}
