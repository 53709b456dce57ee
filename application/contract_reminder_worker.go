package application

import (
	"context"
	"fmt"
	"time"

	"investa/domain/interfaces"
	"investa/events"

	log "github.com/sirupsen/logrus"
)

// ContractReminderWorker announces contracts about to mature. Running daily, each
// contract is reminded once: on the run where its end date enters the last day of the window.
type ContractReminderWorker struct {
	contracts EndingContractFinder
	publisher interfaces.EventPublisher
	window    time.Duration
}

// NewContractReminderWorker creates a reminder worker with a window in days
func NewContractReminderWorker(contracts EndingContractFinder, publisher interfaces.EventPublisher, windowDays int) *ContractReminderWorker {
	if windowDays < 1 {
		windowDays = 1
	}
	return &ContractReminderWorker{
		contracts: contracts,
		publisher: publisher,
		window:    time.Duration(windowDays) * 24 * time.Hour,
	}
}

// Start schedules RunOnce daily at hour:00 UTC and returns a stop function
func (w *ContractReminderWorker) Start(ctx context.Context, hour int) func() {
	return runDaily(ctx, "contract_reminder", hour, func(ctx context.Context, now time.Time) {
		if _, err := w.RunOnce(ctx, now); err != nil {
			log.WithError(err).Error("Contract reminder run failed")
		}
	})
}

// RunOnce publishes a ContractEndingSoonEvent for contracts ending in [now+window-24h, now+window)
func (w *ContractReminderWorker) RunOnce(ctx context.Context, now time.Time) (int, error) {
	ending, err := w.contracts.ContractsEndingWithin(ctx, now, w.window)
	if err != nil {
		return 0, fmt.Errorf("failed to list ending contracts: %w", err)
	}

	lastDay := now.Add(w.window - 24*time.Hour)
	sent := 0
	for _, c := range ending {
		if c.EndDate.Before(lastDay) {
			continue
		}
		event := events.ContractEndingSoonEvent{
			ContractID: c.ID,
			InvestorID: c.InvestorID,
			EndDate:    c.EndDate,
		}
		if err := w.publisher.Publish(event); err != nil {
			log.WithFields(log.Fields{
				"contractID": c.ID,
				"error":      err,
			}).Error("Failed to publish contract reminder")
			continue
		}
		sent++
	}

	log.WithFields(log.Fields{
		"candidates": len(ending),
		"sent":       sent,
	}).Info("Completed contract reminder run")
	return sent, nil
}
