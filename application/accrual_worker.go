package application

import (
	"context"
	"fmt"
	"time"

	"investa/domain/entities"

	log "github.com/sirupsen/logrus"
)

// AccrualRunSummary reports one pass of the accrual worker
type AccrualRunSummary struct {
	Contracts int
	Credited  int
	Failed    int
}

// AccrualWorker credits every elapsed month of every active contract once a day.
// Missed days are caught up because AccrueDue credits all periods due so far.
type AccrualWorker struct {
	contracts ContractAccruer
}

// NewAccrualWorker creates a new accrual worker
func NewAccrualWorker(contracts ContractAccruer) *AccrualWorker {
	return &AccrualWorker{contracts: contracts}
}

// Start schedules RunOnce daily at hour:00 UTC and returns a stop function
func (w *AccrualWorker) Start(ctx context.Context, hour int) func() {
	return runDaily(ctx, "accrual", hour, func(ctx context.Context, now time.Time) {
		if _, err := w.RunOnce(ctx, now); err != nil {
			log.WithError(err).Error("Accrual run failed")
		}
	})
}

// RunOnce accrues every due period as of now. A failing contract is logged and skipped.
func (w *AccrualWorker) RunOnce(ctx context.Context, now time.Time) (AccrualRunSummary, error) {
	active := entities.ContractStateActive
	contracts, err := w.contracts.ListContracts(ctx, entities.ContractFilter{State: &active})
	if err != nil {
		return AccrualRunSummary{}, fmt.Errorf("failed to list active contracts: %w", err)
	}

	summary := AccrualRunSummary{Contracts: len(contracts)}
	for _, c := range contracts {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		credited, err := w.contracts.AccrueDue(ctx, c.ID, now)
		summary.Credited += credited
		if err != nil {
			summary.Failed++
			log.WithFields(log.Fields{
				"contractID": c.ID,
				"investorID": c.InvestorID,
				"credited":   credited,
				"error":      err,
			}).Error("Failed to accrue contract")
		}
	}

	log.WithFields(log.Fields{
		"contracts": summary.Contracts,
		"credited":  summary.Credited,
		"failed":    summary.Failed,
	}).Info("Completed accrual run")
	return summary, nil
}
