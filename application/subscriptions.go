package application

import (
	"context"

	"investa/events"

	log "github.com/sirupsen/logrus"
)

// RegisterSubscriptions wires metrics and audit logging to the committed event stream
func RegisterSubscriptions(subscriber EventSubscriber, metrics MetricsRecorder) {
	subscriber.RegisterLocalHandler(events.EventTypeRequestSubmitted, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.RequestSubmittedEvent)
		if !ok {
			return
		}
		metrics.RecordRequestSubmitted(e.Kind)
	})

	subscriber.RegisterLocalHandler(events.EventTypeRequestDecided, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.RequestDecidedEvent)
		if !ok {
			return
		}
		metrics.RecordRequestDecided(e.Kind, e.Outcome)
		log.WithFields(log.Fields{
			"requestID":  e.RequestID,
			"investorID": e.InvestorID,
			"kind":       e.Kind,
			"outcome":    e.Outcome,
			"amount":     e.Amount.StringFixed(2),
			"adminID":    e.AdminID,
		}).Info("Request decided")
	})

	subscriber.RegisterLocalHandler(events.EventTypeProfitAccrued, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.ProfitAccruedEvent)
		if !ok {
			return
		}
		metrics.RecordProfitAccrued(e.Amount.InexactFloat64())
	})

	subscriber.RegisterLocalHandler(events.EventTypeContractStateChange, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.ContractStateChangeEvent)
		if !ok {
			return
		}
		metrics.RecordContractTransition(e.OldState, e.NewState)
		log.WithFields(log.Fields{
			"contractID": e.ContractID,
			"investorID": e.InvestorID,
			"from":       e.OldState,
			"to":         e.NewState,
		}).Info("Contract state changed")
	})
}
