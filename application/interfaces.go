package application

import (
	"context"
	"time"

	"investa/domain/entities"
	"investa/events"
)

// ContractAccruer is the part of the contract engine the accrual worker drives
type ContractAccruer interface {
	ListContracts(ctx context.Context, filter entities.ContractFilter) ([]*entities.Contract, error)
	AccrueDue(ctx context.Context, contractID int64, now time.Time) (int, error)
}

// EndingContractFinder lists active contracts close to maturity
type EndingContractFinder interface {
	ContractsEndingWithin(ctx context.Context, now time.Time, window time.Duration) ([]*entities.Contract, error)
}

// EventSubscriber registers in-process handlers for committed events
type EventSubscriber interface {
	RegisterLocalHandler(eventType events.EventType, handler events.Handler)
}

// MetricsRecorder receives counters derived from committed events
type MetricsRecorder interface {
	RecordRequestSubmitted(kind string)
	RecordRequestDecided(kind, outcome string)
	RecordProfitAccrued(amount float64)
	RecordContractTransition(from, to string)
}
