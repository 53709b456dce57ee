package events

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRequestSubmitted    EventType = "request_submitted"
	EventTypeRequestDecided      EventType = "request_decided"
	EventTypeContractStateChange EventType = "contract_state_change"
	EventTypeProfitAccrued       EventType = "profit_accrued"
	EventTypeContractEndingSoon  EventType = "contract_ending_soon"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RequestSubmittedEvent is raised when an investor queues a request for admin review
type RequestSubmittedEvent struct {
	RequestID  int64           `json:"request_id"`
	InvestorID int64           `json:"investor_id"`
	Kind       string          `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
}

func (e RequestSubmittedEvent) Type() EventType {
	return EventTypeRequestSubmitted
}

// RequestDecidedEvent is the investor notification for an admin decision
type RequestDecidedEvent struct {
	InvestorID int64           `json:"investor_id"`
	RequestID  int64           `json:"request_id"`
	Kind       string          `json:"kind"`
	Outcome    string          `json:"outcome"`
	Amount     decimal.Decimal `json:"amount"`
	AdminID    int64           `json:"admin_id"`
}

func (e RequestDecidedEvent) Type() EventType {
	return EventTypeRequestDecided
}

// ContractStateChangeEvent represents a contract state transition
type ContractStateChangeEvent struct {
	ContractID int64  `json:"contract_id"`
	InvestorID int64  `json:"investor_id"`
	OldState   string `json:"old_state"`
	NewState   string `json:"new_state"`
}

func (e ContractStateChangeEvent) Type() EventType {
	return EventTypeContractStateChange
}

// ProfitAccruedEvent represents a monthly profit credit
type ProfitAccruedEvent struct {
	ContractID int64           `json:"contract_id"`
	InvestorID int64           `json:"investor_id"`
	Period     int             `json:"period"`
	Amount     decimal.Decimal `json:"amount"`
}

func (e ProfitAccruedEvent) Type() EventType {
	return EventTypeProfitAccrued
}

// ContractEndingSoonEvent reminds an investor that a contract is about to mature
type ContractEndingSoonEvent struct {
	ContractID int64     `json:"contract_id"`
	InvestorID int64     `json:"investor_id"`
	EndDate    time.Time `json:"end_date"`
}

func (e ContractEndingSoonEvent) Type() EventType {
	return EventTypeContractEndingSoon
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. Handlers run asynchronously.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}
