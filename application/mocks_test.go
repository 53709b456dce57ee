package application

import (
	"context"
	"time"

	"investa/domain/entities"
	"investa/events"

	"github.com/stretchr/testify/mock"
)

type mockContracts struct {
	mock.Mock
}

func (m *mockContracts) ListContracts(ctx context.Context, filter entities.ContractFilter) ([]*entities.Contract, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Contract), args.Error(1)
}

func (m *mockContracts) AccrueDue(ctx context.Context, contractID int64, now time.Time) (int, error) {
	args := m.Called(ctx, contractID, now)
	return args.Int(0), args.Error(1)
}

func (m *mockContracts) ContractsEndingWithin(ctx context.Context, now time.Time, window time.Duration) ([]*entities.Contract, error) {
	args := m.Called(ctx, now, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Contract), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(event events.Event) error {
	return m.Called(event).Error(0)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) RecordRequestSubmitted(kind string) { m.Called(kind) }

func (m *mockMetrics) RecordRequestDecided(kind, outcome string) { m.Called(kind, outcome) }

func (m *mockMetrics) RecordProfitAccrued(amount float64) { m.Called(amount) }

func (m *mockMetrics) RecordContractTransition(from, to string) { m.Called(from, to) }

// syncSubscriber runs handlers inline so tests need no waiting
type syncSubscriber struct {
	handlers map[events.EventType][]events.Handler
}

func (s *syncSubscriber) RegisterLocalHandler(eventType events.EventType, handler events.Handler) {
	if s.handlers == nil {
		s.handlers = make(map[events.EventType][]events.Handler)
	}
	s.handlers[eventType] = append(s.handlers[eventType], handler)
}

func (s *syncSubscriber) emit(event events.Event) {
	for _, h := range s.handlers[event.Type()] {
		h(context.Background(), event)
	}
}
