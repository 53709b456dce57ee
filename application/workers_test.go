package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"investa/domain/entities"
	"investa/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNextDailyRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Duration
	}{
		{"later today", time.Date(2025, 3, 1, 1, 30, 0, 0, time.UTC), 2, 30 * time.Minute},
		{"exactly now rolls over", time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC), 2, 24 * time.Hour},
		{"tomorrow", time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC), 9, 10 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, nextDailyRun(tt.now, tt.hour))
		})
	}
}

func TestAccrualWorker_RunOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	active := entities.ContractStateActive

	contracts := &mockContracts{}
	contracts.On("ListContracts", ctx, entities.ContractFilter{State: &active}).Return([]*entities.Contract{
		{ID: 1, InvestorID: 10},
		{ID: 2, InvestorID: 11},
		{ID: 3, InvestorID: 10},
	}, nil)
	contracts.On("AccrueDue", ctx, int64(1), now).Return(2, nil)
	contracts.On("AccrueDue", ctx, int64(2), now).Return(0, errors.New("database is down"))
	contracts.On("AccrueDue", ctx, int64(3), now).Return(1, nil)

	summary, err := NewAccrualWorker(contracts).RunOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, AccrualRunSummary{Contracts: 3, Credited: 3, Failed: 1}, summary)
	contracts.AssertExpectations(t)
}

func TestAccrualWorker_ListFailure(t *testing.T) {
	t.Parallel()
	contracts := &mockContracts{}
	contracts.On("ListContracts", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	_, err := NewAccrualWorker(contracts).RunOnce(context.Background(), time.Now())
	assert.Error(t, err)
	contracts.AssertNotCalled(t, "AccrueDue", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccrualWorker_StartStop(t *testing.T) {
	t.Parallel()
	stop := NewAccrualWorker(&mockContracts{}).Start(context.Background(), 3)
	stop()
	stop()
}

func TestContractReminderWorker_RunOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	window := 7 * 24 * time.Hour

	inWindowLastDay := &entities.Contract{ID: 1, InvestorID: 10, EndDate: now.AddDate(0, 0, 7).Add(-time.Hour)}
	alreadyReminded := &entities.Contract{ID: 2, InvestorID: 11, EndDate: now.AddDate(0, 0, 3)}
	failing := &entities.Contract{ID: 3, InvestorID: 12, EndDate: now.AddDate(0, 0, 6).Add(2 * time.Hour)}

	contracts := &mockContracts{}
	contracts.On("ContractsEndingWithin", ctx, now, window).
		Return([]*entities.Contract{inWindowLastDay, alreadyReminded, failing}, nil)

	publisher := &mockPublisher{}
	publisher.On("Publish", events.ContractEndingSoonEvent{ContractID: 1, InvestorID: 10, EndDate: inWindowLastDay.EndDate}).Return(nil)
	publisher.On("Publish", events.ContractEndingSoonEvent{ContractID: 3, InvestorID: 12, EndDate: failing.EndDate}).Return(errors.New("nats down"))

	sent, err := NewContractReminderWorker(contracts, publisher, 7).RunOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	publisher.AssertExpectations(t)
	publisher.AssertNumberOfCalls(t, "Publish", 2)
}

func TestRegisterSubscriptions(t *testing.T) {
	t.Parallel()
	sub := &syncSubscriber{}
	metrics := &mockMetrics{}
	metrics.On("RecordRequestSubmitted", "deposit").Once()
	metrics.On("RecordRequestDecided", "withdrawal", "reject").Once()
	metrics.On("RecordProfitAccrued", 122.6).Once()
	metrics.On("RecordContractTransition", "active", "completed").Once()

	RegisterSubscriptions(sub, metrics)

	sub.emit(events.RequestSubmittedEvent{Kind: "deposit", Amount: decimal.NewFromInt(100)})
	sub.emit(events.RequestDecidedEvent{Kind: "withdrawal", Outcome: "reject", Amount: decimal.NewFromInt(20)})
	sub.emit(events.ProfitAccruedEvent{Amount: decimal.RequireFromString("122.60")})
	sub.emit(events.ContractStateChangeEvent{OldState: "active", NewState: "completed"})

	metrics.AssertExpectations(t)
}

func TestAccrualWorker_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	contracts := &mockContracts{}
	contracts.On("ListContracts", mock.Anything, mock.Anything).Return([]*entities.Contract{{ID: 1}}, nil)
	cancel()

	_, err := NewAccrualWorker(contracts).RunOnce(ctx, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
	contracts.AssertNotCalled(t, "AccrueDue", mock.Anything, mock.Anything, mock.Anything)
}
