package repository

import (
	"context"
	"testing"
	"time"

	"investa/domain"
	"investa/domain/entities"
	"investa/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalRequestRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewApprovalRequestRepository(testDB.DB)
	ledger := NewLedgerEntryRepository(testDB.DB)
	contracts := NewContractRepository(testDB.DB)
	ctx := context.Background()
	investorID := testutil.SeedFundedInvestor(t, testDB.DB, "ada", "5000")

	entry := testutil.NewTestEntry(investorID, entities.EntryKindDeposit, "300")
	require.NoError(t, ledger.Create(ctx, entry))
	deposit := &entities.ApprovalRequest{
		InvestorID:    investorID,
		Kind:          entities.RequestKindDeposit,
		Amount:        entry.Amount,
		LedgerEntryID: &entry.ID,
		State:         entities.RequestStatePending,
	}
	require.NoError(t, repo.Create(ctx, deposit))

	contract := testutil.NewTestContract(investorID, "1000", "0.05", 12, time.Now().UTC())
	require.NoError(t, contracts.Create(ctx, contract))
	refund := &entities.ApprovalRequest{
		InvestorID: investorID,
		Kind:       entities.RequestKindRefund,
		Amount:     decimal.RequireFromString("950"),
		ContractID: &contract.ID,
		State:      entities.RequestStatePending,
	}
	require.NoError(t, repo.Create(ctx, refund))

	t.Run("one open refund per contract", func(t *testing.T) {
		dup := *refund
		dup.ID = 0
		err := repo.Create(ctx, &dup)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("pending refund lookup", func(t *testing.T) {
		got, err := repo.GetPendingRefundByContract(ctx, contract.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, refund.ID, got.ID)
		assert.Equal(t, "950.00", got.Amount.StringFixed(2))
	})

	t.Run("decision fields persist", func(t *testing.T) {
		adminID := int64(9000)
		now := time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)
		refund.State = entities.RequestStateRejected
		refund.DecidedAt = &now
		refund.DecidedBy = &adminID
		refund.RejectionReason = "contract kept"
		require.NoError(t, repo.Update(ctx, refund))

		got, err := repo.GetByID(ctx, refund.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.RequestStateRejected, got.State)
		require.NotNil(t, got.DecidedBy)
		assert.Equal(t, adminID, *got.DecidedBy)
		assert.Equal(t, "contract kept", got.RejectionReason)

		open, err := repo.GetPendingRefundByContract(ctx, contract.ID)
		require.NoError(t, err)
		assert.Nil(t, open)
	})

	t.Run("list filters, oldest first", func(t *testing.T) {
		all, err := repo.List(ctx, entities.RequestFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, deposit.ID, all[0].ID)

		pending, err := repo.List(ctx, entities.RequestFilter{InvestorID: &investorID, State: entities.RequestStatePending})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, entities.RequestKindDeposit, pending[0].Kind)
		require.NotNil(t, pending[0].LedgerEntryID)
		assert.Equal(t, entry.ID, *pending[0].LedgerEntryID)

		refunds, err := repo.List(ctx, entities.RequestFilter{Kind: entities.RequestKindRefund})
		require.NoError(t, err)
		assert.Len(t, refunds, 1)
	})
}

func TestAccrualRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewAccrualRepository(testDB.DB)
	ledger := NewLedgerEntryRepository(testDB.DB)
	contracts := NewContractRepository(testDB.DB)
	ctx := context.Background()
	investorID := testutil.SeedFundedInvestor(t, testDB.DB, "ada", "5000")

	contract := testutil.NewTestContract(investorID, "1000", "0.05", 12, time.Now().UTC())
	require.NoError(t, contracts.Create(ctx, contract))
	entry := testutil.NewTestEntry(investorID, entities.EntryKindProfit, "50")
	entry.ContractID = &contract.ID
	require.NoError(t, ledger.Create(ctx, entry))

	exists, err := repo.Exists(ctx, contract.ID, 1)
	require.NoError(t, err)
	assert.False(t, exists)

	record := &entities.AccrualRecord{ContractID: contract.ID, Period: 1, LedgerEntryID: entry.ID, Amount: entry.Amount}
	require.NoError(t, repo.Record(ctx, record))

	exists, err = repo.Exists(ctx, contract.ID, 1)
	require.NoError(t, err)
	assert.True(t, exists)

	err = repo.Record(ctx, record)
	assert.ErrorIs(t, err, domain.ErrDuplicateAccrual)
}
