package repository

import (
	"context"
	"testing"
	"time"

	"investa/domain/entities"
	"investa/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewContractRepository(testDB.DB)
	ctx := context.Background()
	investorID := testutil.SeedFundedInvestor(t, testDB.DB, "ada", "50000")
	otherID := testutil.SeedFundedInvestor(t, testDB.DB, "grace", "50000")

	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	first := testutil.NewTestContract(investorID, "6130", "0.02", 3, start)
	require.NoError(t, repo.Create(ctx, first))
	second := testutil.NewTestContract(investorID, "1000.50", "0.035", 12, start)
	require.NoError(t, repo.Create(ctx, second))
	third := testutil.NewTestContract(otherID, "2000", "0.05", 6, start)
	require.NoError(t, repo.Create(ctx, third))

	t.Run("round trip", func(t *testing.T) {
		got, err := repo.GetByID(ctx, second.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "1000.50", got.Principal.StringFixed(2))
		assert.True(t, got.MonthlyRate.Equal(decimal.RequireFromString("0.035")))
		assert.Equal(t, 12, got.TermMonths)
		assert.Equal(t, entities.ContractStateActive, got.State)
		assert.True(t, got.EndDate.Equal(start.AddDate(0, 12, 0)))

		missing, err := repo.GetByID(ctx, 424242)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("update lifecycle fields", func(t *testing.T) {
		c, err := repo.LockForUpdate(ctx, first.ID)
		require.NoError(t, err)
		c.MonthsPaid = 3
		c.ProfitPaidTotal = decimal.RequireFromString("367.80")
		c.State = entities.ContractStateCompleted
		require.NoError(t, repo.Update(ctx, c))

		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.MonthsPaid)
		assert.Equal(t, "367.80", got.ProfitPaidTotal.StringFixed(2))
		assert.Equal(t, entities.ContractStateCompleted, got.State)
	})

	t.Run("list with filters", func(t *testing.T) {
		all, err := repo.List(ctx, entities.ContractFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, third.ID, all[0].ID)

		mine, err := repo.List(ctx, entities.ContractFilter{InvestorID: &investorID})
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		active := entities.ContractStateActive
		activeMine, err := repo.List(ctx, entities.ContractFilter{InvestorID: &investorID, State: &active})
		require.NoError(t, err)
		require.Len(t, activeMine, 1)
		assert.Equal(t, second.ID, activeMine[0].ID)
	})

	t.Run("active contracts ending in window", func(t *testing.T) {
		from := start.AddDate(0, 6, -3)
		ending, err := repo.ListActiveEndingBetween(ctx, from, from.AddDate(0, 0, 7))
		require.NoError(t, err)
		require.Len(t, ending, 1)
		assert.Equal(t, third.ID, ending[0].ID)

		none, err := repo.ListActiveEndingBetween(ctx, start.AddDate(0, 3, -1), start.AddDate(0, 3, 1))
		require.NoError(t, err)
		assert.Empty(t, none, "completed contracts are not reminded")
	})
}
