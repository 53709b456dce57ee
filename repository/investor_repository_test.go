package repository

import (
	"context"
	"testing"
	"time"

	"investa/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvestorRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewInvestorRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing investor", func(t *testing.T) {
		inv, err := repo.GetByID(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, inv)
	})

	t.Run("create, update and list", func(t *testing.T) {
		inv := testutil.NewTestInvestor("ada")
		inv.ProfileComplete = false
		require.NoError(t, repo.Create(ctx, inv))
		assert.NotZero(t, inv.ID)
		assert.False(t, inv.CreatedAt.IsZero())

		accepted := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		inv.Name = "Ada King"
		inv.ProfileComplete = true
		inv.TermsAcceptedAt = &accepted
		require.NoError(t, repo.Update(ctx, inv))

		got, err := repo.GetByID(ctx, inv.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Ada King", got.Name)
		assert.True(t, got.ProfileComplete)
		require.NotNil(t, got.TermsAcceptedAt)
		assert.True(t, accepted.Equal(*got.TermsAcceptedAt))

		second := testutil.NewTestInvestor("grace")
		require.NoError(t, repo.Create(ctx, second))

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, inv.ID, all[0].ID)
		assert.Equal(t, second.ID, all[1].ID)
	})

	t.Run("role is checked by the schema", func(t *testing.T) {
		inv := testutil.NewTestInvestor("mallory")
		inv.Role = "owner"
		assert.Error(t, repo.Create(ctx, inv))
	})
}
