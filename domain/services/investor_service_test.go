package services

import (
	"testing"

	"investa/domain"
	"investa/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvestorService_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		invName string
		email   string
		role    entities.Role
		wantErr error
	}{
		{"investor", "Ada Lovelace", "ada@example.com", entities.RoleInvestor, nil},
		{"admin", "Ops", "ops@example.com", entities.RoleAdmin, nil},
		{"blank name", "  ", "ada@example.com", entities.RoleInvestor, domain.ErrValidation},
		{"bad email", "Ada", "not-an-email", entities.RoleInvestor, domain.ErrValidation},
		{"unknown role", "Ada", "ada@example.com", "owner", domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newServiceFixture(t)

			inv, err := f.Investors.Register(f.Ctx, tt.invName, tt.email, tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, inv.ID)
			assert.True(t, inv.Active)
			assert.False(t, inv.ProfileComplete)
			assert.Equal(t, tt.role, inv.Role)
		})
	}
}

func TestInvestorService_UpdateProfile(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)

	inv, err := f.Investors.Register(f.Ctx, "Ada", "ada@example.com", entities.RoleInvestor)
	require.NoError(t, err)

	name := "Ada King"
	complete := true
	updated, err := f.Investors.UpdateProfile(f.Ctx, inv.ID, entities.ProfileUpdate{Name: &name, ProfileComplete: &complete})
	require.NoError(t, err)
	assert.Equal(t, "Ada King", updated.Name)
	assert.Equal(t, "ada@example.com", updated.Email)
	assert.True(t, updated.ProfileComplete)
	assert.Equal(t, entities.RoleInvestor, updated.Role)

	badEmail := "nope"
	_, err = f.Investors.UpdateProfile(f.Ctx, inv.ID, entities.ProfileUpdate{Email: &badEmail})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.Investors.UpdateProfile(f.Ctx, 31337, entities.ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, domain.ErrUnknownInvestor)
}

func TestInvestorService_SetActiveAndList(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	first := f.investor()
	second := f.investor()

	off, err := f.Investors.SetActive(f.Ctx, second.ID, false)
	require.NoError(t, err)
	assert.False(t, off.Active)

	all, err := f.Investors.ListInvestors(f.Ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.False(t, all[1].Active)

	_, err = f.Investors.GetInvestor(f.Ctx, 31337)
	assert.ErrorIs(t, err, domain.ErrUnknownInvestor)
}
