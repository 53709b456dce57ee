package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432")
	t.Setenv("DATABASE_NAME", "investa")

	cfg, err := load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 2, cfg.AccrualHour)
	assert.Equal(t, 7, cfg.ReminderWindowDays)
	assert.Equal(t, "10", cfg.MinWithdrawal.String())
	assert.True(t, cfg.DepositsEnabled)
	assert.True(t, cfg.RequireProfileForWithdrawal)
	assert.Empty(t, cfg.NATSServers)
	assert.False(t, cfg.RefundPenaltyRate.Valid)
	assert.Equal(t, "postgres://u:p@localhost:5432/investa?sslmode=disable", cfg.GetDatabaseURL())

	policy := cfg.RefundPolicy()
	assert.Equal(t, 6, policy.MaxMonthsPaid)
	assert.True(t, policy.PenaltyRatePerMonth.IsZero())

	settings := cfg.PlatformSettings()
	assert.Equal(t, "0.05", settings.ContractMonthlyRate.String())
	assert.Equal(t, 12, settings.ContractTermMonths)
	assert.Equal(t, "500", settings.MinReinvestment.String())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("REFUND_PENALTY_RATE", "0.04")
	t.Setenv("REFUND_MAX_MONTHS", "4")
	t.Setenv("MAX_WITHDRAWAL", "5000")
	t.Setenv("DEPOSITS_ENABLED", "false")
	t.Setenv("CORS_ORIGINS", "https://admin.example.com, https://app.example.com")
	t.Setenv("CONTRACT_MONTHLY_RATE", "0.03")
	t.Setenv("CONTRACT_TERM_MONTHS", "24")

	cfg, err := load()
	require.NoError(t, err)
	assert.Equal(t, "0.04", cfg.RefundPolicy().PenaltyRatePerMonth.String())
	assert.Equal(t, 4, cfg.RefundPolicy().MaxMonthsPaid)
	assert.False(t, cfg.PlatformSettings().DepositsEnabled)
	assert.Equal(t, "5000", cfg.PlatformSettings().MaxWithdrawal.String())
	assert.Equal(t, []string{"https://admin.example.com", "https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "0.03", cfg.PlatformSettings().ContractMonthlyRate.String())
	assert.Equal(t, 24, cfg.PlatformSettings().ContractTermMonths)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad hour", map[string]string{"ENVIRONMENT": "test", "ACCRUAL_HOUR": "24"}},
		{"bad decimal", map[string]string{"ENVIRONMENT": "test", "MIN_WITHDRAWAL": "ten"}},
		{"max below min", map[string]string{"ENVIRONMENT": "test", "MIN_WITHDRAWAL": "100", "MAX_WITHDRAWAL": "50"}},
		{"penalty rate flattens refunds", map[string]string{"ENVIRONMENT": "test", "REFUND_PENALTY_RATE": "0.25"}},
		{"contract rate flattens refunds", map[string]string{"ENVIRONMENT": "test", "CONTRACT_MONTHLY_RATE": "0.3"}},
		{"zero penalty rate", map[string]string{"ENVIRONMENT": "test", "REFUND_PENALTY_RATE": "0"}},
		{"contract rate of one", map[string]string{"ENVIRONMENT": "test", "CONTRACT_MONTHLY_RATE": "1"}},
		{"term above maximum", map[string]string{"ENVIRONMENT": "test", "CONTRACT_TERM_MONTHS": "121"}},
		{"missing secret", map[string]string{"ENVIRONMENT": "production", "DATABASE_URL": "postgres://x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_PenaltyRateBoundFollowsRefundWindow(t *testing.T) {
	// 0.3 x (3-1) = 0.6 keeps the curve positive over a three month window
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("REFUND_PENALTY_RATE", "0.3")
	t.Setenv("REFUND_MAX_MONTHS", "3")

	cfg, err := load()
	require.NoError(t, err)
	assert.True(t, cfg.RefundPolicy().AllowsRate(cfg.ContractMonthlyRate))
}

func TestSetTestConfig(t *testing.T) {
	defer ResetConfig()

	cfg := NewTestConfig()
	SetTestConfig(cfg)
	assert.Same(t, cfg, Get())
}
