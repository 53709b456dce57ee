package entities

import "github.com/shopspring/decimal"

// MaxTermMonths bounds the contract term
const MaxTermMonths = 120

// PlatformSettings holds the admin-controlled limits on money movement
type PlatformSettings struct {
	DepositsEnabled             bool
	MinWithdrawal               decimal.Decimal
	MaxWithdrawal               decimal.Decimal // zero means unlimited
	RequireProfileForWithdrawal bool

	// Terms offered to investors. Only admins may open contracts on other terms.
	ContractMonthlyRate decimal.Decimal
	ContractTermMonths  int
	MinReinvestment     decimal.Decimal
}

// DefaultPlatformSettings opens deposits and requires a complete profile for payouts
func DefaultPlatformSettings() PlatformSettings {
	return PlatformSettings{
		DepositsEnabled:             true,
		MinWithdrawal:               decimal.Zero,
		MaxWithdrawal:               decimal.Zero,
		RequireProfileForWithdrawal: true,
		ContractMonthlyRate:         decimal.RequireFromString("0.05"),
		ContractTermMonths:          12,
		MinReinvestment:             decimal.NewFromInt(500),
	}
}

// AccrualRecord marks a contract period whose profit has been credited
type AccrualRecord struct {
	ContractID    int64           `db:"contract_id"`
	Period        int             `db:"period"`
	LedgerEntryID int64           `db:"ledger_entry_id"`
	Amount        decimal.Decimal `db:"amount"`
}
