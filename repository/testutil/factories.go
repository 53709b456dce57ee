package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"investa/database"
	"investa/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// NewTestInvestor builds an active investor with a complete profile
func NewTestInvestor(name string) *entities.Investor {
	return &entities.Investor{
		Name:            name,
		Email:           fmt.Sprintf("%s@example.com", name),
		Role:            entities.RoleInvestor,
		ProfileComplete: true,
		Active:          true,
	}
}

// NewTestContract builds an active contract starting at start
func NewTestContract(investorID int64, principal, rate string, termMonths int, start time.Time) *entities.Contract {
	return &entities.Contract{
		InvestorID:      investorID,
		Principal:       decimal.RequireFromString(principal),
		MonthlyRate:     decimal.RequireFromString(rate),
		TermMonths:      termMonths,
		ProfitPaidTotal: decimal.Zero,
		State:           entities.ContractStateActive,
		StartDate:       start,
		EndDate:         entities.ContractEndDate(start, termMonths),
	}
}

// NewTestEntry builds a ledger entry with the status its kind starts in
func NewTestEntry(investorID int64, kind entities.EntryKind, amount string) *entities.LedgerEntry {
	entry := &entities.LedgerEntry{
		InvestorID: investorID,
		Kind:       kind,
		Amount:     decimal.RequireFromString(amount),
		Currency:   entities.CurrencyUSD,
		Status:     entities.EntryStatusPending,
	}
	if kind.IsSystemGenerated() {
		now := time.Now().UTC()
		entry.Status = entities.EntryStatusApproved
		entry.DecidedAt = &now
	}
	return entry
}

// SeedFundedInvestor inserts an investor and an approved deposit in one transaction
// and returns the investor ID
func SeedFundedInvestor(t *testing.T, db *database.DB, name, deposit string) int64 {
	t.Helper()
	ctx := context.Background()

	var investorID int64
	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO investors (name, email, role, profile_complete, active)
			VALUES ($1, $2, 'investor', TRUE, TRUE)
			RETURNING id
		`, name, fmt.Sprintf("%s@example.com", name)).Scan(&investorID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO ledger_entries (investor_id, kind, amount, status, decided_at)
			VALUES ($1, 'deposit', $2::numeric, 'approved', NOW())
		`, investorID, deposit)
		return err
	})
	require.NoError(t, err)
	return investorID
}

// SeedContract inserts an active contract and the approved ledger entry that funded it
// in one serializable transaction. funding is investment or reinvestment.
func SeedContract(t *testing.T, db *database.DB, investorID int64, principal string, funding entities.EntryKind) int64 {
	t.Helper()
	ctx := context.Background()
	start := time.Now().UTC()

	var contractID int64
	err := db.WithTransactionOptions(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO contracts (investor_id, principal, monthly_rate, term_months, state, start_date, end_date)
			VALUES ($1, $2::numeric, 0.05, 12, 'active', $3, $4)
			RETURNING id
		`, investorID, principal, start, entities.ContractEndDate(start, 12)).Scan(&contractID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO ledger_entries (investor_id, kind, amount, status, contract_id, decided_at)
			VALUES ($1, $2, -($3::numeric), 'approved', $4, NOW())
		`, investorID, string(funding), principal, contractID)
		return err
	})
	require.NoError(t, err)
	return contractID
}
