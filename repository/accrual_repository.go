package repository

import (
	"context"
	"fmt"

	"investa/database"
	"investa/domain"
	"investa/domain/entities"
)

// AccrualRepository stores credited contract periods. The (contract_id, period)
// primary key is what makes profit accrual idempotent across processes.
type AccrualRepository struct {
	q Queryable
}

// NewAccrualRepository creates an accrual repository on the pool
func NewAccrualRepository(db *database.DB) *AccrualRepository {
	return &AccrualRepository{q: db.Pool}
}

func newAccrualRepository(q Queryable) *AccrualRepository {
	return &AccrualRepository{q: q}
}

// Exists checks whether a period has already been credited
func (r *AccrualRepository) Exists(ctx context.Context, contractID int64, period int) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM contract_accruals WHERE contract_id = $1 AND period = $2)
	`, contractID, period).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check accrual: %w", err)
	}
	return exists, nil
}

// Record stores a credited period
func (r *AccrualRepository) Record(ctx context.Context, record *entities.AccrualRecord) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO contract_accruals (contract_id, period, ledger_entry_id, amount)
		VALUES ($1, $2, $3, $4::numeric)
	`, record.ContractID, record.Period, record.LedgerEntryID, record.Amount.String())
	if isUniqueViolation(err) {
		return fmt.Errorf("contract %d period %d: %w", record.ContractID, record.Period, domain.ErrDuplicateAccrual)
	}
	if err != nil {
		return fmt.Errorf("failed to record accrual: %w", err)
	}
	return nil
}
