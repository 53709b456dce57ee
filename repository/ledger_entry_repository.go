package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"investa/database"
	"investa/domain"
	"investa/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const ledgerColumns = `id, investor_id, kind, amount::text, currency, status, contract_id, accrual_period, note, created_at, decided_at`

// LedgerEntryRepository implements interfaces.LedgerEntryRepository on PostgreSQL.
// Rows are only ever inserted or moved out of pending.
type LedgerEntryRepository struct {
	q Queryable
}

// NewLedgerEntryRepository creates a ledger repository on the pool
func NewLedgerEntryRepository(db *database.DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: db.Pool}
}

func newLedgerEntryRepository(q Queryable) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: q}
}

func scanLedgerEntry(row pgx.Row) (*entities.LedgerEntry, error) {
	var e entities.LedgerEntry
	var kind, status, amount string
	err := row.Scan(
		&e.ID,
		&e.InvestorID,
		&kind,
		&amount,
		&e.Currency,
		&status,
		&e.ContractID,
		&e.AccrualPeriod,
		&e.Note,
		&e.CreatedAt,
		&e.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	if e.Amount, err = parseDecimal("amount", amount); err != nil {
		return nil, err
	}
	e.Kind = entities.EntryKind(kind)
	e.Status = entities.EntryStatus(status)
	return &e, nil
}

// Create appends a ledger entry
func (r *LedgerEntryRepository) Create(ctx context.Context, entry *entities.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (investor_id, kind, amount, currency, status, contract_id, accrual_period, note, decided_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query,
		entry.InvestorID,
		string(entry.Kind),
		entry.Amount.String(),
		entry.Currency,
		string(entry.Status),
		entry.ContractID,
		entry.AccrualPeriod,
		entry.Note,
		entry.DecidedAt,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

// GetByID retrieves a ledger entry by ID
func (r *LedgerEntryRepository) GetByID(ctx context.Context, id int64) (*entities.LedgerEntry, error) {
	entry, err := scanLedgerEntry(r.q.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM ledger_entries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry %d: %w", id, err)
	}
	return entry, nil
}

// GetByInvestor returns every entry of an investor, newest first
func (r *LedgerEntryRepository) GetByInvestor(ctx context.Context, investorID int64) ([]*entities.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE investor_id = $1 ORDER BY id DESC`
	rows, err := r.q.Query(ctx, query, investorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*entities.LedgerEntry, 0)
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}

// MarkDecided moves a pending entry to its final status
func (r *LedgerEntryRepository) MarkDecided(ctx context.Context, id int64, status entities.EntryStatus, decidedAt time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE ledger_entries SET status = $2, decided_at = $3
		WHERE id = $1 AND status = 'pending'
	`, id, string(status), decidedAt)
	if err != nil {
		return fmt.Errorf("failed to decide ledger entry %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger entry %d: %w", id, domain.ErrAlreadyDecided)
	}
	return nil
}

// UpdatePendingAmount rewrites the amount of an entry that is still pending
func (r *LedgerEntryRepository) UpdatePendingAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE ledger_entries SET amount = $2::numeric
		WHERE id = $1 AND status = 'pending'
	`, id, amount.String())
	if err != nil {
		return fmt.Errorf("failed to update ledger entry %d amount: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger entry %d: %w", id, domain.ErrAlreadyDecided)
	}
	return nil
}
