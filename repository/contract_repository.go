package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"investa/database"
	"investa/domain/entities"

	"github.com/jackc/pgx/v5"
)

const contractColumns = `id, investor_id, principal::text, monthly_rate::text, term_months, months_paid,
	profit_paid_total::text, state, start_date, end_date, created_at, updated_at`

// ContractRepository implements interfaces.ContractRepository on PostgreSQL
type ContractRepository struct {
	q Queryable
}

// NewContractRepository creates a contract repository on the pool
func NewContractRepository(db *database.DB) *ContractRepository {
	return &ContractRepository{q: db.Pool}
}

func newContractRepository(q Queryable) *ContractRepository {
	return &ContractRepository{q: q}
}

func scanContract(row pgx.Row) (*entities.Contract, error) {
	var c entities.Contract
	var principal, rate, profitPaid, state string
	err := row.Scan(
		&c.ID,
		&c.InvestorID,
		&principal,
		&rate,
		&c.TermMonths,
		&c.MonthsPaid,
		&profitPaid,
		&state,
		&c.StartDate,
		&c.EndDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Principal, err = parseDecimal("principal", principal); err != nil {
		return nil, err
	}
	if c.MonthlyRate, err = parseDecimal("monthly_rate", rate); err != nil {
		return nil, err
	}
	if c.ProfitPaidTotal, err = parseDecimal("profit_paid_total", profitPaid); err != nil {
		return nil, err
	}
	c.State = entities.ContractState(state)
	return &c, nil
}

// Create inserts a new contract
func (r *ContractRepository) Create(ctx context.Context, contract *entities.Contract) error {
	query := `
		INSERT INTO contracts (investor_id, principal, monthly_rate, term_months, months_paid, profit_paid_total, state, start_date, end_date)
		VALUES ($1, $2::numeric, $3::numeric, $4, $5, $6::numeric, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		contract.InvestorID,
		contract.Principal.String(),
		contract.MonthlyRate.String(),
		contract.TermMonths,
		contract.MonthsPaid,
		contract.ProfitPaidTotal.String(),
		string(contract.State),
		contract.StartDate,
		contract.EndDate,
	).Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// GetByID retrieves a contract by ID
func (r *ContractRepository) GetByID(ctx context.Context, id int64) (*entities.Contract, error) {
	return r.get(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
}

// LockForUpdate retrieves a contract and locks its row for the rest of the transaction
func (r *ContractRepository) LockForUpdate(ctx context.Context, id int64) (*entities.Contract, error) {
	return r.get(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1 FOR UPDATE`, id)
}

func (r *ContractRepository) get(ctx context.Context, query string, id int64) (*entities.Contract, error) {
	contract, err := scanContract(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract %d: %w", id, err)
	}
	return contract, nil
}

// Update persists the lifecycle fields of a contract
func (r *ContractRepository) Update(ctx context.Context, contract *entities.Contract) error {
	query := `
		UPDATE contracts
		SET months_paid = $2, profit_paid_total = $3::numeric, state = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query,
		contract.ID,
		contract.MonthsPaid,
		contract.ProfitPaidTotal.String(),
		string(contract.State),
	).Scan(&contract.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("contract %d not found", contract.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update contract %d: %w", contract.ID, err)
	}
	return nil
}

// List returns contracts matching the filter, newest first
func (r *ContractRepository) List(ctx context.Context, filter entities.ContractFilter) ([]*entities.Contract, error) {
	var conditions []string
	var args []any
	if filter.InvestorID != nil {
		args = append(args, *filter.InvestorID)
		conditions = append(conditions, fmt.Sprintf("investor_id = $%d", len(args)))
	}
	if filter.State != nil {
		args = append(args, string(*filter.State))
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)))
	}

	query := `SELECT ` + contractColumns + ` FROM contracts`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY id DESC`

	return r.list(ctx, query, args...)
}

// ListActiveEndingBetween returns active contracts ending in [from, to), soonest first
func (r *ContractRepository) ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]*entities.Contract, error) {
	query := `
		SELECT ` + contractColumns + ` FROM contracts
		WHERE state = 'active' AND end_date >= $1 AND end_date < $2
		ORDER BY end_date, id
	`
	return r.list(ctx, query, from, to)
}

func (r *ContractRepository) list(ctx context.Context, query string, args ...any) ([]*entities.Contract, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	contracts := make([]*entities.Contract, 0)
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, contract)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contracts: %w", err)
	}
	return contracts, nil
}
