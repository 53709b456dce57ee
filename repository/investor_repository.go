package repository

import (
	"context"
	"errors"
	"fmt"

	"investa/database"
	"investa/domain/entities"

	"github.com/jackc/pgx/v5"
)

const investorColumns = `id, name, email, role, profile_complete, active, terms_accepted_at, created_at, updated_at`

// InvestorRepository implements interfaces.InvestorRepository on PostgreSQL
type InvestorRepository struct {
	q Queryable
}

// NewInvestorRepository creates an investor repository on the pool
func NewInvestorRepository(db *database.DB) *InvestorRepository {
	return &InvestorRepository{q: db.Pool}
}

func newInvestorRepository(q Queryable) *InvestorRepository {
	return &InvestorRepository{q: q}
}

func scanInvestor(row pgx.Row) (*entities.Investor, error) {
	var inv entities.Investor
	var role string
	err := row.Scan(
		&inv.ID,
		&inv.Name,
		&inv.Email,
		&role,
		&inv.ProfileComplete,
		&inv.Active,
		&inv.TermsAcceptedAt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Role = entities.Role(role)
	return &inv, nil
}

// GetByID retrieves an investor by ID
func (r *InvestorRepository) GetByID(ctx context.Context, id int64) (*entities.Investor, error) {
	return r.get(ctx, `SELECT `+investorColumns+` FROM investors WHERE id = $1`, id)
}

// LockForUpdate retrieves an investor and locks its row for the rest of the transaction
func (r *InvestorRepository) LockForUpdate(ctx context.Context, id int64) (*entities.Investor, error) {
	return r.get(ctx, `SELECT `+investorColumns+` FROM investors WHERE id = $1 FOR UPDATE`, id)
}

func (r *InvestorRepository) get(ctx context.Context, query string, id int64) (*entities.Investor, error) {
	inv, err := scanInvestor(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investor %d: %w", id, err)
	}
	return inv, nil
}

// Create inserts a new investor
func (r *InvestorRepository) Create(ctx context.Context, investor *entities.Investor) error {
	query := `
		INSERT INTO investors (name, email, role, profile_complete, active, terms_accepted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		investor.Name,
		investor.Email,
		string(investor.Role),
		investor.ProfileComplete,
		investor.Active,
		investor.TermsAcceptedAt,
	).Scan(&investor.ID, &investor.CreatedAt, &investor.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create investor: %w", err)
	}
	return nil
}

// Update persists the mutable investor fields. The role is never rewritten.
func (r *InvestorRepository) Update(ctx context.Context, investor *entities.Investor) error {
	query := `
		UPDATE investors
		SET name = $2, email = $3, profile_complete = $4, active = $5, terms_accepted_at = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query,
		investor.ID,
		investor.Name,
		investor.Email,
		investor.ProfileComplete,
		investor.Active,
		investor.TermsAcceptedAt,
	).Scan(&investor.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("investor %d not found", investor.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update investor %d: %w", investor.ID, err)
	}
	return nil
}

// List returns all investors ordered by ID
func (r *InvestorRepository) List(ctx context.Context) ([]*entities.Investor, error) {
	rows, err := r.q.Query(ctx, `SELECT `+investorColumns+` FROM investors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list investors: %w", err)
	}
	defer rows.Close()

	investors := make([]*entities.Investor, 0)
	for rows.Next() {
		inv, err := scanInvestor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investor: %w", err)
		}
		investors = append(investors, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investors: %w", err)
	}
	return investors, nil
}
