package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"investa/database"
	"investa/domain"
	"investa/domain/entities"

	"github.com/jackc/pgx/v5"
)

const requestColumns = `id, investor_id, kind, amount::text, ledger_entry_id, contract_id, state,
	decided_at, decided_by, rejection_reason, created_at`

// ApprovalRequestRepository implements interfaces.ApprovalRequestRepository on PostgreSQL
type ApprovalRequestRepository struct {
	q Queryable
}

// NewApprovalRequestRepository creates an approval request repository on the pool
func NewApprovalRequestRepository(db *database.DB) *ApprovalRequestRepository {
	return &ApprovalRequestRepository{q: db.Pool}
}

func newApprovalRequestRepository(q Queryable) *ApprovalRequestRepository {
	return &ApprovalRequestRepository{q: q}
}

func scanApprovalRequest(row pgx.Row) (*entities.ApprovalRequest, error) {
	var req entities.ApprovalRequest
	var kind, state, amount string
	err := row.Scan(
		&req.ID,
		&req.InvestorID,
		&kind,
		&amount,
		&req.LedgerEntryID,
		&req.ContractID,
		&state,
		&req.DecidedAt,
		&req.DecidedBy,
		&req.RejectionReason,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if req.Amount, err = parseDecimal("amount", amount); err != nil {
		return nil, err
	}
	req.Kind = entities.RequestKind(kind)
	req.State = entities.RequestState(state)
	return &req, nil
}

// Create queues a new request. A second open refund for the same contract
// violates idx_approval_requests_open_refund and is reported as an invalid transition.
func (r *ApprovalRequestRepository) Create(ctx context.Context, request *entities.ApprovalRequest) error {
	query := `
		INSERT INTO approval_requests (investor_id, kind, amount, ledger_entry_id, contract_id, state)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query,
		request.InvestorID,
		string(request.Kind),
		request.Amount.String(),
		request.LedgerEntryID,
		request.ContractID,
		string(request.State),
	).Scan(&request.ID, &request.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("refund already open for contract: %w", domain.ErrInvalidTransition)
	}
	if err != nil {
		return fmt.Errorf("failed to create approval request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by ID
func (r *ApprovalRequestRepository) GetByID(ctx context.Context, id int64) (*entities.ApprovalRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM approval_requests WHERE id = $1`, id)
}

// GetPendingRefundByContract returns the open refund of a contract, if any
func (r *ApprovalRequestRepository) GetPendingRefundByContract(ctx context.Context, contractID int64) (*entities.ApprovalRequest, error) {
	query := `
		SELECT ` + requestColumns + ` FROM approval_requests
		WHERE contract_id = $1 AND kind = 'refund' AND state = 'pending'
	`
	return r.get(ctx, query, contractID)
}

func (r *ApprovalRequestRepository) get(ctx context.Context, query string, id int64) (*entities.ApprovalRequest, error) {
	req, err := scanApprovalRequest(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}
	return req, nil
}

// Update persists the amount and decision fields
func (r *ApprovalRequestRepository) Update(ctx context.Context, request *entities.ApprovalRequest) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE approval_requests
		SET amount = $2::numeric, state = $3, decided_at = $4, decided_by = $5, rejection_reason = $6
		WHERE id = $1
	`,
		request.ID,
		request.Amount.String(),
		string(request.State),
		request.DecidedAt,
		request.DecidedBy,
		request.RejectionReason,
	)
	if err != nil {
		return fmt.Errorf("failed to update approval request %d: %w", request.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("approval request %d not found", request.ID)
	}
	return nil
}

// List returns requests matching the filter, oldest first
func (r *ApprovalRequestRepository) List(ctx context.Context, filter entities.RequestFilter) ([]*entities.ApprovalRequest, error) {
	var conditions []string
	var args []any
	if filter.InvestorID != nil {
		args = append(args, *filter.InvestorID)
		conditions = append(conditions, fmt.Sprintf("investor_id = $%d", len(args)))
	}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.State != "" {
		args = append(args, string(filter.State))
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)))
	}

	query := `SELECT ` + requestColumns + ` FROM approval_requests`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*entities.ApprovalRequest, 0)
	for rows.Next() {
		req, err := scanApprovalRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approval requests: %w", err)
	}
	return requests, nil
}
