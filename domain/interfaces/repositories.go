package interfaces

import (
	"context"
	"time"

	"investa/domain/entities"
	"investa/events"

	"github.com/shopspring/decimal"
)

// InvestorRepository defines the interface for investor data access
type InvestorRepository interface {
	// GetByID retrieves an investor, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Investor, error)

	// LockForUpdate retrieves an investor and holds its row lock until the transaction ends
	LockForUpdate(ctx context.Context, id int64) (*entities.Investor, error)

	// Create inserts a new investor and fills in its ID and timestamps
	Create(ctx context.Context, investor *entities.Investor) error

	// Update persists profile, activation and terms fields
	Update(ctx context.Context, investor *entities.Investor) error

	// List returns all investors ordered by ID
	List(ctx context.Context) ([]*entities.Investor, error)
}

// LedgerEntryRepository defines the interface for the append-only ledger
type LedgerEntryRepository interface {
	// Create appends a new entry and fills in its ID and CreatedAt
	Create(ctx context.Context, entry *entities.LedgerEntry) error

	// GetByID retrieves an entry, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.LedgerEntry, error)

	// GetByInvestor returns every entry of an investor, newest first
	GetByInvestor(ctx context.Context, investorID int64) ([]*entities.LedgerEntry, error)

	// MarkDecided moves a pending entry to approved or rejected.
	// Returns domain.ErrAlreadyDecided when the entry is no longer pending.
	MarkDecided(ctx context.Context, id int64, status entities.EntryStatus, decidedAt time.Time) error

	// UpdatePendingAmount rewrites the amount of a still pending entry
	UpdatePendingAmount(ctx context.Context, id int64, amount decimal.Decimal) error
}

// ContractRepository defines the interface for investment contract data access
type ContractRepository interface {
	// Create inserts a new contract and fills in its ID and timestamps
	Create(ctx context.Context, contract *entities.Contract) error

	// GetByID retrieves a contract, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Contract, error)

	// LockForUpdate retrieves a contract and holds its row lock until the transaction ends
	LockForUpdate(ctx context.Context, id int64) (*entities.Contract, error)

	// Update persists state, months paid and profit paid
	Update(ctx context.Context, contract *entities.Contract) error

	// List returns contracts matching the filter, newest first
	List(ctx context.Context, filter entities.ContractFilter) ([]*entities.Contract, error)

	// ListActiveEndingBetween returns active contracts whose end date falls in [from, to)
	ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]*entities.Contract, error)
}

// ApprovalRequestRepository defines the interface for the approval queue
type ApprovalRequestRepository interface {
	// Create inserts a new request and fills in its ID and CreatedAt
	Create(ctx context.Context, request *entities.ApprovalRequest) error

	// GetByID retrieves a request, returning nil when it does not exist
	GetByID(ctx context.Context, id int64) (*entities.ApprovalRequest, error)

	// Update persists the decision fields and amount
	Update(ctx context.Context, request *entities.ApprovalRequest) error

	// List returns requests matching the filter, oldest first
	List(ctx context.Context, filter entities.RequestFilter) ([]*entities.ApprovalRequest, error)

	// GetPendingRefundByContract returns the open refund request for a contract, or nil
	GetPendingRefundByContract(ctx context.Context, contractID int64) (*entities.ApprovalRequest, error)
}

// AccrualRepository stores the per-period idempotency keys of profit accrual
type AccrualRepository interface {
	// Exists checks whether the period has already been credited
	Exists(ctx context.Context, contractID int64, period int) (bool, error)

	// Record stores the period. Returns domain.ErrDuplicateAccrual on a repeated key.
	Record(ctx context.Context, record *entities.AccrualRecord) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events until the surrounding transaction settles
type TransactionalEventPublisher interface {
	EventPublisher
	Flush(ctx context.Context) error
	Discard()
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and releases buffered events
	Commit() error

	// Rollback rolls back the transaction and drops buffered events. Safe after Commit.
	Rollback() error

	InvestorRepository() InvestorRepository
	LedgerEntryRepository() LedgerEntryRepository
	ContractRepository() ContractRepository
	ApprovalRequestRepository() ApprovalRequestRepository
	AccrualRepository() AccrualRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
