package interfaces

import (
	"context"
	"time"

	"investa/domain/entities"

	"github.com/shopspring/decimal"
)

// InvestorService defines the interface for investor registration and profile management
type InvestorService interface {
	Register(ctx context.Context, name, email string, role entities.Role) (*entities.Investor, error)
	GetInvestor(ctx context.Context, id int64) (*entities.Investor, error)
	ListInvestors(ctx context.Context) ([]*entities.Investor, error)
	UpdateProfile(ctx context.Context, id int64, update entities.ProfileUpdate) (*entities.Investor, error)
	SetActive(ctx context.Context, id int64, active bool) (*entities.Investor, error)
}

// HistoryItem is a ledger entry with its amount rendered as currency
type HistoryItem struct {
	Entry           *entities.LedgerEntry
	FormattedAmount string
}

// WalletService defines the interface for wallet projections and money movement requests
type WalletService interface {
	// RequestDeposit queues a pending deposit for admin confirmation
	RequestDeposit(ctx context.Context, investorID int64, amount decimal.Decimal) (*entities.ApprovalRequest, error)

	// RequestWithdrawal queues a pending withdrawal covered by approved profit
	RequestWithdrawal(ctx context.Context, investorID int64, amount decimal.Decimal) (*entities.ApprovalRequest, error)

	// AdminCredit records an admin deposit that needs no review
	AdminCredit(ctx context.Context, investorID int64, amount decimal.Decimal, note string, adminID int64) (*entities.LedgerEntry, error)

	Snapshot(ctx context.Context, investorID int64) (*entities.WalletSnapshot, error)
	PendingView(ctx context.Context, investorID int64) (*entities.PendingView, error)
	History(ctx context.Context, investorID int64, limit int) ([]*HistoryItem, error)

	// Confirm and Reject settle a pending entry inside the caller's unit of work.
	// The caller must hold the investor lock.
	Confirm(ctx context.Context, uow UnitOfWork, entryID int64) error
	Reject(ctx context.Context, uow UnitOfWork, entryID int64) error
}

// CreateContractRequest carries the investor's contract terms.
// A zero MonthlyRate or TermMonths takes the platform's offered terms.
type CreateContractRequest struct {
	InvestorID    int64
	Principal     decimal.Decimal
	MonthlyRate   decimal.Decimal
	TermMonths    int
	TermsAccepted bool
}

// ContractService defines the interface for the contract lifecycle engine
type ContractService interface {
	Create(ctx context.Context, req CreateContractRequest) (*entities.Contract, error)

	// Reinvest opens a contract funded from approved profit instead of deposited cash.
	// req.Principal is the profit amount to move.
	Reinvest(ctx context.Context, req CreateContractRequest) (*entities.Contract, error)

	AccrueMonthlyProfit(ctx context.Context, contractID int64, period int) (*entities.LedgerEntry, error)
	AccrueDue(ctx context.Context, contractID int64, now time.Time) (int, error)
	RequestEarlyRefund(ctx context.Context, contractID int64) (*entities.ApprovalRequest, error)
	AdminUpdateStatus(ctx context.Context, contractID int64, newState entities.ContractState, patch entities.ContractPatch, adminID int64) (*entities.Contract, error)
	GetContract(ctx context.Context, id int64) (*entities.Contract, error)
	ListContracts(ctx context.Context, filter entities.ContractFilter) ([]*entities.Contract, error)
	ContractsEndingWithin(ctx context.Context, now time.Time, window time.Duration) ([]*entities.Contract, error)

	// SettleRefund applies an admin outcome to a pending refund inside the caller's unit of work.
	// The caller must hold the investor and contract locks.
	SettleRefund(ctx context.Context, uow UnitOfWork, request *entities.ApprovalRequest, outcome entities.Outcome) error
}

// BulkDecisionResult is the per-id outcome of a bulk decision
type BulkDecisionResult struct {
	RequestID int64
	Request   *entities.ApprovalRequest
	Err       error
}

// ApprovalService defines the interface for the admin approval workflow
type ApprovalService interface {
	Decide(ctx context.Context, requestID int64, outcome entities.Outcome, adminID int64, reason string) (*entities.ApprovalRequest, error)
	BulkDecide(ctx context.Context, requestIDs []int64, outcome entities.Outcome, adminID int64) []BulkDecisionResult
	AdjustPendingDeposit(ctx context.Context, requestID int64, amount decimal.Decimal) (*entities.ApprovalRequest, error)
	GetRequest(ctx context.Context, id int64) (*entities.ApprovalRequest, error)
	ListRequests(ctx context.Context, filter entities.RequestFilter) ([]*entities.ApprovalRequest, error)
}
