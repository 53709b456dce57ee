package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestKind is the money movement an approval request gates
type RequestKind string

const (
	RequestKindDeposit    RequestKind = "deposit"
	RequestKindWithdrawal RequestKind = "withdrawal"
	RequestKindRefund     RequestKind = "refund"
)

// IsValid returns true for the known request kinds
func (k RequestKind) IsValid() bool {
	return k == RequestKindDeposit || k == RequestKindWithdrawal || k == RequestKindRefund
}

// RequestState is the decision state of an approval request
type RequestState string

const (
	RequestStatePending  RequestState = "pending"
	RequestStateApproved RequestState = "approved"
	RequestStateRejected RequestState = "rejected"
)

// IsValid returns true for the known request states
func (s RequestState) IsValid() bool {
	return s == RequestStatePending || s == RequestStateApproved || s == RequestStateRejected
}

// Outcome is an admin decision on a request
type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeReject  Outcome = "reject"
)

// IsValid returns true for approve and reject
func (o Outcome) IsValid() bool {
	return o == OutcomeApprove || o == OutcomeReject
}

// ResultingState maps the outcome to the request state it produces
func (o Outcome) ResultingState() RequestState {
	if o == OutcomeApprove {
		return RequestStateApproved
	}
	return RequestStateRejected
}

// ApprovalRequest is an investor action waiting for an admin decision
type ApprovalRequest struct {
	ID              int64           `db:"id"`
	InvestorID      int64           `db:"investor_id"`
	Kind            RequestKind     `db:"kind"`
	Amount          decimal.Decimal `db:"amount"`
	LedgerEntryID   *int64          `db:"ledger_entry_id"`
	ContractID      *int64          `db:"contract_id"`
	State           RequestState    `db:"state"`
	DecidedAt       *time.Time      `db:"decided_at"`
	DecidedBy       *int64          `db:"decided_by"`
	RejectionReason string          `db:"rejection_reason"`
	CreatedAt       time.Time       `db:"created_at"`
}

// IsPending checks if the request can still be decided
func (r *ApprovalRequest) IsPending() bool {
	return r.State == RequestStatePending
}

// RequestFilter narrows request listings. Zero values match everything.
type RequestFilter struct {
	InvestorID *int64
	Kind       RequestKind
	State      RequestState
}

// Matches checks a request against the filter
func (f RequestFilter) Matches(r *ApprovalRequest) bool {
	if f.InvestorID != nil && r.InvestorID != *f.InvestorID {
		return false
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.State != "" && r.State != f.State {
		return false
	}
	return true
}
