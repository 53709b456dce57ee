package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind represents the type of ledger movement
type EntryKind string

const (
	EntryKindDeposit    EntryKind = "deposit"
	EntryKindWithdrawal EntryKind = "withdrawal"
	EntryKindInvestment EntryKind = "investment"
	EntryKindProfit     EntryKind = "profit"
	EntryKindRefund     EntryKind = "refund"
	// EntryKindReinvestment moves approved profit into a new contract's principal
	EntryKindReinvestment EntryKind = "reinvestment"
)

// IsValid returns true for the known entry kinds
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindDeposit, EntryKindWithdrawal, EntryKindInvestment, EntryKindProfit, EntryKindRefund,
		EntryKindReinvestment:
		return true
	}
	return false
}

// IsCredit returns true if the kind carries a positive amount
func (k EntryKind) IsCredit() bool {
	return k == EntryKindDeposit || k == EntryKindProfit
}

// RequiresApproval returns true if entries of this kind start pending and wait for an admin
func (k EntryKind) RequiresApproval() bool {
	return k == EntryKindDeposit || k == EntryKindWithdrawal
}

// IsSystemGenerated returns true if the kind is written by the platform itself
func (k EntryKind) IsSystemGenerated() bool {
	return !k.RequiresApproval()
}

func (k EntryKind) String() string {
	return string(k)
}

// EntryStatus is the decision state of a ledger entry
type EntryStatus string

const (
	EntryStatusPending  EntryStatus = "pending"
	EntryStatusApproved EntryStatus = "approved"
	EntryStatusRejected EntryStatus = "rejected"
)

// IsDecided returns true once the entry left the pending state
func (s EntryStatus) IsDecided() bool {
	return s == EntryStatusApproved || s == EntryStatusRejected
}

// CurrencyUSD is the only currency the ledger carries
const CurrencyUSD = "USD"

// LedgerEntry is a single append-only movement on an investor's wallet
type LedgerEntry struct {
	ID            int64           `db:"id"`
	InvestorID    int64           `db:"investor_id"`
	Kind          EntryKind       `db:"kind"`
	Amount        decimal.Decimal `db:"amount"`
	Currency      string          `db:"currency"`
	Status        EntryStatus     `db:"status"`
	ContractID    *int64          `db:"contract_id"`
	AccrualPeriod *int            `db:"accrual_period"`
	Note          string          `db:"note"`
	CreatedAt     time.Time       `db:"created_at"`
	DecidedAt     *time.Time      `db:"decided_at"`
}

// IsApproved checks if the entry counts toward wallet projections
func (e *LedgerEntry) IsApproved() bool {
	return e.Status == EntryStatusApproved
}

// IsPending checks if the entry still awaits a decision
func (e *LedgerEntry) IsPending() bool {
	return e.Status == EntryStatusPending
}

// HasValidSign checks the amount sign against the entry kind. Zero amounts are never valid.
func (e *LedgerEntry) HasValidSign() bool {
	if e.Kind.IsCredit() {
		return e.Amount.IsPositive()
	}
	return e.Amount.IsNegative()
}
