package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractState represents the lifecycle state of an investment contract
type ContractState string

const (
	ContractStateActive        ContractState = "active"
	ContractStatePendingRefund ContractState = "pending_refund"
	ContractStateCompleted     ContractState = "completed"
	ContractStateCancelled     ContractState = "cancelled"
)

// IsValid returns true for the known contract states
func (s ContractState) IsValid() bool {
	switch s {
	case ContractStateActive, ContractStatePendingRefund, ContractStateCompleted, ContractStateCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for states no edge leaves
func (s ContractState) IsTerminal() bool {
	return s == ContractStateCompleted || s == ContractStateCancelled
}

func (s ContractState) String() string {
	return string(s)
}

var contractTransitions = map[ContractState][]ContractState{
	ContractStateActive:        {ContractStateCompleted, ContractStatePendingRefund, ContractStateCancelled},
	ContractStatePendingRefund: {ContractStateCompleted, ContractStateActive},
}

// CanTransitionTo reports whether from -> to is one of the permitted contract edges
func (s ContractState) CanTransitionTo(to ContractState) bool {
	for _, allowed := range contractTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Contract is an investor's commitment of principal for a fixed term at a monthly rate
type Contract struct {
	ID              int64           `db:"id"`
	InvestorID      int64           `db:"investor_id"`
	Principal       decimal.Decimal `db:"principal"`
	MonthlyRate     decimal.Decimal `db:"monthly_rate"`
	TermMonths      int             `db:"term_months"`
	MonthsPaid      int             `db:"months_paid"`
	ProfitPaidTotal decimal.Decimal `db:"profit_paid_total"`
	State           ContractState   `db:"state"`
	StartDate       time.Time       `db:"start_date"`
	EndDate         time.Time       `db:"end_date"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// ContractEndDate returns start plus the term in calendar months
func ContractEndDate(start time.Time, termMonths int) time.Time {
	return start.AddDate(0, termMonths, 0)
}

// MonthlyProfit is principal times rate rounded to cents
func (c *Contract) MonthlyProfit() decimal.Decimal {
	return c.Principal.Mul(c.MonthlyRate).Round(2)
}

// Progress is months paid over the term, between 0 and 1
func (c *Contract) Progress() float64 {
	if c.TermMonths <= 0 {
		return 0
	}
	p := float64(c.MonthsPaid) / float64(c.TermMonths)
	if p > 1 {
		return 1
	}
	return p
}

// IsActive checks if the contract still accrues profit
func (c *Contract) IsActive() bool {
	return c.State == ContractStateActive
}

// IsMatured checks if every month of the term has been paid
func (c *Contract) IsMatured() bool {
	return c.MonthsPaid >= c.TermMonths
}

// NextPeriod is the accrual period the contract expects next
func (c *Contract) NextPeriod() int {
	return c.MonthsPaid + 1
}

// DuePeriods returns how many accrual periods have elapsed at the given time, capped at the term
func (c *Contract) DuePeriods(now time.Time) int {
	due := 0
	for due < c.TermMonths && !c.StartDate.AddDate(0, due+1, 0).After(now) {
		due++
	}
	return due
}

// ContractPatch carries admin corrections. Nil fields are left untouched.
type ContractPatch struct {
	MonthsPaid      *int
	ProfitPaidTotal *decimal.Decimal
}

// IsEmpty returns true when the patch changes nothing
func (p ContractPatch) IsEmpty() bool {
	return p.MonthsPaid == nil && p.ProfitPaidTotal == nil
}

// ContractFilter narrows admin contract listings
type ContractFilter struct {
	InvestorID *int64
	State      *ContractState
}
