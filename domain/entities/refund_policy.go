package entities

import "github.com/shopspring/decimal"

// DefaultRefundMaxMonths is the first months_paid value at which early refunds are refused
const DefaultRefundMaxMonths = 6

// RefundPolicy decides early refund eligibility and the penalty-adjusted payout.
// A zero PenaltyRatePerMonth falls back to the contract's monthly rate, so the payout
// equals principal minus the profit already distributed.
type RefundPolicy struct {
	MaxMonthsPaid       int
	PenaltyRatePerMonth decimal.Decimal
}

// DefaultRefundPolicy refuses refunds from the sixth paid month and uses the contract rate
func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{MaxMonthsPaid: DefaultRefundMaxMonths}
}

// IsEligible checks whether a contract with this many paid months may exit early
func (p RefundPolicy) IsEligible(monthsPaid int) bool {
	return monthsPaid >= 0 && monthsPaid < p.maxMonths()
}

// PenaltyRate is the per-month penalty applied to a contract earning contractRate
func (p RefundPolicy) PenaltyRate(contractRate decimal.Decimal) decimal.Decimal {
	if p.PenaltyRatePerMonth.IsPositive() {
		return p.PenaltyRatePerMonth
	}
	return contractRate
}

// AllowsRate reports whether a contract earning contractRate keeps a positive payout
// at the last eligible month, i.e. penalty rate x (MaxMonthsPaid-1) < 1.
// Above that bound the refund curve would flatten at zero inside the eligible window.
func (p RefundPolicy) AllowsRate(contractRate decimal.Decimal) bool {
	return p.PenaltyRate(contractRate).Mul(decimal.NewFromInt(int64(p.maxMonths() - 1))).LessThan(decimal.NewFromInt(1))
}

// RefundAmount returns principal minus a penalty proportional to the months already paid.
// The result never drops below zero.
func (p RefundPolicy) RefundAmount(c *Contract) decimal.Decimal {
	rate := p.PenaltyRate(c.MonthlyRate)
	months := decimal.NewFromInt(int64(c.MonthsPaid))
	penalty := c.Principal.Mul(rate).Mul(months)
	amount := c.Principal.Sub(penalty).Round(2)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

func (p RefundPolicy) maxMonths() int {
	if p.MaxMonthsPaid <= 0 {
		return DefaultRefundMaxMonths
	}
	return p.MaxMonthsPaid
}
