package entities

import "github.com/shopspring/decimal"

// WalletSnapshot is the wallet state derived from approved ledger entries
type WalletSnapshot struct {
	InvestorID        int64           `json:"investor_id"`
	DepositedTotal    decimal.Decimal `json:"deposited_total"`
	InvestedTotal     decimal.Decimal `json:"invested_total"`
	ProfitAvailable   decimal.Decimal `json:"profit_available"`
	PrincipalReturned decimal.Decimal `json:"principal_returned"`
	ReinvestedTotal   decimal.Decimal `json:"reinvested_total"`
}

// Deployable returns deposited funds not yet committed to a contract
func (w WalletSnapshot) Deployable() decimal.Decimal {
	return w.DepositedTotal.Sub(w.InvestedTotal)
}

// CanWithdraw checks if the approved profit covers the amount
func (w WalletSnapshot) CanWithdraw(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(w.ProfitAvailable)
}

// CanInvest checks if the deployable balance covers the principal
func (w WalletSnapshot) CanInvest(principal decimal.Decimal) bool {
	return principal.LessThanOrEqual(w.Deployable())
}

// FoldWallet derives a snapshot from an investor's ledger. Only approved entries count.
func FoldWallet(investorID int64, entries []*LedgerEntry) WalletSnapshot {
	snap := WalletSnapshot{
		InvestorID:        investorID,
		DepositedTotal:    decimal.Zero,
		InvestedTotal:     decimal.Zero,
		ProfitAvailable:   decimal.Zero,
		PrincipalReturned: decimal.Zero,
		ReinvestedTotal:   decimal.Zero,
	}

	for _, e := range entries {
		if e.InvestorID != investorID || !e.IsApproved() {
			continue
		}
		switch e.Kind {
		case EntryKindDeposit:
			snap.DepositedTotal = snap.DepositedTotal.Add(e.Amount)
		case EntryKindInvestment:
			snap.InvestedTotal = snap.InvestedTotal.Add(e.Amount.Abs())
		case EntryKindProfit:
			snap.ProfitAvailable = snap.ProfitAvailable.Add(e.Amount)
		case EntryKindWithdrawal:
			snap.ProfitAvailable = snap.ProfitAvailable.Sub(e.Amount.Abs())
		case EntryKindRefund:
			snap.PrincipalReturned = snap.PrincipalReturned.Add(e.Amount.Abs())
		case EntryKindReinvestment:
			snap.ProfitAvailable = snap.ProfitAvailable.Sub(e.Amount.Abs())
			snap.ReinvestedTotal = snap.ReinvestedTotal.Add(e.Amount.Abs())
		}
	}

	return snap
}

// PendingView lists entries still awaiting an admin decision
type PendingView struct {
	InvestorID        int64           `json:"investor_id"`
	Entries           []*LedgerEntry  `json:"entries"`
	PendingDeposits   decimal.Decimal `json:"pending_deposits"`
	PendingWithdrawal decimal.Decimal `json:"pending_withdrawals"`
}

// BuildPendingView collects pending entries and their totals
func BuildPendingView(investorID int64, entries []*LedgerEntry) PendingView {
	view := PendingView{
		InvestorID:        investorID,
		Entries:           make([]*LedgerEntry, 0),
		PendingDeposits:   decimal.Zero,
		PendingWithdrawal: decimal.Zero,
	}
	for _, e := range entries {
		if e.InvestorID != investorID || !e.IsPending() {
			continue
		}
		view.Entries = append(view.Entries, e)
		switch e.Kind {
		case EntryKindDeposit:
			view.PendingDeposits = view.PendingDeposits.Add(e.Amount)
		case EntryKindWithdrawal:
			view.PendingWithdrawal = view.PendingWithdrawal.Add(e.Amount.Abs())
		}
	}
	return view
}
