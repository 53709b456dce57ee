package server

import (
	"time"

	"investa/domain/entities"
	"investa/domain/interfaces"
	"investa/domain/utils"

	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type investorResponse struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	ProfileComplete bool       `json:"profile_complete"`
	Active          bool       `json:"active"`
	TermsAcceptedAt *time.Time `json:"terms_accepted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func newInvestorResponse(i *entities.Investor) investorResponse {
	return investorResponse{
		ID:              i.ID,
		Name:            i.Name,
		Email:           i.Email,
		Role:            string(i.Role),
		ProfileComplete: i.ProfileComplete,
		Active:          i.Active,
		TermsAcceptedAt: i.TermsAcceptedAt,
		CreatedAt:       i.CreatedAt,
	}
}

type walletResponse struct {
	InvestorID        int64  `json:"investor_id"`
	DepositedTotal    string `json:"deposited_total"`
	InvestedTotal     string `json:"invested_total"`
	Deployable        string `json:"deployable"`
	ProfitAvailable   string `json:"profit_available"`
	PrincipalReturned string `json:"principal_returned"`
	ReinvestedTotal   string `json:"reinvested_total"`
	ProfitDisplay     string `json:"profit_display"`
}

func newWalletResponse(w *entities.WalletSnapshot) walletResponse {
	return walletResponse{
		InvestorID:        w.InvestorID,
		DepositedTotal:    money(w.DepositedTotal),
		InvestedTotal:     money(w.InvestedTotal),
		Deployable:        money(w.Deployable()),
		ProfitAvailable:   money(w.ProfitAvailable),
		PrincipalReturned: money(w.PrincipalReturned),
		ReinvestedTotal:   money(w.ReinvestedTotal),
		ProfitDisplay:     utils.FormatUSD(w.ProfitAvailable),
	}
}

type entryResponse struct {
	ID              int64      `json:"id"`
	InvestorID      int64      `json:"investor_id"`
	Kind            string     `json:"kind"`
	Amount          string     `json:"amount"`
	FormattedAmount string     `json:"formatted_amount"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	ContractID      *int64     `json:"contract_id,omitempty"`
	AccrualPeriod   *int       `json:"accrual_period,omitempty"`
	Note            string     `json:"note,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
}

func newEntryResponse(e *entities.LedgerEntry) entryResponse {
	return entryResponse{
		ID:              e.ID,
		InvestorID:      e.InvestorID,
		Kind:            string(e.Kind),
		Amount:          money(e.Amount),
		FormattedAmount: utils.FormatCurrency(e.Amount),
		Currency:        e.Currency,
		Status:          string(e.Status),
		ContractID:      e.ContractID,
		AccrualPeriod:   e.AccrualPeriod,
		Note:            e.Note,
		CreatedAt:       e.CreatedAt,
		DecidedAt:       e.DecidedAt,
	}
}

func newHistoryResponse(items []*interfaces.HistoryItem) []entryResponse {
	out := make([]entryResponse, 0, len(items))
	for _, item := range items {
		resp := newEntryResponse(item.Entry)
		resp.FormattedAmount = item.FormattedAmount
		out = append(out, resp)
	}
	return out
}

type pendingResponse struct {
	InvestorID         int64           `json:"investor_id"`
	Entries            []entryResponse `json:"entries"`
	PendingDeposits    string          `json:"pending_deposits"`
	PendingWithdrawals string          `json:"pending_withdrawals"`
}

func newPendingResponse(v *entities.PendingView) pendingResponse {
	entries := make([]entryResponse, 0, len(v.Entries))
	for _, e := range v.Entries {
		entries = append(entries, newEntryResponse(e))
	}
	return pendingResponse{
		InvestorID:         v.InvestorID,
		Entries:            entries,
		PendingDeposits:    money(v.PendingDeposits),
		PendingWithdrawals: money(v.PendingWithdrawal),
	}
}

type contractResponse struct {
	ID              int64     `json:"id"`
	InvestorID      int64     `json:"investor_id"`
	Principal       string    `json:"principal"`
	MonthlyRate     string    `json:"monthly_rate"`
	MonthlyProfit   string    `json:"monthly_profit"`
	TermMonths      int       `json:"term_months"`
	MonthsPaid      int       `json:"months_paid"`
	ProfitPaidTotal string    `json:"profit_paid_total"`
	Progress        float64   `json:"progress"`
	State           string    `json:"state"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
}

func newContractResponse(c *entities.Contract) contractResponse {
	return contractResponse{
		ID:              c.ID,
		InvestorID:      c.InvestorID,
		Principal:       money(c.Principal),
		MonthlyRate:     c.MonthlyRate.String(),
		MonthlyProfit:   money(c.MonthlyProfit()),
		TermMonths:      c.TermMonths,
		MonthsPaid:      c.MonthsPaid,
		ProfitPaidTotal: money(c.ProfitPaidTotal),
		Progress:        c.Progress(),
		State:           string(c.State),
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
	}
}

func newContractList(contracts []*entities.Contract) []contractResponse {
	out := make([]contractResponse, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, newContractResponse(c))
	}
	return out
}

type requestResponse struct {
	ID              int64      `json:"id"`
	InvestorID      int64      `json:"investor_id"`
	Kind            string     `json:"kind"`
	Amount          string     `json:"amount"`
	LedgerEntryID   *int64     `json:"ledger_entry_id,omitempty"`
	ContractID      *int64     `json:"contract_id,omitempty"`
	State           string     `json:"state"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	DecidedBy       *int64     `json:"decided_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func newRequestResponse(r *entities.ApprovalRequest) requestResponse {
	return requestResponse{
		ID:              r.ID,
		InvestorID:      r.InvestorID,
		Kind:            string(r.Kind),
		Amount:          money(r.Amount),
		LedgerEntryID:   r.LedgerEntryID,
		ContractID:      r.ContractID,
		State:           string(r.State),
		DecidedAt:       r.DecidedAt,
		DecidedBy:       r.DecidedBy,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
	}
}

func newRequestList(requests []*entities.ApprovalRequest) []requestResponse {
	out := make([]requestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, newRequestResponse(r))
	}
	return out
}

type bulkResultResponse struct {
	RequestID int64            `json:"request_id"`
	Request   *requestResponse `json:"request,omitempty"`
	Error     *errorDetail     `json:"error,omitempty"`
}

func newBulkResults(results []interfaces.BulkDecisionResult) []bulkResultResponse {
	out := make([]bulkResultResponse, 0, len(results))
	for _, res := range results {
		item := bulkResultResponse{RequestID: res.RequestID}
		if res.Err != nil {
			_, code := classify(res.Err)
			item.Error = &errorDetail{Code: code, Message: res.Err.Error()}
		} else if res.Request != nil {
			resp := newRequestResponse(res.Request)
			item.Request = &resp
		}
		out = append(out, item)
	}
	return out
}
