package services

import (
	"errors"
	"testing"
	"time"

	"investa/domain"
	"investa/domain/entities"
	"investa/domain/interfaces"
	"investa/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractService_CreateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(r *interfaces.CreateContractRequest)
		wantErr error
	}{
		{"terms not accepted", func(r *interfaces.CreateContractRequest) { r.TermsAccepted = false }, domain.ErrTermsNotAccepted},
		{"zero principal", func(r *interfaces.CreateContractRequest) { r.Principal = dec("0") }, domain.ErrValidation},
		{"negative rate", func(r *interfaces.CreateContractRequest) { r.MonthlyRate = dec("-0.01") }, domain.ErrValidation},
		{"rate of one", func(r *interfaces.CreateContractRequest) { r.MonthlyRate = dec("1") }, domain.ErrValidation},
		{"negative term", func(r *interfaces.CreateContractRequest) { r.TermMonths = -1 }, domain.ErrValidation},
		{"term above maximum", func(r *interfaces.CreateContractRequest) { r.TermMonths = entities.MaxTermMonths + 1 }, domain.ErrValidation},
		{"rate that flattens the refund curve", func(r *interfaces.CreateContractRequest) { r.MonthlyRate = dec("0.3") }, domain.ErrValidation},
		{"rate at the refund bound", func(r *interfaces.CreateContractRequest) { r.MonthlyRate = dec("0.2") }, domain.ErrValidation},
		{"principal rounding to zero", func(r *interfaces.CreateContractRequest) { r.Principal = dec("0.004") }, domain.ErrValidation},
		{"principal earning no cent", func(r *interfaces.CreateContractRequest) { r.Principal = dec("0.05") }, domain.ErrValidation},
		{"principal above deployable", func(r *interfaces.CreateContractRequest) { r.Principal = dec("1000.01") }, domain.ErrInsufficientDeployableFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newServiceFixture(t)
			inv := f.investor()
			f.fund(inv.ID, "1000")

			req := interfaces.CreateContractRequest{
				InvestorID:    inv.ID,
				Principal:     dec("500"),
				MonthlyRate:   dec("0.05"),
				TermMonths:    12,
				TermsAccepted: true,
			}
			tt.mutate(&req)

			_, err := f.Contracts.Create(f.Ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)

			contracts, err := f.Contracts.ListContracts(f.Ctx, entities.ContractFilter{InvestorID: &inv.ID})
			require.NoError(t, err)
			assert.Empty(t, contracts)
			assert.Equal(t, "1000.00", f.snapshot(inv.ID).Deployable().StringFixed(2))
		})
	}
}

func TestContractService_CreateDebitsDeployable(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	inv := f.investor()
	f.fund(inv.ID, "1500")

	c := f.contract(inv.ID, "1000", "0.05", 12)
	assert.Equal(t, entities.ContractStateActive, c.State)
	assert.True(t, c.EndDate.Equal(c.StartDate.AddDate(0, 12, 0)))

	snap := f.snapshot(inv.ID)
	assert.Equal(t, "1000.00", snap.InvestedTotal.StringFixed(2))
	assert.Equal(t, "500.00", snap.Deployable().StringFixed(2))

	entries := f.Store.Entries(inv.ID)
	last := entries[len(entries)-1]
	assert.Equal(t, entities.EntryKindInvestment, last.Kind)
	assert.Equal(t, entities.EntryStatusApproved, last.Status)
	require.NotNil(t, last.ContractID)
	assert.Equal(t, c.ID, *last.ContractID)

	investor, err := f.Investors.GetInvestor(f.Ctx, inv.ID)
	require.NoError(t, err)
	assert.NotNil(t, investor.TermsAcceptedAt)

	changes := f.Store.PublishedOfType(events.EventTypeContractStateChange)
	require.Len(t, changes, 1)
	assert.Equal(t, "active", changes[0].(events.ContractStateChangeEvent).NewState)
}

func TestContractService_CreateUsesOfferedTerms(t *testing.T) {
	t.Parallel()
	settings := entities.DefaultPlatformSettings()
	settings.ContractMonthlyRate = dec("0.04")
	settings.ContractTermMonths = 18
	f := newServiceFixtureWith(t, settings, entities.DefaultRefundPolicy())
	inv := f.investor()
	f.fund(inv.ID, "1000")

	c, err := f.Contracts.Create(f.Ctx, interfaces.CreateContractRequest{
		InvestorID: inv.ID, Principal: dec("1000"), TermsAccepted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "0.04", c.MonthlyRate.String())
	assert.Equal(t, 18, c.TermMonths)
}

func TestContractService_HighRateKeepsRefundsDecreasing(t *testing.T) {
	t.Parallel()

	// A fixed penalty decouples the refund curve from a steep contract rate.
	policy := entities.RefundPolicy{MaxMonthsPaid: 6, PenaltyRatePerMonth: dec("0.1")}
	f := newServiceFixtureWith(t, entities.DefaultPlatformSettings(), policy)
	inv := f.investor()
	f.fund(inv.ID, "6000")

	var previous *entities.ApprovalRequest
	for months := 0; months < entities.DefaultRefundMaxMonths; months++ {
		c := f.contract(inv.ID, "1000", "0.3", 12)
		f.accrueThrough(c.ID, months)

		req, err := f.Contracts.RequestEarlyRefund(f.Ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, req.Amount.IsPositive(), "months_paid=%d", months)
		if previous != nil {
			assert.True(t, req.Amount.LessThan(previous.Amount), "months_paid=%d amount=%s previous=%s", months, req.Amount, previous.Amount)
		}
		previous = req
	}
}

func TestContractService_Reinvest(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	// 10000 x 0.05 x 2 = 1000 profit
	inv, _ := f.investorWithProfit("10000", "0.05", 2)

	c, err := f.Contracts.Reinvest(f.Ctx, interfaces.CreateContractRequest{
		InvestorID: inv.ID, Principal: dec("600"), TermsAccepted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ContractStateActive, c.State)
	assert.Equal(t, "600.00", c.Principal.StringFixed(2))
	assert.Equal(t, "0.05", c.MonthlyRate.String())
	assert.Equal(t, 12, c.TermMonths)

	snap := f.snapshot(inv.ID)
	assert.Equal(t, "400.00", snap.ProfitAvailable.StringFixed(2))
	assert.Equal(t, "600.00", snap.ReinvestedTotal.StringFixed(2))
	assert.Equal(t, "10000.00", snap.InvestedTotal.StringFixed(2))
	assert.True(t, snap.Deployable().IsZero())

	entries := f.Store.Entries(inv.ID)
	last := entries[len(entries)-1]
	assert.Equal(t, entities.EntryKindReinvestment, last.Kind)
	assert.Equal(t, entities.EntryStatusApproved, last.Status)
	assert.True(t, last.Amount.Equal(dec("-600")))
	require.NotNil(t, last.ContractID)
	assert.Equal(t, c.ID, *last.ContractID)

	// the reinvested contract earns like any other
	entry, err := f.Contracts.AccrueMonthlyProfit(f.Ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "30.00", entry.Amount.StringFixed(2))
	assert.Equal(t, "430.00", f.snapshot(inv.ID).ProfitAvailable.StringFixed(2))
}

func TestContractService_ReinvestValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     func(investorID int64) interfaces.CreateContractRequest
		wantErr error
	}{
		{
			name: "terms not accepted",
			req: func(id int64) interfaces.CreateContractRequest {
				return interfaces.CreateContractRequest{InvestorID: id, Principal: dec("500")}
			},
			wantErr: domain.ErrTermsNotAccepted,
		},
		{
			name: "below minimum",
			req: func(id int64) interfaces.CreateContractRequest {
				return interfaces.CreateContractRequest{InvestorID: id, Principal: dec("499.99"), TermsAccepted: true}
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "above profit available",
			req: func(id int64) interfaces.CreateContractRequest {
				return interfaces.CreateContractRequest{InvestorID: id, Principal: dec("1000.01"), TermsAccepted: true}
			},
			wantErr: domain.ErrInsufficientProfitBalance,
		},
		{
			name: "unknown investor",
			req: func(int64) interfaces.CreateContractRequest {
				return interfaces.CreateContractRequest{InvestorID: 31337, Principal: dec("500"), TermsAccepted: true}
			},
			wantErr: domain.ErrUnknownInvestor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newServiceFixture(t)
			inv, _ := f.investorWithProfit("10000", "0.05", 2)
			before := len(f.Store.Entries(inv.ID))

			_, err := f.Contracts.Reinvest(f.Ctx, tt.req(inv.ID))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, f.Store.Entries(inv.ID), before)
			assert.Equal(t, "1000.00", f.snapshot(inv.ID).ProfitAvailable.StringFixed(2))
		})
	}
}

func TestContractService_ReinvestNeverOverdrawsProfit(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	inv, _ := f.investorWithProfit("10000", "0.05", 2)

	_, err := f.Wallet.RequestWithdrawal(f.Ctx, inv.ID, dec("400"))
	require.NoError(t, err)
	_, err = f.Contracts.Reinvest(f.Ctx, interfaces.CreateContractRequest{InvestorID: inv.ID, Principal: dec("600"), TermsAccepted: true})
	require.NoError(t, err)

	// both fit on their own; a second reinvestment must not push the balance below zero
	_, err = f.Contracts.Reinvest(f.Ctx, interfaces.CreateContractRequest{InvestorID: inv.ID, Principal: dec("500"), TermsAccepted: true})
	assert.ErrorIs(t, err, domain.ErrInsufficientProfitBalance)
	assert.False(t, f.snapshot(inv.ID).ProfitAvailable.IsNegative())
}

func TestContractService_CreateRejectsInactiveInvestor(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	inv := f.investor()
	f.fund(inv.ID, "1000")
	_, err := f.Investors.SetActive(f.Ctx, inv.ID, false)
	require.NoError(t, err)

	_, err = f.Contracts.Create(f.Ctx, interfaces.CreateContractRequest{
		InvestorID: inv.ID, Principal: dec("100"), MonthlyRate: dec("0.05"), TermMonths: 6, TermsAccepted: true,
	})
	assert.ErrorIs(t, err, domain.ErrInvestorInactive)
}

func TestContractService_AccrueMonthlyProfit(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	inv := f.investor()
	f.fund(inv.ID, "1234.56")
	c := f.contract(inv.ID, "1234.56", "0.035", 12)

	entry, err := f.Contracts.AccrueMonthlyProfit(f.Ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, entities.EntryKindProfit, entry.Kind)
	assert.Equal(t, "43.21", entry.Amount.StringFixed(2))
	require.NotNil(t, entry.AccrualPeriod)
	assert.Equal(t, 1, *entry.AccrualPeriod)

	stored := f.Store.Contract(c.ID)
	assert.Equal(t, 1, stored.MonthsPaid)
	assert.Equal(t, "43.21", stored.ProfitPaidTotal.StringFixed(2))
	assert.Equal(t, "43.21", f.snapshot(inv.ID).ProfitAvailable.StringFixed(2))
	assert.Len(t, f.Store.PublishedOfType(events.EventTypeProfitAccrued), 1)
}

func TestContractService_AccrualIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	inv := f.investor()
	f.fund(inv.ID, "1000")
	c := f.contract(inv.ID, "1000", "0.05", 12)

	_, err := f.Contracts.AccrueMonthlyProfit(f.Ctx, c.ID, 1)
	require.NoError(t, err)
	before := f.Store.Entries(inv.ID)

	_, err = f.Contracts.AccrueMonthlyProfit(f.Ctx, c.ID, 1)
	assert.ErrorIs(t, err, domain.ErrDuplicateAccrual)

	assert.Equal(t, before, f.Store.Entries(inv.ID))
	assert.Equal(t, 1, f.Store.Contract(c.ID).MonthsPaid)
	assert.Equal(t, "50.00", f.snapshot(inv.ID).ProfitAvailable.StringFixed(2))
}

func TestContractService_AccrualPeriodChecks(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	inv := f.investor()
	f.fund(inv.ID, "2000")

	c := f.contract(inv.ID, "1000", "0.05", 2)
	_, err := f.Contracts.AccrueMonthlyProfit(f.Ctx, c.ID, 2)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.Contracts.AccrueMonthlyProfit(f.Ctx, c.ID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	cancelled := f.contract(inv.ID, "1000", "0.05", 12)
	_, err = f.Contracts.AdminUpdateStatus(f.Ctx, cancelled.ID, entities.ContractStateCancelled, entities.ContractPatch{}, testAdminID)
	require.NoError(t, err)
	_, err = f.Contracts.AccrueMonthlyProfit(f.Ctx, cancelled.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.Contracts.AccrueMonthlyProfit(f.Ctx, 424242, 1)
	assert.ErrorIs(t, err, domain.ErrUnknownContract)
}

func TestContractService_MaturityPaysOutPrincipal(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	inv := f.investor()
	f.fund(inv.ID, "1000")
	c := f.contract(inv.ID, "1000", "0.05", 3)

	f.accrueThrough(c.ID, 3)

	stored := f.Store.Contract(c.ID)
	assert.Equal(t, entities.ContractStateCompleted, stored.State)
	assert.Equal(t, 3, stored.MonthsPaid)
	assert.Equal(t, 1.0, stored.Progress())

	snap := f.snapshot(inv.ID)
	assert.Equal(t, "150.00", snap.ProfitAvailable.StringFixed(2))
	assert.Equal(t, "1000.00", snap.PrincipalReturned.StringFixed(2))
	assert.Equal(t, "0.00", snap.Deployable().StringFixed(2))

	_, err := f.Contracts.AccrueMonthlyProfit(f.Ctx, c.ID, 4)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	changes := f.Store.PublishedOfType(events.EventTypeContractStateChange)
	require.Len(t, changes, 2)
	assert.Equal(t, "completed", changes[1].(events.ContractStateChangeEvent).NewState)
}

func TestContractService_AccrueDueCatchesUp(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	inv := f.investor()
	f.fund(inv.ID, "1000")
	c := f.contract(inv.ID, "1000", "0.02", 12)

	n, err := f.Contracts.AccrueDue(f.Ctx, c.ID, c.StartDate.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = f.Contracts.AccrueDue(f.Ctx, c.ID, c.StartDate.AddDate(0, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, f.Store.Contract(c.ID).MonthsPaid)

	n, err = f.Contracts.AccrueDue(f.Ctx, c.ID, c.StartDate.AddDate(0, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = f.Contracts.AccrueDue(f.Ctx, c.ID, c.StartDate.AddDate(2, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, entities.ContractStateCompleted, f.Store.Contract(c.ID).State)
}

func TestContractService_RequestEarlyRefundRequiresActive(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	inv := f.investor()
	f.fund(inv.ID, "1000")
	c := f.contract(inv.ID, "1000", "0.05", 12)

	_, err := f.Contracts.RequestEarlyRefund(f.Ctx, c.ID)
	require.NoError(t, err)

	_, err = f.Contracts.RequestEarlyRefund(f.Ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	var transition *domain.TransitionError
	require.True(t, errors.As(err, &transition))
	assert.Equal(t, "pending_refund", transition.From)
}

func TestContractService_RefundDecisions(t *testing.T) {
	t.Parallel()

	t.Run("approve completes and pays out", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		inv := f.investor()
		f.fund(inv.ID, "2000")
		c := f.contract(inv.ID, "2000", "0.04", 12)
		f.accrueThrough(c.ID, 3)

		req, err := f.Contracts.RequestEarlyRefund(f.Ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "1760.00", req.Amount.StringFixed(2))

		decided, err := f.Approvals.Decide(f.Ctx, req.ID, entities.OutcomeApprove, testAdminID, "")
		require.NoError(t, err)
		assert.Equal(t, entities.RequestStateApproved, decided.State)
		require.NotNil(t, decided.DecidedBy)
		assert.Equal(t, testAdminID, *decided.DecidedBy)

		assert.Equal(t, entities.ContractStateCompleted, f.Store.Contract(c.ID).State)
		snap := f.snapshot(inv.ID)
		assert.Equal(t, "1760.00", snap.PrincipalReturned.StringFixed(2))
		assert.Equal(t, "240.00", snap.ProfitAvailable.StringFixed(2))
	})

	t.Run("reject returns to active", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		inv := f.investor()
		f.fund(inv.ID, "2000")
		c := f.contract(inv.ID, "2000", "0.04", 12)

		req, err := f.Contracts.RequestEarlyRefund(f.Ctx, c.ID)
		require.NoError(t, err)

		decided, err := f.Approvals.Decide(f.Ctx, req.ID, entities.OutcomeReject, testAdminID, "lock-in period")
		require.NoError(t, err)
		assert.Equal(t, entities.RequestStateRejected, decided.State)
		assert.Equal(t, "lock-in period", decided.RejectionReason)

		assert.Equal(t, entities.ContractStateActive, f.Store.Contract(c.ID).State)
		assert.True(t, f.snapshot(inv.ID).PrincipalReturned.IsZero())

		_, err = f.Contracts.AccrueMonthlyProfit(f.Ctx, c.ID, 1)
		assert.NoError(t, err)
	})
}

func TestContractService_AdminUpdateStatus(t *testing.T) {
	t.Parallel()

	t.Run("patch only keeps the state", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		inv := f.investor()
		f.fund(inv.ID, "1000")
		c := f.contract(inv.ID, "1000", "0.05", 12)

		months := 4
		profit := dec("200")
		updated, err := f.Contracts.AdminUpdateStatus(f.Ctx, c.ID, "", entities.ContractPatch{MonthsPaid: &months, ProfitPaidTotal: &profit}, testAdminID)
		require.NoError(t, err)
		assert.Equal(t, entities.ContractStateActive, updated.State)
		assert.Equal(t, 4, updated.MonthsPaid)
		assert.Equal(t, "200.00", updated.ProfitPaidTotal.StringFixed(2))
		assert.Empty(t, f.Store.PublishedOfType(events.EventTypeContractStateChange)[1:])
	})

	t.Run("empty update is rejected", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		inv := f.investor()
		f.fund(inv.ID, "1000")
		c := f.contract(inv.ID, "1000", "0.05", 12)

		_, err := f.Contracts.AdminUpdateStatus(f.Ctx, c.ID, "", entities.ContractPatch{}, testAdminID)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("terminal state cannot move", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		inv := f.investor()
		f.fund(inv.ID, "1000")
		c := f.contract(inv.ID, "1000", "0.05", 12)

		_, err := f.Contracts.AdminUpdateStatus(f.Ctx, c.ID, entities.ContractStateCancelled, entities.ContractPatch{}, testAdminID)
		require.NoError(t, err)
		_, err = f.Contracts.AdminUpdateStatus(f.Ctx, c.ID, entities.ContractStateActive, entities.ContractPatch{}, testAdminID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("negative profit total changes nothing", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		inv := f.investor()
		f.fund(inv.ID, "1000")
		c := f.contract(inv.ID, "1000", "0.05", 12)

		months := 2
		profit := dec("-1")
		_, err := f.Contracts.AdminUpdateStatus(f.Ctx, c.ID, "", entities.ContractPatch{MonthsPaid: &months, ProfitPaidTotal: &profit}, testAdminID)
		assert.ErrorIs(t, err, domain.ErrInvalidFieldValue)
		assert.Equal(t, 0, f.Store.Contract(c.ID).MonthsPaid)
	})

	t.Run("months paid cannot drop below a credited period", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		inv := f.investor()
		f.fund(inv.ID, "1000")
		c := f.contract(inv.ID, "1000", "0.05", 12)
		f.accrueThrough(c.ID, 3)

		months := 1
		_, err := f.Contracts.AdminUpdateStatus(f.Ctx, c.ID, "", entities.ContractPatch{MonthsPaid: &months}, testAdminID)
		assert.ErrorIs(t, err, domain.ErrInvalidFieldValue)
		assert.Equal(t, 3, f.Store.Contract(c.ID).MonthsPaid)

		// accrual keeps going from where it was
		_, err = f.Contracts.AccrueMonthlyProfit(f.Ctx, c.ID, 4)
		assert.NoError(t, err)
	})

	t.Run("months paid may drop over uncredited periods", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		inv := f.investor()
		f.fund(inv.ID, "1000")
		c := f.contract(inv.ID, "1000", "0.05", 12)
		f.accrueThrough(c.ID, 1)

		raised, lowered := 5, 1
		_, err := f.Contracts.AdminUpdateStatus(f.Ctx, c.ID, "", entities.ContractPatch{MonthsPaid: &raised}, testAdminID)
		require.NoError(t, err)
		updated, err := f.Contracts.AdminUpdateStatus(f.Ctx, c.ID, "", entities.ContractPatch{MonthsPaid: &lowered}, testAdminID)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.MonthsPaid)

		_, err = f.Contracts.AccrueMonthlyProfit(f.Ctx, c.ID, 2)
		assert.NoError(t, err)
	})

	t.Run("completion without a refund pays no principal", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		inv := f.investor()
		f.fund(inv.ID, "1000")
		c := f.contract(inv.ID, "1000", "0.05", 12)

		updated, err := f.Contracts.AdminUpdateStatus(f.Ctx, c.ID, entities.ContractStateCompleted, entities.ContractPatch{}, testAdminID)
		require.NoError(t, err)
		assert.Equal(t, entities.ContractStateCompleted, updated.State)
		assert.True(t, f.snapshot(inv.ID).PrincipalReturned.IsZero())
	})

	t.Run("leaving pending refund settles the request", func(t *testing.T) {
		t.Parallel()
		f := newServiceFixture(t)
		inv := f.investor()
		f.fund(inv.ID, "1000")
		c := f.contract(inv.ID, "1000", "0.05", 12)
		req, err := f.Contracts.RequestEarlyRefund(f.Ctx, c.ID)
		require.NoError(t, err)

		_, err = f.Contracts.AdminUpdateStatus(f.Ctx, c.ID, entities.ContractStateCompleted, entities.ContractPatch{}, testAdminID)
		require.NoError(t, err)

		settled, err := f.Approvals.GetRequest(f.Ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.RequestStateApproved, settled.State)
		assert.Equal(t, "1000.00", f.snapshot(inv.ID).PrincipalReturned.StringFixed(2))

		_, err = f.Approvals.Decide(f.Ctx, req.ID, entities.OutcomeApprove, testAdminID, "")
		assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
	})
}

func TestContractService_ContractsEndingWithin(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	inv := f.investor()
	f.fund(inv.ID, "3000")

	short := f.contract(inv.ID, "1000", "0.05", 1)
	f.contract(inv.ID, "1000", "0.05", 12)

	now := short.EndDate.Add(-72 * time.Hour)
	ending, err := f.Contracts.ContractsEndingWithin(f.Ctx, now, 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, ending, 1)
	assert.Equal(t, short.ID, ending[0].ID)
}
