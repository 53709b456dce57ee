package services

import (
	"context"
	"testing"

	"investa/domain/entities"
	"investa/domain/interfaces"
	"investa/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testAdminID = int64(9000)

// serviceFixture wires every service over one in-memory store
type serviceFixture struct {
	T         *testing.T
	Ctx       context.Context
	Store     *testhelpers.MemoryStore
	Locker    *KeyedLocker
	Ledger    *LedgerStore
	Investors interfaces.InvestorService
	Wallet    interfaces.WalletService
	Contracts interfaces.ContractService
	Approvals interfaces.ApprovalService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	return newServiceFixtureWith(t, entities.DefaultPlatformSettings(), entities.DefaultRefundPolicy())
}

func newServiceFixtureWith(t *testing.T, settings entities.PlatformSettings, policy entities.RefundPolicy) *serviceFixture {
	store := testhelpers.NewMemoryStore()
	locker := NewKeyedLocker()
	ledger := NewLedgerStore()

	wallet := NewWalletService(store, locker, ledger, settings)
	contracts := NewContractService(store, locker, ledger, settings, policy)

	return &serviceFixture{
		T:         t,
		Ctx:       context.Background(),
		Store:     store,
		Locker:    locker,
		Ledger:    ledger,
		Investors: NewInvestorService(store, locker),
		Wallet:    wallet,
		Contracts: contracts,
		Approvals: NewApprovalService(store, locker, ledger, wallet, contracts, settings),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// investor adds an active investor with a complete profile
func (f *serviceFixture) investor() *entities.Investor {
	return f.Store.AddInvestor(entities.Investor{
		Name:            "Test Investor",
		Email:           "investor@example.com",
		Role:            entities.RoleInvestor,
		Active:          true,
		ProfileComplete: true,
	})
}

// fund books an approved deposit
func (f *serviceFixture) fund(investorID int64, amount string) {
	_, err := f.Wallet.AdminCredit(f.Ctx, investorID, dec(amount), "seed", testAdminID)
	require.NoError(f.T, err)
}

func (f *serviceFixture) contract(investorID int64, principal, rate string, term int) *entities.Contract {
	c, err := f.Contracts.Create(f.Ctx, interfaces.CreateContractRequest{
		InvestorID:    investorID,
		Principal:     dec(principal),
		MonthlyRate:   dec(rate),
		TermMonths:    term,
		TermsAccepted: true,
	})
	require.NoError(f.T, err)
	return c
}

// accrueThrough credits every period up to and including last
func (f *serviceFixture) accrueThrough(contractID int64, last int) {
	c, err := f.Contracts.GetContract(f.Ctx, contractID)
	require.NoError(f.T, err)
	for p := c.NextPeriod(); p <= last; p++ {
		_, err := f.Contracts.AccrueMonthlyProfit(f.Ctx, contractID, p)
		require.NoError(f.T, err)
	}
}

// investorWithProfit funds an investor and accrues profit until exactly profit is available.
// principal x rate x months must equal profit.
func (f *serviceFixture) investorWithProfit(principal, rate string, months int) (*entities.Investor, *entities.Contract) {
	inv := f.investor()
	f.fund(inv.ID, principal)
	c := f.contract(inv.ID, principal, rate, 12)
	f.accrueThrough(c.ID, months)
	return inv, c
}

func (f *serviceFixture) snapshot(investorID int64) *entities.WalletSnapshot {
	snap, err := f.Wallet.Snapshot(f.Ctx, investorID)
	require.NoError(f.T, err)
	return snap
}
