package testhelpers

import (
	"context"
	"time"

	"investa/domain/entities"
	"investa/domain/interfaces"
	"investa/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockInvestorRepository is a mock implementation of InvestorRepository
type MockInvestorRepository struct {
	mock.Mock
}

func (m *MockInvestorRepository) GetByID(ctx context.Context, id int64) (*entities.Investor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Investor), args.Error(1)
}

func (m *MockInvestorRepository) LockForUpdate(ctx context.Context, id int64) (*entities.Investor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Investor), args.Error(1)
}

func (m *MockInvestorRepository) Create(ctx context.Context, investor *entities.Investor) error {
	args := m.Called(ctx, investor)
	return args.Error(0)
}

func (m *MockInvestorRepository) Update(ctx context.Context, investor *entities.Investor) error {
	args := m.Called(ctx, investor)
	return args.Error(0)
}

func (m *MockInvestorRepository) List(ctx context.Context) ([]*entities.Investor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Investor), args.Error(1)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Create(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) GetByID(ctx context.Context, id int64) (*entities.LedgerEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) GetByInvestor(ctx context.Context, investorID int64) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, investorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) MarkDecided(ctx context.Context, id int64, status entities.EntryStatus, decidedAt time.Time) error {
	args := m.Called(ctx, id, status, decidedAt)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) UpdatePendingAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// MockContractRepository is a mock implementation of ContractRepository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) Create(ctx context.Context, contract *entities.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

func (m *MockContractRepository) GetByID(ctx context.Context, id int64) (*entities.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Contract), args.Error(1)
}

func (m *MockContractRepository) LockForUpdate(ctx context.Context, id int64) (*entities.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Contract), args.Error(1)
}

func (m *MockContractRepository) Update(ctx context.Context, contract *entities.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

func (m *MockContractRepository) List(ctx context.Context, filter entities.ContractFilter) ([]*entities.Contract, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Contract), args.Error(1)
}

func (m *MockContractRepository) ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]*entities.Contract, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Contract), args.Error(1)
}

// MockApprovalRequestRepository is a mock implementation of ApprovalRequestRepository
type MockApprovalRequestRepository struct {
	mock.Mock
}

func (m *MockApprovalRequestRepository) Create(ctx context.Context, request *entities.ApprovalRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockApprovalRequestRepository) GetByID(ctx context.Context, id int64) (*entities.ApprovalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRequestRepository) Update(ctx context.Context, request *entities.ApprovalRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockApprovalRequestRepository) List(ctx context.Context, filter entities.RequestFilter) ([]*entities.ApprovalRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRequestRepository) GetPendingRefundByContract(ctx context.Context, contractID int64) (*entities.ApprovalRequest, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ApprovalRequest), args.Error(1)
}

// MockAccrualRepository is a mock implementation of AccrualRepository
type MockAccrualRepository struct {
	mock.Mock
}

func (m *MockAccrualRepository) Exists(ctx context.Context, contractID int64, period int) (bool, error) {
	args := m.Called(ctx, contractID, period)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccrualRepository) Record(ctx context.Context, record *entities.AccrualRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockUnitOfWork hands out the mock repositories and records transaction calls
type MockUnitOfWork struct {
	mock.Mock
	Investors *MockInvestorRepository
	Ledger    *MockLedgerEntryRepository
	Contracts *MockContractRepository
	Requests  *MockApprovalRequestRepository
	Accruals  *MockAccrualRepository
	Events    *MockEventPublisher
}

// NewMockUnitOfWork creates a unit of work with fresh repository mocks.
// Begin, Commit and Rollback succeed unless the test overrides them.
func NewMockUnitOfWork() *MockUnitOfWork {
	uow := &MockUnitOfWork{
		Investors: &MockInvestorRepository{},
		Ledger:    &MockLedgerEntryRepository{},
		Contracts: &MockContractRepository{},
		Requests:  &MockApprovalRequestRepository{},
		Accruals:  &MockAccrualRepository{},
		Events:    &MockEventPublisher{},
	}
	uow.On("Begin", mock.Anything).Return(nil).Maybe()
	uow.On("Commit").Return(nil).Maybe()
	uow.On("Rollback").Return(nil).Maybe()
	return uow
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) InvestorRepository() interfaces.InvestorRepository {
	return m.Investors
}

func (m *MockUnitOfWork) LedgerEntryRepository() interfaces.LedgerEntryRepository {
	return m.Ledger
}

func (m *MockUnitOfWork) ContractRepository() interfaces.ContractRepository {
	return m.Contracts
}

func (m *MockUnitOfWork) ApprovalRequestRepository() interfaces.ApprovalRequestRepository {
	return m.Requests
}

func (m *MockUnitOfWork) AccrualRepository() interfaces.AccrualRepository {
	return m.Accruals
}

func (m *MockUnitOfWork) EventBus() interfaces.EventPublisher {
	return m.Events
}

// AssertAllExpectations verifies every repository mock
func (m *MockUnitOfWork) AssertAllExpectations(t mock.TestingT) {
	m.AssertExpectations(t)
	m.Investors.AssertExpectations(t)
	m.Ledger.AssertExpectations(t)
	m.Contracts.AssertExpectations(t)
	m.Requests.AssertExpectations(t)
	m.Accruals.AssertExpectations(t)
	m.Events.AssertExpectations(t)
}

// MockUnitOfWorkFactory always returns the same unit of work
type MockUnitOfWorkFactory struct {
	UoW *MockUnitOfWork
}

func (f *MockUnitOfWorkFactory) Create() interfaces.UnitOfWork {
	return f.UoW
}
