package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"investa/domain"
	"investa/domain/entities"
	"investa/domain/interfaces"
	"investa/events"

	"github.com/shopspring/decimal"
)

var errNotFound = errors.New("row not found")

type accrualKey struct {
	contractID int64
	period     int
}

type memoryState struct {
	investors map[int64]entities.Investor
	entries   map[int64]entities.LedgerEntry
	contracts map[int64]entities.Contract
	requests  map[int64]entities.ApprovalRequest
	accruals  map[accrualKey]entities.AccrualRecord
	nextID    int64
}

func newMemoryState() *memoryState {
	return &memoryState{
		investors: make(map[int64]entities.Investor),
		entries:   make(map[int64]entities.LedgerEntry),
		contracts: make(map[int64]entities.Contract),
		requests:  make(map[int64]entities.ApprovalRequest),
		accruals:  make(map[accrualKey]entities.AccrualRecord),
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range s.investors {
		c.investors[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.contracts {
		c.contracts[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.accruals {
		c.accruals[k] = v
	}
	c.nextID = s.nextID
	return c
}

func (s *memoryState) id() int64 {
	s.nextID++
	return s.nextID
}

// MemoryStore is an in-memory UnitOfWorkFactory. Units of work run one at a time against a
// private copy of the data, which is swapped in on commit and dropped on rollback.
type MemoryStore struct {
	txMu  sync.Mutex
	mu    sync.Mutex
	state *memoryState

	published  []events.Event
	PublishErr error
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

// Create returns a new unit of work bound to the store
func (m *MemoryStore) Create() interfaces.UnitOfWork {
	return &memoryUnitOfWork{store: m}
}

// AddInvestor inserts an investor directly and returns it with its ID
func (m *MemoryStore) AddInvestor(investor entities.Investor) *entities.Investor {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	investor.ID = m.state.id()
	if investor.Role == "" {
		investor.Role = entities.RoleInvestor
	}
	now := time.Now().UTC()
	investor.CreatedAt = now
	investor.UpdatedAt = now
	m.state.investors[investor.ID] = investor
	return &investor
}

// Entries returns a copy of every stored ledger entry of an investor, oldest first
func (m *MemoryStore) Entries(investorID int64) []*entities.LedgerEntry {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	var out []*entities.LedgerEntry
	for _, e := range m.state.entries {
		if e.InvestorID == investorID {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Contract returns a copy of a stored contract, or nil
func (m *MemoryStore) Contract(id int64) *entities.Contract {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	c, ok := m.state.contracts[id]
	if !ok {
		return nil
	}
	return &c
}

// Published returns the events released by committed units of work
func (m *MemoryStore) Published() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, len(m.published))
	copy(out, m.published)
	return out
}

// PublishedOfType filters Published by event type
func (m *MemoryStore) PublishedOfType(t events.EventType) []events.Event {
	var out []events.Event
	for _, e := range m.Published() {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

type memoryUnitOfWork struct {
	store   *MemoryStore
	state   *memoryState
	pending []events.Event
	active  bool
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return fmt.Errorf("transaction already started")
	}
	u.store.txMu.Lock()
	u.state = u.store.state.clone()
	u.pending = nil
	u.active = true
	return nil
}

func (u *memoryUnitOfWork) Commit() error {
	if !u.active {
		return fmt.Errorf("no transaction to commit")
	}
	u.store.state = u.state
	u.active = false
	u.store.txMu.Unlock()

	u.store.mu.Lock()
	u.store.published = append(u.store.published, u.pending...)
	u.store.mu.Unlock()
	u.pending = nil
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	if !u.active {
		return nil
	}
	u.state = nil
	u.pending = nil
	u.active = false
	u.store.txMu.Unlock()
	return nil
}

func (u *memoryUnitOfWork) mustBeActive() {
	if !u.active {
		panic("unit of work not started - call Begin() first")
	}
}

func (u *memoryUnitOfWork) InvestorRepository() interfaces.InvestorRepository {
	u.mustBeActive()
	return &memoryInvestors{u}
}

func (u *memoryUnitOfWork) LedgerEntryRepository() interfaces.LedgerEntryRepository {
	u.mustBeActive()
	return &memoryLedger{u}
}

func (u *memoryUnitOfWork) ContractRepository() interfaces.ContractRepository {
	u.mustBeActive()
	return &memoryContracts{u}
}

func (u *memoryUnitOfWork) ApprovalRequestRepository() interfaces.ApprovalRequestRepository {
	u.mustBeActive()
	return &memoryRequests{u}
}

func (u *memoryUnitOfWork) AccrualRepository() interfaces.AccrualRepository {
	u.mustBeActive()
	return &memoryAccruals{u}
}

func (u *memoryUnitOfWork) EventBus() interfaces.EventPublisher {
	u.mustBeActive()
	return u
}

// Publish buffers the event until commit
func (u *memoryUnitOfWork) Publish(event events.Event) error {
	if u.store.PublishErr != nil {
		return u.store.PublishErr
	}
	u.pending = append(u.pending, event)
	return nil
}

type memoryInvestors struct{ u *memoryUnitOfWork }

func (r *memoryInvestors) GetByID(ctx context.Context, id int64) (*entities.Investor, error) {
	inv, ok := r.u.state.investors[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (r *memoryInvestors) LockForUpdate(ctx context.Context, id int64) (*entities.Investor, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryInvestors) Create(ctx context.Context, investor *entities.Investor) error {
	now := time.Now().UTC()
	investor.ID = r.u.state.id()
	investor.CreatedAt = now
	investor.UpdatedAt = now
	r.u.state.investors[investor.ID] = *investor
	return nil
}

func (r *memoryInvestors) Update(ctx context.Context, investor *entities.Investor) error {
	if _, ok := r.u.state.investors[investor.ID]; !ok {
		return errNotFound
	}
	investor.UpdatedAt = time.Now().UTC()
	r.u.state.investors[investor.ID] = *investor
	return nil
}

func (r *memoryInvestors) List(ctx context.Context) ([]*entities.Investor, error) {
	out := make([]*entities.Investor, 0, len(r.u.state.investors))
	for _, inv := range r.u.state.investors {
		out = append(out, &inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryLedger struct{ u *memoryUnitOfWork }

func (r *memoryLedger) Create(ctx context.Context, entry *entities.LedgerEntry) error {
	entry.ID = r.u.state.id()
	entry.CreatedAt = time.Now().UTC()
	r.u.state.entries[entry.ID] = *entry
	return nil
}

func (r *memoryLedger) GetByID(ctx context.Context, id int64) (*entities.LedgerEntry, error) {
	e, ok := r.u.state.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *memoryLedger) GetByInvestor(ctx context.Context, investorID int64) ([]*entities.LedgerEntry, error) {
	var out []*entities.LedgerEntry
	for _, e := range r.u.state.entries {
		if e.InvestorID == investorID {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryLedger) MarkDecided(ctx context.Context, id int64, status entities.EntryStatus, decidedAt time.Time) error {
	e, ok := r.u.state.entries[id]
	if !ok {
		return errNotFound
	}
	if !e.IsPending() {
		return domain.ErrAlreadyDecided
	}
	e.Status = status
	e.DecidedAt = &decidedAt
	r.u.state.entries[id] = e
	return nil
}

func (r *memoryLedger) UpdatePendingAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	e, ok := r.u.state.entries[id]
	if !ok {
		return errNotFound
	}
	if !e.IsPending() {
		return domain.ErrAlreadyDecided
	}
	e.Amount = amount
	r.u.state.entries[id] = e
	return nil
}

type memoryContracts struct{ u *memoryUnitOfWork }

func (r *memoryContracts) Create(ctx context.Context, contract *entities.Contract) error {
	now := time.Now().UTC()
	contract.ID = r.u.state.id()
	contract.CreatedAt = now
	contract.UpdatedAt = now
	r.u.state.contracts[contract.ID] = *contract
	return nil
}

func (r *memoryContracts) GetByID(ctx context.Context, id int64) (*entities.Contract, error) {
	c, ok := r.u.state.contracts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memoryContracts) LockForUpdate(ctx context.Context, id int64) (*entities.Contract, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryContracts) Update(ctx context.Context, contract *entities.Contract) error {
	if _, ok := r.u.state.contracts[contract.ID]; !ok {
		return errNotFound
	}
	contract.UpdatedAt = time.Now().UTC()
	r.u.state.contracts[contract.ID] = *contract
	return nil
}

func (r *memoryContracts) List(ctx context.Context, filter entities.ContractFilter) ([]*entities.Contract, error) {
	var out []*entities.Contract
	for _, c := range r.u.state.contracts {
		if filter.InvestorID != nil && c.InvestorID != *filter.InvestorID {
			continue
		}
		if filter.State != nil && c.State != *filter.State {
			continue
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryContracts) ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]*entities.Contract, error) {
	var out []*entities.Contract
	for _, c := range r.u.state.contracts {
		if c.State != entities.ContractStateActive || c.EndDate.Before(from) || !c.EndDate.Before(to) {
			continue
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

type memoryRequests struct{ u *memoryUnitOfWork }

func (r *memoryRequests) Create(ctx context.Context, request *entities.ApprovalRequest) error {
	request.ID = r.u.state.id()
	request.CreatedAt = time.Now().UTC()
	r.u.state.requests[request.ID] = *request
	return nil
}

func (r *memoryRequests) GetByID(ctx context.Context, id int64) (*entities.ApprovalRequest, error) {
	req, ok := r.u.state.requests[id]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (r *memoryRequests) Update(ctx context.Context, request *entities.ApprovalRequest) error {
	if _, ok := r.u.state.requests[request.ID]; !ok {
		return errNotFound
	}
	r.u.state.requests[request.ID] = *request
	return nil
}

func (r *memoryRequests) List(ctx context.Context, filter entities.RequestFilter) ([]*entities.ApprovalRequest, error) {
	var out []*entities.ApprovalRequest
	for _, req := range r.u.state.requests {
		if !filter.Matches(&req) {
			continue
		}
		out = append(out, &req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRequests) GetPendingRefundByContract(ctx context.Context, contractID int64) (*entities.ApprovalRequest, error) {
	for _, req := range r.u.state.requests {
		if req.Kind == entities.RequestKindRefund && req.IsPending() && req.ContractID != nil && *req.ContractID == contractID {
			return &req, nil
		}
	}
	return nil, nil
}

type memoryAccruals struct{ u *memoryUnitOfWork }

func (r *memoryAccruals) Exists(ctx context.Context, contractID int64, period int) (bool, error) {
	_, ok := r.u.state.accruals[accrualKey{contractID, period}]
	return ok, nil
}

func (r *memoryAccruals) Record(ctx context.Context, record *entities.AccrualRecord) error {
	key := accrualKey{record.ContractID, record.Period}
	if _, ok := r.u.state.accruals[key]; ok {
		return domain.ErrDuplicateAccrual
	}
	r.u.state.accruals[key] = *record
	return nil
}
