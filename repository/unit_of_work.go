package repository

import (
	"context"
	"errors"
	"fmt"

	"investa/database"
	"investa/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements interfaces.UnitOfWork over a single pgx transaction
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	investorRepo           interfaces.InvestorRepository
	ledgerRepo             interfaces.LedgerEntryRepository
	contractRepo           interfaces.ContractRepository
	requestRepo            interfaces.ApprovalRequestRepository
	accrualRepo            interfaces.AccrualRepository
}

// UnitOfWorkFactory builds database-backed units of work
type UnitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db}
}

// CreateWithPublisher creates a UnitOfWork whose events go through the given transactional publisher
func (f *UnitOfWorkFactory) CreateWithPublisher(publisher interfaces.TransactionalEventPublisher) interfaces.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: publisher,
	}
}

// Begin starts a new transaction and scopes every repository to it
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx
	u.investorRepo = newInvestorRepository(tx)
	u.ledgerRepo = newLedgerEntryRepository(tx)
	u.contractRepo = newContractRepository(tx)
	u.requestRepo = newApprovalRequestRepository(tx)
	u.accrualRepo = newAccrualRepository(tx)

	return nil
}

// Commit commits the transaction, then flushes the buffered events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	if u.transactionalPublisher != nil {
		if err := u.transactionalPublisher.Flush(u.ctx); err != nil {
			// the state change is durable; only the notification is lost
			log.WithError(err).Warn("Failed to flush events after commit")
		}
	}

	return nil
}

// Rollback rolls back the transaction and drops the buffered events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// InvestorRepository returns the investor repository for this unit of work
func (u *unitOfWork) InvestorRepository() interfaces.InvestorRepository {
	if u.investorRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.investorRepo
}

// LedgerEntryRepository returns the ledger repository for this unit of work
func (u *unitOfWork) LedgerEntryRepository() interfaces.LedgerEntryRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// ContractRepository returns the contract repository for this unit of work
func (u *unitOfWork) ContractRepository() interfaces.ContractRepository {
	if u.contractRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.contractRepo
}

// ApprovalRequestRepository returns the approval request repository for this unit of work
func (u *unitOfWork) ApprovalRequestRepository() interfaces.ApprovalRequestRepository {
	if u.requestRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.requestRepo
}

// AccrualRepository returns the accrual repository for this unit of work
func (u *unitOfWork) AccrualRepository() interfaces.AccrualRepository {
	if u.accrualRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accrualRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work has no event publisher")
	}
	return u.transactionalPublisher
}
