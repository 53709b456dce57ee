package services

import (
	"context"
	"fmt"
	"strings"

	"investa/domain"
	"investa/domain/entities"
	"investa/domain/interfaces"
	"investa/domain/utils"
	"investa/events"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type walletService struct {
	uowFactory interfaces.UnitOfWorkFactory
	locker     *KeyedLocker
	ledger     *LedgerStore
	settings   entities.PlatformSettings
}

// NewWalletService creates a new wallet service
func NewWalletService(
	uowFactory interfaces.UnitOfWorkFactory,
	locker *KeyedLocker,
	ledger *LedgerStore,
	settings entities.PlatformSettings,
) interfaces.WalletService {
	return &walletService{
		uowFactory: uowFactory,
		locker:     locker,
		ledger:     ledger,
		settings:   settings,
	}
}

// RequestDeposit appends a pending deposit and queues it for admin confirmation
func (s *walletService) RequestDeposit(ctx context.Context, investorID int64, amount decimal.Decimal) (*entities.ApprovalRequest, error) {
	amount, err := centAmount(amount)
	if err != nil {
		return nil, err
	}
	if !s.settings.DepositsEnabled {
		return nil, domain.ErrDepositsClosed
	}

	unlock := s.locker.LockInvestor(investorID)
	defer unlock()

	var request *entities.ApprovalRequest
	err = runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		if _, err := getActiveInvestor(ctx, uow, investorID); err != nil {
			return err
		}

		entry, err := s.ledger.Append(ctx, uow, &entities.LedgerEntry{
			InvestorID: investorID,
			Kind:       entities.EntryKindDeposit,
			Amount:     amount,
		})
		if err != nil {
			return err
		}

		request, err = queueRequest(ctx, uow, investorID, entities.RequestKindDeposit, entry.Amount, &entry.ID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"investorID": investorID,
		"requestID":  request.ID,
		"amount":     amount.String(),
	}).Info("Deposit requested")
	return request, nil
}

// RequestWithdrawal appends a pending withdrawal. The approved profit balance must cover it now,
// and is checked again when an admin approves.
func (s *walletService) RequestWithdrawal(ctx context.Context, investorID int64, amount decimal.Decimal) (*entities.ApprovalRequest, error) {
	amount, err := centAmount(amount)
	if err != nil {
		return nil, err
	}
	if s.settings.MinWithdrawal.IsPositive() && amount.LessThan(s.settings.MinWithdrawal) {
		return nil, domain.NewValidationError("amount", fmt.Sprintf("must be at least %s", utils.FormatUSD(s.settings.MinWithdrawal)))
	}
	if s.settings.MaxWithdrawal.IsPositive() && amount.GreaterThan(s.settings.MaxWithdrawal) {
		return nil, domain.NewValidationError("amount", fmt.Sprintf("must not exceed %s", utils.FormatUSD(s.settings.MaxWithdrawal)))
	}

	unlock := s.locker.LockInvestor(investorID)
	defer unlock()

	var request *entities.ApprovalRequest
	err = runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		if _, err := getActiveInvestor(ctx, uow, investorID); err != nil {
			return err
		}

		snapshot, err := s.ledger.Project(ctx, uow, investorID)
		if err != nil {
			return err
		}
		if !snapshot.CanWithdraw(amount) {
			return fmt.Errorf("requested %s, available %s: %w",
				utils.FormatUSD(amount), utils.FormatUSD(snapshot.ProfitAvailable), domain.ErrInsufficientProfitBalance)
		}

		entry, err := s.ledger.Append(ctx, uow, &entities.LedgerEntry{
			InvestorID: investorID,
			Kind:       entities.EntryKindWithdrawal,
			Amount:     amount.Neg(),
		})
		if err != nil {
			return err
		}

		request, err = queueRequest(ctx, uow, investorID, entities.RequestKindWithdrawal, entry.Amount.Neg(), &entry.ID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"investorID": investorID,
		"requestID":  request.ID,
		"amount":     amount.String(),
	}).Info("Withdrawal requested")
	return request, nil
}

// AdminCredit books a deposit entered by an admin. It skips the review queue.
func (s *walletService) AdminCredit(ctx context.Context, investorID int64, amount decimal.Decimal, note string, adminID int64) (*entities.LedgerEntry, error) {
	amount, err := centAmount(amount)
	if err != nil {
		return nil, err
	}

	unlock := s.locker.LockInvestor(investorID)
	defer unlock()

	var entry *entities.LedgerEntry
	err = runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		if _, err := getInvestor(ctx, uow, investorID, true); err != nil {
			return err
		}

		note = strings.TrimSpace(note)
		if note == "" {
			note = "admin credit"
		}
		appended, err := s.ledger.Append(ctx, uow, &entities.LedgerEntry{
			InvestorID: investorID,
			Kind:       entities.EntryKindDeposit,
			Amount:     amount,
			Note:       fmt.Sprintf("%s (admin %d)", note, adminID),
		})
		if err != nil {
			return err
		}
		entry, err = s.ledger.MarkDecided(ctx, uow, appended.ID, entities.EntryStatusApproved)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"investorID": investorID,
		"adminID":    adminID,
		"amount":     amount.String(),
	}).Info("Admin credited wallet")
	return entry, nil
}

// centAmount rounds a requested amount to cents and requires at least one cent to remain
func centAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return amount, domain.NewValidationError("amount", "must be at least $0.01")
	}
	return amount, nil
}

func (s *walletService) Snapshot(ctx context.Context, investorID int64) (*entities.WalletSnapshot, error) {
	var snapshot *entities.WalletSnapshot
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		snapshot, err = s.ledger.Project(ctx, uow, investorID)
		return err
	})
	return snapshot, err
}

func (s *walletService) PendingView(ctx context.Context, investorID int64) (*entities.PendingView, error) {
	var view *entities.PendingView
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		view, err = s.ledger.Pending(ctx, uow, investorID)
		return err
	})
	return view, err
}

func (s *walletService) History(ctx context.Context, investorID int64, limit int) ([]*interfaces.HistoryItem, error) {
	var items []*interfaces.HistoryItem
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		items, err = s.ledger.History(ctx, uow, investorID, limit)
		return err
	})
	return items, err
}

// Confirm approves a pending deposit or withdrawal entry
func (s *walletService) Confirm(ctx context.Context, uow interfaces.UnitOfWork, entryID int64) error {
	_, err := s.ledger.MarkDecided(ctx, uow, entryID, entities.EntryStatusApproved)
	return err
}

// Reject rejects a pending deposit or withdrawal entry
func (s *walletService) Reject(ctx context.Context, uow interfaces.UnitOfWork, entryID int64) error {
	_, err := s.ledger.MarkDecided(ctx, uow, entryID, entities.EntryStatusRejected)
	return err
}

// queueRequest stores a pending approval request and publishes its submission
func queueRequest(
	ctx context.Context,
	uow interfaces.UnitOfWork,
	investorID int64,
	kind entities.RequestKind,
	amount decimal.Decimal,
	entryID *int64,
	contractID *int64,
) (*entities.ApprovalRequest, error) {
	request := &entities.ApprovalRequest{
		InvestorID:    investorID,
		Kind:          kind,
		Amount:        amount,
		LedgerEntryID: entryID,
		ContractID:    contractID,
		State:         entities.RequestStatePending,
	}
	if err := uow.ApprovalRequestRepository().Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create approval request: %w", err)
	}

	if err := uow.EventBus().Publish(events.RequestSubmittedEvent{
		RequestID:  request.ID,
		InvestorID: investorID,
		Kind:       string(kind),
		Amount:     amount,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish request submitted event: %w", err)
	}
	return request, nil
}
