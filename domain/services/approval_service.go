package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"investa/domain"
	"investa/domain/entities"
	"investa/domain/interfaces"
	"investa/domain/utils"
	"investa/events"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type approvalService struct {
	uowFactory interfaces.UnitOfWorkFactory
	locker     *KeyedLocker
	ledger     *LedgerStore
	wallet     interfaces.WalletService
	contracts  interfaces.ContractService
	settings   entities.PlatformSettings
	now        func() time.Time
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	uowFactory interfaces.UnitOfWorkFactory,
	locker *KeyedLocker,
	ledger *LedgerStore,
	wallet interfaces.WalletService,
	contracts interfaces.ContractService,
	settings entities.PlatformSettings,
) interfaces.ApprovalService {
	return &approvalService{
		uowFactory: uowFactory,
		locker:     locker,
		ledger:     ledger,
		wallet:     wallet,
		contracts:  contracts,
		settings:   settings,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Decide applies an admin outcome to a pending request. The request is decided exactly once;
// the ledger entry or contract behind it changes in the same transaction.
func (s *approvalService) Decide(ctx context.Context, requestID int64, outcome entities.Outcome, adminID int64, reason string) (*entities.ApprovalRequest, error) {
	if !outcome.IsValid() {
		return nil, domain.NewValidationError("outcome", fmt.Sprintf("unknown outcome %q", outcome))
	}

	pending, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !pending.IsPending() {
		return nil, fmt.Errorf("request %d is %s: %w", requestID, pending.State, domain.ErrAlreadyDecided)
	}

	unlockInvestor := s.locker.LockInvestor(pending.InvestorID)
	defer unlockInvestor()
	if pending.Kind == entities.RequestKindRefund && pending.ContractID != nil {
		unlockContract := s.locker.LockContract(*pending.ContractID)
		defer unlockContract()
	}

	var request *entities.ApprovalRequest
	err = runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		request, err = getRequest(ctx, uow, requestID)
		if err != nil {
			return err
		}
		if !request.IsPending() {
			return fmt.Errorf("request %d is %s: %w", requestID, request.State, domain.ErrAlreadyDecided)
		}

		switch request.Kind {
		case entities.RequestKindDeposit:
			err = s.decideEntry(ctx, uow, request, outcome)
		case entities.RequestKindWithdrawal:
			if outcome == entities.OutcomeApprove {
				if err := s.checkWithdrawal(ctx, uow, request); err != nil {
					return err
				}
			}
			err = s.decideEntry(ctx, uow, request, outcome)
		case entities.RequestKindRefund:
			err = s.contracts.SettleRefund(ctx, uow, request, outcome)
		default:
			err = domain.NewValidationError("kind", fmt.Sprintf("unknown request kind %q", request.Kind))
		}
		if err != nil {
			return err
		}

		return recordDecision(ctx, uow, request, outcome, adminID, reason, s.now())
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"requestID":  requestID,
		"investorID": request.InvestorID,
		"kind":       request.Kind,
		"outcome":    outcome,
		"adminID":    adminID,
	}).Info("Decided approval request")
	return request, nil
}

// BulkDecide decides each request independently. One failure does not stop the rest.
func (s *approvalService) BulkDecide(ctx context.Context, requestIDs []int64, outcome entities.Outcome, adminID int64) []interfaces.BulkDecisionResult {
	results := make([]interfaces.BulkDecisionResult, 0, len(requestIDs))
	for _, id := range requestIDs {
		request, err := s.Decide(ctx, id, outcome, adminID, "")
		if err != nil {
			log.WithFields(log.Fields{
				"requestID": id,
				"error":     err,
			}).Warn("Bulk decision failed for request")
		}
		results = append(results, interfaces.BulkDecisionResult{
			RequestID: id,
			Request:   request,
			Err:       err,
		})
	}
	return results
}

// AdjustPendingDeposit corrects the amount of a deposit before it is confirmed
func (s *approvalService) AdjustPendingDeposit(ctx context.Context, requestID int64, amount decimal.Decimal) (*entities.ApprovalRequest, error) {
	amount, err := centAmount(amount)
	if err != nil {
		return nil, err
	}

	pending, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	unlock := s.locker.LockInvestor(pending.InvestorID)
	defer unlock()

	var request *entities.ApprovalRequest
	err = runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		request, err = getRequest(ctx, uow, requestID)
		if err != nil {
			return err
		}
		if request.Kind != entities.RequestKindDeposit {
			return domain.NewValidationError("kind", "only deposit requests can be adjusted")
		}
		if !request.IsPending() {
			return fmt.Errorf("request %d is %s: %w", requestID, request.State, domain.ErrAlreadyDecided)
		}
		if request.LedgerEntryID == nil {
			return domain.NewValidationError("ledger_entry_id", "deposit request has no ledger entry")
		}

		if err := uow.LedgerEntryRepository().UpdatePendingAmount(ctx, *request.LedgerEntryID, amount); err != nil {
			return fmt.Errorf("failed to adjust deposit entry: %w", err)
		}
		previous := request.Amount
		request.Amount = amount
		if err := uow.ApprovalRequestRepository().Update(ctx, request); err != nil {
			return fmt.Errorf("failed to update approval request: %w", err)
		}

		log.WithFields(log.Fields{
			"requestID": requestID,
			"from":      previous.String(),
			"to":        amount.String(),
		}).Info("Adjusted pending deposit")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *approvalService) GetRequest(ctx context.Context, id int64) (*entities.ApprovalRequest, error) {
	var request *entities.ApprovalRequest
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		request, err = getRequest(ctx, uow, id)
		return err
	})
	return request, err
}

func (s *approvalService) ListRequests(ctx context.Context, filter entities.RequestFilter) ([]*entities.ApprovalRequest, error) {
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, domain.NewValidationError("kind", fmt.Sprintf("unknown request kind %q", filter.Kind))
	}
	if filter.State != "" && !filter.State.IsValid() {
		return nil, domain.NewValidationError("state", fmt.Sprintf("unknown request state %q", filter.State))
	}

	var requests []*entities.ApprovalRequest
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		requests, err = uow.ApprovalRequestRepository().List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list approval requests: %w", err)
		}
		return nil
	})
	return requests, err
}

// checkWithdrawal re-validates a withdrawal at approval time. On failure the request stays pending.
func (s *approvalService) checkWithdrawal(ctx context.Context, uow interfaces.UnitOfWork, request *entities.ApprovalRequest) error {
	investor, err := getInvestor(ctx, uow, request.InvestorID, true)
	if err != nil {
		return err
	}
	if s.settings.RequireProfileForWithdrawal && !investor.ProfileComplete {
		return fmt.Errorf("investor %d: %w", investor.ID, domain.ErrProfileIncomplete)
	}

	snapshot, err := s.ledger.Project(ctx, uow, request.InvestorID)
	if err != nil {
		return err
	}
	if !snapshot.CanWithdraw(request.Amount) {
		return fmt.Errorf("withdrawal of %s exceeds available %s: %w",
			utils.FormatUSD(request.Amount), utils.FormatUSD(snapshot.ProfitAvailable), domain.ErrInsufficientProfitBalance)
	}
	return nil
}

func (s *approvalService) decideEntry(ctx context.Context, uow interfaces.UnitOfWork, request *entities.ApprovalRequest, outcome entities.Outcome) error {
	if request.LedgerEntryID == nil {
		return domain.NewValidationError("ledger_entry_id", fmt.Sprintf("%s request has no ledger entry", request.Kind))
	}
	if outcome == entities.OutcomeApprove {
		return s.wallet.Confirm(ctx, uow, *request.LedgerEntryID)
	}
	return s.wallet.Reject(ctx, uow, *request.LedgerEntryID)
}

// recordDecision persists the request decision and publishes it
func recordDecision(
	ctx context.Context,
	uow interfaces.UnitOfWork,
	request *entities.ApprovalRequest,
	outcome entities.Outcome,
	adminID int64,
	reason string,
	decidedAt time.Time,
) error {
	request.State = outcome.ResultingState()
	request.DecidedAt = &decidedAt
	request.DecidedBy = &adminID
	if outcome == entities.OutcomeReject {
		request.RejectionReason = strings.TrimSpace(reason)
	}
	if err := uow.ApprovalRequestRepository().Update(ctx, request); err != nil {
		return fmt.Errorf("failed to update approval request: %w", err)
	}

	if err := uow.EventBus().Publish(events.RequestDecidedEvent{
		InvestorID: request.InvestorID,
		RequestID:  request.ID,
		Kind:       string(request.Kind),
		Outcome:    string(outcome),
		Amount:     request.Amount,
		AdminID:    adminID,
	}); err != nil {
		return fmt.Errorf("failed to publish request decided event: %w", err)
	}
	return nil
}

func getRequest(ctx context.Context, uow interfaces.UnitOfWork, id int64) (*entities.ApprovalRequest, error) {
	request, err := uow.ApprovalRequestRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}
	if request == nil {
		return nil, fmt.Errorf("request %d: %w", id, domain.ErrUnknownRequest)
	}
	return request, nil
}
