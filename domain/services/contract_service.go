package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"investa/domain"
	"investa/domain/entities"
	"investa/domain/interfaces"
	"investa/domain/utils"
	"investa/events"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type contractService struct {
	uowFactory interfaces.UnitOfWorkFactory
	locker     *KeyedLocker
	ledger     *LedgerStore
	settings   entities.PlatformSettings
	policy     entities.RefundPolicy
	now        func() time.Time
}

// NewContractService creates a new contract service
func NewContractService(
	uowFactory interfaces.UnitOfWorkFactory,
	locker *KeyedLocker,
	ledger *LedgerStore,
	settings entities.PlatformSettings,
	policy entities.RefundPolicy,
) interfaces.ContractService {
	return &contractService{
		uowFactory: uowFactory,
		locker:     locker,
		ledger:     ledger,
		settings:   settings,
		policy:     policy,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create commits undeployed deposited funds to a new active contract
func (s *contractService) Create(ctx context.Context, req interfaces.CreateContractRequest) (*entities.Contract, error) {
	return s.open(ctx, req, entities.EntryKindInvestment)
}

// Reinvest commits approved profit to a new active contract on the platform's terms
func (s *contractService) Reinvest(ctx context.Context, req interfaces.CreateContractRequest) (*entities.Contract, error) {
	if !req.TermsAccepted {
		return nil, domain.ErrTermsNotAccepted
	}
	if s.settings.MinReinvestment.IsPositive() && req.Principal.Round(2).LessThan(s.settings.MinReinvestment) {
		return nil, domain.NewValidationError("amount", fmt.Sprintf("must be at least %s", utils.FormatUSD(s.settings.MinReinvestment)))
	}
	return s.open(ctx, req, entities.EntryKindReinvestment)
}

// withOfferedTerms fills unset rate and term from the platform settings and validates the result
func (s *contractService) withOfferedTerms(req interfaces.CreateContractRequest) (interfaces.CreateContractRequest, error) {
	if !req.TermsAccepted {
		return req, domain.ErrTermsNotAccepted
	}
	req.Principal = req.Principal.Round(2)
	if !req.Principal.IsPositive() {
		return req, domain.NewValidationError("principal", "must be at least $0.01")
	}
	if req.MonthlyRate.IsZero() {
		req.MonthlyRate = s.settings.ContractMonthlyRate
	}
	if req.TermMonths == 0 {
		req.TermMonths = s.settings.ContractTermMonths
	}
	if !req.MonthlyRate.IsPositive() || req.MonthlyRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return req, domain.NewValidationError("monthly_rate", "must be between 0 and 1")
	}
	if !s.policy.AllowsRate(req.MonthlyRate) {
		return req, domain.NewValidationError("monthly_rate",
			fmt.Sprintf("refund penalty of %s per month would consume the principal inside the refund window",
				s.policy.PenaltyRate(req.MonthlyRate)))
	}
	if req.TermMonths < 1 || req.TermMonths > entities.MaxTermMonths {
		return req, domain.NewValidationError("term_months", fmt.Sprintf("must be between 1 and %d", entities.MaxTermMonths))
	}
	if !req.Principal.Mul(req.MonthlyRate).Round(2).IsPositive() {
		return req, domain.NewValidationError("principal", "too small to earn a cent of monthly profit")
	}
	return req, nil
}

// open books the funding entry and the contract in one unit of work.
// funding is investment for deposited cash or reinvestment for approved profit.
func (s *contractService) open(ctx context.Context, req interfaces.CreateContractRequest, funding entities.EntryKind) (*entities.Contract, error) {
	req, err := s.withOfferedTerms(req)
	if err != nil {
		return nil, err
	}

	unlock := s.locker.LockInvestor(req.InvestorID)
	defer unlock()

	var contract *entities.Contract
	err = runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		investor, err := getActiveInvestor(ctx, uow, req.InvestorID)
		if err != nil {
			return err
		}

		snapshot, err := s.ledger.Project(ctx, uow, req.InvestorID)
		if err != nil {
			return err
		}
		switch funding {
		case entities.EntryKindReinvestment:
			if !snapshot.CanWithdraw(req.Principal) {
				return fmt.Errorf("reinvesting %s, profit available %s: %w",
					utils.FormatUSD(req.Principal), utils.FormatUSD(snapshot.ProfitAvailable), domain.ErrInsufficientProfitBalance)
			}
		default:
			if !snapshot.CanInvest(req.Principal) {
				return fmt.Errorf("principal %s exceeds deployable %s: %w",
					req.Principal.StringFixed(2), snapshot.Deployable().StringFixed(2), domain.ErrInsufficientDeployableFunds)
			}
		}

		now := s.now()
		contract = &entities.Contract{
			InvestorID:      req.InvestorID,
			Principal:       req.Principal,
			MonthlyRate:     req.MonthlyRate,
			TermMonths:      req.TermMonths,
			ProfitPaidTotal: decimal.Zero,
			State:           entities.ContractStateActive,
			StartDate:       now,
			EndDate:         entities.ContractEndDate(now, req.TermMonths),
		}
		if err := uow.ContractRepository().Create(ctx, contract); err != nil {
			return fmt.Errorf("failed to create contract: %w", err)
		}

		note := fmt.Sprintf("contract %d principal", contract.ID)
		if funding == entities.EntryKindReinvestment {
			note = fmt.Sprintf("profit reinvested into contract %d", contract.ID)
		}
		if _, err := s.ledger.Append(ctx, uow, &entities.LedgerEntry{
			InvestorID: req.InvestorID,
			Kind:       funding,
			Amount:     req.Principal.Neg(),
			ContractID: &contract.ID,
			Note:       note,
		}); err != nil {
			return err
		}

		if investor.TermsAcceptedAt == nil {
			investor.TermsAcceptedAt = &now
			if err := uow.InvestorRepository().Update(ctx, investor); err != nil {
				return fmt.Errorf("failed to record terms acceptance: %w", err)
			}
		}

		return publishStateChange(uow, contract, "")
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"investorID": req.InvestorID,
		"contractID": contract.ID,
		"principal":  contract.Principal.String(),
		"rate":       contract.MonthlyRate.String(),
		"term":       contract.TermMonths,
		"funding":    funding,
	}).Info("Contract created")
	return contract, nil
}

// AccrueMonthlyProfit credits one period of profit. A period can only be credited once.
func (s *contractService) AccrueMonthlyProfit(ctx context.Context, contractID int64, period int) (*entities.LedgerEntry, error) {
	investorID, err := s.contractOwner(ctx, contractID)
	if err != nil {
		return nil, err
	}

	unlockInvestor := s.locker.LockInvestor(investorID)
	defer unlockInvestor()
	unlockContract := s.locker.LockContract(contractID)
	defer unlockContract()

	var entry *entities.LedgerEntry
	err = runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		exists, err := uow.AccrualRepository().Exists(ctx, contractID, period)
		if err != nil {
			return fmt.Errorf("failed to check accrual: %w", err)
		}
		if exists {
			return fmt.Errorf("contract %d period %d: %w", contractID, period, domain.ErrDuplicateAccrual)
		}

		contract, err := lockContract(ctx, uow, contractID)
		if err != nil {
			return err
		}
		if !contract.IsActive() {
			return fmt.Errorf("contract %d is %s and cannot accrue profit: %w", contractID, contract.State, domain.ErrInvalidTransition)
		}
		if period != contract.NextPeriod() || period > contract.TermMonths {
			return domain.NewValidationError("period", fmt.Sprintf("expected period %d of %d, got %d", contract.NextPeriod(), contract.TermMonths, period))
		}

		profit := contract.MonthlyProfit()
		entry, err = s.ledger.Append(ctx, uow, &entities.LedgerEntry{
			InvestorID:    contract.InvestorID,
			Kind:          entities.EntryKindProfit,
			Amount:        profit,
			ContractID:    &contract.ID,
			AccrualPeriod: &period,
			Note:          fmt.Sprintf("contract %d month %d profit", contract.ID, period),
		})
		if err != nil {
			return err
		}

		if err := uow.AccrualRepository().Record(ctx, &entities.AccrualRecord{
			ContractID:    contract.ID,
			Period:        period,
			LedgerEntryID: entry.ID,
			Amount:        profit,
		}); err != nil {
			return fmt.Errorf("failed to record accrual: %w", err)
		}

		contract.MonthsPaid++
		contract.ProfitPaidTotal = contract.ProfitPaidTotal.Add(profit)

		oldState := contract.State
		if contract.IsMatured() {
			if err := s.payOutPrincipal(ctx, uow, contract, contract.Principal, "maturity"); err != nil {
				return err
			}
			contract.State = entities.ContractStateCompleted
		}

		if err := uow.ContractRepository().Update(ctx, contract); err != nil {
			return fmt.Errorf("failed to update contract: %w", err)
		}

		if err := uow.EventBus().Publish(events.ProfitAccruedEvent{
			ContractID: contract.ID,
			InvestorID: contract.InvestorID,
			Period:     period,
			Amount:     profit,
		}); err != nil {
			return fmt.Errorf("failed to publish profit accrued event: %w", err)
		}
		if contract.State != oldState {
			return publishStateChange(uow, contract, oldState)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"contractID": contractID,
		"period":     period,
		"amount":     entry.Amount.String(),
	}).Info("Accrued monthly profit")
	return entry, nil
}

// AccrueDue credits every elapsed period the contract has not been paid for yet
func (s *contractService) AccrueDue(ctx context.Context, contractID int64, now time.Time) (int, error) {
	contract, err := s.GetContract(ctx, contractID)
	if err != nil {
		return 0, err
	}
	if !contract.IsActive() {
		return 0, nil
	}

	accrued := 0
	due := contract.DuePeriods(now)
	for period := contract.NextPeriod(); period <= due; period++ {
		if _, err := s.AccrueMonthlyProfit(ctx, contractID, period); err != nil {
			if errors.Is(err, domain.ErrDuplicateAccrual) || errors.Is(err, domain.ErrInvalidTransition) {
				log.WithFields(log.Fields{
					"contractID": contractID,
					"period":     period,
					"error":      err,
				}).Warn("Stopped catching up accruals")
				return accrued, nil
			}
			return accrued, err
		}
		accrued++
	}
	return accrued, nil
}

// RequestEarlyRefund moves an eligible active contract to pending_refund and queues the payout for review
func (s *contractService) RequestEarlyRefund(ctx context.Context, contractID int64) (*entities.ApprovalRequest, error) {
	investorID, err := s.contractOwner(ctx, contractID)
	if err != nil {
		return nil, err
	}

	unlockInvestor := s.locker.LockInvestor(investorID)
	defer unlockInvestor()
	unlockContract := s.locker.LockContract(contractID)
	defer unlockContract()

	var request *entities.ApprovalRequest
	err = runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		if _, err := getActiveInvestor(ctx, uow, investorID); err != nil {
			return err
		}
		contract, err := lockContract(ctx, uow, contractID)
		if err != nil {
			return err
		}
		if !contract.State.CanTransitionTo(entities.ContractStatePendingRefund) {
			return &domain.TransitionError{From: string(contract.State), To: string(entities.ContractStatePendingRefund)}
		}
		if !s.policy.IsEligible(contract.MonthsPaid) {
			return fmt.Errorf("contract %d has %d months paid: %w", contractID, contract.MonthsPaid, domain.ErrRefundNotEligible)
		}

		amount := s.policy.RefundAmount(contract)
		oldState := contract.State
		contract.State = entities.ContractStatePendingRefund
		if err := uow.ContractRepository().Update(ctx, contract); err != nil {
			return fmt.Errorf("failed to update contract: %w", err)
		}

		request, err = queueRequest(ctx, uow, contract.InvestorID, entities.RequestKindRefund, amount, nil, &contract.ID)
		if err != nil {
			return err
		}
		return publishStateChange(uow, contract, oldState)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"contractID": contractID,
		"requestID":  request.ID,
		"amount":     request.Amount.String(),
	}).Info("Early refund requested")
	return request, nil
}

// AdminUpdateStatus applies an admin transition and field corrections atomically.
// An empty newState keeps the current state.
//
// Completing a contract here closes it without a principal payout; only maturity in
// AccrueMonthlyProfit returns principal. If a refund is pending, completion approves it
// and pays the refund amount, any other exit rejects it.
// months_paid cannot be lowered below a period whose profit is already recorded.
func (s *contractService) AdminUpdateStatus(
	ctx context.Context,
	contractID int64,
	newState entities.ContractState,
	patch entities.ContractPatch,
	adminID int64,
) (*entities.Contract, error) {
	if patch.MonthsPaid != nil && *patch.MonthsPaid < 0 {
		return nil, &domain.InvalidFieldError{Field: "months_paid", Value: fmt.Sprintf("%d", *patch.MonthsPaid)}
	}
	if patch.ProfitPaidTotal != nil && patch.ProfitPaidTotal.IsNegative() {
		return nil, &domain.InvalidFieldError{Field: "profit_paid_total", Value: patch.ProfitPaidTotal.String()}
	}
	if newState != "" && !newState.IsValid() {
		return nil, domain.NewValidationError("state", fmt.Sprintf("unknown contract state %q", newState))
	}

	investorID, err := s.contractOwner(ctx, contractID)
	if err != nil {
		return nil, err
	}

	unlockInvestor := s.locker.LockInvestor(investorID)
	defer unlockInvestor()
	unlockContract := s.locker.LockContract(contractID)
	defer unlockContract()

	var contract *entities.Contract
	err = runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		contract, err = lockContract(ctx, uow, contractID)
		if err != nil {
			return err
		}

		oldState := contract.State
		target := newState
		if target == "" {
			target = oldState
		}
		if target != oldState && !oldState.CanTransitionTo(target) {
			return &domain.TransitionError{From: string(oldState), To: string(target)}
		}
		if target == oldState && patch.IsEmpty() {
			return domain.NewValidationError("state", "nothing to update")
		}

		if oldState == entities.ContractStatePendingRefund && target != oldState {
			if err := s.closeOpenRefund(ctx, uow, contract, target, adminID); err != nil {
				return err
			}
		}

		if patch.MonthsPaid != nil && *patch.MonthsPaid < contract.MonthsPaid {
			if err := checkNoAccrualAfter(ctx, uow, contract, *patch.MonthsPaid); err != nil {
				return err
			}
		}

		contract.State = target
		if patch.MonthsPaid != nil {
			contract.MonthsPaid = *patch.MonthsPaid
		}
		if patch.ProfitPaidTotal != nil {
			contract.ProfitPaidTotal = patch.ProfitPaidTotal.Round(2)
		}
		if err := uow.ContractRepository().Update(ctx, contract); err != nil {
			return fmt.Errorf("failed to update contract: %w", err)
		}

		if target != oldState {
			return publishStateChange(uow, contract, oldState)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"contractID": contractID,
		"adminID":    adminID,
		"state":      contract.State,
		"monthsPaid": contract.MonthsPaid,
	}).Info("Admin updated contract")
	return contract, nil
}

// checkNoAccrualAfter refuses a months_paid that would make a recorded period due again
func checkNoAccrualAfter(ctx context.Context, uow interfaces.UnitOfWork, contract *entities.Contract, monthsPaid int) error {
	for period := monthsPaid + 1; period <= contract.MonthsPaid; period++ {
		exists, err := uow.AccrualRepository().Exists(ctx, contract.ID, period)
		if err != nil {
			return fmt.Errorf("failed to check accrual: %w", err)
		}
		if exists {
			return &domain.InvalidFieldError{Field: "months_paid", Value: fmt.Sprintf("%d (period %d already credited)", monthsPaid, period)}
		}
	}
	return nil
}

// SettleRefund applies an admin outcome to the contract behind a pending refund request
func (s *contractService) SettleRefund(ctx context.Context, uow interfaces.UnitOfWork, request *entities.ApprovalRequest, outcome entities.Outcome) error {
	if request.ContractID == nil {
		return domain.NewValidationError("contract_id", "refund request has no contract")
	}
	contract, err := lockContract(ctx, uow, *request.ContractID)
	if err != nil {
		return err
	}

	oldState := contract.State
	if err := s.settleRefund(ctx, uow, contract, request, outcome); err != nil {
		return err
	}
	if err := uow.ContractRepository().Update(ctx, contract); err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}
	return publishStateChange(uow, contract, oldState)
}

func (s *contractService) GetContract(ctx context.Context, id int64) (*entities.Contract, error) {
	var contract *entities.Contract
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		contract, err = uow.ContractRepository().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get contract: %w", err)
		}
		if contract == nil {
			return fmt.Errorf("contract %d: %w", id, domain.ErrUnknownContract)
		}
		return nil
	})
	return contract, err
}

func (s *contractService) ListContracts(ctx context.Context, filter entities.ContractFilter) ([]*entities.Contract, error) {
	var contracts []*entities.Contract
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		if filter.InvestorID != nil {
			if _, err := getInvestor(ctx, uow, *filter.InvestorID, false); err != nil {
				return err
			}
		}
		var err error
		contracts, err = uow.ContractRepository().List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list contracts: %w", err)
		}
		return nil
	})
	return contracts, err
}

// ContractsEndingWithin returns active contracts maturing in the next window
func (s *contractService) ContractsEndingWithin(ctx context.Context, now time.Time, window time.Duration) ([]*entities.Contract, error) {
	var contracts []*entities.Contract
	err := runInUnitOfWork(ctx, s.uowFactory, func(uow interfaces.UnitOfWork) error {
		var err error
		contracts, err = uow.ContractRepository().ListActiveEndingBetween(ctx, now, now.Add(window))
		if err != nil {
			return fmt.Errorf("failed to list contracts ending soon: %w", err)
		}
		return nil
	})
	return contracts, err
}

// settleRefund mutates the contract for the outcome and books the payout on approval.
// The caller persists the contract.
func (s *contractService) settleRefund(ctx context.Context, uow interfaces.UnitOfWork, contract *entities.Contract, request *entities.ApprovalRequest, outcome entities.Outcome) error {
	target := entities.ContractStateActive
	if outcome == entities.OutcomeApprove {
		target = entities.ContractStateCompleted
	}
	if contract.State != entities.ContractStatePendingRefund || !contract.State.CanTransitionTo(target) {
		return &domain.TransitionError{From: string(contract.State), To: string(target)}
	}

	if outcome == entities.OutcomeApprove {
		if err := s.payOutPrincipal(ctx, uow, contract, request.Amount, fmt.Sprintf("early refund request %d", request.ID)); err != nil {
			return err
		}
	}
	contract.State = target
	return nil
}

// closeOpenRefund decides the refund request left open when an admin moves a contract out of pending_refund
func (s *contractService) closeOpenRefund(ctx context.Context, uow interfaces.UnitOfWork, contract *entities.Contract, target entities.ContractState, adminID int64) error {
	request, err := uow.ApprovalRequestRepository().GetPendingRefundByContract(ctx, contract.ID)
	if err != nil {
		return fmt.Errorf("failed to get pending refund request: %w", err)
	}
	if request == nil {
		return nil
	}

	outcome := entities.OutcomeReject
	if target == entities.ContractStateCompleted {
		outcome = entities.OutcomeApprove
	}
	if err := s.settleRefund(ctx, uow, contract, request, outcome); err != nil {
		return err
	}
	return recordDecision(ctx, uow, request, outcome, adminID, "settled by contract status update", s.now())
}

// payOutPrincipal books the principal leaving the platform as an approved refund entry
func (s *contractService) payOutPrincipal(ctx context.Context, uow interfaces.UnitOfWork, contract *entities.Contract, amount decimal.Decimal, reason string) error {
	if !amount.IsPositive() {
		return nil
	}
	_, err := s.ledger.Append(ctx, uow, &entities.LedgerEntry{
		InvestorID: contract.InvestorID,
		Kind:       entities.EntryKindRefund,
		Amount:     amount.Neg(),
		ContractID: &contract.ID,
		Note:       fmt.Sprintf("contract %d payout (%s)", contract.ID, reason),
	})
	return err
}

// contractOwner resolves the investor behind a contract so locks can be taken in order
func (s *contractService) contractOwner(ctx context.Context, contractID int64) (int64, error) {
	contract, err := s.GetContract(ctx, contractID)
	if err != nil {
		return 0, err
	}
	return contract.InvestorID, nil
}

func lockContract(ctx context.Context, uow interfaces.UnitOfWork, contractID int64) (*entities.Contract, error) {
	contract, err := uow.ContractRepository().LockForUpdate(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	if contract == nil {
		return nil, fmt.Errorf("contract %d: %w", contractID, domain.ErrUnknownContract)
	}
	return contract, nil
}

func publishStateChange(uow interfaces.UnitOfWork, contract *entities.Contract, oldState entities.ContractState) error {
	if err := uow.EventBus().Publish(events.ContractStateChangeEvent{
		ContractID: contract.ID,
		InvestorID: contract.InvestorID,
		OldState:   string(oldState),
		NewState:   string(contract.State),
	}); err != nil {
		return fmt.Errorf("failed to publish contract state change: %w", err)
	}
	return nil
}
