package services

import (
	"context"
	"fmt"
	"time"

	"investa/domain"
	"investa/domain/entities"
	"investa/domain/interfaces"
	"investa/domain/utils"

	log "github.com/sirupsen/logrus"
)

// LedgerStore is the single entry point for writing to and folding an investor's ledger.
// Every method runs inside the caller's unit of work.
type LedgerStore struct {
	now func() time.Time
}

// NewLedgerStore creates a ledger store using the wall clock
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{now: func() time.Time { return time.Now().UTC() }}
}

// Append validates and stores a new entry. Approval kinds start pending, system kinds start approved.
func (s *LedgerStore) Append(ctx context.Context, uow interfaces.UnitOfWork, entry *entities.LedgerEntry) (*entities.LedgerEntry, error) {
	if !entry.Kind.IsValid() {
		return nil, domain.NewValidationError("kind", fmt.Sprintf("unknown ledger entry kind %q", entry.Kind))
	}
	if entry.Currency == "" {
		entry.Currency = entities.CurrencyUSD
	}
	if entry.Currency != entities.CurrencyUSD {
		return nil, domain.NewValidationError("currency", "only USD is supported")
	}
	// Sign is checked on the stored cent amount so sub-cent values cannot become zero rows.
	entry.Amount = entry.Amount.Round(2)
	if !entry.HasValidSign() {
		return nil, domain.NewValidationError("amount", fmt.Sprintf("has the wrong sign for a %s entry", entry.Kind))
	}

	if entry.Kind.RequiresApproval() {
		entry.Status = entities.EntryStatusPending
		entry.DecidedAt = nil
	} else {
		now := s.now()
		entry.Status = entities.EntryStatusApproved
		entry.DecidedAt = &now
	}

	if err := uow.LedgerEntryRepository().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	log.WithFields(log.Fields{
		"investorID": entry.InvestorID,
		"entryID":    entry.ID,
		"kind":       entry.Kind,
		"amount":     entry.Amount.String(),
		"status":     entry.Status,
	}).Debug("Appended ledger entry")

	return entry, nil
}

// MarkDecided settles a pending entry once. A second decision fails with ErrAlreadyDecided.
func (s *LedgerStore) MarkDecided(ctx context.Context, uow interfaces.UnitOfWork, entryID int64, status entities.EntryStatus) (*entities.LedgerEntry, error) {
	if !status.IsDecided() {
		return nil, domain.NewValidationError("status", "must be approved or rejected")
	}

	entry, err := uow.LedgerEntryRepository().GetByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	if entry == nil {
		return nil, domain.NewValidationError("entry_id", fmt.Sprintf("unknown ledger entry %d", entryID))
	}
	if !entry.IsPending() {
		return nil, fmt.Errorf("ledger entry %d is %s: %w", entryID, entry.Status, domain.ErrAlreadyDecided)
	}

	decidedAt := s.now()
	if err := uow.LedgerEntryRepository().MarkDecided(ctx, entryID, status, decidedAt); err != nil {
		return nil, fmt.Errorf("failed to mark ledger entry %d: %w", entryID, err)
	}

	entry.Status = status
	entry.DecidedAt = &decidedAt
	return entry, nil
}

// Project folds the investor's approved entries into a wallet snapshot
func (s *LedgerStore) Project(ctx context.Context, uow interfaces.UnitOfWork, investorID int64) (*entities.WalletSnapshot, error) {
	entries, err := s.entries(ctx, uow, investorID)
	if err != nil {
		return nil, err
	}
	snap := entities.FoldWallet(investorID, entries)
	return &snap, nil
}

// Pending lists the investor's entries still awaiting a decision
func (s *LedgerStore) Pending(ctx context.Context, uow interfaces.UnitOfWork, investorID int64) (*entities.PendingView, error) {
	entries, err := s.entries(ctx, uow, investorID)
	if err != nil {
		return nil, err
	}
	view := entities.BuildPendingView(investorID, entries)
	return &view, nil
}

// History returns up to limit entries newest first with currency formatted amounts. limit <= 0 returns all.
func (s *LedgerStore) History(ctx context.Context, uow interfaces.UnitOfWork, investorID int64, limit int) ([]*interfaces.HistoryItem, error) {
	entries, err := s.entries(ctx, uow, investorID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]*interfaces.HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, &interfaces.HistoryItem{
			Entry:           e,
			FormattedAmount: utils.FormatCurrency(e.Amount),
		})
	}
	return items, nil
}

// entries loads the ledger and enforces the unknown investor rule
func (s *LedgerStore) entries(ctx context.Context, uow interfaces.UnitOfWork, investorID int64) ([]*entities.LedgerEntry, error) {
	entries, err := uow.LedgerEntryRepository().GetByInvestor(ctx, investorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	if len(entries) > 0 {
		return entries, nil
	}

	investor, err := uow.InvestorRepository().GetByID(ctx, investorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get investor: %w", err)
	}
	if investor == nil {
		return nil, fmt.Errorf("investor %d: %w", investorID, domain.ErrUnknownInvestor)
	}
	return entries, nil
}
