package wallet

import (
	"context"
	"fmt"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
)

// WalletService exposes the read side of the wallet plus credits. Debits
// happen only through the participation charge, never here.
type WalletService struct {
	repo repository.AuctionDB
}

// NewWalletService creates a new WalletService instance
func NewWalletService(repo repository.AuctionDB) *WalletService {
	return &WalletService{
		repo: repo,
	}
}

// GetBalance returns the user's current balance in cents
func (s *WalletService) GetBalance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}

	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service: failed to get balance for user %s: %w", userID, err)
	}
	return balance, nil
}

// ListEntries returns the user's ledger entries
func (s *WalletService) ListEntries(ctx context.Context, userID string) ([]models.LedgerEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}

	entries, err := s.repo.ListLedgerEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list ledger entries for user %s: %w", userID, err)
	}
	return entries, nil
}

// Credit adds funds to a user's wallet together with its ledger entry
func (s *WalletService) Credit(ctx context.Context, userID string, amountCents int64, relatedID string) (models.LedgerEntry, error) {
	if userID == "" {
		return models.LedgerEntry{}, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}
	if amountCents <= 0 {
		return models.LedgerEntry{}, fmt.Errorf("service: %w - non-positive credit amount", auctionerrors.ErrInvalidInput)
	}

	entry, err := s.repo.CreditWallet(ctx, userID, amountCents, relatedID)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("service: failed to credit wallet for user %s: %w", userID, err)
	}
	return entry, nil
}
