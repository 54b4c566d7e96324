package services

import (
	"context"
	"fmt"

	"github.com/kodbank/backend/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Limits applied to ledger listings
const (
	DefaultTransactionLimit = 10
	MaxTransactionLimit     = 100
)

// BankUserRepository is the user lookup needed by the bank service
type BankUserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// bankService implements the ledger operations
type bankService struct {
	userRepo       BankUserRepository
	txRepo         TransactionRepository
	scope          TransactionScope
	logger         *zap.Logger
	securityLogger *zap.Logger
}

// NewBankService creates a new bank service
func NewBankService(userRepo BankUserRepository, txRepo TransactionRepository, scope TransactionScope, logger *zap.Logger) *bankService {
	return &bankService{
		userRepo:       userRepo,
		txRepo:         txRepo,
		scope:          scope,
		logger:         logger,
		securityLogger: logger.Named(securityLogName),
	}
}

// RecordBalanceView returns the balance of username and appends one zero-amount
// Credit verification entry. Both happen in one transaction: a balance is never
// disclosed without its ledger entry.
func (s *bankService) RecordBalanceView(ctx context.Context, username string) (decimal.Decimal, error) {
	var user *models.User

	err := s.scope.Execute(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}

		entry := &models.Transaction{
			UserID:      user.ID,
			Kind:        models.TransactionCredit,
			Amount:      decimal.Zero,
			Description: models.BalanceViewDescription,
			Status:      models.TransactionCompleted,
		}
		if err := s.txRepo.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to record balance view: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	logSecurityEvent(s.securityLogger, EventBalanceViewed, user.ID, "Username: "+username)
	return user.Balance, nil
}

// ListRecent returns the newest ledger entries of username.
// An identity without a backing user gets an empty list.
func (s *bankService) ListRecent(ctx context.Context, username string, limit int) ([]*models.Transaction, error) {
	return s.txRepo.ListRecentByUsername(ctx, username, normalizeLimit(limit))
}

// normalizeLimit clamps limit to [1, MaxTransactionLimit], defaulting non-positive values
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultTransactionLimit
	}
	if limit > MaxTransactionLimit {
		return MaxTransactionLimit
	}
	return limit
}
