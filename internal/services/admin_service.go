package services

import (
	"context"

	"github.com/kodbank/backend/internal/models"
	"go.uber.org/zap"
)

// AdminUserRepository is the user data access needed by the admin service
type AdminUserRepository interface {
	GetProfile(ctx context.Context, username string) (*models.ProfileResponse, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// adminService implements read-only lookups over any account
type adminService struct {
	userRepo AdminUserRepository
	txRepo   TransactionRepository
	logger   *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo AdminUserRepository, txRepo TransactionRepository, logger *zap.Logger) *adminService {
	return &adminService{
		userRepo: userRepo,
		txRepo:   txRepo,
		logger:   logger,
	}
}

// GetUser returns the profile of any user
func (s *adminService) GetUser(ctx context.Context, username string) (*models.ProfileResponse, error) {
	return s.userRepo.GetProfile(ctx, username)
}

// ListUserTransactions returns the ledger of any user without appending to it.
// Unlike the self-service listing, an unknown username is reported as models.ErrUserNotFound.
func (s *adminService) ListUserTransactions(ctx context.Context, username string, limit int) ([]*models.Transaction, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.ErrUserNotFound
	}

	return s.txRepo.ListRecentByUsername(ctx, username, normalizeLimit(limit))
}
