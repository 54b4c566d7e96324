package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kodbank/backend/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	user                   *models.User
	getErr                 error
	createErr              error
	profile                *models.ProfileResponse
	profileErr             error
	existsByEmailResult    bool
	existsByEmailError     error
	existsByUsernameResult bool
	existsByUsernameError  error
	updateErr              error

	mu          sync.Mutex
	created     []*models.User
	updatedHash string
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = 1
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *mockUserRepository) GetProfile(ctx context.Context, username string) (*models.ProfileResponse, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profile, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailError != nil {
		return false, m.existsByEmailError
	}
	return m.existsByEmailResult, nil
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameError != nil {
		return false, m.existsByUsernameError
	}
	return m.existsByUsernameResult, nil
}

func (m *mockUserRepository) UpdatePasswordHash(ctx context.Context, userID int, passwordHash string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedHash = passwordHash
	return nil
}

// mockUserTokenRepository is a mock implementation of UserTokenRepository
type mockUserTokenRepository struct {
	err          error
	saved        []*models.UserToken
	deletedCount int
}

func (m *mockUserTokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, userToken)
	return nil
}

func (m *mockUserTokenRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.deletedCount, nil
}

// mockTransactionRepository is a mock implementation of TransactionRepository
type mockTransactionRepository struct {
	createErr error
	entries   []*models.Transaction
	listErr   error

	created   []*models.Transaction
	lastLimit int
}

func (m *mockTransactionRepository) Create(ctx context.Context, entry *models.Transaction) error {
	if m.createErr != nil {
		return m.createErr
	}
	entry.ID = len(m.created) + 1
	m.created = append(m.created, entry)
	return nil
}

func (m *mockTransactionRepository) ListRecentByUsername(ctx context.Context, username string, limit int) ([]*models.Transaction, error) {
	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.entries == nil {
		return []*models.Transaction{}, nil
	}
	return m.entries, nil
}

// mockTransactionScope runs fn directly and counts how often a unit of work was opened
type mockTransactionScope struct {
	calls int
}

func (m *mockTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

// newObservedLogger returns a logger whose entries can be inspected
func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return zap.New(core), logs
}

// securityEvents returns the event names written to the security logger
func securityEvents(t *testing.T, logs *observer.ObservedLogs) []string {
	t.Helper()
	var events []string
	for _, entry := range logs.FilterLoggerName(securityLogName).FilterMessage("security event").All() {
		events = append(events, entry.ContextMap()["event"].(string))
	}
	return events
}
