package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kodbank/backend/internal/auth/password"
	"github.com/kodbank/backend/internal/auth/service"
	"github.com/kodbank/backend/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user, its ID is set on success.
	//
	// If the username or email is taken, models.ErrDuplicateIdentity is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByUsername retrieves a user by username.
	//
	// If user with such username does not exist, models.ErrUserNotFound is returned together with "nil" value.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Method GetProfile retrieves the public profile of a user with its ledger size.
	//
	// If user with such username does not exist, models.ErrUserNotFound is returned together with "nil" value.
	GetProfile(ctx context.Context, username string) (*models.ProfileResponse, error)
	// Method ExistsByEmail checks if a user with such email exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method ExistsByUsername checks if a user with such username exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Method UpdatePasswordHash replaces the stored password hash.
	//
	// If user with such ID does not exist, models.ErrUserNotFound is returned.
	UpdatePasswordHash(ctx context.Context, userID int, passwordHash string) error
}

// UserTokenRepository is the interface that wraps methods for UserToken table data access.
// The table is an audit trail and is never consulted to validate a session.
type UserTokenRepository interface {
	// Method Create persists an issued session token.
	//
	// "userToken" parameter is used to create a new audit record, its ID is set on success.
	Create(ctx context.Context, userToken *models.UserToken) error
	// Method DeleteExpiredTokens deletes audit records whose expiry is at or before "now".
	//
	// Returns the number of deleted records.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}

// TransactionRepository is the interface that wraps methods for the ledger table.
// There is no update or delete: entries are immutable once written.
type TransactionRepository interface {
	// Method Create appends a ledger entry, its ID is set on success.
	Create(ctx context.Context, entry *models.Transaction) error
	// Method ListRecentByUsername returns at most "limit" entries of the user, newest first.
	//
	// An unknown username yields an empty slice, not an error.
	ListRecentByUsername(ctx context.Context, username string, limit int) ([]*models.Transaction, error)
}

// TransactionScope runs fn atomically. Repository calls made with the ctx passed to fn
// share one database transaction.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// LoginResult is what a successful login hands to the transport layer
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Username  string
	Role      models.Role
}

// authService implements AuthService
type authService struct {
	userRepo       UserRepository
	userTokenRepo  UserTokenRepository
	txRepo         TransactionRepository
	scope          TransactionScope
	tokenGenerator *service.TokenGenerator
	openingBalance decimal.Decimal
	logger         *zap.Logger
	securityLogger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	userTokenRepo UserTokenRepository,
	txRepo TransactionRepository,
	scope TransactionScope,
	tokenGenerator *service.TokenGenerator,
	openingBalance decimal.Decimal,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:       userRepo,
		userTokenRepo:  userTokenRepo,
		txRepo:         txRepo,
		scope:          scope,
		tokenGenerator: tokenGenerator,
		openingBalance: openingBalance,
		logger:         logger,
		securityLogger: logger.Named(securityLogName),
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 5
	// bcrypt ignores input beyond 72 bytes
	maxPasswordLength = 72
	maxPhoneLength    = 20
	// users.email is VARCHAR(255)
	maxEmailLength = 255
)

// Register creates a new Customer account and seeds its ledger.
// The user row and the opening entries are written in one transaction.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (int, error) {
	if err := s.tokenGenerator.Ready(); err != nil {
		return 0, err
	}

	normalizedEmail, normalizedUsername, err := checkRegisterCredentials(ctx, s.userRepo, req.Email, req.Username, req.Password)
	if err != nil {
		return 0, err
	}

	phone := strings.TrimSpace(req.Phone)
	if utf8.RuneCountInString(phone) > maxPhoneLength {
		return 0, fmt.Errorf("%w: phone must be at most %d characters", ErrValidation, maxPhoneLength)
	}

	passwordHash, err := password.Hash(req.Password)
	if err != nil {
		return 0, err
	}

	user := &models.User{
		Username:     normalizedUsername,
		Email:        normalizedEmail,
		PasswordHash: passwordHash,
		Phone:        phone,
		Role:         models.RoleCustomer,
		Balance:      s.openingBalance,
	}

	err = s.scope.Execute(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
		for _, entry := range models.OpeningTransactions(user.ID, s.openingBalance) {
			if err := s.txRepo.Create(ctx, entry); err != nil {
				return fmt.Errorf("failed to seed opening ledger: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logSecurityEvent(s.securityLogger, EventUserRegistration, user.ID, "Username: "+user.Username)
	return user.ID, nil
}

// Login verifies credentials and issues a session token.
// Unknown usernames and wrong passwords both return ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*LoginResult, error) {
	if err := s.tokenGenerator.Ready(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		logSecurityEvent(s.securityLogger, EventLoginFailure, 0, "Unknown username: "+username)
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		logSecurityEvent(s.securityLogger, EventLoginFailure, 0, "Unknown username: "+username)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		logSecurityEvent(s.securityLogger, EventLoginFailureWrongPassword, user.ID, "Username: "+username)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokenGenerator.GenerateToken(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	userToken := &models.UserToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := s.userTokenRepo.Create(ctx, userToken); err != nil {
		return nil, fmt.Errorf("failed to save session token: %w", err)
	}

	logSecurityEvent(s.securityLogger, EventLoginSuccess, user.ID, "Role: "+string(user.Role))
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Username:  user.Username,
		Role:      user.Role,
	}, nil
}

// ChangePassword rotates the password of username after checking the current one
func (s *authService) ChangePassword(ctx context.Context, username string, req *models.ChangePasswordRequest) error {
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if !password.Verify(req.CurrentPassword, user.PasswordHash) {
		logSecurityEvent(s.securityLogger, EventPasswordChangeFailure, user.ID, "Username: "+username)
		return ErrWrongPassword
	}

	passwordHash, err := password.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, passwordHash); err != nil {
		return err
	}

	logSecurityEvent(s.securityLogger, EventPasswordChanged, user.ID, "Username: "+username)
	return nil
}

// Profile returns the profile of the authenticated user
func (s *authService) Profile(ctx context.Context, username string) (*models.ProfileResponse, error) {
	return s.userRepo.GetProfile(ctx, username)
}

// Logout records the end of a session. The signed token itself stays valid until it expires.
func (s *authService) Logout(ctx context.Context, username string) {
	logSecurityEvent(s.securityLogger, EventLogout, 0, "Username: "+username)
}

func validatePassword(plaintext string) error {
	if len(plaintext) < minPasswordLength || len(plaintext) > maxPasswordLength {
		return fmt.Errorf("%w: password must be between %d and %d bytes long", ErrValidation, minPasswordLength, maxPasswordLength)
	}
	return nil
}

// Method that combines all checks for register credentials
//
// The checks do not depend on each other, so they run in parallel goroutines.
// The uniqueness checks only give an early answer: the unique keys of the users
// table stay authoritative when two registrations race.
func checkRegisterCredentials(ctx context.Context, userRepo UserRepository, email, username, plaintext string) (string, string, error) {
	validationErrors := make(chan error, 3)
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	normalizedUsername := strings.TrimSpace(username)

	// Validate password
	go func() {
		validationErrors <- validatePassword(plaintext)
	}()

	// Validate email and check its uniqueness
	go func() {
		if utf8.RuneCountInString(normalizedEmail) > maxEmailLength {
			validationErrors <- fmt.Errorf("%w: email must be at most %d characters", ErrValidation, maxEmailLength)
			return
		}
		if !emailRegex.MatchString(normalizedEmail) {
			validationErrors <- fmt.Errorf("%w: invalid email format", ErrValidation)
			return
		}
		emailExists, err := userRepo.ExistsByEmail(ctx, normalizedEmail)
		if err != nil {
			validationErrors <- fmt.Errorf("failed to check email: %w", err)
			return
		}
		if emailExists {
			validationErrors <- models.ErrDuplicateIdentity
			return
		}
		validationErrors <- nil
	}()

	// Validate username and check its uniqueness
	go func() {
		length := utf8.RuneCountInString(normalizedUsername)
		if length < minUsernameLength || length > maxUsernameLength {
			validationErrors <- fmt.Errorf("%w: username must be between %d and %d characters long", ErrValidation, minUsernameLength, maxUsernameLength)
			return
		}
		usernameExists, err := userRepo.ExistsByUsername(ctx, normalizedUsername)
		if err != nil {
			validationErrors <- fmt.Errorf("failed to check username: %w", err)
			return
		}
		if usernameExists {
			validationErrors <- models.ErrDuplicateIdentity
			return
		}
		validationErrors <- nil
	}()

	for range 3 {
		if err := <-validationErrors; err != nil {
			return "", "", err
		}
	}

	return normalizedEmail, normalizedUsername, nil
}
