package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/kodbank/backend/internal/models"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations
const mysqlDuplicateEntry = 1062

// userRepository implements UserRepository
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, phone, balance, role)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, user.Username, user.Email, user.PasswordHash, nullString(user.Phone), user.Balance, user.Role)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return models.ErrDuplicateIdentity
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = int(id)
	return nil
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, phone, balance, role
		FROM users
		WHERE username = ?
		LIMIT 1
	`

	user := &models.User{}
	var phone sql.NullString
	err := conn(ctx, r.db).QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&phone,
		&user.Balance,
		&user.Role,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by username", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	user.Phone = phone.String
	return user, nil
}

// GetProfile retrieves the public profile of a user together with its ledger size
func (r *userRepository) GetProfile(ctx context.Context, username string) (*models.ProfileResponse, error) {
	query := `
		SELECT u.username, u.email, u.phone, u.role,
			(SELECT COUNT(*) FROM transactions t WHERE t.user_id = u.id)
		FROM users u
		WHERE u.username = ?
		LIMIT 1
	`

	profile := &models.ProfileResponse{}
	var phone sql.NullString
	err := conn(ctx, r.db).QueryRowContext(ctx, query, username).Scan(
		&profile.Username,
		&profile.Email,
		&phone,
		&profile.Role,
		&profile.TransactionCount,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user profile", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	profile.Phone = phone.String
	return profile, nil
}

// ExistsByEmail checks if a user exists with the given email
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM users WHERE email = ?)`

	var exists bool
	err := conn(ctx, r.db).QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check email existence", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// ExistsByUsername checks if a user exists with the given username
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM users WHERE username = ?)`

	var exists bool
	err := conn(ctx, r.db).QueryRowContext(ctx, query, username).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check username existence", zap.Error(err), zap.String("username", username))
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// UpdatePasswordHash replaces the stored password hash of a user
func (r *userRepository) UpdatePasswordHash(ctx context.Context, userID int, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE id = ?`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		r.logger.Error("failed to update password hash", zap.Error(err), zap.Int("userId", userID))
		return fmt.Errorf("failed to update password hash: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
