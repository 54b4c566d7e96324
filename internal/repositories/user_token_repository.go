package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kodbank/backend/internal/models"
)

// userTokenRepository implements UserTokenRepository.
// Rows are an audit trail of issued session tokens and are never read on the validation path.
type userTokenRepository struct {
	db *sql.DB
}

// NewUserTokenRepository creates a new user token repository
func NewUserTokenRepository(db *sql.DB) *userTokenRepository {
	return &userTokenRepository{
		db: db,
	}
}

// Create inserts a new user token into the database
func (r *userTokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	query := `
		INSERT INTO user_tokens (user_id, token, expires_at)
		VALUES (?, ?, ?)
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, userToken.UserID, userToken.Token, userToken.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create user token: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	userToken.ID = int(id)
	return nil
}

// DeleteExpiredTokens deletes all user tokens whose expiry is at or before now
func (r *userTokenRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE FROM user_tokens WHERE expires_at <= ?`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
