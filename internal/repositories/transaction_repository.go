package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kodbank/backend/internal/models"
	"go.uber.org/zap"
)

// transactionRepository implements TransactionRepository.
// The ledger is append-only: there is no update or delete path.
type transactionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTransactionRepository creates a new ledger repository
func NewTransactionRepository(db *sql.DB, logger *zap.Logger) *transactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a ledger entry
func (r *transactionRepository) Create(ctx context.Context, entry *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, type, amount, description, status)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, entry.UserID, entry.Kind, entry.Amount, entry.Description, entry.Status)
	if err != nil {
		r.logger.Error("failed to create transaction", zap.Error(err), zap.Int("userId", entry.UserID))
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = int(id)
	return nil
}

// ListRecentByUsername returns at most limit ledger entries of the user, newest first.
// An unknown username yields an empty slice.
func (r *transactionRepository) ListRecentByUsername(ctx context.Context, username string, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT t.id, t.user_id, t.type, t.amount, t.description, t.status, t.created_at
		FROM transactions t
		INNER JOIN users u ON u.id = t.user_id
		WHERE u.username = ?
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ?
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, username, limit)
	if err != nil {
		r.logger.Error("failed to list transactions", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.Transaction, 0, limit)
	for rows.Next() {
		entry := &models.Transaction{}
		var description sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Kind,
			&entry.Amount,
			&description,
			&entry.Status,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		entry.Description = description.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return entries, nil
}
