package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// dbtx is the subset of *sql.DB and *sql.Tx used by repositories
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// conn returns the transaction carried by ctx, or db when there is none
func conn(ctx context.Context, db *sql.DB) dbtx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// TransactionScope runs repository calls atomically.
// Repositories called with the context passed to fn share one database transaction.
type TransactionScope struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTransactionScope creates a new transaction scope
func NewTransactionScope(db *sql.DB, logger *zap.Logger) *TransactionScope {
	return &TransactionScope{
		db:     db,
		logger: logger,
	}
}

// Execute runs fn within a database transaction.
// If fn returns an error the transaction is rolled back, otherwise it is committed.
// Nested calls reuse the outer transaction.
func (s *TransactionScope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
