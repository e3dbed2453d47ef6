package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
)

// Transactor runs fn inside one unit of work. Nested calls join the outer unit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// dbtx is satisfied by both *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// conn returns the transaction bound to ctx, or db.
func conn(ctx context.Context, db *sqlx.DB) dbtx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

type SQLTransactor struct {
	DB *sqlx.DB
}

var _ Transactor = (*SQLTransactor)(nil)

func (t *SQLTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// rowsAffected turns a zero-row update into NotFound.
func rowsAffected(res interface{ RowsAffected() (int64, error) }, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("%s %s not found", what, id)
	}
	return nil
}
