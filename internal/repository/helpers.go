package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postcraft/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

func newNanoID() (string, error) {
	return gonanoid.New()
}

// conn is satisfied by both *sql.DB and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func pick(db *sql.DB, tx *sql.Tx) conn {
	if tx != nil {
		return tx
	}
	return db
}

type rowScanner interface {
	Scan(dest ...any) error
}

func persistenceError(op string, err error) error {
	slog.Info(err.Error(), "op", op)
	return models.NewPersistenceError(op, err)
}

func nullIfEmpty(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func optionalString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return nullIfEmpty(*v)
}
