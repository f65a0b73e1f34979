package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/agendei/agendei/internal/domain"
)

// PostgreSQL error codes mapped to domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidTextRepr     = "22P02"
)

// activeSlotConstraint is the partial unique index over active appointments.
const activeSlotConstraint = "appointments_active_slot_uq"

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// nullIfEmpty returns nil for empty strings (for nullable columns).
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// orEmpty returns items unchanged if non-nil, or an empty slice if nil.
// Useful to ensure JSON serialization produces [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// classify converts a driver error into the domain taxonomy. Messages name
// only the operation, never a tenant.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			if pgErr.ConstraintName == activeSlotConstraint {
				return fmt.Errorf("%s: %w", op, domain.Conflict("slot already taken"))
			}
			return fmt.Errorf("%s: %w", op, domain.Conflict("duplicate %s", pgErr.ConstraintName))
		case codeForeignKeyViolation:
			// the referenced record does not exist in the bound tenant
			return fmt.Errorf("%s: referenced record: %w", op, domain.ErrNotFound)
		case codeInvalidTextRepr:
			// an id that is not a UUID cannot name any record
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		case codeCheckViolation:
			return fmt.Errorf("%s: %w", op, domain.Validation("constraint %s", pgErr.ConstraintName))
		}
	}
	return &domain.StoreError{Op: op, Err: err}
}

// expectOne verifies that an Exec affected exactly one row. Zero rows means
// the target is absent from the bound tenant.
func expectOne(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return classify(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
