package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/port/database"
)

// Scoped is a handle bound to one tenant. Every statement it issues goes
// through the helpers below, which add the tenant predicate on reads,
// stamp the tenant on inserts and address updates and deletes by
// (id, tenant). It holds no other state and is safe to share.
type Scoped struct {
	pool     *pgxpool.Pool
	q        querier
	tenantID string
	inTx     bool
}

var _ database.Scoped = (*Scoped)(nil)

// TenantID returns the bound tenant.
func (s *Scoped) TenantID() string { return s.tenantID }

// InTx runs fn inside one transaction bound to the same tenant. A nested
// call joins the outer transaction.
func (s *Scoped) InTx(ctx context.Context, fn func(database.Scoped) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Scoped{pool: s.pool, q: tx, tenantID: s.tenantID, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify("commit tx", err)
	}
	return nil
}

func findOne[T any](ctx context.Context, s *Scoped, rel relation[T], conds ...database.Cond) (T, error) {
	var zero T
	sql, args, err := buildSelect(rel, s.tenantID, conds, page{limit: 1})
	if err != nil {
		return zero, err
	}
	v, err := rel.scan(s.q.QueryRow(ctx, sql, args...))
	if err != nil {
		return zero, classify("get "+rel.name, err)
	}
	return v, nil
}

func findByID[T any](ctx context.Context, s *Scoped, rel relation[T], id string) (T, error) {
	v, err := findOne(ctx, s, rel, database.Cond{Field: "id", Op: database.OpEq, Value: id})
	if err != nil && errors.Is(err, domain.ErrNotFound) {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", rel.name, id, domain.ErrNotFound)
	}
	return v, err
}

func findMany[T any](ctx context.Context, s *Scoped, rel relation[T], p page, conds ...database.Cond) ([]T, error) {
	sql, args, err := buildSelect(rel, s.tenantID, conds, p)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify("list "+rel.name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := rel.scan(rows)
		if err != nil {
			return nil, classify("scan "+rel.name, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list "+rel.name, err)
	}
	return orEmpty(out), nil
}

// insert writes one row stamped with the bound tenant and scans the
// RETURNING columns into dest.
func insert(ctx context.Context, s *Scoped, table string, values []assignment, returning string, dest ...any) error {
	sql, args := buildInsert(table, s.tenantID, values, returning)
	if returning == "" {
		_, err := s.q.Exec(ctx, sql, args...)
		return classify("insert "+table, err)
	}
	return classify("insert "+table, s.q.QueryRow(ctx, sql, args...).Scan(dest...))
}

// update changes one row of the bound tenant. It never reports success when
// no row matched.
func update(ctx context.Context, s *Scoped, table, id string, values []assignment, guards ...database.Cond) error {
	sql, args, err := buildUpdate(table, s.tenantID, id, values, guards)
	if err != nil {
		return err
	}
	tag, err := s.q.Exec(ctx, sql, args...)
	return expectOne("update "+table, tag, err)
}

// remove deletes one row of the bound tenant. A row still referenced by
// another record is a conflict.
func remove(ctx context.Context, s *Scoped, table, id string) error {
	sql, args := buildDelete(table, s.tenantID, id)
	tag, err := s.q.Exec(ctx, sql, args...)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("delete %s: %w", table, domain.Conflict("record is still referenced"))
	}
	return expectOne("delete "+table, tag, err)
}

// replaceAll swaps the full set of rows of table owned by the bound tenant.
func replaceAll(ctx context.Context, s *Scoped, table string, rows [][]assignment) error {
	return s.InTx(ctx, func(h database.Scoped) error {
		tx := h.(*Scoped)
		if _, err := tx.q.Exec(ctx, "DELETE FROM "+table+" WHERE tenant_id = $1", tx.tenantID); err != nil {
			return classify("clear "+table, err)
		}
		for _, values := range rows {
			if err := insert(ctx, tx, table, values, ""); err != nil {
				return err
			}
		}
		return nil
	})
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}
