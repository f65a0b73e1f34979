package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/port/database"
)

// tenantField is the attribute name callers might try to filter on. It is
// never honored: the bound tenant is always the first predicate.
const tenantField = "tenant_id"

// relation describes how a tenant-owned record type is read.
type relation[T any] struct {
	name    string            // singular noun for error messages
	from    string            // table with alias, plus same-tenant joins
	alias   string            // alias of the owning table
	columns string            // select list
	fields  map[string]string // filterable attribute -> qualified column
	order   string
	scan    func(scannable) (T, error)
}

func (r relation[T]) tenantColumn() string { return r.alias + ".tenant_id" }
func (r relation[T]) idColumn() string     { return r.alias + ".id" }

// assignment is one column = value pair of an insert or update.
type assignment struct {
	column string
	value  any
}

func set(column string, value any) assignment {
	return assignment{column: column, value: value}
}

// page bounds a findMany result. Zero means unbounded.
type page struct {
	limit  int
	offset int
}

// args accumulates positional parameters.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

// buildSelect renders a read of rel constrained to tenantID. The tenant
// predicate comes first and a caller condition on the tenant is dropped, so
// the bound tenant always wins. Unknown fields are rejected rather than
// ignored, so a typo can never widen a result set.
func buildSelect[T any](rel relation[T], tenantID string, conds []database.Cond, p page) (string, []any, error) {
	var a args
	where := []string{rel.tenantColumn() + " = " + a.add(tenantID)}

	for _, c := range conds {
		if c.Field == tenantField {
			continue
		}
		col, ok := rel.fields[c.Field]
		if !ok {
			return "", nil, domain.Validation("unknown %s filter %q", rel.name, c.Field)
		}
		op := c.Op
		if op == "" {
			op = database.OpEq
		}
		if !op.Valid() {
			return "", nil, domain.Validation("unsupported operator %q", c.Op)
		}
		where = append(where, col+" "+string(op)+" "+a.add(c.Value))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s", rel.columns, rel.from, strings.Join(where, " AND "))
	if rel.order != "" {
		b.WriteString(" ORDER BY " + rel.order)
	}
	if p.limit > 0 {
		b.WriteString(" LIMIT " + a.add(p.limit))
	}
	if p.offset > 0 {
		b.WriteString(" OFFSET " + a.add(p.offset))
	}
	return b.String(), a, nil
}

// buildInsert renders an insert into table stamped with tenantID. Any
// tenant_id assignment in values is discarded.
func buildInsert(table, tenantID string, values []assignment, returning string) (string, []any) {
	var a args
	cols := []string{"tenant_id"}
	placeholders := []string{a.add(tenantID)}
	for _, v := range values {
		if v.column == tenantField {
			continue
		}
		cols = append(cols, v.column)
		placeholders = append(placeholders, a.add(v.value))
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if returning != "" {
		q += " RETURNING " + returning
	}
	return q, a
}

// buildUpdate renders an update of one row addressed by (id, tenantID).
// tenant_id is never written. guards add conditions that must hold on the
// current row, which turns the update into a compare-and-set.
func buildUpdate(table, tenantID, id string, values []assignment, guards []database.Cond) (string, []any, error) {
	var a args
	sets := make([]string, 0, len(values)+1)
	for _, v := range values {
		if v.column == tenantField {
			continue
		}
		sets = append(sets, v.column+" = "+a.add(v.value))
	}
	if len(sets) == 0 {
		return "", nil, domain.Validation("nothing to update")
	}
	if hasUpdatedAt[table] {
		sets = append(sets, "updated_at = now()")
	}

	where := []string{"id = " + a.add(id), "tenant_id = " + a.add(tenantID)}
	for _, g := range guards {
		if g.Field == tenantField {
			continue
		}
		op := g.Op
		if op == "" {
			op = database.OpEq
		}
		if !op.Valid() {
			return "", nil, domain.Validation("unsupported operator %q", g.Op)
		}
		if list, ok := g.Value.([]string); ok {
			// set membership, used by transitions with several source states
			where = append(where, g.Field+" = ANY("+a.add(list)+")")
			continue
		}
		where = append(where, g.Field+" "+string(op)+" "+a.add(g.Value))
	}

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ", "), strings.Join(where, " AND "))
	return q, a, nil
}

// buildDelete renders a delete of one row addressed by (id, tenantID).
func buildDelete(table, tenantID, id string) (string, []any) {
	return fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND tenant_id = $2", table), []any{id, tenantID}
}

var hasUpdatedAt = map[string]bool{
	"services":           true,
	"professionals":      true,
	"users":              true,
	"appointments":       true,
	"storefront_configs": true,
}
