// Package query builds parameterized SELECT statements over a projection
// of logical field names onto qualified columns.
package query

import (
	"fmt"
	"strings"
)

type join struct {
	kind   string
	schema string
	table  string
	alias  string
	on     string
}

// ProjectionMap maps logical field names to qualified column references
// (alias.column) over a base table and any joined tables.
type ProjectionMap struct {
	schema     string
	table      string
	alias      string
	current    string
	joins      []join
	columns    map[string]string
	columnList []string
}

// NewProjectionMap creates a ProjectionMap for the given schema, table, and alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		current: alias,
		columns: make(map[string]string),
	}
}

// Project maps a column of the most recently added table to a field name.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := fmt.Sprintf("%s.%s", p.current, column)
	p.columns[field] = qualified
	p.columnList = append(p.columnList, qualified)
	return p
}

// ProjectExpr maps a SQL expression to a field name. The expression is
// emitted verbatim, so it must reference aliases that are in scope.
func (p *ProjectionMap) ProjectExpr(expr, field string) *ProjectionMap {
	p.columns[field] = expr
	p.columnList = append(p.columnList, expr)
	return p
}

// Join adds a joined table. Subsequent Project calls qualify columns with
// the joined alias.
func (p *ProjectionMap) Join(schema, table, alias, kind, on string) *ProjectionMap {
	p.joins = append(p.joins, join{kind: kind, schema: schema, table: table, alias: alias, on: on})
	p.current = alias
	return p
}

// From returns the FROM clause body including joins.
func (p *ProjectionMap) From() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s.%s %s", p.schema, p.table, p.alias)
	for _, j := range p.joins {
		fmt.Fprintf(&b, " %s %s.%s %s ON %s", j.kind, j.schema, j.table, j.alias, j.on)
	}
	return b.String()
}

// Column returns the qualified column for a field name, or the input if not mapped.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.columns[field]; ok {
		return col
	}
	return field
}

// Columns returns all mapped columns as a comma-separated string.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.columnList, ", ")
}
