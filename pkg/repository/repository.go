// Package repository provides database helpers for transactions, typed
// row scanning, and batched inserts.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MaxParams is the PostgreSQL limit on bind parameters per statement.
const MaxParams = 65535

// Querier is implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor is implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Scanner abstracts row scanning so *sql.Row and *sql.Rows share scan functions.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc converts a Scanner into a typed value.
type ScanFunc[T any] func(Scanner) (T, error)

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error.
func WithTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, err
	}

	return result, nil
}

// QueryOne executes a query expected to return a single row.
func QueryOne[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) (T, error) {
	return scan(q.QueryRowContext(ctx, query, args...))
}

// QueryMany executes a query and scans every row. It returns an empty,
// non-nil slice when no rows match.
func QueryMany[T any](ctx context.Context, q Querier, query string, args []any, scan ScanFunc[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	return results, rows.Err()
}

// ExecExpectOne executes a statement expected to affect exactly one row.
// It returns sql.ErrNoRows if no rows were affected.
func ExecExpectOne(ctx context.Context, e Executor, query string, args ...any) error {
	result, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// InsertRows writes rows into table with multi-row INSERT statements,
// splitting the rows so no statement exceeds MaxParams. Every row must
// carry one value per column.
func InsertRows(ctx context.Context, e Executor, table string, columns []string, rows [][]any) error {
	if len(columns) == 0 {
		return fmt.Errorf("insert %s: no columns", table)
	}

	perStatement := MaxParams / len(columns)
	for start := 0; start < len(rows); start += perStatement {
		end := min(start+perStatement, len(rows))

		query, args, err := BuildInsert(table, columns, rows[start:end])
		if err != nil {
			return err
		}
		if _, err := e.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %s rows %d-%d: %w", table, start, end-1, err)
		}
	}

	return nil
}

// BuildInsert renders a single multi-row INSERT for rows with
// sequentially numbered parameters.
func BuildInsert(table string, columns []string, rows [][]any) (string, []any, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("insert %s: row %d has %d values, want %d", table, i, len(row), len(columns))
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, v)
			fmt.Fprintf(&b, "$%d", len(args))
		}
		b.WriteByte(')')
	}

	return b.String(), args, nil
}
