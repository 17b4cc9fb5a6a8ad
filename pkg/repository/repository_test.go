package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/vantage/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapError(t *testing.T) {
	other := errors.New("connection reset")
	check := &pgconn.PgError{Code: "23514"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("find: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, errNotFound},
		{"check violation", check, check},
		{"other", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			if !errors.Is(got, tt.want) {
				t.Errorf("MapError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBuildInsert(t *testing.T) {
	query, args, err := repository.BuildInsert(
		"assessment_results",
		[]string{"uid", "damage_class"},
		[][]any{{"a", "destroyed"}, {"b", "no-damage"}},
	)
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}

	wantQuery := "INSERT INTO assessment_results (uid, damage_class) VALUES ($1, $2), ($3, $4)"
	if query != wantQuery {
		t.Errorf("query:\ngot  %s\nwant %s", query, wantQuery)
	}
	if diff := cmp.Diff([]any{"a", "destroyed", "b", "no-damage"}, args); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
}

func TestBuildInsertRowWidth(t *testing.T) {
	_, _, err := repository.BuildInsert("t", []string{"a", "b"}, [][]any{{1}})
	if err == nil {
		t.Error("expected error for short row")
	}
}

type recorder struct {
	queries []string
	params  []int
	fail    error
}

func (r *recorder) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	r.queries = append(r.queries, query)
	r.params = append(r.params, len(args))
	return nil, r.fail
}

func TestInsertRowsSplitsStatements(t *testing.T) {
	columns := []string{"a", "b", "c"}
	perStatement := repository.MaxParams / len(columns)

	rows := make([][]any, perStatement+10)
	for i := range rows {
		rows[i] = []any{i, i, i}
	}

	rec := &recorder{}
	if err := repository.InsertRows(context.Background(), rec, "t", columns, rows); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}

	if len(rec.queries) != 2 {
		t.Fatalf("statements: got %d, want 2", len(rec.queries))
	}
	if diff := cmp.Diff([]int{perStatement * 3, 30}, rec.params); diff != "" {
		t.Errorf("params per statement (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(rec.queries[1], "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)") {
		t.Errorf("second statement should restart numbering: %s", rec.queries[1][:60])
	}
}

func TestInsertRowsEmpty(t *testing.T) {
	rec := &recorder{}
	if err := repository.InsertRows(context.Background(), rec, "t", []string{"a"}, nil); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	if len(rec.queries) != 0 {
		t.Errorf("no statements expected, got %d", len(rec.queries))
	}
}

func TestInsertRowsExecError(t *testing.T) {
	rec := &recorder{fail: &pgconn.PgError{Code: "23505"}}
	err := repository.InsertRows(context.Background(), rec, "t", []string{"a"}, [][]any{{1}})

	if got := repository.MapError(err, errNotFound, errDuplicate); !errors.Is(got, errDuplicate) {
		t.Errorf("wrapped exec error should still map to duplicate, got %v", got)
	}
}
