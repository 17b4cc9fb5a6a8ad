package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// MapError translates database errors to domain errors.
//
// sql.ErrNoRows and foreign key violations (23503) map to notFoundErr: a
// row that references a missing parent is reported as the parent not
// existing. Unique violations (23505) map to duplicateErr. Other errors
// are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return duplicateErr
		case pgForeignKeyViolation:
			return notFoundErr
		}
	}

	return err
}
