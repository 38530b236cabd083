package dbx

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolationCode is SQLSTATE unique_violation.
const uniqueViolationCode = "23505"

// UniqueViolation reports whether err is a PostgreSQL unique violation and,
// if so, the name of the violated constraint.
func UniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return "", false
	}
	return pgErr.ConstraintName, true
}
