package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint failure from
// Postgres (pgx or lib/pq) or sqlite. A non-empty constraint narrows the match
// to constraints or columns containing that text.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgUniqueViolation && mentions(pgxErr.ConstraintName+" "+pgxErr.Message, constraint)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation && mentions(pqErr.Constraint+" "+pqErr.Message, constraint)
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return mentions(msg, constraint)
}

func mentions(haystack, needle string) bool {
	return needle == "" || strings.Contains(haystack, needle)
}
