package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint failure. When
// names are given, the failure must reference one of them: a Postgres
// constraint name, or the "table.column" pair SQLite reports.
func IsUniqueViolation(err error, names ...string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return matchesAny(pgErr.ConstraintName+" "+pgErr.Message+" "+pgErr.Detail, names)
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	isUnique := errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(lower, "duplicate key value") ||
		strings.Contains(lower, "unique constraint failed")
	if !isUnique {
		return false
	}
	return matchesAny(msg, names)
}

func matchesAny(haystack string, names []string) bool {
	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if name != "" && strings.Contains(haystack, name) {
			return true
		}
	}
	return false
}
