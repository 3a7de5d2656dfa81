package httpkit

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the handlers react to.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgUndefinedTable      = "42P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUndefinedTable reports a query against a table the migrations have not
// created yet.
func IsUndefinedTable(err error) bool { return pgCode(err) == pgUndefinedTable }

func IsUniqueViolation(err error) bool { return pgCode(err) == pgUniqueViolation }

// IsForeignKeyViolation reports a delete blocked by a row that still
// references it, such as an asset used by a job output.
func IsForeignKeyViolation(err error) bool { return pgCode(err) == pgForeignKeyViolation }
