package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/utafrali/catalog/pkg/errors"
)

const (
	sqlStateNumericOutOfRange   = "22003"
	sqlStateForeignKeyViolation = "23503"
	sqlStateUniqueViolation     = "23505"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == sqlStateUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == sqlStateForeignKeyViolation
}

// outOfRange turns a numeric overflow into a 400 so values the column cannot
// hold never surface as internal errors. It returns nil for anything else.
func outOfRange(err error, resource string) error {
	if pgErrorCode(err) == sqlStateNumericOutOfRange {
		return apperrors.InvalidInput(resource + " has a numeric value out of range")
	}
	return nil
}
