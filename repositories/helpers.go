package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Postgres SQLSTATE codes the repositories react to.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
)

func pqErrorCode(err error) (pq.ErrorCode, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code, true
	}
	return "", false
}

// classifyGameWriteError maps constraint violations on the games table to
// sentinel errors. ok is false when err is not one of them.
func classifyGameWriteError(err error) (sentinel error, ok bool) {
	code, isPq := pqErrorCode(err)
	if !isPq {
		return nil, false
	}
	switch code {
	case pgUniqueViolation:
		return ErrGameNameConflict, true
	case pgForeignKeyViolation:
		return ErrPublisherNotFound, true
	case pgNotNullViolation:
		return ErrGameFieldRequired, true
	default:
		return nil, false
	}
}

func singleRowAffected(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}
