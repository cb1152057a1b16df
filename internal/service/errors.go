package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoProfile is the absence signal: no profile is persisted and no usable
// fallback was supplied. Callers must treat it as "insufficient data" and
// fall back to a generic style, not as a failure.
var ErrNoProfile = errors.New("no style profile for connection")

// ErrTxConflict marks a write collision in store implementations that do not
// speak Postgres error codes (in-memory stores in tests).
var ErrTxConflict = errors.New("style profile transaction conflict")

// ConflictError is the terminal form of a write collision: the read-merge-
// write unit was retried once and failed again. The email's contribution is
// dropped (best effort, not guaranteed delivery).
type ConflictError struct {
	ConnectionID string
	Err          error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("profile update conflict for connection %s: %v", e.ConnectionID, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// isRetryableTxError reports whether a failed read-merge-write unit is worth
// exactly one more attempt. Covers Postgres serialization failures,
// deadlocks, lock timeouts, and the unique-key race of two concurrent
// bootstraps for the same connection (the retry then takes the row-lock
// path).
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03", // lock_not_available
			"23505": // unique_violation (concurrent bootstrap)
			return true
		}
	}
	return errors.Is(err, ErrTxConflict)
}
