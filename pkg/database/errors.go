package database

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes the enrollment workflow reacts to.
const (
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// IsConcurrencyConflict reports whether err is a serialization failure or deadlock abort.
func IsConcurrencyConflict(err error) bool {
	code := sqlState(err)
	return code == codeSerializationFailure || code == codeDeadlockDetected
}

// IsCheckViolation reports whether err violates a CHECK constraint (e.g. the seat bounds).
func IsCheckViolation(err error) bool {
	return sqlState(err) == codeCheckViolation
}

func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
