package store

import (
	"errors"
	"fmt"
	"strings"
)

// Integrity violations. Distinct sentinels so callers can implement
// create-or-get idioms with errors.Is.
var (
	ErrDuplicateID      = errors.New("pattern id already exists")
	ErrDuplicateEdge    = errors.New("relationship already exists")
	ErrSelfLoop         = errors.New("relationship endpoints are the same pattern")
	ErrEndpointNotFound = errors.New("relationship endpoint does not exist")
)

// ValidationError reports a caller-correctable bad field value. It is always
// raised before any mutation happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a low-level SQLite failure. Fatal to the current call
// and never retried internally; HealthCheck classifies the damage.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on the
// named column set. modernc.org/sqlite surfaces constraint failures as plain
// error strings, so this matches on the message.
func isUniqueViolation(err error, target string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, target)
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
