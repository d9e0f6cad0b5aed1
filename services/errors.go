package services

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("permission denied")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUnavailable        = errors.New("unavailable")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Error carries a message that is safe to show to the user and a sentinel
// kind that decides the HTTP status.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func invalid(message string) error  { return &Error{Kind: ErrValidation, Message: message} }
func notFound(message string) error { return &Error{Kind: ErrNotFound, Message: message} }
func conflict(message string) error { return &Error{Kind: ErrConflict, Message: message} }
func forbidden(message string) error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// translateStoreError maps driver errors to user-facing ones. Unrecognised
// errors are returned unchanged.
func translateStoreError(err error, subject string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return conflict(subject + " already exists")
	}
	if isPermissionDenied(err) {
		return forbidden("Permission denied")
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

func isPermissionDenied(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42501" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "row-level security") || strings.Contains(msg, "permission denied")
}
