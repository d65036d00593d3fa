package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Error kinds surfaced to the transport layer. Services wrap them with
// fmt.Errorf("%w: ...") so handlers can classify with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrStore         = errors.New("store error")
	ErrNotConfigured = errors.New("not configured")
	ErrUpstream      = errors.New("upstream service error")
)

// isUniqueViolation recognises duplicate-key failures from both drivers.
// Postgres errors are translated by GORM; SQLite reports a plain message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
