package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrConflict is returned when a conditional write matched no row or a
	// unique constraint rejected the insert.
	ErrConflict = errors.New("repository: conflicting write")

	ErrNotFound = errors.New("repository: record not found")
)

// IsNotFoundError reports whether err means the requested row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}

// IsConflictError reports whether err is a lost conditional write or a
// unique violation.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, gorm.ErrDuplicatedKey)
}
