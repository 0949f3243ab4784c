package core

import (
	"errors"
	"fmt"

	"ethicure/pkg/domain"
)

var (
	// ErrUnsaved marks a mutation that was applied in memory but could not be
	// persisted.
	ErrUnsaved = errors.New("changes may not be saved")
	// ErrInvalidTransition marks a rejected status change.
	ErrInvalidTransition = domain.ErrInvalidTransition
)

// ErrNotFound is returned when an operation addresses an id that is not in
// the document.
type ErrNotFound struct {
	Entity domain.EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// SaveError reports a failed write-back. The in-memory document already holds
// the change.
type SaveError struct {
	Key string
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUnsaved, e.Key, e.Err)
}

// Unwrap exposes both ErrUnsaved and the storage error.
func (e *SaveError) Unwrap() []error { return []error{ErrUnsaved, e.Err} }

// IsNotFound reports whether err carries an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
