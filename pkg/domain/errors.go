package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrValidation marks input rejected by field checks.
var ErrValidation = errors.New("validation failed")

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is matches ErrValidation.
func (f FieldErrors) Is(target error) bool { return target == ErrValidation }

// Add records msg for field unless the field already has a message.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Err returns f as an error, or nil when empty.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}
