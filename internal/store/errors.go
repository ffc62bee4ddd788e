package store

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidContainer is returned when an item would reference a
	// container that does not exist.
	ErrInvalidContainer = errors.New("container does not exist")

	// ErrInvalidStatus is returned for an item status outside IN, OUT, REMOVED.
	ErrInvalidStatus = errors.New("invalid item status")

	// ErrNotToggleable is returned when toggling an item that is neither IN nor OUT.
	ErrNotToggleable = errors.New("item status cannot be toggled")
)

// StorageError reports a failure of the underlying database. It is never
// used for expected outcomes such as a missed lookup.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageFailure reports whether err is, or wraps, a StorageError.
func IsStorageFailure(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
