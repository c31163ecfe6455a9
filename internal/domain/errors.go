package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the referenced handover, patient, section or item is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition: the guard precondition did not hold; nothing changed.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrVersionConflict: expectedVersion did not match; nothing changed.
	ErrVersionConflict = errors.New("version conflict")
	// ErrConflict: an active handover already exists for the patient/shift window.
	ErrConflict = errors.New("active handover already exists")
	// ErrValidation: the request itself is malformed.
	ErrValidation = errors.New("validation failed")
	// ErrDatastore: lower-level I/O or transaction failure.
	ErrDatastore = errors.New("datastore fault")
)

// DatastoreError wraps a driver error with the operation that failed.
type DatastoreError struct {
	Op  string
	Err error
}

func (e *DatastoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDatastore, e.Op, e.Err)
}

func (e *DatastoreError) Unwrap() error { return e.Err }

// Is matches ErrDatastore as well as the wrapped error chain.
func (e *DatastoreError) Is(target error) bool { return target == ErrDatastore }

// Datastore wraps err as a DatastoreError; nil stays nil.
func Datastore(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DatastoreError
	if errors.As(err, &de) {
		return err
	}
	return &DatastoreError{Op: op, Err: err}
}

// Validationf returns an ErrValidation with a formatted detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
