package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFamily is returned when the caller has no resolved family.
	ErrNoFamily = errors.New("no family context")
	// ErrNotFound is returned when a payment or history entry does not exist.
	ErrNotFound = errors.New("payment not found")
	// ErrNoHistory is returned by undo when nothing has been paid yet.
	ErrNoHistory = errors.New("no payment history to undo")
	// ErrInvalid is returned for rejected create or update input.
	ErrInvalid = errors.New("invalid payment")
)

// StoreError wraps a failed store operation. The cause is kept for errors.Is
// and errors.As.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// storeErr wraps err as a StoreError unless it is nil or already one of the
// package sentinels.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *StoreError
	if errors.As(err, &se) {
		return err
	}

	for _, sentinel := range []error{ErrNoFamily, ErrNotFound, ErrNoHistory, ErrInvalid} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	return &StoreError{Op: op, Err: err}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
