package rescache

import (
	"errors"
	"fmt"
)

// ErrConfig marks invalid engine configuration. It is returned wrapped with
// the concrete problem so errors.Is(err, ErrConfig) works.
var ErrConfig = errors.New("rescache: invalid configuration")

// RollbackError reports an optimistic mutation whose transport call failed
// and whose cache rollback then failed too. Cause is the transport failure,
// RestoreErr the store failure. The affected entry is dropped from the
// cache rather than left holding the optimistic value, so a later read
// refetches it.
type RollbackError struct {
	Op         string
	Resource   string
	ID         string
	Cause      error
	RestoreErr error
}

func (e *RollbackError) Error() string {
	target := e.Resource
	if e.ID != "" {
		target += "/" + e.ID
	}
	switch {
	case e.Cause != nil && e.RestoreErr != nil:
		return fmt.Sprintf("%s %s failed: op=%v; rollback=%v", e.Op, target, e.Cause, e.RestoreErr)
	case e.RestoreErr != nil:
		return fmt.Sprintf("%s %s: rollback failed: %v", e.Op, target, e.RestoreErr)
	default:
		return fmt.Sprintf("%s %s failed: %v", e.Op, target, e.Cause)
	}
}

func (e *RollbackError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.RestoreErr != nil {
		errs = append(errs, e.RestoreErr)
	}
	return errs
}
