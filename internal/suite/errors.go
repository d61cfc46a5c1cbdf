package suite

import (
	"errors"
	"fmt"
)

var (
	// ErrClosedBucket is the sentinel wrapped by ClosedBucketError.
	ErrClosedBucket = errors.New("bucket declaration after configuration closed")
	// ErrDuplicateSuiteName is the sentinel wrapped by DuplicateSuiteNameError.
	ErrDuplicateSuiteName = errors.New("duplicate suite name")
)

// ClosedBucketError reports a declaration arriving after the owning
// suite's configuration phase ended.
type ClosedBucketError struct {
	Suite string
	Role  Role
}

func (e *ClosedBucketError) Error() string {
	return fmt.Sprintf("%s: suite %q, bucket %s", ErrClosedBucket.Error(), e.Suite, e.Role)
}

func (e *ClosedBucketError) Unwrap() error { return ErrClosedBucket }

// DuplicateSuiteNameError reports a second registration of a suite
// name (or use of the reserved production name). Declaration-time,
// fatal.
type DuplicateSuiteNameError struct {
	Name string
}

func (e *DuplicateSuiteNameError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateSuiteName.Error(), e.Name)
}

func (e *DuplicateSuiteNameError) Unwrap() error { return ErrDuplicateSuiteName }
