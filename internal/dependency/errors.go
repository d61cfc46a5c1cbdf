package dependency

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedNotation is the sentinel wrapped by every
	// UnsupportedNotationError.
	ErrUnsupportedNotation = errors.New("unsupported dependency notation")
)

// UnsupportedNotationError reports an input shape the normalizer does
// not recognize. It is raised at declaration time; nothing enters the
// bucket.
type UnsupportedNotationError struct {
	Notation any
}

func (e *UnsupportedNotationError) Error() string {
	return fmt.Sprintf("%s: %T (%v)", ErrUnsupportedNotation.Error(), e.Notation, e.Notation)
}

func (e *UnsupportedNotationError) Unwrap() error { return ErrUnsupportedNotation }
