package resolver

import (
	"errors"
	"fmt"

	"github.com/anvil-platform/suitepath/internal/coordinate"
)

var (
	// ErrResolution is the sentinel wrapped by every ResolutionError.
	ErrResolution = errors.New("module resolution failed")
)

// ResolutionError reports an unsatisfiable request: an unknown module,
// an unknown project path, or constraints no registered version meets.
type ResolutionError struct {
	Coordinate coordinate.Module
	Project    coordinate.ProjectPath
	Reason     string
}

func (e *ResolutionError) Error() string {
	switch {
	case e.Project != "":
		return fmt.Sprintf("%s: project %q: %s", ErrResolution.Error(), e.Project, e.Reason)
	case !e.Coordinate.IsZero():
		return fmt.Sprintf("%s: %s: %s", ErrResolution.Error(), e.Coordinate, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", ErrResolution.Error(), e.Reason)
	}
}

func (e *ResolutionError) Unwrap() error { return ErrResolution }
