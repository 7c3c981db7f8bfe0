package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match with errors.Is.
var (
	ErrMissingDependency  = errors.New("missing dependency")
	ErrCircularDependency = errors.New("circular dependency")
	ErrDuplicateTitle     = errors.New("duplicate task title")
)

// MissingDependencyError reports a dependency title that no task in the request carries.
type MissingDependencyError struct {
	Task       string // Task that declared the dependency
	Dependency string // Unresolved title
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("dependency %q not found in task list", e.Dependency)
}

func (e *MissingDependencyError) Unwrap() error { return ErrMissingDependency }

// CircularDependencyError reports a dependency cycle.
// Path lists the titles on the cycle with the first title repeated at the end;
// it is empty when the cycle was only noticed by the sort's completeness check.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) == 0 {
		return "Circular dependency detected. Unable to schedule all tasks."
	}
	return fmt.Sprintf("Circular dependency detected: %s. Tasks cannot be scheduled.", strings.Join(e.Path, " -> "))
}

func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

// DuplicateTitleError reports two tasks in one request sharing a title.
type DuplicateTitleError struct {
	Title string
}

func (e *DuplicateTitleError) Error() string {
	return fmt.Sprintf("task title %q appears more than once", e.Title)
}

func (e *DuplicateTitleError) Unwrap() error { return ErrDuplicateTitle }

// IsClientError reports whether err is one of the scheduler's input errors.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingDependency) ||
		errors.Is(err, ErrCircularDependency) ||
		errors.Is(err, ErrDuplicateTitle)
}
