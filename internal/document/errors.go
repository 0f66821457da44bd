package document

import (
	"errors"
	"fmt"
)

var (
	// ErrCommand matches every command failure, including path failures.
	ErrCommand = errors.New("command failed")

	ErrPathNotFound   = errors.New("path not found")
	ErrParentNotFound = errors.New("parent path not found")
	ErrPathExists     = errors.New("path already exists")
	ErrInvalidPath    = errors.New("invalid path")
	ErrInvalidIndex   = errors.New("invalid array index")
	ErrInvalidValue   = errors.New("value cannot be encoded")
)

// PathError is raised by the Manager when a change targets a path that does
// not satisfy its precondition. It is a kind of command failure:
// errors.Is(err, ErrCommand) holds.
type PathError struct {
	Op   Op
	Path Path
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path.String(), e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

func (e *PathError) Is(target error) bool { return target == ErrCommand }

// CommandError reports a failed forward or inverse application. The history
// manager returns it after rolling the document back.
type CommandError struct {
	Command string // Name of the failing command, or the history action
	Phase   string // "apply", "rollback", "undo", "redo" or "batch"
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed during %s: %v", e.Command, e.Phase, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func (e *CommandError) Is(target error) bool { return target == ErrCommand }
