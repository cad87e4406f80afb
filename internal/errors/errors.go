package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related error (invalid declaration, configuration, etc.).
	ExitUser = 1

	// ExitSystem indicates a system-related error (I/O, missing binaries, permissions, etc.).
	ExitSystem = 2
)

// Sentinel errors for common failure conditions.
var (
	// ErrUnknownOption indicates an option key that is not in the option catalog.
	ErrUnknownOption = errors.New("unknown option")

	// ErrOptionNotAllowed indicates an option that exists but is not legal
	// for the section kind it was declared under.
	ErrOptionNotAllowed = errors.New("option not allowed in this section")

	// ErrInvalidValue indicates an option value that does not match the
	// option's declared value kind.
	ErrInvalidValue = errors.New("invalid option value")

	// ErrInvalidShape indicates a subvolumes/targets value that is neither a
	// list of paths nor a mapping of path to overrides.
	ErrInvalidShape = errors.New("unsupported value shape")

	// ErrConfigRejected indicates btrbk rejected a rendered configuration.
	ErrConfigRejected = errors.New("btrbk rejected configuration")

	// ErrUnknownRole indicates an SSH filter role outside the fixed role set.
	ErrUnknownRole = errors.New("unknown ssh role")

	// ErrNotFound indicates the requested instance was not found.
	ErrNotFound = errors.New("instance not found")

	// ErrInvalidConfig indicates tool configuration validation failed.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ExitError wraps an error with an exit code and optional suggestion for CLI applications.
// It implements the error interface and supports unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
// If err is nil, the returned ExitError will have a nil Err field.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: suggestion,
	}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitSystem,
		Suggestion: suggestion,
	}
}

// NewConfigError creates an ExitError with ExitUser code and a standard suggestion.
func NewConfigError(err error) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: "Run: btrbkgen validate",
	}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// Re-exports so the rest of the codebase depends on a single errors package.
var (
	New    = errors.New
	Newf   = errors.Newf
	Wrap   = errors.Wrap
	Wrapf  = errors.Wrapf
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)
