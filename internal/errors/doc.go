// Package errors provides error handling conventions for the btrbkgen CLI.
//
// This package defines sentinel errors for common failure conditions,
// an ExitError type for CLI exit code handling, and exit code constants
// following standard Unix conventions. It also re-exports the wrapping
// helpers from github.com/cockroachdb/errors so callers only import one
// errors package.
//
// # Sentinel Errors
//
// Sentinel errors allow callers to check for specific error conditions
// using [Is]:
//
//	if errors.Is(err, btrbkerrors.ErrOptionNotAllowed) {
//	    // handle schema violation
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid declaration, schema violation, etc.)
//   - ExitSystem (2): System-related error (I/O, missing btrbk binary, permissions, etc.)
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion for CLI applications. It supports error unwrapping via
// [Unwrap] and [As].
package errors
