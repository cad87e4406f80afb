package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validation errors for configuration fields.
var (
	// ErrVersionTooLow indicates the version field is below the minimum.
	ErrVersionTooLow = errors.New("version must be >= 1")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")
)

// PathError describes an invalid path in a named settings field.
type PathError struct {
	Field string
	Path  string
	Err   error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %q: %v", e.Field, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	// Version must be >= 1
	if cfg.Version < 1 {
		errs = append(errs, ErrVersionTooLow)
	}

	for _, field := range []struct {
		name string
		path string
	}{
		{"btrbk_path", cfg.BtrbkPath},
		{"btrfs_path", cfg.BtrfsPath},
		{"ssh_filter_path", cfg.SSHFilterPath},
		{"deploy_root", cfg.DeployRoot},
	} {
		if err := validatePath(field.path); err != nil {
			errs = append(errs, &PathError{
				Field: field.name,
				Path:  field.path,
				Err:   err,
			})
		}
	}

	return errs
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	// Empty paths are valid (they mean "use default")
	if path == "" {
		return nil
	}

	// Check for null bytes which are never valid in paths
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	// Clean the path and check it's not empty after cleaning
	cleaned := filepath.Clean(path)
	if cleaned == "" || cleaned == "." {
		return ErrInvalidPath
	}

	return nil
}
