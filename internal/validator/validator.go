// Package validator aggregates and reports validation issues found while
// building, rendering and checking btrbk instances.
package validator

import (
	"fmt"
	"strings"
)

// Severity represents the impact of a validation issue.
type Severity int

const (
	// SeverityError indicates a blocking validation failure.
	SeverityError Severity = iota
	// SeverityWarning indicates a recommended but non-blocking issue.
	SeverityWarning
	// SeverityInfo indicates an informational note.
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so JSON reports carry the
// severity name instead of a bare number.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for reading reports back.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	case "info":
		*s = SeverityInfo
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Issue represents a single validation problem.
type Issue struct {
	// Severity indicates the impact of the issue.
	Severity Severity `json:"severity"`
	// Field identifies where the issue was found: an instance name or a
	// node path like "daily: volume /mnt/data" (optional).
	Field string `json:"field,omitempty"`
	// Message is a human-readable description of the problem.
	Message string `json:"message"`
	// Value is the actual value that failed validation (optional).
	Value any `json:"value,omitempty"`
	// Context is additional domain-specific context, e.g. the rendered
	// configuration text for a btrbk rejection.
	Context map[string]string `json:"context,omitempty"`
}

// Error implements the error interface.
func (i Issue) Error() string {
	var sb strings.Builder
	sb.WriteString(i.Severity.String())
	sb.WriteString(": ")
	if i.Field != "" {
		sb.WriteString("field \"")
		sb.WriteString(i.Field)
		sb.WriteString("\": ")
	}
	sb.WriteString(i.Message)
	if i.Value != nil {
		fmt.Fprintf(&sb, " (got %v)", i.Value)
	}
	return sb.String()
}

// Result aggregates validation issues.
type Result struct {
	Issues []Issue `json:"issues"`
}

// HasErrors returns true if any issue has SeverityError.
func (r *Result) HasErrors() bool {
	if r == nil {
		return false
	}
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings returns true if any issue has SeverityWarning.
func (r *Result) HasWarnings() bool {
	if r == nil {
		return false
	}
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// AddError adds an error issue to the result.
func (r *Result) AddError(field, message string, value any) {
	r.Issues = append(r.Issues, Issue{
		Severity: SeverityError,
		Field:    field,
		Message:  message,
		Value:    value,
	})
}

// AddWarning adds a warning issue to the result.
func (r *Result) AddWarning(field, message string, value any) {
	r.Issues = append(r.Issues, Issue{
		Severity: SeverityWarning,
		Field:    field,
		Message:  message,
		Value:    value,
	})
}

// AddInfo adds an info issue to the result.
func (r *Result) AddInfo(field, message string, value any) {
	r.Issues = append(r.Issues, Issue{
		Severity: SeverityInfo,
		Field:    field,
		Message:  message,
		Value:    value,
	})
}

// Errors returns a slice of all issues with SeverityError.
func (r *Result) Errors() []Issue {
	if r == nil {
		return nil
	}
	var res []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			res = append(res, i)
		}
	}
	return res
}

// Warnings returns a slice of all issues with SeverityWarning.
func (r *Result) Warnings() []Issue {
	if r == nil {
		return nil
	}
	var res []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			res = append(res, i)
		}
	}
	return res
}
