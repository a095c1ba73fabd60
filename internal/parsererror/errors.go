// Package parsererror defines the error kinds the conversion pipeline surfaces.
// Every kind is fatal: callers stop the run and report the message.
package parsererror

import (
	"fmt"
	"strings"
)

// ConfigError represents an unparsable or structurally invalid configuration file.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("Error while parsing config file '%s': %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ParseError represents a malformed field in a source row.
// Row is the zero-based data row index; -1 means the header.
type ParseError struct {
	File  string
	Row   int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s' %s: %v",
		e.File, e.Field, e.Value, rowLabel(e.Row), e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MappingError represents a value that parsed fine but has no valid mapping:
// an unknown reconciliation code, an account name that cannot be sanitized,
// or a posting whose currency cannot be resolved unambiguously.
type MappingError struct {
	File   string
	Row    int
	Field  string
	Value  string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s: cannot map %s='%s' %s: %s",
		e.File, e.Field, e.Value, rowLabel(e.Row), e.Reason)
}

// VerificationError represents a rendered ledger that fails the target grammar's
// own parse or validation pass. The file is left on disk.
type VerificationError struct {
	File   string
	Errors []error
}

func (e *VerificationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "verification of '%s' failed with %d error(s)", e.File, len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *VerificationError) Unwrap() []error {
	return e.Errors
}

func rowLabel(row int) string {
	if row < 0 {
		return "in header"
	}
	return fmt.Sprintf("in data row %d", row)
}
