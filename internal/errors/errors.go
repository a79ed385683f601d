// Package errors defines the stable error code system for ppi.
package errors

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// Code is a stable error code string.
type Code string

// Error codes. Printed on stderr and relied on by scripts wrapping ppi.
const (
	EUsage    Code = "E_USAGE"
	EInternal Code = "E_INTERNAL"

	// Configuration
	EConfigMissing Code = "E_CONFIG_MISSING"
	EConfigInvalid Code = "E_CONFIG_INVALID"
	EConfigOverlap Code = "E_CONFIG_OVERLAP"
	EConfigExists  Code = "E_CONFIG_EXISTS"

	// Skeleton provisioning
	EMissingOutputDir  Code = "E_MISSING_OUTPUT_DIR"
	EOutputDirNotEmpty Code = "E_OUTPUT_DIR_NOT_EMPTY"
	EEmbeddedClient    Code = "E_EMBEDDED_CLIENT"
	EEmptySkeleton     Code = "E_EMPTY_SKELETON"
	ECommandLaunch     Code = "E_COMMAND_LAUNCH_FAILED"
	ECommandNonZero    Code = "E_COMMAND_NON_ZERO"
	EChildExitUnavail  Code = "E_CHILD_EXIT_UNAVAILABLE"
	ECommandInterrupt  Code = "E_COMMAND_INTERRUPTED"

	// Doctor
	EGitNotInstalled     Code = "E_GIT_NOT_INSTALLED"
	EScriptNotFound      Code = "E_SCRIPT_NOT_FOUND"
	EScriptNotExecutable Code = "E_SCRIPT_NOT_EXECUTABLE"
)

// PpiError is the standard error type for ppi errors.
type PpiError struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string // optional structured context
}

// Error returns the stable error format: "CODE: message".
func (e *PpiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *PpiError) Unwrap() error {
	return e.Cause
}

// New creates a new PpiError with the given code and message.
func New(code Code, msg string) error {
	return &PpiError{Code: code, Msg: msg}
}

// NewWithDetails creates a new PpiError with code, message, and details.
// Details map is copied (nil if empty).
func NewWithDetails(code Code, msg string, details map[string]string) error {
	return &PpiError{Code: code, Msg: msg, Details: copyDetails(details)}
}

// Wrap creates a new PpiError wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &PpiError{Code: code, Msg: msg, Cause: err}
}

// WrapWithDetails creates a new PpiError wrapping an underlying error with details.
// Details map is copied (nil if empty).
func WrapWithDetails(code Code, msg string, err error, details map[string]string) error {
	return &PpiError{Code: code, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// GetCode extracts the error code from an error, or empty string if not a PpiError.
func GetCode(err error) Code {
	var pe *PpiError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// AsPpiError returns (*PpiError, true) if err is or wraps a PpiError.
func AsPpiError(err error) (*PpiError, bool) {
	var pe *PpiError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}

// ExitStatus is a silent error that carries a process exit code.
// It is returned when ppi relays the exit code of a child process.
type ExitStatus struct {
	Code int
}

func (e *ExitStatus) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Exit returns an error that makes the process exit with code without
// printing anything. Exit(0) returns nil.
func Exit(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitStatus{Code: code}
}

// ExitCode returns the appropriate exit code for an error.
// Returns 0 if err is nil, the carried code for ExitStatus, 2 for E_USAGE,
// 1 for all other errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var es *ExitStatus
	if errors.As(err, &es) {
		return es.Code
	}
	if GetCode(err) == EUsage {
		return 2
	}
	return 1
}

// Print writes the error to w in the stable stderr format:
//
//	error_code: <CODE>
//	<message>
//	cause: <cause>      (when wrapping)
//	<key>: <value>      (details, sorted by key)
//	hint: <hint>        (always last)
//
// ExitStatus errors print nothing.
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	var es *ExitStatus
	if errors.As(err, &es) {
		return
	}
	var pe *PpiError
	if !errors.As(err, &pe) {
		fmt.Fprintln(w, err.Error())
		return
	}
	fmt.Fprintf(w, "error_code: %s\n", pe.Code)
	fmt.Fprintln(w, pe.Msg)
	if pe.Cause != nil {
		fmt.Fprintf(w, "cause: %v\n", pe.Cause)
	}
	keys := make([]string, 0, len(pe.Details))
	for k := range pe.Details {
		if k != "hint" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := pe.Details[k]; v != "" {
			fmt.Fprintf(w, "%s: %s\n", k, v)
		}
	}
	if hint := pe.Details["hint"]; hint != "" {
		fmt.Fprintf(w, "hint: %s\n", hint)
	}
}
