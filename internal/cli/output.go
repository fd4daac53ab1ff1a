package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/strongbox/internal/vault"
)

// Exit codes.
const (
	ExitSuccess      = 0 // operation succeeded
	ExitFailure      = 1 // vault refused the operation (insufficient balance, unauthorized, ...)
	ExitCommandError = 2 // command error (bad flags, missing database, ...)
)

// ExitError carries a specific exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// GetExitCode extracts the exit code from an error. Vault refusals map to
// ExitFailure, everything else unclassified to ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if vault.CodeOf(err) != "" {
		return ExitFailure
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// Response is the JSON envelope for command output.
type Response struct {
	Status string       `json:"status"` // "ok" or "error"
	Data   any          `json:"data,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed operation in JSON output.
type ErrorDetail struct {
	Code    string `json:"code"` // vault failure code or "COMMAND_ERROR"
	Message string `json:"message"`

	// Retryable is set for vault refusals that may succeed later, such
	// as a withdrawal executed before its delay elapsed.
	Retryable bool `json:"retryable,omitempty"`
}

// Success emits data in the configured format. Text format prints the
// value's default rendering; structured data implements fmt.Stringer.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Failure emits an operation error in the configured format and returns an
// error carrying the right exit code.
func (f *OutputFormatter) Failure(err error) error {
	code := vault.CodeOf(err)
	detail := &ErrorDetail{Code: string(code), Message: err.Error()}
	if code == "" {
		detail.Code = "COMMAND_ERROR"
	} else {
		detail.Retryable = code.Retryable()
	}

	if f.Format == "json" {
		if encErr := json.NewEncoder(f.Writer).Encode(Response{Status: "error", Error: detail}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintf(f.Writer, "error [%s]: %s\n", detail.Code, detail.Message)
	}
	return &ExitError{Code: GetExitCode(err), Message: detail.Message, Err: err}
}

// VerboseLog prints only when verbose mode is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.Writer, format+"\n", args...)
}

func newFormatter(cmd interface{ OutOrStdout() io.Writer }, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
}
