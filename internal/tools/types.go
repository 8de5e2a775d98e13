package tools

import (
	"context"
	"fmt"
	"strings"
)

// Progress is a single progress update. A nil Percentage means indeterminate.
type Progress struct {
	Percentage *float64 `json:"percentage,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// Determinate builds a progress update with a known percentage.
func Determinate(percentage float64, message string) Progress {
	return Progress{Percentage: &percentage, Message: message}
}

// Indeterminate builds a progress update without a known percentage.
func Indeterminate(message string) Progress {
	return Progress{Message: message}
}

// ProgressFunc receives progress updates. Callers may wrap it, for example with
// Monotonic, so a tool must not assume its updates arrive unchanged.
type ProgressFunc func(Progress)

// LogFunc receives informational log lines.
type LogFunc func(string)

// Context is the request bundle for one tool run. Cancellation travels separately
// as the context.Context given to Run.
type Context struct {
	InputPaths []string
	OutputPath string
	Parameters map[string]string
	Progress   ProgressFunc
	Logger     LogFunc
}

// Input returns the first input path, trimmed.
func (c Context) Input() string {
	if len(c.InputPaths) == 0 {
		return ""
	}
	return strings.TrimSpace(c.InputPaths[0])
}

// Param returns a parameter value, or def when absent or blank.
func (c Context) Param(key, def string) string {
	if value, ok := c.Parameters[key]; ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return def
}

func (c Context) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger(fmt.Sprintf(format, args...))
	}
}

func (c Context) report(p Progress) {
	if c.Progress != nil {
		c.Progress(p)
	}
}

// ErrorKind classifies a failed run.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindAccessDenied ErrorKind = "access_denied"
	KindIO           ErrorKind = "io"
	KindCodec        ErrorKind = "codec"
	KindUnexpected   ErrorKind = "unexpected"
)

// Result is the outcome of a run: Success with an output payload, or Failure
// with a kind and message.
type Result struct {
	OK     bool      `json:"ok"`
	Output string    `json:"output,omitempty"`
	Kind   ErrorKind `json:"kind,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// Success builds a successful result.
func Success(output string) Result {
	return Result{OK: true, Output: output}
}

// Failure builds a failed result.
func Failure(kind ErrorKind, format string, args ...any) Result {
	return Result{Kind: kind, Error: fmt.Sprintf(format, args...)}
}

// Tool is a file-transforming operation with a uniform run contract.
//
// Run returns a Result for every expected outcome, including invalid input. The
// only error it returns is cancellation, matching ErrCancelled. Implementations
// hold no per-run state and are safe for concurrent use. The sinks in tc may be
// wrappers that filter or throttle what the tool reports.
type Tool interface {
	ID() string
	Name() string
	Description() string
	Run(ctx context.Context, tc Context) (Result, error)
}
