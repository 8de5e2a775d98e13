package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"swissknife/internal/events"

	"golang.org/x/time/rate"
)

// DefaultProgressRate is the number of progress lines per second per run.
const DefaultProgressRate = 10

// Options controls what the stdout renderer prints.
type Options struct {
	Verbose bool
	Quiet   bool
	// Interactive redraws progress in place; use it only when w is a terminal.
	Interactive bool
	// ProgressRate limits progress lines per second per run; <= 0 selects DefaultProgressRate.
	ProgressRate float64
}

// StdoutRenderer streams events to a plain text writer.
type StdoutRenderer struct {
	w        io.Writer
	mu       sync.Mutex
	opts     Options
	limiters map[string]*rate.Limiter
	// drawing is true while an in-place progress line is on screen.
	drawing bool
	now     func() time.Time
}

// NewStdoutRenderer creates a renderer for plain text streaming.
func NewStdoutRenderer(w io.Writer, opts Options) *StdoutRenderer {
	if opts.ProgressRate <= 0 {
		opts.ProgressRate = DefaultProgressRate
	}
	return &StdoutRenderer{w: w, opts: opts, limiters: map[string]*rate.Limiter{}, now: time.Now}
}

func (r *StdoutRenderer) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case events.RunStarted:
		if payload, ok := event.Payload.(events.RunStartedPayload); ok {
			r.limiters[event.RunID] = rate.NewLimiter(rate.Limit(r.opts.ProgressRate), 1)
			if r.opts.Quiet {
				return
			}
			r.line("%s: start %s", event.ToolID, strings.Join(payload.Inputs, ", "))
			if r.opts.Verbose {
				r.line("%s: run %s (%s, v%s)", event.ToolID, event.RunID, payload.ToolName, payload.Version)
			}
		}
	case events.ToolLog:
		if payload, ok := event.Payload.(events.ToolLogPayload); ok {
			if r.opts.Quiet {
				return
			}
			r.line("%s: %s", event.ToolID, payload.Line)
		}
	case events.ToolProgress:
		if payload, ok := event.Payload.(events.ToolProgressPayload); ok {
			if r.opts.Quiet {
				return
			}
			final := payload.Percentage != nil && *payload.Percentage >= 100
			if limiter := r.limiters[event.RunID]; limiter != nil && !final && !limiter.AllowN(r.now(), 1) {
				return
			}
			r.progress(event.ToolID, payload)
		}
	case events.RunFinished:
		if payload, ok := event.Payload.(events.RunFinishedPayload); ok {
			delete(r.limiters, event.RunID)
			if r.opts.Quiet {
				r.line("%s", payload.Output)
				return
			}
			r.line("%s: ok (%dms) %s", event.ToolID, payload.DurationMs, payload.Output)
		}
	case events.RunFailed:
		if payload, ok := event.Payload.(events.RunFailedPayload); ok {
			delete(r.limiters, event.RunID)
			r.line("%s: error [%s]: %s", event.ToolID, payload.Kind, payload.Message)
		}
	case events.RunCancelled:
		if payload, ok := event.Payload.(events.RunCancelledPayload); ok {
			delete(r.limiters, event.RunID)
			r.line("%s: cancelled (%s)", event.ToolID, payload.Reason)
		}
	}
}

func (r *StdoutRenderer) line(format string, args ...any) {
	if r.drawing {
		fmt.Fprint(r.w, "\r\033[K")
		r.drawing = false
	}
	fmt.Fprintf(r.w, format+"\n", args...)
}

func (r *StdoutRenderer) progress(toolID string, payload events.ToolProgressPayload) {
	bar := "[  ...  ]"
	if payload.Percentage != nil {
		bar = fmt.Sprintf("[%6.1f%%]", *payload.Percentage)
	}
	if !r.opts.Interactive {
		fmt.Fprintf(r.w, "%s: %s %s\n", toolID, bar, payload.Message)
		return
	}
	fmt.Fprintf(r.w, "\r\033[K%s: %s %s", toolID, bar, payload.Message)
	r.drawing = true
}

func (r *StdoutRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drawing {
		fmt.Fprintln(r.w)
		r.drawing = false
	}
	return nil
}
