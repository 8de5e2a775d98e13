package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"swissknife/internal/config"
	"swissknife/internal/events"
	"swissknife/internal/render"
	"swissknife/internal/tools"
	"swissknife/internal/util"
	"swissknife/internal/version"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	StatusSuccess   = "success"
	StatusFailure   = "failure"
	StatusCancelled = "cancelled"
)

// cancelGrace is how long a cancelled run waits for its tool to return.
const cancelGrace = 5 * time.Second

// Request names a tool and the arguments of one run.
type Request struct {
	ToolID string            `json:"tool_id"`
	Inputs []string          `json:"inputs"`
	Output string            `json:"output,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// RunResult captures run output for JSON mode and run records.
type RunResult struct {
	RunID         string            `json:"run_id"`
	ToolID        string            `json:"tool_id"`
	StartedAt     time.Time         `json:"timestamp_start"`
	FinishedAt    time.Time         `json:"timestamp_end"`
	DurationMs    int64             `json:"duration_ms"`
	Inputs        []string          `json:"inputs"`
	OutputPath    string            `json:"output_path,omitempty"`
	Params        map[string]string `json:"params,omitempty"`
	Status        string            `json:"status"`
	Output        string            `json:"output,omitempty"`
	Kind          tools.ErrorKind   `json:"kind,omitempty"`
	Error         string            `json:"error,omitempty"`
	Logs          []string          `json:"logs"`
	LogsTruncated bool              `json:"logs_truncated,omitempty"`
	LastProgress  *tools.Progress   `json:"last_progress,omitempty"`
	Events        []events.Event    `json:"events"`
}

// Runner executes registry tools and turns their sinks into events.
type Runner struct {
	tools    *tools.Registry
	renderer render.Renderer
	logger   *zap.Logger
	cfg      config.Config
}

// NewRunner constructs a Runner. renderer may be nil.
func NewRunner(registry *tools.Registry, renderer render.Renderer, logger *zap.Logger, cfg config.Config) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{tools: registry, renderer: renderer, logger: logger, cfg: cfg}
}

type outcome struct {
	res tools.Result
	err error
}

// run collects the state of one run. Sinks may fire from the tool goroutine
// after the runner gave up waiting, so everything is guarded and sealed.
type run struct {
	mu       sync.Mutex
	sealed   bool
	result   RunResult
	renderer render.Renderer
}

func (r *run) emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	event.RunID = r.result.RunID
	event.ToolID = r.result.ToolID
	event.Timestamp = time.Now()
	switch payload := event.Payload.(type) {
	case events.ToolLogPayload:
		r.result.Logs = append(r.result.Logs, payload.Line)
		r.result.Events = append(r.result.Events, event)
	case events.ToolProgressPayload:
		p := tools.Progress{Percentage: payload.Percentage, Message: payload.Message}
		r.result.LastProgress = &p
	default:
		r.result.Events = append(r.result.Events, event)
	}
	if r.renderer != nil {
		r.renderer.Emit(event)
	}
}

// finish emits the terminal event and seals the run.
func (r *run) finish(event events.Event) RunResult {
	r.emit(event)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
	return r.result
}

// Run executes one request. It returns an error only for an unknown tool or a
// cancelled run; tool failures are reported through the result.
func (r *Runner) Run(ctx context.Context, req Request) (RunResult, error) {
	started := time.Now()
	result := RunResult{
		RunID:     uuid.NewString(),
		ToolID:    req.ToolID,
		StartedAt: started,
		Inputs:    redactAll(req.Inputs),
		Params:    req.Params,
		Status:    StatusFailure,
	}
	if req.Output != "" {
		result.OutputPath = util.RedactURL(req.Output)
	}

	tool, ok := r.tools.Get(req.ToolID)
	if !ok {
		result.Kind = tools.KindValidation
		result.Error = fmt.Sprintf("unknown tool: %s", req.ToolID)
		result.FinishedAt = time.Now()
		if r.renderer != nil {
			r.renderer.Emit(events.Event{Type: events.RunFailed, RunID: result.RunID, ToolID: req.ToolID, Timestamp: result.FinishedAt, Payload: events.RunFailedPayload{
				Kind: string(result.Kind), Message: result.Error, FinishedAt: result.FinishedAt,
			}})
		}
		return result, fmt.Errorf("%w: %s", tools.ErrToolNotFound, req.ToolID)
	}
	result.ToolID = tool.ID()

	state := &run{result: result, renderer: r.renderer}
	logger := r.logger.With(zap.String("run_id", result.RunID), zap.String("tool", result.ToolID))
	logger.Info("run started", zap.Int("inputs", len(req.Inputs)))

	state.emit(events.Event{Type: events.RunStarted, Payload: events.RunStartedPayload{
		Version:    version.Version,
		ToolName:   tool.Name(),
		Inputs:     result.Inputs,
		Output:     result.OutputPath,
		Parameters: req.Params,
		StartedAt:  started,
	}})

	tc := tools.Context{
		InputPaths: slices.Clone(req.Inputs),
		OutputPath: req.Output,
		Parameters: req.Params,
		Logger: func(line string) {
			line = util.RedactSecrets(line)
			logger.Debug("tool log", zap.String("line", line))
			state.emit(events.Event{Type: events.ToolLog, Payload: events.ToolLogPayload{Line: line}})
		},
		Progress: tools.Monotonic(func(p tools.Progress) {
			state.emit(events.Event{Type: events.ToolProgress, Payload: events.ToolProgressPayload{Percentage: p.Percentage, Message: p.Message}})
		}),
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("tool panicked", zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
				done <- outcome{res: tools.Failure(tools.KindUnexpected, "tool panicked: %v", rec)}
			}
		}()
		res, err := tool.Run(ctx, tc)
		done <- outcome{res: res, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		select {
		case out = <-done:
		case <-time.After(cancelGrace):
			logger.Warn("tool did not stop after cancellation", zap.Duration("grace", cancelGrace))
			out = outcome{err: fmt.Errorf("%w: %w", tools.ErrCancelled, context.Cause(ctx))}
		}
	}

	finished := time.Now()
	duration := finished.Sub(started).Milliseconds()
	if out.err != nil && !tools.IsCancelled(out.err) {
		out = outcome{res: tools.FailureFrom(out.err, "running "+result.ToolID)}
	}

	var final RunResult
	switch {
	case out.err != nil:
		reason := context.Cause(ctx)
		if reason == nil {
			reason = out.err
		}
		final = state.finish(events.Event{Type: events.RunCancelled, Payload: events.RunCancelledPayload{
			Reason: reason.Error(), DurationMs: duration, FinishedAt: finished,
		}})
		final.Status = StatusCancelled
		final.Error = out.err.Error()
		logger.Warn("run cancelled", zap.Error(out.err))
	case out.res.OK:
		final = state.finish(events.Event{Type: events.RunFinished, Payload: events.RunFinishedPayload{
			Output: out.res.Output, DurationMs: duration, FinishedAt: finished,
		}})
		final.Status = StatusSuccess
		final.Output = out.res.Output
		logger.Info("run finished", zap.Int64("duration_ms", duration))
	default:
		final = state.finish(events.Event{Type: events.RunFailed, Payload: events.RunFailedPayload{
			Kind: string(out.res.Kind), Message: out.res.Error, DurationMs: duration, FinishedAt: finished,
		}})
		final.Status = StatusFailure
		final.Kind = out.res.Kind
		final.Error = out.res.Error
		logger.Info("run failed", zap.String("kind", string(out.res.Kind)), zap.String("error", out.res.Error))
	}

	final.FinishedAt = finished
	final.DurationMs = duration
	final.Logs, final.LogsTruncated = util.TailLines(final.Logs, r.cfg.MaxLogLines)
	if final.Logs == nil {
		final.Logs = []string{}
	}

	if out.err != nil {
		if !errors.Is(out.err, tools.ErrCancelled) {
			out.err = fmt.Errorf("%w: %w", tools.ErrCancelled, out.err)
		}
		return final, out.err
	}
	return final, nil
}

func redactAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, util.RedactURL(v))
	}
	return out
}
