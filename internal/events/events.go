package events

import "time"

// Type represents an emitted event type.
type Type string

const (
	RunStarted   Type = "RunStarted"
	ToolLog      Type = "ToolLog"
	ToolProgress Type = "ToolProgress"
	RunFinished  Type = "RunFinished"
	RunFailed    Type = "RunFailed"
	RunCancelled Type = "RunCancelled"
)

// Event is the common envelope for renderer events.
type Event struct {
	Type      Type      `json:"type"`
	RunID     string    `json:"run_id"`
	ToolID    string    `json:"tool_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// RunStartedPayload is emitted at the beginning of a run.
type RunStartedPayload struct {
	Version    string            `json:"version"`
	ToolName   string            `json:"tool_name"`
	Inputs     []string          `json:"inputs"`
	Output     string            `json:"output,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
}

// ToolLogPayload carries one log line from a tool.
type ToolLogPayload struct {
	Line string `json:"line"`
}

// ToolProgressPayload carries a progress update. A nil Percentage is indeterminate.
type ToolProgressPayload struct {
	Percentage *float64 `json:"percentage,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// RunFinishedPayload closes a successful run.
type RunFinishedPayload struct {
	Output     string    `json:"output"`
	DurationMs int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunFailedPayload records a failed run.
type RunFailedPayload struct {
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	DurationMs int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunCancelledPayload records a cancelled run.
type RunCancelledPayload struct {
	Reason     string    `json:"reason"`
	DurationMs int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}
