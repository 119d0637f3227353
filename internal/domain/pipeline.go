package domain

import "time"

// LogLevel classifies pipeline log lines.
type LogLevel string

const (
	LevelInfo    LogLevel = "INFO"
	LevelSuccess LogLevel = "SUCCESS"
	LevelError   LogLevel = "ERROR"
)

// LogEntry is a human-readable line shown to observers.
type LogEntry struct {
	Timestamp time.Time   `json:"timestamp"`
	Message   string      `json:"message"`
	Level     LogLevel    `json:"level"`
	ItemID    string      `json:"itemId,omitempty"`
	Provider  ProviderTag `json:"provider,omitempty"`
}

// RunStatus enumerates orchestrator states.
type RunStatus string

const (
	StatusIdle      RunStatus = "IDLE"
	StatusRunning   RunStatus = "RUNNING"
	StatusStopped   RunStatus = "STOPPED"
	StatusCompleted RunStatus = "COMPLETED"
)

// PipelineState is the snapshot handed to observers. CurrentItemID is empty
// exactly when IsActive is false.
type PipelineState struct {
	RunID          string     `json:"runId,omitempty"`
	Status         RunStatus  `json:"status"`
	IsActive       bool       `json:"isActive"`
	TotalItems     int        `json:"totalItems"`
	CompletedItems int        `json:"completedItems"`
	GeneratedItems int        `json:"generatedItems"`
	SkippedItems   int        `json:"skippedItems"`
	FailedItems    int        `json:"failedItems"`
	CurrentItemID  string     `json:"currentItemId,omitempty"`
	Logs           []LogEntry `json:"logs"`
	StartTime      time.Time  `json:"startTime"`
	FinishTime     time.Time  `json:"finishTime"`
}

// Clone returns a copy that shares no mutable memory with s.
func (s PipelineState) Clone() PipelineState {
	out := s
	if s.Logs != nil {
		out.Logs = make([]LogEntry, len(s.Logs))
		copy(out.Logs, s.Logs)
	}
	return out
}

// Finished reports whether the snapshot describes a run that is no longer iterating.
func (s PipelineState) Finished() bool {
	return s.Status == StatusStopped || s.Status == StatusCompleted
}
