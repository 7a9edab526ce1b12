package domain

import "time"

// ToolExecution records one tool invocation. ID is a pipeline-generated
// correlation id; the host's call id is kept only as an attribute because it
// is not guaranteed unique or stable across retries.
type ToolExecution struct {
	ID          string
	SessionID   string
	CallID      string
	Tool        string
	Input       *string
	Result      *string
	Error       *string
	StartedAt   *time.Time
	CompletedAt *time.Time
	DurationMS  *int64
	Success     *bool
}
