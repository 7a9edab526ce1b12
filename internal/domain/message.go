package domain

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message part types. Streaming text-like parts (text, reasoning) grow
// monotonically; everything else carries a status-bearing state snapshot.
const (
	PartTypeText       = "text"
	PartTypeReasoning  = "reasoning"
	PartTypeTool       = "tool"
	PartTypeStepStart  = "step-start"
	PartTypeStepFinish = "step-finish"
)

// Tool-call statuses embedded in a part's state snapshot.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// StatusRank orders tool-call statuses for the monotonic merge rule.
// Unknown or absent statuses rank below everything, so they never
// overwrite an observed state; completed and error are both terminal.
func StatusRank(status string) int {
	switch status {
	case StatusPending:
		return 1
	case StatusRunning:
		return 2
	case StatusCompleted, StatusError:
		return 3
	default:
		return 0
	}
}

// IsTextual reports whether a part type follows the streaming-text merge
// regime (longest text wins) rather than the status-rank regime.
func IsTextual(partType string) bool {
	return partType == PartTypeText || partType == PartTypeReasoning
}

// Message is the audit record for one host message. Text, content and model
// fields only ever improve toward more complete values.
type Message struct {
	ID           string
	SessionID    string
	Role         string
	ModelID      *string
	Provider     *string
	Text         *string
	Content      *string
	SystemPrompt *string
	CreatedAt    *time.Time
}

// MessagePart is the audit record for one streamed part of a message. Content
// is the full structured snapshot delivered by the host, including the nested
// execution state; StatusRank is derived from that state and gates updates.
type MessagePart struct {
	ID         string
	MessageID  string
	SessionID  string
	Type       string
	Tool       *string
	CallID     *string
	Text       *string
	Content    *string
	Status     string
	StatusRank int
}
