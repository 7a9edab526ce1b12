package domain

import (
	"encoding/json"
	"fmt"
)

// Event kinds delivered by the host's event bus.
const (
	EventSessionCreated    = "session.created"
	EventSessionUpdated    = "session.updated"
	EventSessionDeleted    = "session.deleted"
	EventSessionIdle       = "session.idle"
	EventSessionError      = "session.error"
	EventSessionCompacted  = "session.compacted"
	EventMessageUpdated    = "message.updated"
	EventMessageRemoved    = "message.removed"
	EventPartUpdated       = "message.part.updated"
	EventPartRemoved       = "message.part.removed"
	EventCommandExecuted   = "command.executed"
	EventToolExecuteBefore = "tool.execute.before"
	EventToolExecuteAfter  = "tool.execute.after"
	EventChatMessage       = "chat.message"
)

// Event is the envelope every bus notification arrives in.
type Event struct {
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties"`
}

// UnixMillis holds the host's millisecond timestamps.
type UnixMillis struct {
	Created int64 `json:"created,omitempty"`
	Updated int64 `json:"updated,omitempty"`
}

// SessionInfo mirrors the host's session object. Fields the host omitted stay
// nil so the merge protocol can tell "absent" from "empty".
type SessionInfo struct {
	ID        string  `json:"id"`
	ParentID  *string `json:"parentID,omitempty"`
	ProjectID *string `json:"projectID,omitempty"`
	Directory *string `json:"directory,omitempty"`
	Title     *string `json:"title,omitempty"`
	Version   *string `json:"version,omitempty"`
	Share     *struct {
		URL string `json:"url"`
	} `json:"share,omitempty"`
	Time UnixMillis `json:"time"`
}

// TokenInfo carries per-message token counters.
type TokenInfo struct {
	Input     int64 `json:"input"`
	Output    int64 `json:"output"`
	Reasoning int64 `json:"reasoning"`
	Cache     struct {
		Read  int64 `json:"read"`
		Write int64 `json:"write"`
	} `json:"cache"`
}

// Delta converts the host's token counters to the accounting delta shape.
func (t *TokenInfo) Delta() TokenDelta {
	if t == nil {
		return TokenDelta{}
	}
	return TokenDelta{
		Input:      t.Input,
		Output:     t.Output,
		Reasoning:  t.Reasoning,
		CacheRead:  t.Cache.Read,
		CacheWrite: t.Cache.Write,
	}
}

// MessageInfo mirrors the host's message object.
type MessageInfo struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"sessionID"`
	Role       string     `json:"role"`
	ModelID    *string    `json:"modelID,omitempty"`
	ProviderID *string    `json:"providerID,omitempty"`
	System     []string   `json:"system,omitempty"`
	Cost       *float64   `json:"cost,omitempty"`
	Tokens     *TokenInfo `json:"tokens,omitempty"`
	Parts      []PartInfo `json:"parts,omitempty"`
	Time       UnixMillis `json:"time"`

	raw json.RawMessage
}

// UnmarshalJSON keeps the undecoded payload so the stored content column is a
// faithful snapshot, unknown fields included.
func (m *MessageInfo) UnmarshalJSON(data []byte) error {
	type alias MessageInfo
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*m = MessageInfo(a)
	m.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Snapshot returns the raw message payload as delivered by the host.
func (m *MessageInfo) Snapshot() *string {
	if len(m.raw) == 0 {
		return nil
	}
	s := string(m.raw)
	return &s
}

// PartState is the nested execution state inside tool-type parts.
type PartState struct {
	Status string          `json:"status,omitempty"`
	Input  json.RawMessage `json:"input,omitempty"`
	Output *string         `json:"output,omitempty"`
	Error  *string         `json:"error,omitempty"`
	Time   *struct {
		Start int64 `json:"start,omitempty"`
		End   int64 `json:"end,omitempty"`
	} `json:"time,omitempty"`
}

// PartInfo mirrors the host's message-part object.
type PartInfo struct {
	ID        string     `json:"id"`
	MessageID string     `json:"messageID"`
	SessionID string     `json:"sessionID"`
	Type      string     `json:"type"`
	Text      *string    `json:"text,omitempty"`
	Tool      *string    `json:"tool,omitempty"`
	CallID    *string    `json:"callID,omitempty"`
	Cost      *float64   `json:"cost,omitempty"`
	State     *PartState `json:"state,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON keeps the undecoded payload, same as MessageInfo.
func (p *PartInfo) UnmarshalJSON(data []byte) error {
	type alias PartInfo
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = PartInfo(a)
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Snapshot returns the raw part payload as delivered by the host.
func (p *PartInfo) Snapshot() *string {
	if len(p.raw) == 0 {
		return nil
	}
	s := string(p.raw)
	return &s
}

// Status returns the status embedded in the part's state, if any.
func (p *PartInfo) Status() string {
	if p.State == nil {
		return ""
	}
	return p.State.Status
}

// ErrorInfo is the host's error object on session.error events.
type ErrorInfo struct {
	Name string `json:"name"`
	Data *struct {
		Message string `json:"message,omitempty"`
	} `json:"data,omitempty"`
}

// Message returns the human-readable error message, falling back to the name.
func (e *ErrorInfo) Message() string {
	if e.Data != nil && e.Data.Message != "" {
		return e.Data.Message
	}
	return e.Name
}

// SessionEvent covers session.created and session.updated; both upsert.
type SessionEvent struct {
	Info SessionInfo `json:"info"`
}

// SessionDeletedEvent removes the session row and, via cascade, its children.
type SessionDeletedEvent struct {
	Info SessionInfo `json:"info"`
}

// SessionIdleEvent is sent when the host marks a session idle.
type SessionIdleEvent struct {
	SessionID string `json:"sessionID"`
}

// SessionCompactedEvent is sent after the host compacts a conversation.
type SessionCompactedEvent struct {
	SessionID string `json:"sessionID"`
}

// SessionErrorEvent may arrive without a session id; such events cannot be
// attributed and are dropped.
type SessionErrorEvent struct {
	SessionID *string    `json:"sessionID,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
}

// MessageUpdatedEvent is sent on every message create or refresh.
type MessageUpdatedEvent struct {
	Info MessageInfo `json:"info"`
}

// MessageRemovedEvent is sent when the host deletes a message.
type MessageRemovedEvent struct {
	SessionID string `json:"sessionID"`
	MessageID string `json:"messageID"`
}

// PartUpdatedEvent is sent for every streamed part delta.
type PartUpdatedEvent struct {
	Part PartInfo `json:"part"`
}

// PartRemovedEvent is sent when the host deletes a part.
type PartRemovedEvent struct {
	SessionID string `json:"sessionID"`
	MessageID string `json:"messageID"`
	PartID    string `json:"partID"`
}

// CommandExecutedEvent records a command invocation.
type CommandExecutedEvent struct {
	SessionID string  `json:"sessionID"`
	Command   string  `json:"command"`
	Arguments *string `json:"arguments,omitempty"`
	MessageID *string `json:"messageID,omitempty"`
}

// ToolExecuteBeforeEvent is the "before" half of a tool invocation.
type ToolExecuteBeforeEvent struct {
	SessionID string          `json:"sessionID"`
	CallID    string          `json:"callID"`
	Tool      string          `json:"tool"`
	Args      json.RawMessage `json:"args,omitempty"`
}

// ToolExecuteAfterEvent is the "after" half; it may arrive without a matching
// before.
type ToolExecuteAfterEvent struct {
	SessionID string  `json:"sessionID"`
	CallID    string  `json:"callID"`
	Tool      string  `json:"tool"`
	Output    *string `json:"output,omitempty"`
	Error     *string `json:"error,omitempty"`
}

// ChatMessageEvent carries the outbound parts of a user turn before the
// corresponding message identity is known.
type ChatMessageEvent struct {
	SessionID string     `json:"sessionID"`
	System    *string    `json:"system,omitempty"`
	Parts     []PartInfo `json:"parts,omitempty"`
}

// ParseEvent decodes a raw bus notification into its typed payload.
func ParseEvent(data []byte) (any, error) {
	var envelope Event
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse event envelope: %w", err)
	}
	if envelope.Type == "" {
		return nil, fmt.Errorf("missing event type")
	}
	return ParseEventPayload(envelope.Type, envelope.Properties)
}

// ParseEventPayload decodes the properties of an already-enveloped event.
func ParseEventPayload(kind string, properties json.RawMessage) (any, error) {
	decode := func(v any) (any, error) {
		if err := json.Unmarshal(properties, v); err != nil {
			return nil, fmt.Errorf("failed to parse %s event: %w", kind, err)
		}
		return v, nil
	}

	switch kind {
	case EventSessionCreated, EventSessionUpdated:
		return decode(&SessionEvent{})
	case EventSessionDeleted:
		return decode(&SessionDeletedEvent{})
	case EventSessionIdle:
		return decode(&SessionIdleEvent{})
	case EventSessionCompacted:
		return decode(&SessionCompactedEvent{})
	case EventSessionError:
		return decode(&SessionErrorEvent{})
	case EventMessageUpdated:
		return decode(&MessageUpdatedEvent{})
	case EventMessageRemoved:
		return decode(&MessageRemovedEvent{})
	case EventPartUpdated:
		return decode(&PartUpdatedEvent{})
	case EventPartRemoved:
		return decode(&PartRemovedEvent{})
	case EventCommandExecuted:
		return decode(&CommandExecutedEvent{})
	case EventToolExecuteBefore:
		return decode(&ToolExecuteBeforeEvent{})
	case EventToolExecuteAfter:
		return decode(&ToolExecuteAfterEvent{})
	case EventChatMessage:
		return decode(&ChatMessageEvent{})
	default:
		return nil, fmt.Errorf("unknown event type: %s", kind)
	}
}
