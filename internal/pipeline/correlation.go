package pipeline

import (
	"sync"
	"time"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
)

// pendingExecution is the transient record created by a tool "before"
// notification, consumed by the matching "after".
type pendingExecution struct {
	ExecutionID string
	SessionID   string
	Tool        string
	Input       *string
	StartedAt   time.Time

	trackedAt time.Time
}

type partLink struct {
	partID   string
	linkedAt time.Time
}

// pendingChat buffers the outbound parts of a user turn until the host
// reports the message identity.
type pendingChat struct {
	Parts  []domain.PartInfo
	System *string

	bufferedAt time.Time
}

// correlationTTLs holds the independent staleness thresholds, one per map.
type correlationTTLs struct {
	PendingTool time.Duration
	PartLink    time.Duration
	PendingChat time.Duration
	TokenDedup  time.Duration
}

// CorrelationState links asynchronous halves of the same logical operation:
// tool before/after pairs, tool calls to the parts they annotate, buffered
// user-turn parts to their eventual message, and the set of messages whose
// token counters were already applied. Entries are weak: a periodic sweep
// drops anything older than its map's staleness threshold regardless of
// outcome, preferring bounded memory over perfect correlation when the host
// misbehaves.
type CorrelationState struct {
	ttl correlationTTLs
	now func() time.Time

	mu            sync.Mutex
	pendingTools  map[string]*pendingExecution
	partLinks     map[string]partLink
	pendingChats  map[string]*pendingChat
	tokensApplied map[string]map[string]time.Time
}

// NewCorrelationState builds empty correlation maps with the given TTLs.
func NewCorrelationState(ttl correlationTTLs) *CorrelationState {
	return &CorrelationState{
		ttl:           ttl,
		now:           time.Now,
		pendingTools:  make(map[string]*pendingExecution),
		partLinks:     make(map[string]partLink),
		pendingChats:  make(map[string]*pendingChat),
		tokensApplied: make(map[string]map[string]time.Time),
	}
}

// TrackTool records a pending execution for a call id. A second before for
// the same call id (host retry) replaces the first.
func (c *CorrelationState) TrackTool(callID string, exec *pendingExecution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exec.trackedAt = c.now()
	c.pendingTools[callID] = exec
}

// TakeTool consumes the pending execution for a call id, if any. A call id
// never returns to pending once taken.
func (c *CorrelationState) TakeTool(callID string) (*pendingExecution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exec, ok := c.pendingTools[callID]
	if ok {
		delete(c.pendingTools, callID)
	}
	return exec, ok
}

// LinkPart associates a call id with the part row its result annotates. The
// association outlives the pending execution so an after handler that runs
// late can still find the part.
func (c *CorrelationState) LinkPart(callID, partID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partLinks[callID] = partLink{partID: partID, linkedAt: c.now()}
}

// PartFor returns the part linked to a call id without consuming the link.
func (c *CorrelationState) PartFor(callID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	link, ok := c.partLinks[callID]
	return link.partID, ok
}

// BufferChat stores the outbound parts of a user turn keyed by session.
func (c *CorrelationState) BufferChat(sessionID string, parts []domain.PartInfo, system *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingChats[sessionID] = &pendingChat{
		Parts:      parts,
		System:     system,
		bufferedAt: c.now(),
	}
}

// TakeChat consumes the buffered user turn for a session, if any.
func (c *CorrelationState) TakeChat(sessionID string) (*pendingChat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	chat, ok := c.pendingChats[sessionID]
	if ok {
		delete(c.pendingChats, sessionID)
	}
	return chat, ok
}

// MarkTokensApplied records that a message's token counters were counted
// toward its session. Returns false when the message was already counted.
func (c *CorrelationState) MarkTokensApplied(sessionID, messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	applied, ok := c.tokensApplied[sessionID]
	if !ok {
		applied = make(map[string]time.Time)
		c.tokensApplied[sessionID] = applied
	}
	if _, seen := applied[messageID]; seen {
		return false
	}
	applied[messageID] = c.now()
	return true
}

// Sweep drops entries older than each map's staleness threshold and returns
// eviction counts keyed by map name. Abandoned pending executions stay
// unresolved in the store; a late after is treated as an orphan.
func (c *CorrelationState) Sweep() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := make(map[string]int64)

	for callID, exec := range c.pendingTools {
		if now.Sub(exec.trackedAt) > c.ttl.PendingTool {
			delete(c.pendingTools, callID)
			evicted["pending_tools"]++
		}
	}
	for callID, link := range c.partLinks {
		if now.Sub(link.linkedAt) > c.ttl.PartLink {
			delete(c.partLinks, callID)
			evicted["part_links"]++
		}
	}
	for sessionID, chat := range c.pendingChats {
		if now.Sub(chat.bufferedAt) > c.ttl.PendingChat {
			delete(c.pendingChats, sessionID)
			evicted["pending_chats"]++
		}
	}
	for sessionID, applied := range c.tokensApplied {
		for messageID, at := range applied {
			if now.Sub(at) > c.ttl.TokenDedup {
				delete(applied, messageID)
				evicted["tokens_applied"]++
			}
		}
		if len(applied) == 0 {
			delete(c.tokensApplied, sessionID)
		}
	}
	return evicted
}
