package domain

import (
	"strings"
	"testing"
)

func TestParseEvent_Session(t *testing.T) {
	payload, err := ParseEvent([]byte(`{
		"type": "session.updated",
		"properties": {"info": {"id": "sess-1", "title": "fix ci", "time": {"created": 1756300000000, "updated": 1756300100000}}}
	}`))
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}

	e, ok := payload.(*SessionEvent)
	if !ok {
		t.Fatalf("payload = %T, want *SessionEvent", payload)
	}
	if e.Info.ID != "sess-1" {
		t.Errorf("id = %q", e.Info.ID)
	}
	if e.Info.Title == nil || *e.Info.Title != "fix ci" {
		t.Errorf("title = %v", e.Info.Title)
	}
	if e.Info.Directory != nil {
		t.Error("absent directory must decode to nil, not empty string")
	}
}

func TestParseEvent_UnknownType(t *testing.T) {
	_, err := ParseEvent([]byte(`{"type":"session.exploded","properties":{}}`))
	if err == nil || !strings.Contains(err.Error(), "unknown event type") {
		t.Errorf("err = %v, want unknown event type", err)
	}
}

func TestParseEvent_MissingType(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"properties":{}}`)); err == nil {
		t.Error("expected error for missing type")
	}
}

func TestPartInfo_SnapshotKeepsUnknownFields(t *testing.T) {
	payload, err := ParseEvent([]byte(`{
		"type": "message.part.updated",
		"properties": {"part": {"id": "prt-1", "messageID": "msg-1", "sessionID": "sess-1", "type": "tool", "callID": "call-1", "state": {"status": "running"}, "somethingNew": 42}}
	}`))
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}

	e := payload.(*PartUpdatedEvent)
	snapshot := e.Part.Snapshot()
	if snapshot == nil {
		t.Fatal("snapshot should carry the raw payload")
	}
	if !strings.Contains(*snapshot, "somethingNew") {
		t.Error("snapshot must keep fields the decoder does not know")
	}
	if e.Part.Status() != StatusRunning {
		t.Errorf("status = %q, want running", e.Part.Status())
	}
}

func TestTokenInfo_Delta(t *testing.T) {
	var missing *TokenInfo
	if !missing.Delta().Empty() {
		t.Error("nil token info must yield an empty delta")
	}

	info := &TokenInfo{Input: 1000, Output: 200, Reasoning: 50}
	info.Cache.Read = 4000
	info.Cache.Write = 10

	delta := info.Delta()
	if delta.Empty() {
		t.Error("real usage is not empty")
	}
	if delta.ContextSize() != 5000 {
		t.Errorf("context size = %d, want input+cacheRead", delta.ContextSize())
	}

	cacheOnly := TokenDelta{CacheRead: 100}
	if !cacheOnly.Empty() {
		t.Error("cache-only deltas count as empty")
	}
}

func TestErrorInfo_Message(t *testing.T) {
	named := &ErrorInfo{Name: "AbortError"}
	if named.Message() != "AbortError" {
		t.Errorf("fallback = %q, want the name", named.Message())
	}

	full := &ErrorInfo{Name: "ProviderAuthError"}
	full.Data = &struct {
		Message string `json:"message,omitempty"`
	}{Message: "invalid api key"}
	if full.Message() != "invalid api key" {
		t.Errorf("message = %q", full.Message())
	}
}
