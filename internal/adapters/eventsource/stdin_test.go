package eventsource

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
)

func discardLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func TestStdin_ReadsEnvelopesPerLine(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"session.created","properties":{"info":{"id":"sess-1"}}}`,
		``,
		`not json at all`,
		`{"type":"session.idle","properties":{"sessionID":"sess-1"}}`,
	}, "\n")

	source := NewStdin(strings.NewReader(input), discardLog())

	var kinds []string
	err := source.Run(context.Background(), func(ctx context.Context, event domain.Event) {
		kinds = append(kinds, event.Type)
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{domain.EventSessionCreated, domain.EventSessionIdle}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestStdin_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := `{"type":"session.idle","properties":{"sessionID":"sess-1"}}` + "\n"
	source := NewStdin(strings.NewReader(input), discardLog())

	var handled int
	if err := source.Run(ctx, func(context.Context, domain.Event) { handled++ }); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if handled != 0 {
		t.Errorf("handled = %d, want 0 after cancellation", handled)
	}
}
