package eventsource

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/ocwatch/internal/domain"
	"github.com/emiliopalmerini/ocwatch/internal/ports"
)

// Stdin reads newline-delimited JSON events from a reader, one envelope per
// line. This is the plugin/hook mode: the host pipes its bus straight into the
// process and EOF means the host is gone.
type Stdin struct {
	r   io.Reader
	log *logrus.Entry
}

// NewStdin creates an NDJSON event source over r.
func NewStdin(r io.Reader, log *logrus.Entry) *Stdin {
	return &Stdin{r: r, log: log}
}

// Run reads events until EOF or context cancellation. Malformed lines are
// skipped, not fatal.
func (s *Stdin) Run(ctx context.Context, handle ports.EventHandler) error {
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event domain.Event
		if err := json.Unmarshal(line, &event); err != nil {
			s.log.WithError(err).Debug("skipping malformed event line")
			continue
		}
		handle(ctx, event)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event stream: %w", err)
	}
	return nil
}
