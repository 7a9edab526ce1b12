// Package config loads runtime configuration from environment variables.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Database holds Turso/libsql connection settings. A file: or :memory: URL
// needs no auth token.
type Database struct {
	URL       string `envconfig:"OCWATCH_DATABASE_URL" required:"true"`
	AuthToken string `envconfig:"OCWATCH_AUTH_TOKEN"`
}

// EventSource holds the host event-bus endpoint. An empty URL means the
// event stream is read as NDJSON from stdin.
type EventSource struct {
	URL string `envconfig:"OCWATCH_EVENT_URL"`
}

// Pipeline tunes the health gate and the correlation sweep.
type Pipeline struct {
	WriteTimeout  time.Duration `envconfig:"OCWATCH_WRITE_TIMEOUT" default:"5s"`
	BackoffBase   time.Duration `envconfig:"OCWATCH_BACKOFF_BASE" default:"1s"`
	BackoffMax    time.Duration `envconfig:"OCWATCH_BACKOFF_MAX" default:"2m"`
	SweepInterval time.Duration `envconfig:"OCWATCH_SWEEP_INTERVAL" default:"1m"`

	PendingToolTTL time.Duration `envconfig:"OCWATCH_PENDING_TOOL_TTL" default:"10m"`
	PartLinkTTL    time.Duration `envconfig:"OCWATCH_PART_LINK_TTL" default:"30m"`
	PendingChatTTL time.Duration `envconfig:"OCWATCH_PENDING_CHAT_TTL" default:"5m"`
	TokenDedupTTL  time.Duration `envconfig:"OCWATCH_TOKEN_DEDUP_TTL" default:"2h"`
}

// OTEL configures the optional metrics exporter.
type OTEL struct {
	Enabled  bool   `envconfig:"OCWATCH_OTEL_ENABLED" default:"false"`
	Endpoint string `envconfig:"OCWATCH_OTEL_ENDPOINT"`
	Insecure bool   `envconfig:"OCWATCH_OTEL_INSECURE" default:"true"`
}

// Serve is the full configuration of the serve command.
type Serve struct {
	Database    Database
	EventSource EventSource
	Pipeline    Pipeline
	OTEL        OTEL
	LogLevel    string `envconfig:"OCWATCH_LOG_LEVEL" default:"info"`
}

// LoadServe loads serve configuration from the environment.
func LoadServe() (*Serve, error) {
	var cfg Serve
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDatabase loads only the database settings (used by migrate).
func LoadDatabase() (*Database, error) {
	var cfg Database
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
