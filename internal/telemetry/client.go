package telemetry

import (
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/posthog/posthog-go"
)

// Client sends usage events. Implementations are safe for concurrent use.
type Client interface {
	// Track enqueues an event without blocking. Disabled clients drop it.
	Track(event string, properties map[string]any)

	// Close flushes whatever is still queued.
	Close() error
}

// Properties names event payloads at call sites.
type Properties = map[string]any

// ClientConfig carries what NewClient needs to choose between a live and a
// no-op client.
type ClientConfig struct {
	// APIKey is the PostHog project key. Empty disables telemetry.
	APIKey string

	// Version is stamped on every event as cli_version.
	Version string

	// Config is the workspace consent state.
	Config *Config

	// Endpoint overrides the PostHog cloud endpoint for self-hosted setups.
	Endpoint string
}

// NewClient returns a PostHog-backed client when consent and an API key are
// both present, and a no-op client otherwise. Construction failures degrade
// to the no-op client too; telemetry never blocks the CLI.
func NewClient(cfg ClientConfig) Client {
	if !cfg.Config.IsEnabled() || cfg.APIKey == "" {
		return NewNoopClient()
	}

	phCfg := posthog.Config{
		// The CLI exits quickly and sends a handful of events at most, so
		// batch small and flush often.
		BatchSize: 10,
		Interval:  time.Second,
		// Transport warnings must never reach normal CLI output.
		Logger: discardLogger{},
	}
	if cfg.Endpoint != "" {
		phCfg.Endpoint = cfg.Endpoint
	}

	ph, err := posthog.NewWithConfig(cfg.APIKey, phCfg)
	if err != nil {
		return NewNoopClient()
	}
	return &posthogClient{enq: ph, consent: cfg.Config, version: cfg.Version}
}

// enqueuer is the slice of the PostHog SDK this package touches, a seam for
// the recorder used in tests.
type enqueuer interface {
	io.Closer
	Enqueue(posthog.Message) error
}

// posthogClient forwards events to PostHog with the standard properties
// attached. Close nils the enqueuer, so every method checks it.
type posthogClient struct {
	mu      sync.Mutex
	enq     enqueuer
	consent *Config
	version string
}

func (c *posthogClient) Track(event string, properties map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enq == nil || !c.consent.IsEnabled() {
		return
	}

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}
	props.Set("os", runtime.GOOS)
	props.Set("arch", runtime.GOARCH)
	props.Set("cli_version", c.version)
	// No person profiles: events stay anonymous on the PostHog side too.
	props.Set("$process_person_profile", false)

	_ = c.enq.Enqueue(posthog.Capture{
		DistinctId: c.consent.AnonymousID,
		Event:      event,
		Properties: props,
	})
}

// Close flushes pending events once. Later calls are no-ops.
func (c *posthogClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enq == nil {
		return nil
	}
	err := c.enq.Close()
	c.enq = nil
	return err
}

// NoopClient drops every event. Used whenever telemetry is off.
type NoopClient struct{}

// NewNoopClient returns a client that does nothing.
func NewNoopClient() *NoopClient { return &NoopClient{} }

func (*NoopClient) Track(string, map[string]any) {}

func (*NoopClient) Close() error { return nil }

// discardLogger swallows the PostHog SDK's own log output.
type discardLogger struct{}

func (discardLogger) Debugf(string, ...any) {}
func (discardLogger) Logf(string, ...any)   {}
func (discardLogger) Warnf(string, ...any)  {}
func (discardLogger) Errorf(string, ...any) {}
