package telemetry

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/posthog/posthog-go"
)

// recorder implements enqueuer and keeps every capture it sees.
type recorder struct {
	mu       sync.Mutex
	captures []posthog.Capture
	closes   int
}

func (r *recorder) Enqueue(msg posthog.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := msg.(posthog.Capture); ok {
		r.captures = append(r.captures, c)
	}
	return nil
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes++
	return nil
}

func (r *recorder) snapshot() []posthog.Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]posthog.Capture, len(r.captures))
	copy(out, r.captures)
	return out
}

func (r *recorder) closeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closes
}

func liveClient(consent *Config, version string) (*posthogClient, *recorder) {
	rec := &recorder{}
	return &posthogClient{enq: rec, consent: consent, version: version}, rec
}

func TestTrackAttachesStandardProperties(t *testing.T) {
	client, rec := liveClient(&Config{Enabled: true, AnonymousID: "anon-42"}, "1.2.3")

	client.Track(EventCommandExecuted, Properties{
		"command": "breakdown",
		"success": true,
	})

	captures := rec.snapshot()
	if len(captures) != 1 {
		t.Fatalf("captures = %d, want 1", len(captures))
	}
	got := captures[0]

	if got.Event != EventCommandExecuted {
		t.Errorf("event = %q, want %q", got.Event, EventCommandExecuted)
	}
	if got.DistinctId != "anon-42" {
		t.Errorf("distinct id = %q, want anon-42", got.DistinctId)
	}

	want := map[string]any{
		"command":                 "breakdown",
		"success":                 true,
		"os":                      runtime.GOOS,
		"arch":                    runtime.GOARCH,
		"cli_version":             "1.2.3",
		"$process_person_profile": false,
	}
	for key, val := range want {
		if got.Properties[key] != val {
			t.Errorf("property %q = %v, want %v", key, got.Properties[key], val)
		}
	}
}

func TestTrackDropsWithoutConsent(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		client, rec := liveClient(&Config{Enabled: false, AnonymousID: "anon"}, "1.0.0")
		client.Track(EventCommandExecuted, Properties{"command": "list"})
		if n := len(rec.snapshot()); n != 0 {
			t.Errorf("captures = %d, want 0", n)
		}
	})

	t.Run("nil consent", func(t *testing.T) {
		client, rec := liveClient(nil, "1.0.0")
		client.Track(EventCommandExecuted, nil)
		if n := len(rec.snapshot()); n != 0 {
			t.Errorf("captures = %d, want 0", n)
		}
	})
}

func TestTrackWithNilPropertiesStillStampsStandardOnes(t *testing.T) {
	client, rec := liveClient(&Config{Enabled: true, AnonymousID: "anon"}, "2.0.0")

	client.Track("bare_event", nil)

	captures := rec.snapshot()
	if len(captures) != 1 {
		t.Fatalf("captures = %d, want 1", len(captures))
	}
	if captures[0].Properties["cli_version"] != "2.0.0" {
		t.Errorf("cli_version = %v, want 2.0.0", captures[0].Properties["cli_version"])
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	client, rec := liveClient(&Config{Enabled: true, AnonymousID: "anon"}, "1.0.0")

	if err := client.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if n := rec.closeCount(); n != 1 {
		t.Errorf("underlying Close calls = %d, want 1", n)
	}

	// Track after Close must be a silent drop, not a panic.
	client.Track("late_event", nil)
	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("captures after Close = %d, want 0", n)
	}
}

func TestTrackIsSafeConcurrently(t *testing.T) {
	client, rec := liveClient(&Config{Enabled: true, AnonymousID: "anon"}, "1.0.0")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			client.Track("burst", Properties{"n": n})
		}(i)
	}
	wg.Wait()

	if n := len(rec.snapshot()); n != 50 {
		t.Errorf("captures = %d, want 50", n)
	}
}

func TestNewClientDegradesToNoop(t *testing.T) {
	cases := []struct {
		name string
		cfg  ClientConfig
	}{
		{"nil consent", ClientConfig{APIKey: "key"}},
		{"consent off", ClientConfig{APIKey: "key", Config: &Config{Enabled: false}}},
		{"no api key", ClientConfig{Config: &Config{Enabled: true, AnonymousID: "anon"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := NewClient(tc.cfg).(*NoopClient); !ok {
				t.Errorf("NewClient(%+v) is not the no-op client", tc.cfg)
			}
		})
	}
}

func TestNoopClientDoesNothing(t *testing.T) {
	c := NewNoopClient()
	c.Track("ignored", Properties{"key": "value"})
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestTrackCommandShapesEvent(t *testing.T) {
	client, rec := liveClient(&Config{Enabled: true, AnonymousID: "anon"}, "1.0.0")

	TrackCommand(client, "activate", 1500*time.Millisecond, false, "reasoning_unavailable")

	captures := rec.snapshot()
	if len(captures) != 1 {
		t.Fatalf("captures = %d, want 1", len(captures))
	}
	got := captures[0]
	if got.Event != EventCommandExecuted {
		t.Errorf("event = %q, want %q", got.Event, EventCommandExecuted)
	}
	if got.Properties["command"] != "activate" {
		t.Errorf("command = %v, want activate", got.Properties["command"])
	}
	if got.Properties["duration_ms"] != int64(1500) {
		t.Errorf("duration_ms = %v, want 1500", got.Properties["duration_ms"])
	}
	if got.Properties["error_type"] != "reasoning_unavailable" {
		t.Errorf("error_type = %v, want reasoning_unavailable", got.Properties["error_type"])
	}

	// Success without an error type omits the property entirely.
	TrackCommand(client, "list", 20*time.Millisecond, true, "")
	captures = rec.snapshot()
	if len(captures) != 2 {
		t.Fatalf("captures = %d, want 2", len(captures))
	}
	if _, present := captures[1].Properties["error_type"]; present {
		t.Error("error_type should be absent on success")
	}

	// A nil client is tolerated at every call site.
	TrackCommand(nil, "list", 0, true, "")
}

func TestTrackBreakdownShapesEvent(t *testing.T) {
	client, rec := liveClient(&Config{Enabled: true, AnonymousID: "anon"}, "1.0.0")

	TrackBreakdown(client, "openai", 7, true)

	captures := rec.snapshot()
	if len(captures) != 1 {
		t.Fatalf("captures = %d, want 1", len(captures))
	}
	got := captures[0]
	if got.Event != EventBreakdownComplete {
		t.Errorf("event = %q, want %q", got.Event, EventBreakdownComplete)
	}
	if got.Properties["provider"] != "openai" {
		t.Errorf("provider = %v, want openai", got.Properties["provider"])
	}
	if got.Properties["node_count"] != 7 {
		t.Errorf("node_count = %v, want 7", got.Properties["node_count"])
	}

	TrackBreakdown(nil, "openai", 0, false)
}
