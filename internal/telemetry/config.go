// Package telemetry sends anonymous usage events. It is strictly opt-in:
// nothing leaves the machine until `stride config telemetry on` has been run
// in the workspace.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ConfigFileName is the consent file inside the workspace directory.
const ConfigFileName = "telemetry.json"

// Config holds the telemetry state for one workspace.
type Config struct {
	// Enabled is the recorded consent decision.
	Enabled bool `json:"enabled"`

	// AnonymousID is a random UUID identifying the workspace, generated on
	// first load and never changed. It carries no personal information.
	AnonymousID string `json:"anonymous_id"`
}

// LoadConfig reads the consent state from dir (the .stride directory). A
// missing file yields the disabled default with a fresh anonymous id.
func LoadConfig(dir string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	switch {
	case err == nil:
		if uerr := json.Unmarshal(data, cfg); uerr != nil {
			return nil, fmt.Errorf("parse telemetry config: %w", uerr)
		}
	case os.IsNotExist(err):
		// First run in this workspace, keep the disabled default.
	default:
		return nil, fmt.Errorf("read telemetry config: %w", err)
	}

	if cfg.AnonymousID == "" {
		cfg.AnonymousID = uuid.New().String()
	}
	return cfg, nil
}

// Save writes the consent state into dir with owner-only file permissions.
func (c *Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create telemetry config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal telemetry config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0600)
}

// IsEnabled reports whether events may be sent. Safe on a nil Config.
func (c *Config) IsEnabled() bool {
	return c != nil && c.Enabled
}
