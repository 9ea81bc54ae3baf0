package config

import (
	"os"
	"path/filepath"
)

// GlobalConfigDir returns the per-user configuration directory (~/.stride).
// API keys and telemetry consent live here so they apply across workspaces.
// It's a variable to allow overriding in tests.
var GlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".stride"), nil
}
