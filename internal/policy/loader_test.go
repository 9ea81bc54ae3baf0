package policy

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func seedPolicyFiles(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("seed %s: %v", path, err)
		}
	}
	return fs
}

func TestLoadAllCollectsRegoFiles(t *testing.T) {
	fs := seedPolicyFiles(t, map[string]string{
		"/ws/.stride/policies/quota.rego": `package stride.policy

import rego.v1

deny contains msg if {
    input.action == "activate"
    input.graph.active_count >= 5
    msg := "too many active goals"
}
`,
		"/ws/.stride/policies/team/locks.rego": "package stride.policy\n",
		"/ws/.stride/policies/README.md":       "# Policies\n",
	})

	found, err := NewLoader(fs, "/ws/.stride/policies").LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("loaded %d files, want 2 (README must be skipped)", len(found))
	}

	byName := map[string]*PolicyFile{}
	for _, pf := range found {
		byName[pf.Name] = pf
	}
	if byName["quota"] == nil || byName["locks"] == nil {
		t.Fatal("want both quota and locks loaded, by base name without extension")
	}
	if byName["locks"].Path != "/ws/.stride/policies/team/locks.rego" {
		t.Errorf("subdirectory file path = %q", byName["locks"].Path)
	}
	if !strings.Contains(byName["quota"].Content, "active_count") {
		t.Error("quota source not carried in Content")
	}
}

func TestLoadAllWithoutPolicies(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		if err := fs.MkdirAll("/ws/.stride/policies", 0755); err != nil {
			t.Fatal(err)
		}

		found, err := NewLoader(fs, "/ws/.stride/policies").LoadAll()
		if err != nil {
			t.Fatalf("LoadAll: %v", err)
		}
		if len(found) != 0 {
			t.Errorf("loaded %d files, want 0", len(found))
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		found, err := NewLoader(afero.NewMemMapFs(), "/ws/.stride/policies").LoadAll()
		if err != nil {
			t.Fatalf("missing directory should not error, got %v", err)
		}
		if len(found) != 0 {
			t.Errorf("loaded %d files, want 0", len(found))
		}
	})
}
