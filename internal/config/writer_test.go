package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestQuoteYAMLValue(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"bare word stays bare":          {"ollama", "ollama"},
		"empty stays empty":             {"", ""},
		"colon forces quotes":           {"sk-proj:key", `"sk-proj:key"`},
		"hash forces quotes":            {"key#fragment", `"key#fragment"`},
		"space forces quotes":           {"two words", `"two words"`},
		"inner quote is escaped":        {`say "hi"`, `"say \"hi\""`},
		"newline is escaped":            {"line1\nline2", `"line1\nline2"`},
		"tab is escaped":                {"a\tb", `"a\tb"`},
		"backslash escaped when quoted": {`C:\keys`, `"C:\\keys"`},
		"lone backslash passes through": {`a\b`, `a\b`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := quoteYAMLValue(tc.in); got != tc.want {
				t.Errorf("quoteYAMLValue(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSaveProviderConfig_Validation(t *testing.T) {
	resetViperForTest(t)

	if err := SaveProviderConfig("", "", "some-key"); err == nil {
		t.Error("expected error for empty provider")
	}
	if err := SaveProviderConfig("watson", "", "some-key"); err == nil {
		t.Error("expected error for unknown provider with no explicit model")
	}
}

func TestSaveProviderConfig_NewFile(t *testing.T) {
	resetViperForTest(t)

	if err := SaveProviderConfig("anthropic", "", "sk-ant:key#1"); err != nil {
		t.Fatalf("SaveProviderConfig() error = %v", err)
	}

	dir, _ := GlobalConfigDir()
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("read config file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "provider: anthropic") {
		t.Errorf("config missing provider, got:\n%s", content)
	}
	if !strings.Contains(content, `anthropic: "sk-ant:key#1"`) {
		t.Errorf("API key should be quoted, got:\n%s", content)
	}
}

func TestSaveProviderConfig_EmptyKeyForOllama(t *testing.T) {
	resetViperForTest(t)

	if err := SaveProviderConfig("ollama", "", ""); err != nil {
		t.Fatalf("SaveProviderConfig() error = %v", err)
	}

	dir, _ := GlobalConfigDir()
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("read config file: %v", err)
	}
	if strings.Contains(string(data), "apiKeys") {
		t.Errorf("no apiKeys section expected for a keyless provider, got:\n%s", data)
	}
}

func TestSaveProviderConfig_UpdatePreservesOtherKeys(t *testing.T) {
	resetViperForTest(t)

	dir, _ := GlobalConfigDir()
	existing := []byte("verbose: true\nllm:\n  provider: openai\n  apiKeys:\n    openai: old-key\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), existing, 0o600); err != nil {
		t.Fatalf("write existing config: %v", err)
	}

	if err := SaveProviderConfig("anthropic", "claude-sonnet-4-20250514", "ant-key"); err != nil {
		t.Fatalf("SaveProviderConfig() error = %v", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "config.yaml"))
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("reread config: %v", err)
	}

	if got := v.GetString("llm.provider"); got != "anthropic" {
		t.Errorf("provider = %q, want anthropic", got)
	}
	if got := v.GetString("llm.model"); got != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q, want explicit value", got)
	}
	if got := v.GetString("llm.apiKeys.openai"); got != "old-key" {
		t.Errorf("openai key = %q, existing keys must survive", got)
	}
	if !v.GetBool("verbose") {
		t.Error("unrelated settings must survive the update")
	}
}

func TestSaveAPIKeyForProvider(t *testing.T) {
	resetViperForTest(t)

	if err := SaveAPIKeyForProvider("gemini", "gem-key"); err != nil {
		t.Fatalf("SaveAPIKeyForProvider() error = %v", err)
	}

	dir, _ := GlobalConfigDir()
	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "config.yaml"))
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("reread config: %v", err)
	}

	if got := v.GetString("llm.apiKeys.gemini"); got != "gem-key" {
		t.Errorf("gemini key = %q, want saved value", got)
	}
	if v.IsSet("llm.provider") {
		t.Error("provider must stay untouched when saving a key only")
	}
}

func TestSaveAPIKeyForProvider_Validation(t *testing.T) {
	resetViperForTest(t)

	if err := SaveAPIKeyForProvider("", "key"); err == nil {
		t.Error("expected error for empty provider")
	}
	if err := SaveAPIKeyForProvider("openai", ""); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestSetWorkspaceValue(t *testing.T) {
	resetViperForTest(t)
	wsDir := t.TempDir()

	if err := SetWorkspaceValue(wsDir, "store.backend", "file"); err != nil {
		t.Fatalf("SetWorkspaceValue() error = %v", err)
	}
	if err := SetWorkspaceValue(wsDir, "store.format", "toml"); err != nil {
		t.Fatalf("SetWorkspaceValue() error = %v", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(wsDir, "config.yaml"))
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read workspace config: %v", err)
	}
	if got := v.GetString("store.backend"); got != "file" {
		t.Errorf("store.backend = %q, want file", got)
	}
	if got := v.GetString("store.format"); got != "toml" {
		t.Errorf("store.format = %q, second write must keep the first", got)
	}
}

func TestSetWorkspaceValue_EmptyKey(t *testing.T) {
	if err := SetWorkspaceValue(t.TempDir(), "  ", "x"); err == nil {
		t.Error("expected error for empty key")
	}
}
