// Package logger captures crash reports. A panic anywhere under command
// dispatch is recovered once, written to the workspace crash directory with
// the stack and whatever reasoning request was in flight, and surfaced to the
// user as a file path instead of a raw stack dump.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// CrashLogDir is the directory under the workspace root where reports land.
const CrashLogDir = "crash_logs"

// keepReports bounds the crash directory. Older reports are pruned before a
// new one is written.
const keepReports = 10

// maxPromptLen caps the recorded reasoning prompt. A report needs the shape
// of the request, not the whole document.
const maxPromptLen = 2000

var meta = struct {
	sync.RWMutex
	basePath string
	version  string
	command  string
	promptOp string
	prompt   string
}{}

// SetBasePath points crash reports at the workspace directory. Until it is
// called, reports land under ./.stride.
func SetBasePath(path string) {
	meta.Lock()
	defer meta.Unlock()
	meta.basePath = path
}

// SetVersion records the CLI version stamped on reports.
func SetVersion(v string) {
	meta.Lock()
	defer meta.Unlock()
	meta.version = v
}

// SetCommand records the command currently executing.
func SetCommand(name string) {
	meta.Lock()
	defer meta.Unlock()
	meta.command = name
}

// RecordPrompt keeps the most recent reasoning request so a crash mid-call
// shows what the model was asked. Long prompts are cut at maxPromptLen.
func RecordPrompt(op, prompt string) {
	if len(prompt) > maxPromptLen {
		prompt = prompt[:maxPromptLen] + "... [cut]"
	}
	meta.Lock()
	defer meta.Unlock()
	meta.promptOp = op
	meta.prompt = prompt
}

// HandlePanic recovers a panic, writes the report, and exits non-zero.
// Defer it once at the top of command dispatch.
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}

	rep := snapshot(r)
	path, err := rep.write()
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n[CRASH] could not write crash report: %v\n", err)
		fmt.Fprintf(os.Stderr, "[CRASH] panic: %v\n%s\n", r, rep.Stack)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\nstride hit an unexpected error and had to stop.\n\n")
	fmt.Fprintf(os.Stderr, "A crash report was saved to:\n  %s\n\n", path)
	fmt.Fprintf(os.Stderr, "Please attach it to an issue at:\n  https://github.com/stridehq/stride/issues\n\n")
	os.Exit(1)
}

// report is one crash, fully assembled before any file IO happens.
type report struct {
	At       time.Time
	Version  string
	Command  string
	Panic    string
	Stack    string
	PromptOp string
	Prompt   string
}

// snapshot pairs the panic value with the recorded context.
func snapshot(panicValue any) report {
	meta.RLock()
	defer meta.RUnlock()
	return report{
		At:       time.Now(),
		Version:  meta.version,
		Command:  meta.command,
		Panic:    fmt.Sprintf("%v", panicValue),
		Stack:    string(debug.Stack()),
		PromptOp: meta.promptOp,
		Prompt:   meta.prompt,
	}
}

// write renders the report into the crash directory and returns its path.
func (r report) write() (string, error) {
	dir := reportDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create crash directory: %w", err)
	}
	// Prune first so a panic loop cannot grow the directory without bound.
	if err := prune(dir); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] could not prune old crash reports: %v\n", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("crash_%s.log", r.At.Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(r.render()), 0o644); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}

// render lays the report out as plain text.
func (r report) render() string {
	var b strings.Builder
	rule := strings.Repeat("-", 72)

	fmt.Fprintf(&b, "stride crash report\n%s\n", rule)
	fmt.Fprintf(&b, "when:     %s\n", r.At.Format(time.RFC3339))
	fmt.Fprintf(&b, "version:  %s\n", r.Version)
	fmt.Fprintf(&b, "command:  %s\n", r.Command)
	fmt.Fprintf(&b, "go:       %s\n", runtime.Version())
	fmt.Fprintf(&b, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	section := func(name, body string) {
		fmt.Fprintf(&b, "\n%s\n%s\n%s\n", name, rule, strings.TrimRight(body, "\n"))
	}
	section("panic", r.Panic)
	section("stack", r.Stack)
	if r.Prompt != "" {
		name := "reasoning prompt in flight"
		if r.PromptOp != "" {
			name += " (" + r.PromptOp + ")"
		}
		section(name, r.Prompt)
	}
	return b.String()
}

// reportDir resolves the crash directory from the recorded base path.
func reportDir() string {
	meta.RLock()
	base := meta.basePath
	meta.RUnlock()
	if base == "" {
		base = ".stride"
	}
	return filepath.Join(base, CrashLogDir)
}

// prune deletes the oldest reports so the one about to be written lands
// within the retention count. Filenames embed the timestamp, so the sorted
// directory listing is oldest first.
func prune(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "crash_") && strings.HasSuffix(e.Name(), ".log") {
			names = append(names, e.Name())
		}
	}
	if len(names) < keepReports {
		return nil
	}

	for _, name := range names[:len(names)-keepReports+1] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}
