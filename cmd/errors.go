/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
)

// PrintError writes a user-facing message to stderr. Under --verbose the
// underlying technical error replaces the friendly wording.
func PrintError(userMsg string, technicalErr error) {
	line := userMsg
	if technicalErr != nil && viper.GetBool("verbose") {
		line = fmt.Sprintf("Error: %v", technicalErr)
	}
	fmt.Fprintln(os.Stderr, line)
}

// HandleFatalError reports the error and stops the process with exit code 1.
func HandleFatalError(userMsg string, technicalErr error) {
	PrintError(userMsg, technicalErr)
	os.Exit(1)
}

// LogError records a non-fatal error on the debug stream, which --verbose
// exposes on stderr.
func LogError(msg string, err error) {
	slog.Debug(msg, "error", err)
}
