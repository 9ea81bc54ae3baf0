/*
Copyright © 2026 Stride contributors
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stridehq/stride/internal/config"
	"github.com/stridehq/stride/internal/logger"
	"github.com/stridehq/stride/internal/telemetry"
	"github.com/stridehq/stride/internal/workspace"
)

var (
	// cfgFile is an explicit config file path, bypassing workspace discovery.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// jsonOut switches command output to machine-readable JSON.
	jsonOut bool
	// version is the application version, overridden at build time.
	version = "0.3.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stride",
	Short: "Stride turns big goals into scheduled, trackable plans.",
	Long: `Stride is a goal planning engine for the command line.

Capture a goal, break it down into subgoals with an AI collaborator, run it
as a step-by-step roadmap, and activate it onto a calendar. Progress rolls
up the hierarchy automatically and the timeline shows what lands when.

Start with 'stride init', then 'stride add "Your goal"'.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	defer logger.HandlePanic()

	cmd, _, err := rootCmd.Find(os.Args[1:])
	name := "stride"
	if err == nil && cmd != nil {
		name = cmd.Name()
	}
	logger.SetCommand(name)
	logger.SetVersion(version)

	start := time.Now()
	runErr := rootCmd.Execute()
	trackInvocation(name, time.Since(start), runErr)

	if runErr != nil {
		os.Exit(1)
	}
}

// trackInvocation sends one anonymous command event when telemetry is opted
// in. Failures are swallowed; reporting never interferes with the command.
func trackInvocation(command string, duration time.Duration, runErr error) {
	ws, err := workspace.Find(osFs(), mustGetwd())
	if err != nil {
		return
	}
	client := newTelemetryClient(ws.Dir)
	defer func() { _ = client.Close() }()

	errType := ""
	if runErr != nil {
		errType = fmt.Sprintf("%T", runErr)
	}
	telemetry.TrackCommand(client, command, duration, runErr == nil, errType)
}

// newTelemetryClient builds a client from the workspace consent file. Any
// failure, and opted-out workspaces, yield a no-op client.
func newTelemetryClient(workspaceDir string) telemetry.Client {
	consent, err := telemetry.LoadConfig(workspaceDir)
	if err != nil {
		return telemetry.NewNoopClient()
	}
	return telemetry.NewClient(telemetry.ClientConfig{
		APIKey:   viper.GetString("telemetry.apiKey"),
		Version:  version,
		Config:   consent,
		Endpoint: viper.GetString("telemetry.endpoint"),
	})
}

// GetVersion returns the application version string.
func GetVersion() string {
	return version
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .stride/config.yaml in the workspace)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "emit machine-readable JSON")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// initConfig locates the workspace and layers configuration. Runs before
// every command; commands that need a workspace resolve it again and fail
// with a real error when none exists.
func initConfig() {
	setupLogging()

	dir := ""
	if ws, err := workspace.Find(osFs(), mustGetwd()); err == nil {
		dir = ws.Dir
		logger.SetBasePath(ws.Dir)
	}
	config.Init(cfgFile, dir)
}

// setupLogging installs the process-wide slog handler on stderr, keeping
// stdout free for command output. Warnings always pass; --verbose opens the
// debug stream the internal packages chatter on.
func setupLogging() {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
