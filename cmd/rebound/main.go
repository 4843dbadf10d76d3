// cmd/rebound/main.go
//
// Entry point for the rebound CLI. The root command (and its `play` alias)
// launches the interactive TUI; `simulate` runs the same physics headless,
// and `replay` inspects or plays back recorded matches.

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rebound/internal/config"
	"rebound/internal/tui"
)

var (
	// Global flags
	workDir string
	verbose bool

	// Logger for the headless commands. The TUI keeps its own logbook
	// instead, so interactive runs never initialize zap.
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rebound",
	Short: "rebound - a terminal physics arena",
	Long: `rebound is a two player physics toy for the terminal.

Steer the red box with the arrow keys and the blue box with WASD while a
ball ricochets around the arena, losing a little energy on every bounce.
Matches can be recorded and replayed, and physics tuning in
.rebound/config.yaml applies live while you play.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workDir == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}
			workDir = cwd
		}
		if err := config.InitWorkspace(workDir); err != nil {
			return err
		}

		// The interactive screens log to the logbook panel instead.
		if cmd.Name() == "rebound" || cmd.Name() == "play" {
			return nil
		}
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Launch the interactive arena",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func runTUI(opts ...tui.AppOption) error {
	app, err := tui.NewApp(workDir, opts...)
	if err != nil {
		return err
	}
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&workDir, "workspace", "", "directory holding the .rebound workspace (default: cwd)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging for headless commands")
	rootCmd.AddCommand(playCmd, simulateCmd, replayCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
