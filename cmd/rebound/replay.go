// cmd/rebound/replay.go
//
// Replay inspection and playback from the command line. Without arguments
// (or with --list) it prints the stored replays; with a file argument it
// plays the match back in the TUI, and --summary prints a headless digest
// of the file instead.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rebound/internal/config"
	"rebound/internal/replay"
	"rebound/internal/tui"
)

var (
	replayList    bool
	replaySummary bool
)

var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "List recorded matches or play one back",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayList, "list", false, "list stored replays and exit")
	replayCmd.Flags().BoolVar(&replaySummary, "summary", false, "print a digest of the replay instead of playing it")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewConfig(workDir)
	if err != nil {
		return err
	}

	if replayList || len(args) == 0 {
		return listReplays(cfg)
	}

	path := resolveReplayPath(cfg, args[0])
	if replaySummary {
		return summarizeReplay(path)
	}
	return runTUI(tui.WithReplay(path))
}

// resolveReplayPath lets bare file names refer to the replays directory.
func resolveReplayPath(cfg *config.Config, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	candidate := filepath.Join(cfg.ReplaysDir(), path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}

func listReplays(cfg *config.Config) error {
	infos, err := replay.List(cfg.ReplaysDir())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No replays recorded yet.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tMATCH\tRECORDED")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			filepath.Base(info.Path),
			info.Header.MatchID,
			info.Modified.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

// summarizeReplay walks the whole file and prints a digest of the match.
func summarizeReplay(path string) error {
	r, err := replay.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	header := r.Header()
	frames := 0
	contacts := 0
	var lastElapsed float64
	for {
		frame, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		frames++
		contacts += len(frame.Events)
		lastElapsed = frame.Elapsed
	}

	logger.Sugar().Infow("replay summary",
		"file", filepath.Base(path),
		"match_id", header.MatchID,
		"recorded_at", header.StartedAt.Format("2006-01-02 15:04:05"),
		"frame_rate", header.FrameRate,
		"frames", frames,
		"duration", fmt.Sprintf("%.1fs", lastElapsed),
		"contacts", contacts,
	)
	return nil
}
