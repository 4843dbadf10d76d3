// cmd/rebound/simulate.go
//
// Headless simulation. Runs the exact same fixed-timestep world the TUI
// steps, with optional scripted inputs, and reports contact and energy
// statistics. Useful for tuning physics parameters and for generating
// replays deterministically.

package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rebound/internal/config"
	"rebound/internal/replay"
	"rebound/internal/sim"
)

var (
	simSeconds float64
	simScript  string
	simRecord  bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the arena headless and report statistics",
	Long: `Steps the simulation without a UI for the requested duration.

Inputs can be scripted with --script, a comma separated list of
time:player:direction triples, e.g.

  rebound simulate --seconds 10 --script "0.5:p1:right,0.5:p1:up,3:p2:left"

Each triple arms that direction at that simulation time for one hold
window, exactly as a key press would.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().Float64Var(&simSeconds, "seconds", 30, "simulated duration in seconds")
	simulateCmd.Flags().StringVar(&simScript, "script", "", "scripted inputs as time:player:direction triples")
	simulateCmd.Flags().BoolVar(&simRecord, "record", false, "record the run as a replay")
}

// scriptEvent is one scheduled input.
type scriptEvent struct {
	at     float64
	player sim.Player
	dir    sim.Direction
}

// parseScript parses the --script flag. Events come back sorted by time.
func parseScript(raw string) ([]scriptEvent, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var events []scriptEvent
	for _, part := range strings.Split(raw, ",") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("script entry %q must be time:player:direction", part)
		}
		at, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || at < 0 {
			return nil, fmt.Errorf("script entry %q has a bad time", part)
		}
		var player sim.Player
		switch strings.ToLower(fields[1]) {
		case "p1", "1":
			player = sim.PlayerOne
		case "p2", "2":
			player = sim.PlayerTwo
		default:
			return nil, fmt.Errorf("script entry %q has a bad player (want p1 or p2)", part)
		}
		var dir sim.Direction
		switch strings.ToLower(fields[2]) {
		case "up":
			dir = sim.DirUp
		case "down":
			dir = sim.DirDown
		case "left":
			dir = sim.DirLeft
		case "right":
			dir = sim.DirRight
		default:
			return nil, fmt.Errorf("script entry %q has a bad direction", part)
		}
		events = append(events, scriptEvent{at: at, player: player, dir: dir})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].at < events[j].at })
	return events, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simSeconds <= 0 {
		return fmt.Errorf("--seconds must be positive")
	}
	script, err := parseScript(simScript)
	if err != nil {
		return err
	}

	cfg, err := config.NewConfig(workDir)
	if err != nil {
		return err
	}
	tuning := cfg.Tuning()
	frameRate := cfg.File.Display.FrameRate
	dt := 1.0 / float64(frameRate)
	steps := int(simSeconds * float64(frameRate))

	world := sim.NewWorld(tuning)
	log := logger.Sugar()
	log.Infow("simulation starting",
		"match_id", world.MatchID(),
		"seconds", simSeconds,
		"steps", steps,
		"frame_rate", frameRate,
		"scripted_inputs", len(script),
	)

	var rec *replay.Recorder
	if simRecord {
		started := time.Now().UTC()
		header := replay.Header{
			Version:   replay.SchemaVersion,
			MatchID:   world.MatchID(),
			Tuning:    tuning,
			FrameRate: frameRate,
			StartedAt: started,
		}
		path := filepath.Join(cfg.ReplaysDir(), replay.FileName(header.MatchID, started))
		rec, err = replay.NewRecorder(path, header, replay.Config{Logger: log})
		if err != nil {
			return err
		}
		log.Infow("recording", "path", path)
	}

	contacts := map[sim.ContactKind]int{}
	next := 0
	elapsed := 0.0
	reportEvery := frameRate // once per simulated second

	for i := 0; i < steps; i++ {
		for next < len(script) && script[next].at <= elapsed {
			world.Arm(script[next].player, script[next].dir)
			next++
		}
		world.Step(dt)
		elapsed += dt

		if rec != nil {
			if err := rec.Push(world.Snapshot()); err != nil {
				return err
			}
		}
		for _, ev := range world.Drain() {
			contacts[ev.Kind]++
		}

		if (i+1)%reportEvery == 0 {
			log.Debugw("progress",
				"t", fmt.Sprintf("%.1fs", elapsed),
				"ball_speed", fmt.Sprintf("%.1f", world.BallSpeed()),
				"kinetic_energy", fmt.Sprintf("%.1f", world.KineticEnergy()),
			)
		}
	}

	if rec != nil {
		rec.Stop(true)
	}

	final := world.Snapshot()
	log.Infow("simulation finished",
		"ticks", final.Tick,
		"ball_pos", fmt.Sprintf("(%.1f, %.1f)", final.BallPos.X, final.BallPos.Y),
		"ball_speed", fmt.Sprintf("%.1f", world.BallSpeed()),
		"kinetic_energy", fmt.Sprintf("%.1f", world.KineticEnergy()),
		"wall_bounces", contacts[sim.ContactWall],
		"box_collisions", contacts[sim.ContactBoxes],
		"ball_hits", contacts[sim.ContactBallBox],
	)
	return nil
}
