// internal/config/config.go
//
// This package handles configuration and the .rebound directory structure.
// Every directory rebound runs from gets a .rebound/ workspace holding the
// config file, session logs, and recorded replays.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"rebound/internal/sim"
)

const (
	// ReboundDir is the name of the workspace directory we create.
	ReboundDir = ".rebound"

	configFileName = "config.yaml"
)

const defaultConfigYAML = `# rebound configuration
version: 1

physics:
  arena_width: 960
  arena_height: 720
  box_size: 50
  box_speed: 500
  ball_radius: 22
  ball_start_vx: 250
  ball_start_vy: -180
  bounce_damp: 0.95
  friction: 0.995
  hold_window_ms: 180

display:
  frame_rate: 60
  background: "#1E1E1E"
  box_one: "#DC3232"
  box_two: "#3232DC"
  ball: "#E6E650"

keys:
  player_one:
    up: up
    down: down
    left: left
    right: right
  player_two:
    up: w
    down: s
    left: a
    right: d
`

// Physics mirrors the physics section of config.yaml.
type Physics struct {
	ArenaWidth   float64 `yaml:"arena_width"`
	ArenaHeight  float64 `yaml:"arena_height"`
	BoxSize      float64 `yaml:"box_size"`
	BoxSpeed     float64 `yaml:"box_speed"`
	BallRadius   float64 `yaml:"ball_radius"`
	BallStartVX  float64 `yaml:"ball_start_vx"`
	BallStartVY  float64 `yaml:"ball_start_vy"`
	BounceDamp   float64 `yaml:"bounce_damp"`
	Friction     float64 `yaml:"friction"`
	HoldWindowMS int     `yaml:"hold_window_ms"`
}

// Display holds renderer preferences.
type Display struct {
	FrameRate  int    `yaml:"frame_rate"`
	Background string `yaml:"background"`
	BoxOne     string `yaml:"box_one"`
	BoxTwo     string `yaml:"box_two"`
	Ball       string `yaml:"ball"`
}

// Bindings maps the four movement directions to key names for one player.
type Bindings struct {
	Up    string `yaml:"up"`
	Down  string `yaml:"down"`
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// Keys holds both players' bindings.
type Keys struct {
	PlayerOne Bindings `yaml:"player_one"`
	PlayerTwo Bindings `yaml:"player_two"`
}

// File models config.yaml.
type File struct {
	Version int     `yaml:"version"`
	Physics Physics `yaml:"physics"`
	Display Display `yaml:"display"`
	Keys    Keys    `yaml:"keys"`
}

// Config holds the runtime configuration for rebound.
type Config struct {
	// WorkDir is the directory the user ran rebound from.
	WorkDir string

	// WorkspaceDir is WorkDir/.rebound.
	WorkspaceDir string

	File File
}

// InitWorkspace creates the .rebound directory structure in the given
// directory and writes the default config file if none exists.
//
// Structure created:
// .rebound/
// ├── config.yaml
// ├── logs/      <- session logbook
// └── replays/   <- recorded matches
func InitWorkspace(workDir string) error {
	workspace := filepath.Join(workDir, ReboundDir)
	dirs := []string{
		filepath.Join(workspace, "logs"),
		filepath.Join(workspace, "replays"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return ensureConfigFile(filepath.Join(workspace, configFileName))
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write default config: %w", err)
	}
	return nil
}

// NewConfig loads the configuration for the given working directory. A
// missing file falls back to defaults; a present file is validated.
func NewConfig(workDir string) (*Config, error) {
	cfg := &Config{
		WorkDir:      workDir,
		WorkspaceDir: filepath.Join(workDir, ReboundDir),
		File:         defaultFile(),
	}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultFile() File {
	var f File
	// The embedded default document is the single source of default values.
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &f); err != nil {
		panic(fmt.Sprintf("config: default document invalid: %v", err))
	}
	return f
}

func (c *Config) load() error {
	data, err := os.ReadFile(c.ConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", c.ConfigPath(), err)
	}
	parsed := defaultFile()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", c.ConfigPath(), err)
	}
	if err := parsed.Validate(); err != nil {
		return err
	}
	c.File = parsed
	return nil
}

// Save persists the current configuration back to config.yaml.
func (c *Config) Save() error {
	if err := c.File.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c.File)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(c.WorkspaceDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure workspace: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", c.ConfigPath(), err)
	}
	return nil
}

// Validate enforces baseline sanity on a parsed document.
func (f File) Validate() error {
	p := f.Physics
	if p.ArenaWidth <= 0 || p.ArenaHeight <= 0 {
		return fmt.Errorf("config: arena dimensions must be positive")
	}
	if p.BoxSize <= 0 || p.BoxSize > p.ArenaWidth || p.BoxSize > p.ArenaHeight {
		return fmt.Errorf("config: box_size must be positive and fit the arena")
	}
	if p.BallRadius <= 0 || p.BallRadius*2 > p.ArenaWidth || p.BallRadius*2 > p.ArenaHeight {
		return fmt.Errorf("config: ball_radius must be positive and fit the arena")
	}
	if p.BoxSpeed <= 0 {
		return fmt.Errorf("config: box_speed must be positive")
	}
	if p.BounceDamp <= 0 || p.BounceDamp > 1 {
		return fmt.Errorf("config: bounce_damp must be in (0, 1]")
	}
	if p.Friction <= 0 || p.Friction > 1 {
		return fmt.Errorf("config: friction must be in (0, 1]")
	}
	if p.HoldWindowMS <= 0 {
		return fmt.Errorf("config: hold_window_ms must be positive")
	}
	if f.Display.FrameRate <= 0 || f.Display.FrameRate > 240 {
		return fmt.Errorf("config: frame_rate must be in [1, 240]")
	}
	for _, b := range []Bindings{f.Keys.PlayerOne, f.Keys.PlayerTwo} {
		for _, key := range []string{b.Up, b.Down, b.Left, b.Right} {
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("config: every movement key must be bound")
			}
		}
	}
	return nil
}

// Tuning converts the physics section into simulation parameters.
func (c *Config) Tuning() sim.Tuning {
	p := c.File.Physics
	return sim.Tuning{
		ArenaWidth:  p.ArenaWidth,
		ArenaHeight: p.ArenaHeight,
		BoxSize:     p.BoxSize,
		BoxSpeed:    p.BoxSpeed,
		BallRadius:  p.BallRadius,
		BallStartVX: p.BallStartVX,
		BallStartVY: p.BallStartVY,
		BounceDamp:  p.BounceDamp,
		Friction:    p.Friction,
		HoldWindow:  float64(p.HoldWindowMS) / 1000,
	}
}

// ConfigPath returns the on-disk location of config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.WorkspaceDir, configFileName)
}

// LogsDir returns the session log directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.WorkspaceDir, "logs")
}

// ReplaysDir returns the directory recorded matches are written to.
func (c *Config) ReplaysDir() string {
	return filepath.Join(c.WorkspaceDir, "replays")
}
