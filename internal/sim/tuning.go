// internal/sim/tuning.go
//
// Tuning carries every physical constant the world steps with. Defaults match
// the classic arena; the config package overrides them from config.yaml and
// the TUI can retune a running world when the file changes on disk.

package sim

// Tuning is the full set of physics parameters for a match.
type Tuning struct {
	ArenaWidth  float64 `json:"arena_width"`
	ArenaHeight float64 `json:"arena_height"`

	BoxSize  float64 `json:"box_size"`
	BoxSpeed float64 `json:"box_speed"` // units per second

	BallRadius  float64 `json:"ball_radius"`
	BallStartVX float64 `json:"ball_start_vx"`
	BallStartVY float64 `json:"ball_start_vy"`

	// BounceDamp scales the reflected velocity on every bounce (energy loss).
	BounceDamp float64 `json:"bounce_damp"`
	// Friction is the per-step velocity decay applied to the ball.
	Friction float64 `json:"friction"`

	// HoldWindow is how long a key press keeps its direction armed, in
	// seconds. Terminal auto-repeat re-arms it while the key stays down.
	HoldWindow float64 `json:"hold_window"`
}

// DefaultTuning returns the stock arena parameters.
func DefaultTuning() Tuning {
	return Tuning{
		ArenaWidth:  960,
		ArenaHeight: 720,
		BoxSize:     50,
		BoxSpeed:    500,
		BallRadius:  22,
		BallStartVX: 250,
		BallStartVY: -180,
		BounceDamp:  0.95,
		Friction:    0.995,
		HoldWindow:  0.18,
	}
}
