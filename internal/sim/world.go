// internal/sim/world.go
//
// The simulation state machine. A World holds two player boxes and one ball
// inside a walled arena and advances them with a fixed timestep. Stepping is
// deterministic: no clocks, no randomness — the same inputs always produce
// the same states, which is what makes headless runs and replays trustworthy.

package sim

import (
	"math"

	"github.com/google/uuid"

	"rebound/internal/geom"
)

// Player identifies one of the two box pilots.
type Player int

const (
	PlayerOne Player = iota
	PlayerTwo
	playerCount
)

// Direction is one of the four movement inputs a player can arm.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
	directionCount
)

// ContactKind classifies a collision the step produced.
type ContactKind string

const (
	ContactWall    ContactKind = "wall"
	ContactBoxes   ContactKind = "boxes"
	ContactBallBox ContactKind = "ball-box"
)

// Contact is one collision event. Player is meaningful for ball-box contacts.
type Contact struct {
	Kind   ContactKind `json:"kind"`
	Player Player      `json:"player,omitempty"`
	Tick   uint64      `json:"tick"`
	Normal geom.Vec2   `json:"normal,omitempty"`
}

// Frame is a value snapshot of the world, suitable for rendering and replay.
type Frame struct {
	Tick    uint64       `json:"tick"`
	Elapsed float64      `json:"elapsed"`
	Boxes   [2]geom.Rect `json:"boxes"`
	BallPos geom.Vec2    `json:"ball_pos"`
	BallVel geom.Vec2    `json:"ball_vel"`
	Events  []Contact    `json:"events,omitempty"`
}

const diagonalScale = 1 / math.Sqrt2

// World is the mutable match state. It is not safe for concurrent use; the
// TUI owns it from its update loop and the headless runner from its step loop.
type World struct {
	tuning  Tuning
	matchID string

	boxes [playerCount]geom.Rect
	// armed[p][d] holds the elapsed time until which direction d stays
	// active for player p. Comparing against w.elapsed keeps input handling
	// inside simulation time, so stepping stays deterministic.
	armed [playerCount][directionCount]float64

	ballPos geom.Vec2
	ballVel geom.Vec2

	elapsed float64
	tick    uint64

	events []Contact
}

// NewWorld places the boxes and ball at their start positions.
func NewWorld(t Tuning) *World {
	w := &World{
		tuning:  t,
		matchID: uuid.NewString(),
	}
	w.reset()
	return w
}

func (w *World) reset() {
	t := w.tuning
	w.boxes[PlayerOne] = geom.Rect{
		X: (t.ArenaWidth - t.BoxSize) / 1.2,
		Y: (t.ArenaHeight - t.BoxSize) / 2,
		W: t.BoxSize, H: t.BoxSize,
	}
	w.boxes[PlayerTwo] = geom.Rect{
		X: (t.ArenaWidth - t.BoxSize) / 4,
		Y: (t.ArenaHeight - t.BoxSize) / 2,
		W: t.BoxSize, H: t.BoxSize,
	}
	w.ballPos = geom.Vec2{X: t.ArenaWidth / 2, Y: t.ArenaHeight / 2}
	w.ballVel = geom.Vec2{X: t.BallStartVX, Y: t.BallStartVY}
	w.armed = [playerCount][directionCount]float64{}
	w.elapsed = 0
	w.tick = 0
	w.events = nil
}

// Reset restarts the match with the current tuning under a fresh match ID.
func (w *World) Reset() {
	w.matchID = uuid.NewString()
	w.reset()
}

// MatchID returns the unique identifier of the current match.
func (w *World) MatchID() string { return w.matchID }

// Tuning returns the parameters the world is currently stepping with.
func (w *World) Tuning() Tuning { return w.tuning }

// Arm activates a movement direction for the hold window. Key auto-repeat
// keeps directions armed for as long as the key is physically held.
func (w *World) Arm(p Player, d Direction) {
	if p < 0 || p >= playerCount || d < 0 || d >= directionCount {
		return
	}
	w.armed[p][d] = w.elapsed + w.tuning.HoldWindow
}

// Retune swaps the physics parameters without restarting the match. Boxes are
// re-clamped so a shrunken arena cannot leave anything stranded outside.
func (w *World) Retune(t Tuning) {
	w.tuning = t
	for p := range w.boxes {
		w.boxes[p].W = t.BoxSize
		w.boxes[p].H = t.BoxSize
		w.clampBox(Player(p))
	}
	w.ballPos.X = geom.Clamp(w.ballPos.X, t.BallRadius, t.ArenaWidth-t.BallRadius)
	w.ballPos.Y = geom.Clamp(w.ballPos.Y, t.BallRadius, t.ArenaHeight-t.BallRadius)
}

// inputVector returns the armed movement direction for a player, normalized
// on diagonals so held corners don't move faster than straight lines.
func (w *World) inputVector(p Player) geom.Vec2 {
	var v geom.Vec2
	if w.armed[p][DirRight] > w.elapsed {
		v.X++
	}
	if w.armed[p][DirLeft] > w.elapsed {
		v.X--
	}
	if w.armed[p][DirDown] > w.elapsed {
		v.Y++
	}
	if w.armed[p][DirUp] > w.elapsed {
		v.Y--
	}
	if v.X != 0 && v.Y != 0 {
		v = v.Scale(diagonalScale)
	}
	return v
}

func (w *World) clampBox(p Player) {
	t := w.tuning
	w.boxes[p].X = geom.Clamp(w.boxes[p].X, 0, t.ArenaWidth-t.BoxSize)
	w.boxes[p].Y = geom.Clamp(w.boxes[p].Y, 0, t.ArenaHeight-t.BoxSize)
}

// Step advances the world by dt seconds: move boxes, separate them, move the
// ball, bounce it off walls, then off boxes. dt must be the fixed timestep
// the caller always uses; varying it varies the friction decay.
func (w *World) Step(dt float64) {
	t := w.tuning
	w.tick++
	w.elapsed += dt

	dirs := [playerCount]geom.Vec2{
		w.inputVector(PlayerOne),
		w.inputVector(PlayerTwo),
	}

	for p := range w.boxes {
		w.boxes[p] = w.boxes[p].Translate(dirs[p].Scale(t.BoxSpeed * dt))
		w.clampBox(Player(p))
	}

	w.separateBoxes(dirs)

	// Ball integration and friction decay.
	w.ballPos = w.ballPos.Add(w.ballVel.Scale(dt))
	w.ballVel = w.ballVel.Scale(t.Friction)

	w.bounceWalls()

	for p := range w.boxes {
		boxVel := dirs[p].Scale(t.BoxSpeed)
		w.bounceOffBox(Player(p), boxVel)
	}
}

// separateBoxes resolves box-box overlap treating both boxes as movers: each
// gets its own minimum-translation correction biased by its own movement.
// When neither correction moves anything the boxes are split along the axis
// with the larger combined input.
func (w *World) separateBoxes(dirs [playerCount]geom.Vec2) {
	if !w.boxes[PlayerOne].Intersects(w.boxes[PlayerTwo]) {
		return
	}
	w.events = append(w.events, Contact{Kind: ContactBoxes, Tick: w.tick})

	corr1 := geom.ResolveOverlap(w.boxes[PlayerOne], w.boxes[PlayerTwo], dirs[PlayerOne])
	corr2 := geom.ResolveOverlap(w.boxes[PlayerTwo], w.boxes[PlayerOne], dirs[PlayerTwo])

	// Strictly overlapping boxes always yield nonzero corrections; this
	// branch only guards degenerate geometry.
	if corr1.IsZero() && corr2.IsZero() {
		d1, d2 := dirs[PlayerOne], dirs[PlayerTwo]
		if math.Abs(d1.X)+math.Abs(d2.X) >= math.Abs(d1.Y)+math.Abs(d2.Y) {
			if d1.X > d2.X {
				w.boxes[PlayerOne].X = w.boxes[PlayerTwo].Left() - w.boxes[PlayerOne].W
			} else {
				w.boxes[PlayerTwo].X = w.boxes[PlayerOne].Left() - w.boxes[PlayerTwo].W
			}
		} else {
			if d1.Y > d2.Y {
				w.boxes[PlayerOne].Y = w.boxes[PlayerTwo].Top() - w.boxes[PlayerOne].H
			} else {
				w.boxes[PlayerTwo].Y = w.boxes[PlayerOne].Top() - w.boxes[PlayerTwo].H
			}
		}
	} else {
		w.boxes[PlayerOne] = w.boxes[PlayerOne].Translate(corr1)
		w.boxes[PlayerTwo] = w.boxes[PlayerTwo].Translate(corr2)
	}

	w.clampBox(PlayerOne)
	w.clampBox(PlayerTwo)
}

// bounceWalls snaps the ball back inside the arena and reflects the violating
// velocity component with damping.
func (w *World) bounceWalls() {
	t := w.tuning
	r := t.BallRadius

	if w.ballPos.X-r < 0 {
		w.ballPos.X = r
		w.ballVel.X = -w.ballVel.X * t.BounceDamp
		w.events = append(w.events, Contact{Kind: ContactWall, Tick: w.tick, Normal: geom.Vec2{X: 1}})
	}
	if w.ballPos.X+r > t.ArenaWidth {
		w.ballPos.X = t.ArenaWidth - r
		w.ballVel.X = -w.ballVel.X * t.BounceDamp
		w.events = append(w.events, Contact{Kind: ContactWall, Tick: w.tick, Normal: geom.Vec2{X: -1}})
	}
	if w.ballPos.Y-r < 0 {
		w.ballPos.Y = r
		w.ballVel.Y = -w.ballVel.Y * t.BounceDamp
		w.events = append(w.events, Contact{Kind: ContactWall, Tick: w.tick, Normal: geom.Vec2{Y: 1}})
	}
	if w.ballPos.Y+r > t.ArenaHeight {
		w.ballPos.Y = t.ArenaHeight - r
		w.ballVel.Y = -w.ballVel.Y * t.BounceDamp
		w.events = append(w.events, Contact{Kind: ContactWall, Tick: w.tick, Normal: geom.Vec2{Y: -1}})
	}
}

// bounceOffBox separates the ball from one box and reflects its velocity in
// the box's reference frame, so a moving box imparts momentum on contact.
func (w *World) bounceOffBox(p Player, boxVel geom.Vec2) {
	t := w.tuning
	push := geom.CircleRectPushout(w.ballPos, t.BallRadius, w.boxes[p])
	if push.IsZero() {
		return
	}

	w.ballPos = w.ballPos.Add(push)

	normal := push.Normalized()
	if normal.IsZero() {
		normal = geom.Vec2{Y: -1}
	}

	rel := w.ballVel.Sub(boxVel)
	rel = geom.Reflect(rel, normal, t.BounceDamp)
	w.ballVel = rel.Add(boxVel)

	w.events = append(w.events, Contact{
		Kind:   ContactBallBox,
		Player: p,
		Tick:   w.tick,
		Normal: normal,
	})
}

// Snapshot returns a value copy of the current state. Events accumulated
// since the last Drain are included but not cleared.
func (w *World) Snapshot() Frame {
	f := Frame{
		Tick:    w.tick,
		Elapsed: w.elapsed,
		Boxes:   w.boxes,
		BallPos: w.ballPos,
		BallVel: w.ballVel,
	}
	if len(w.events) > 0 {
		f.Events = append([]Contact(nil), w.events...)
	}
	return f
}

// Drain returns the contact events accumulated since the previous Drain and
// clears the buffer.
func (w *World) Drain() []Contact {
	ev := w.events
	w.events = nil
	return ev
}

// KineticEnergy reports the ball's kinetic energy with unit mass. The boxes
// are kinematic and carry none of their own.
func (w *World) KineticEnergy() float64 {
	return 0.5 * w.ballVel.Dot(w.ballVel)
}

// BallSpeed returns the ball's current speed in units per second.
func (w *World) BallSpeed() float64 { return w.ballVel.Len() }
