package sim

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rebound/internal/geom"
)

const dt = 1.0 / 60

func TestNewWorldStartPositions(t *testing.T) {
	tn := DefaultTuning()
	w := NewWorld(tn)
	f := w.Snapshot()

	assert.InDelta(t, (tn.ArenaWidth-tn.BoxSize)/1.2, f.Boxes[PlayerOne].X, 1e-9)
	assert.InDelta(t, (tn.ArenaHeight-tn.BoxSize)/2, f.Boxes[PlayerOne].Y, 1e-9)
	assert.InDelta(t, (tn.ArenaWidth-tn.BoxSize)/4, f.Boxes[PlayerTwo].X, 1e-9)
	assert.Equal(t, geom.Vec2{X: tn.ArenaWidth / 2, Y: tn.ArenaHeight / 2}, f.BallPos)
	assert.Equal(t, geom.Vec2{X: tn.BallStartVX, Y: tn.BallStartVY}, f.BallVel)
	require.NotEmpty(t, w.MatchID())
}

func TestStepIsDeterministic(t *testing.T) {
	run := func() Frame {
		w := NewWorld(DefaultTuning())
		for i := 0; i < 600; i++ {
			if i%7 == 0 {
				w.Arm(PlayerOne, DirRight)
			}
			if i%11 == 0 {
				w.Arm(PlayerTwo, DirUp)
				w.Arm(PlayerTwo, DirLeft)
			}
			w.Step(dt)
			w.Drain()
		}
		return w.Snapshot()
	}

	a, b := run(), run()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("identical input sequences diverged (-first +second):\n%s", diff)
	}
}

func TestArmMovesBoxUntilHoldExpires(t *testing.T) {
	tn := DefaultTuning()
	w := NewWorld(tn)
	startX := w.Snapshot().Boxes[PlayerOne].X

	w.Arm(PlayerOne, DirRight)
	w.Step(dt)
	moved := w.Snapshot().Boxes[PlayerOne].X
	assert.InDelta(t, startX+tn.BoxSpeed*dt, moved, 1e-9)

	// Let the hold window lapse without re-arming; the box must stop.
	steps := int(tn.HoldWindow/dt) + 2
	for i := 0; i < steps; i++ {
		w.Step(dt)
	}
	stopped := w.Snapshot().Boxes[PlayerOne].X
	for i := 0; i < 30; i++ {
		w.Step(dt)
	}
	assert.Equal(t, stopped, w.Snapshot().Boxes[PlayerOne].X)
}

func TestDiagonalInputIsNormalized(t *testing.T) {
	tn := DefaultTuning()
	w := NewWorld(tn)
	start := w.Snapshot().Boxes[PlayerTwo]

	w.Arm(PlayerTwo, DirRight)
	w.Arm(PlayerTwo, DirDown)
	w.Step(dt)

	got := w.Snapshot().Boxes[PlayerTwo]
	want := tn.BoxSpeed * dt / math.Sqrt2
	assert.InDelta(t, start.X+want, got.X, 1e-9)
	assert.InDelta(t, start.Y+want, got.Y, 1e-9)
}

func TestBoxClampsToArena(t *testing.T) {
	tn := DefaultTuning()
	w := NewWorld(tn)

	for i := 0; i < 600; i++ {
		w.Arm(PlayerOne, DirRight)
		w.Arm(PlayerOne, DirDown)
		w.Step(dt)
	}
	box := w.Snapshot().Boxes[PlayerOne]
	assert.Equal(t, tn.ArenaWidth-tn.BoxSize, box.X)
	assert.Equal(t, tn.ArenaHeight-tn.BoxSize, box.Y)
}

func TestWallBounceDampsVelocity(t *testing.T) {
	tn := DefaultTuning()
	tn.Friction = 1.0 // isolate the bounce damping
	w := NewWorld(tn)

	// Aim the ball straight at the right wall.
	w.ballPos = geom.Vec2{X: tn.ArenaWidth - tn.BallRadius - 1, Y: tn.ArenaHeight / 2}
	w.ballVel = geom.Vec2{X: 300}

	w.Step(dt)

	f := w.Snapshot()
	assert.Equal(t, tn.ArenaWidth-tn.BallRadius, f.BallPos.X, "ball must snap to the wall")
	assert.InDelta(t, -300*tn.BounceDamp, f.BallVel.X, 1e-9)

	events := w.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, ContactWall, events[0].Kind)
	assert.Equal(t, geom.Vec2{X: -1}, events[0].Normal)
}

func TestFrictionDecaysBall(t *testing.T) {
	tn := DefaultTuning()
	w := NewWorld(tn)
	// Park the ball mid-air away from walls.
	w.ballVel = geom.Vec2{X: 10, Y: 0}
	v0 := w.BallSpeed()
	w.Step(dt)
	assert.InDelta(t, v0*tn.Friction, w.BallSpeed(), 1e-9)
}

func TestBoxesSeparateAfterOverlap(t *testing.T) {
	tn := DefaultTuning()
	w := NewWorld(tn)

	// Drive the boxes into each other.
	w.boxes[PlayerOne] = geom.Rect{X: 400, Y: 300, W: tn.BoxSize, H: tn.BoxSize}
	w.boxes[PlayerTwo] = geom.Rect{X: 400 - tn.BoxSize + 4, Y: 300, W: tn.BoxSize, H: tn.BoxSize}
	w.Arm(PlayerOne, DirLeft)
	w.Arm(PlayerTwo, DirRight)
	w.Step(dt)

	f := w.Snapshot()
	assert.False(t, f.Boxes[PlayerOne].Intersects(f.Boxes[PlayerTwo]))

	var sawBoxes bool
	for _, ev := range w.Drain() {
		if ev.Kind == ContactBoxes {
			sawBoxes = true
		}
	}
	assert.True(t, sawBoxes, "expected a boxes contact event")
}

func TestBallReflectsOffMovingBox(t *testing.T) {
	tn := DefaultTuning()
	tn.Friction = 1.0
	w := NewWorld(tn)

	// Still ball directly in the path of a box charging rightward.
	w.boxes[PlayerTwo] = geom.Rect{X: 200, Y: 300, W: tn.BoxSize, H: tn.BoxSize}
	w.boxes[PlayerOne] = geom.Rect{X: 800, Y: 50, W: tn.BoxSize, H: tn.BoxSize}
	w.ballPos = geom.Vec2{X: 200 + tn.BoxSize + tn.BallRadius - 2, Y: 300 + tn.BoxSize/2}
	w.ballVel = geom.Vec2{}

	w.Arm(PlayerTwo, DirRight)
	w.Step(dt)

	f := w.Snapshot()
	assert.Positive(t, f.BallVel.X, "moving box must impart rightward momentum")

	var contact *Contact
	for _, ev := range w.Drain() {
		if ev.Kind == ContactBallBox {
			c := ev
			contact = &c
		}
	}
	require.NotNil(t, contact)
	assert.Equal(t, PlayerTwo, contact.Player)
	assert.Positive(t, contact.Normal.X)
}

func TestRetuneKeepsPositions(t *testing.T) {
	tn := DefaultTuning()
	w := NewWorld(tn)
	for i := 0; i < 120; i++ {
		w.Step(dt)
	}
	before := w.Snapshot()

	tn.BounceDamp = 0.5
	tn.Friction = 0.9
	w.Retune(tn)

	after := w.Snapshot()
	assert.Equal(t, before.Boxes, after.Boxes)
	assert.Equal(t, before.BallPos, after.BallPos)
	assert.Equal(t, 0.5, w.Tuning().BounceDamp)
}

func TestRetuneClampsIntoSmallerArena(t *testing.T) {
	tn := DefaultTuning()
	w := NewWorld(tn)

	tn.ArenaWidth = 400
	tn.ArenaHeight = 300
	w.Retune(tn)

	f := w.Snapshot()
	for _, box := range f.Boxes {
		assert.LessOrEqual(t, box.Right(), tn.ArenaWidth)
		assert.LessOrEqual(t, box.Bottom(), tn.ArenaHeight)
	}
	assert.LessOrEqual(t, f.BallPos.X+tn.BallRadius, tn.ArenaWidth)
	assert.LessOrEqual(t, f.BallPos.Y+tn.BallRadius, tn.ArenaHeight)
}

func TestResetIssuesNewMatchID(t *testing.T) {
	w := NewWorld(DefaultTuning())
	first := w.MatchID()
	w.Step(dt)
	w.Reset()

	assert.NotEqual(t, first, w.MatchID())
	f := w.Snapshot()
	assert.Equal(t, uint64(0), f.Tick)
	assert.Equal(t, geom.Vec2{X: 480, Y: 360}, f.BallPos)
}

func TestKineticEnergy(t *testing.T) {
	w := NewWorld(DefaultTuning())
	w.ballVel = geom.Vec2{X: 3, Y: 4}
	assert.InDelta(t, 12.5, w.KineticEnergy(), 1e-9)
	assert.InDelta(t, 5, w.BallSpeed(), 1e-9)
}
