package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOverlapPicksSmallerAxis(t *testing.T) {
	static := Rect{X: 100, Y: 100, W: 50, H: 50}

	// Mover barely clips the static's left edge: x overlap is smaller.
	mover := Rect{X: 60, Y: 90, W: 50, H: 50}
	corr := ResolveOverlap(mover, static, Vec2{X: 1})
	assert.Equal(t, Vec2{X: -10}, corr)
	assert.False(t, mover.Translate(corr).Intersects(static))

	// Mover clips from above: y overlap is smaller.
	mover = Rect{X: 90, Y: 60, W: 50, H: 50}
	corr = ResolveOverlap(mover, static, Vec2{Y: 1})
	assert.Equal(t, Vec2{Y: -10}, corr)
	assert.False(t, mover.Translate(corr).Intersects(static))
}

func TestResolveOverlapTieBreaksByVelocity(t *testing.T) {
	static := Rect{X: 100, Y: 100, W: 50, H: 50}
	// Equal 10-unit overlap on both axes.
	mover := Rect{X: 60, Y: 60, W: 50, H: 50}

	horizontal := ResolveOverlap(mover, static, Vec2{X: 5, Y: 1})
	assert.Zero(t, horizontal.Y, "dominant x velocity must resolve on x")

	vertical := ResolveOverlap(mover, static, Vec2{X: 1, Y: 5})
	assert.Zero(t, vertical.X, "dominant y velocity must resolve on y")
}

func TestResolveOverlapNoContact(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 20, Y: 20, W: 10, H: 10}
	assert.Equal(t, Vec2{}, ResolveOverlap(a, b, Vec2{X: 1}))
}

func TestCircleRectPushoutSideContact(t *testing.T) {
	rect := Rect{X: 100, Y: 100, W: 50, H: 50}

	// Circle pressing into the left face.
	push := CircleRectPushout(Vec2{X: 95, Y: 125}, 10, rect)
	require.NotEqual(t, Vec2{}, push)
	assert.Negative(t, push.X)
	assert.Zero(t, push.Y)

	// Separated circle.
	assert.Equal(t, Vec2{}, CircleRectPushout(Vec2{X: 50, Y: 125}, 10, rect))
}

func TestCircleRectPushoutSeparates(t *testing.T) {
	rect := Rect{X: 100, Y: 100, W: 50, H: 50}
	center := Vec2{X: 98, Y: 96}
	r := 12.0
	push := CircleRectPushout(center, r, rect)
	require.NotEqual(t, Vec2{}, push)

	moved := center.Add(push)
	closest := Vec2{
		X: math.Max(rect.Left(), math.Min(moved.X, rect.Right())),
		Y: math.Max(rect.Top(), math.Min(moved.Y, rect.Bottom())),
	}
	assert.InDelta(t, r, moved.Sub(closest).Len(), 1e-9, "circle must end up tangent")
}

func TestCircleRectPushoutCenterInside(t *testing.T) {
	rect := Rect{X: 100, Y: 100, W: 50, H: 50}
	// Center just inside the left edge: the cheapest escape is leftward.
	push := CircleRectPushout(Vec2{X: 102, Y: 125}, 10, rect)
	require.NotEqual(t, Vec2{}, push)
	assert.Negative(t, push.X)
	assert.Zero(t, push.Y)
}

func TestReflect(t *testing.T) {
	// Straight into a left-facing wall, full elasticity.
	out := Reflect(Vec2{X: 10}, Vec2{X: -1}, 1.0)
	assert.Equal(t, Vec2{X: -10}, out)

	// Damped bounce keeps the tangential component intact.
	out = Reflect(Vec2{X: 10, Y: 4}, Vec2{X: -1}, 0.5)
	assert.InDelta(t, -5, out.X, 1e-9)
	assert.InDelta(t, 2, out.Y, 1e-9)
}

func TestNormalized(t *testing.T) {
	assert.Equal(t, Vec2{}, Vec2{}.Normalized())
	n := Vec2{X: 3, Y: 4}.Normalized()
	assert.InDelta(t, 1, n.Len(), 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5.0, Clamp(7, 0, 5))
	assert.Equal(t, 0.0, Clamp(-2, 0, 5))
	assert.Equal(t, 3.0, Clamp(3, 0, 5))
}
