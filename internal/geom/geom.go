// internal/geom/geom.go
//
// Small 2D geometry kit used by the simulation core. Everything here is a
// plain value type; the package has no dependencies and no state.

package geom

import "math"

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

// Len returns the euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// IsZero reports whether both components are exactly zero.
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Normalized returns v scaled to unit length. The zero vector is returned
// unchanged so callers can feed it straight into Reflect fallbacks.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
// Y grows downward, matching the arena coordinate system.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Center returns the rect's midpoint.
func (r Rect) Center() Vec2 { return Vec2{r.X + r.W/2, r.Y + r.H/2} }

// Intersects reports whether r and o overlap with positive area.
func (r Rect) Intersects(o Rect) bool {
	return r.Left() < o.Right() && o.Left() < r.Right() &&
		r.Top() < o.Bottom() && o.Top() < r.Bottom()
}

// Translate returns r moved by d.
func (r Rect) Translate(d Vec2) Rect {
	r.X += d.X
	r.Y += d.Y
	return r
}

// ResolveOverlap computes the minimum-translation correction that pushes
// mover out of static along the axis with the smaller overlap. vel is the
// mover's intended movement this step; when both axes overlap equally the
// push goes against the dominant velocity component so corners don't stick.
// The zero vector means the rects were not overlapping.
func ResolveOverlap(mover, static Rect, vel Vec2) Vec2 {
	if !mover.Intersects(static) {
		return Vec2{}
	}

	overlapLeft := mover.Right() - static.Left()
	overlapRight := static.Right() - mover.Left()
	overlapTop := mover.Bottom() - static.Top()
	overlapBottom := static.Bottom() - mover.Top()

	// Signed minimum overlap per axis: positive pushes left/up.
	minX := -overlapRight
	if overlapLeft < overlapRight {
		minX = overlapLeft
	}
	minY := -overlapBottom
	if overlapTop < overlapBottom {
		minY = overlapTop
	}

	switch {
	case math.Abs(minX) < math.Abs(minY):
		return Vec2{X: -minX}
	case math.Abs(minY) < math.Abs(minX):
		return Vec2{Y: -minY}
	case math.Abs(vel.X) >= math.Abs(vel.Y):
		return Vec2{X: -minX}
	default:
		return Vec2{Y: -minY}
	}
}

// CircleRectPushout returns the minimum vector that separates a circle at
// center with radius r from rect. The zero vector means no overlap. When the
// center sits inside the rect the push goes toward the nearest edge.
func CircleRectPushout(center Vec2, r float64, rect Rect) Vec2 {
	closest := Vec2{
		X: math.Max(rect.Left(), math.Min(center.X, rect.Right())),
		Y: math.Max(rect.Top(), math.Min(center.Y, rect.Bottom())),
	}

	d := center.Sub(closest)
	distSq := d.Dot(d)
	if distSq > r*r {
		return Vec2{}
	}

	if distSq == 0 {
		// Center inside the rect: escape by the shortest axis push.
		options := []Vec2{
			{X: -(r - math.Abs(center.X-rect.Left()))},
			{X: r - math.Abs(rect.Right()-center.X)},
			{Y: -(r - math.Abs(center.Y-rect.Top()))},
			{Y: r - math.Abs(rect.Bottom()-center.Y)},
		}
		best := options[0]
		for _, opt := range options[1:] {
			if math.Abs(opt.X)+math.Abs(opt.Y) < math.Abs(best.X)+math.Abs(best.Y) {
				best = opt
			}
		}
		return best
	}

	dist := math.Sqrt(distSq)
	pen := r - dist
	return Vec2{X: d.X / dist * pen, Y: d.Y / dist * pen}
}

// Reflect mirrors v over the unit normal n and scales the result by damp:
// v' = (v - 2(v·n)n) * damp.
func Reflect(v, n Vec2, damp float64) Vec2 {
	dot := v.Dot(n)
	return Vec2{
		X: (v.X - 2*dot*n.X) * damp,
		Y: (v.Y - 2*dot*n.Y) * damp,
	}
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
