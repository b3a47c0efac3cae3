package combat

import "math"

// Vec2 is a horizontal position; elevation is carried separately.
type Vec2 struct{ X, Y float64 }

func (a Vec2) Add(b Vec2) Vec2       { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2       { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Dot(b Vec2) float64    { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Len() float64          { return math.Hypot(a.X, a.Y) }
func (a Vec2) LenSq() float64        { return a.X*a.X + a.Y*a.Y }
func (a Vec2) Dist(b Vec2) float64   { return b.Sub(a).Len() }
func (a Vec2) DistSq(b Vec2) float64 { return b.Sub(a).LenSq() }
func (a Vec2) Norm() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}
func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }

// Heading is the yaw of a, in radians.
func (a Vec2) Heading() float64 { return math.Atan2(a.Y, a.X) }

// Rect is an axis-aligned region, Min inclusive to Max inclusive.
type Rect struct{ Min, Max Vec2 }

func RectAround(c Vec2, half float64) Rect {
	return Rect{Min: Vec2{c.X - half, c.Y - half}, Max: Vec2{c.X + half, c.Y + half}}
}

func (r Rect) Center() Vec2 { return Vec2{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2} }

func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

func (r Rect) Clamp(p Vec2) Vec2 {
	return Vec2{X: clamp(p.X, r.Min.X, r.Max.X), Y: clamp(p.Y, r.Min.Y, r.Max.Y)}
}

func (r Rect) Grow(m float64) Rect {
	return Rect{Min: Vec2{r.Min.X - m, r.Min.Y - m}, Max: Vec2{r.Max.X + m, r.Max.Y + m}}
}

func (r Rect) Union(o Rect) Rect {
	return Rect{
		Min: Vec2{math.Min(r.Min.X, o.Min.X), math.Min(r.Min.Y, o.Min.Y)},
		Max: Vec2{math.Max(r.Max.X, o.Max.X), math.Max(r.Max.Y, o.Max.Y)},
	}
}

// IncludePoint grows r just enough to hold p with margin m around it.
func (r Rect) IncludePoint(p Vec2, m float64) Rect { return r.Union(RectAround(p, m)) }

// DistTo is zero inside r, else the distance to the nearest edge.
func (r Rect) DistTo(p Vec2) float64 { return r.Clamp(p).Dist(p) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
