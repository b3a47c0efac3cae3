package combat

import (
	"errors"
	"fmt"
	"math"

	"lanebattle/internal/config"
)

var ErrBadLane = errors.New("combat: bad lane geometry")

// Lane is the polyline a unit follows. Waypoints are stored once, in the
// canonical p1 -> p2 direction; p2 walks the same list reversed so both
// sides share one heading computation.
type Lane struct {
	ID        LaneID
	Name      string
	HalfWidth float64
	Height    float64
	waypoints []Vec2
	reversed  []Vec2
	slots     [3][]Vec2
	cum       []float64 // cum[i] = length from waypoints[0] to waypoints[i]
	bounds    Rect
}

func NewLane(id LaneID, name string, halfWidth float64, waypoints, slotsP1, slotsP2 []Vec2) (*Lane, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: lane %q has %d waypoints", ErrBadLane, name, len(waypoints))
	}
	if halfWidth <= 0 {
		return nil, fmt.Errorf("%w: lane %q half width %.2f", ErrBadLane, name, halfWidth)
	}
	if len(slotsP1) == 0 || len(slotsP2) == 0 {
		return nil, fmt.Errorf("%w: lane %q without deployment slots", ErrBadLane, name)
	}
	l := &Lane{ID: id, Name: name, HalfWidth: halfWidth}
	l.waypoints = append([]Vec2(nil), waypoints...)
	l.reversed = make([]Vec2, len(waypoints))
	for i, p := range waypoints {
		l.reversed[len(waypoints)-1-i] = p
	}
	l.slots[TeamP1] = append([]Vec2(nil), slotsP1...)
	l.slots[TeamP2] = append([]Vec2(nil), slotsP2...)

	l.cum = make([]float64, len(waypoints))
	b := Rect{Min: waypoints[0], Max: waypoints[0]}
	for i := 1; i < len(waypoints); i++ {
		l.cum[i] = l.cum[i-1] + waypoints[i-1].Dist(waypoints[i])
		b = b.Union(Rect{Min: waypoints[i], Max: waypoints[i]})
	}
	l.bounds = b.Grow(halfWidth)
	return l, nil
}

// LanesFromConfig builds the arena lanes in config order; LaneID is the index.
func LanesFromConfig(ac config.ArenaConfig) ([]*Lane, error) {
	conv := func(in []config.Vec2Def) []Vec2 {
		out := make([]Vec2, len(in))
		for i, v := range in {
			out[i] = Vec2{X: v.X, Y: v.Y}
		}
		return out
	}
	lanes := make([]*Lane, 0, len(ac.Lanes))
	for i, ld := range ac.Lanes {
		l, err := NewLane(LaneID(i), ld.Name, ld.HalfWidth, conv(ld.Waypoints), conv(ld.SlotsP1), conv(ld.SlotsP2))
		if err != nil {
			return nil, err
		}
		l.Height = ld.Height
		lanes = append(lanes, l)
	}
	return lanes, nil
}

// WaypointsFor returns the route in team's walking direction. Callers must
// not modify the slice.
func (l *Lane) WaypointsFor(team Team) []Vec2 {
	if team == TeamP2 {
		return l.reversed
	}
	return l.waypoints
}

func (l *Lane) Slots(team Team) []Vec2 {
	if team != TeamP1 && team != TeamP2 {
		return nil
	}
	return l.slots[team]
}

func (l *Lane) Bounds() Rect { return l.bounds }

func (l *Lane) Length() float64 { return l.cum[len(l.cum)-1] }

// NearestPoint projects p onto every segment (t clamped to [0,1]) and keeps
// the closest projection. seg indexes the canonical waypoint list.
func (l *Lane) NearestPoint(p Vec2) (pt Vec2, seg int, t float64) {
	best := math.MaxFloat64
	for i := 0; i+1 < len(l.waypoints); i++ {
		a, b := l.waypoints[i], l.waypoints[i+1]
		ab := b.Sub(a)
		var tt float64
		if d := ab.LenSq(); d > 0 {
			tt = clamp(p.Sub(a).Dot(ab)/d, 0, 1)
		}
		q := a.Add(ab.Scale(tt))
		if dsq := q.DistSq(p); dsq < best {
			best, pt, seg, t = dsq, q, i, tt
		}
	}
	return pt, seg, t
}

func (l *Lane) PerpendicularDistance(p Vec2) float64 {
	q, _, _ := l.NearestPoint(p)
	return q.Dist(p)
}

// InCorridor reports whether p lies within half-width of the polyline.
func (l *Lane) InCorridor(p Vec2) bool { return l.PerpendicularDistance(p) <= l.HalfWidth }

// Progress is the fraction of the lane travelled by a unit of team at p.
func (l *Lane) Progress(p Vec2, team Team) float64 {
	total := l.Length()
	if total <= 0 {
		return 0
	}
	q, seg, _ := l.NearestPoint(p)
	along := l.cum[seg] + l.waypoints[seg].Dist(q)
	f := along / total
	if team == TeamP2 {
		f = 1 - f
	}
	return clamp(f, 0, 1)
}
