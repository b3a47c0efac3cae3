package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"lanebattle/internal/combat"
	"lanebattle/internal/match"
)

const (
	headerRows = 2
	logRows    = 5
)

var (
	styleP1   = tcell.StyleDefault.Foreground(tcell.ColorDodgerBlue)
	styleP2   = tcell.StyleDefault.Foreground(tcell.ColorOrangeRed)
	styleLane = tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	styleDead = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleText = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

func teamStyle(t combat.Team) tcell.Style {
	if t == combat.TeamP2 {
		return styleP2
	}
	return styleP1
}

// viewport maps world coordinates into a screen rectangle. World y grows
// toward p2, which is drawn at the top.
type viewport struct {
	world  combat.Rect
	x0, y0 int
	w, h   int
}

func newViewport(world combat.Rect, x0, y0, w, h int) viewport {
	return viewport{world: world, x0: x0, y0: y0, w: max(w, 1), h: max(h, 1)}
}

func (v viewport) toScreen(p combat.Vec2) (int, int, bool) {
	ww := v.world.Max.X - v.world.Min.X
	wh := v.world.Max.Y - v.world.Min.Y
	if ww <= 0 || wh <= 0 || !v.world.Contains(p) {
		return 0, 0, false
	}
	fx := (p.X - v.world.Min.X) / ww
	fy := (p.Y - v.world.Min.Y) / wh
	x := v.x0 + int(math.Round(fx*float64(v.w-1)))
	y := v.y0 + v.h - 1 - int(math.Round(fy*float64(v.h-1)))
	return x, y, true
}

// worldBounds covers every lane and structure with a small border.
func worldBounds(lanes []*combat.Lane, structures []*combat.Structure) combat.Rect {
	var r combat.Rect
	first := true
	add := func(o combat.Rect) {
		if first {
			r, first = o, false
			return
		}
		r = r.Union(o)
	}
	for _, l := range lanes {
		add(l.Bounds())
	}
	for _, s := range structures {
		add(s.Region)
	}
	return r.Grow(2)
}

type view struct {
	screen tcell.Screen
	lanes  []*combat.Lane
	world  combat.Rect
	log    []string
	paused bool
	speed  float64
}

func (v *view) note(format string, args ...any) {
	v.log = append(v.log, fmt.Sprintf(format, args...))
	if len(v.log) > logRows {
		v.log = v.log[len(v.log)-logRows:]
	}
}

func (v *view) text(x, y int, style tcell.Style, s string) {
	for i, r := range []rune(s) {
		v.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (v *view) draw(s match.Snapshot) {
	v.screen.Clear()
	w, h := v.screen.Size()
	vp := newViewport(v.world, 0, headerRows, w, h-headerRows-logRows)

	v.drawHeader(s)
	for _, l := range v.lanes {
		v.drawLane(vp, l)
	}
	for _, st := range s.Structures {
		x, y, ok := vp.toScreen(combat.Vec2{X: st.X, Y: st.Y})
		if !ok {
			continue
		}
		r, style := 'T', teamStyle(st.Team)
		if st.Kind == "throne" {
			r = 'W'
		}
		if st.Destroyed {
			r, style = 'x', styleDead
		}
		v.screen.SetContent(x, y, r, nil, style.Bold(true))
	}
	for _, u := range s.Units {
		if u.State == "dead" {
			continue
		}
		x, y, ok := vp.toScreen(combat.Vec2{X: u.X, Y: u.Y})
		if !ok {
			continue
		}
		r := 'u'
		if u.Def != "" {
			r = []rune(u.Def)[0]
		}
		style := teamStyle(u.Team)
		if u.State == "retreating" {
			style = style.Dim(true)
		}
		v.screen.SetContent(x, y, r, nil, style)
	}
	for i, line := range v.log {
		v.text(0, h-logRows+i, styleText.Dim(true), line)
	}
	v.screen.Show()
}

func (v *view) drawHeader(s match.Snapshot) {
	state := fmt.Sprintf("round %d/%d  %s  %ds left  x%.1f", s.Round, s.Rounds, s.Phase,
		s.TicksLeft/max(tickRate, 1), v.speed)
	if v.paused {
		state += "  [paused]"
	}
	if s.Result != nil {
		state = fmt.Sprintf("match over: %s (%s)", s.Result.Winner, s.Result.Reason)
	}
	v.text(0, 0, styleText.Bold(true), state)
	v.text(0, 1, styleP1, fmt.Sprintf("p1 %.1f (%d won)", s.P1.Score, s.P1.RoundsWon))
	v.text(24, 1, styleP2, fmt.Sprintf("p2 %.1f (%d won)", s.P2.Score, s.P2.RoundsWon))
	v.text(48, 1, styleText.Dim(true), "space pause  +/- speed  q quit")
}

// drawLane dots the centerline every half cell.
func (v *view) drawLane(vp viewport, l *combat.Lane) {
	pts := l.WaypointsFor(combat.TeamP1)
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		steps := int(math.Ceil(a.Dist(b))) * 2
		for k := 0; k <= steps; k++ {
			p := a.Add(b.Sub(a).Scale(float64(k) / float64(max(steps, 1))))
			if x, y, ok := vp.toScreen(p); ok {
				v.screen.SetContent(x, y, '·', nil, styleLane)
			}
		}
	}
}
