package combat

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnknownLane       = errors.New("combat: unknown lane")
	ErrInvalidSlot       = errors.New("combat: invalid slot")
	ErrUnknownDefinition = errors.New("combat: unknown unit definition")
	ErrDuplicateUnit     = errors.New("combat: duplicate unit id")
	ErrBattleOver        = errors.New("combat: battle already resolved")
)

// Battle runs one round. It owns the unit roster; lanes are shared read-only
// and structures are borrowed from the match for the duration of the round.
type Battle struct {
	ID string

	env        *Env
	lanes      []*Lane
	structures []*Structure
	units      []*Unit
	byID       map[UnitID]*Unit
	resolver   *Resolver

	started    bool
	ticks      int
	maxTicks   int
	graceTicks int
	stuckTicks int
	grace      int // remaining grace ticks, -1 when not counting
	result     *BattleResult
}

func NewBattle(env *Env, lanes []*Lane, structures []*Structure) *Battle {
	b := &Battle{
		ID:         uuid.NewString(),
		env:        env,
		lanes:      lanes,
		structures: structures,
		byID:       map[UnitID]*Unit{},
		maxTicks:   env.Cfg.Ticks(env.Cfg.MaxBattleSeconds),
		graceTicks: env.Cfg.Ticks(env.Cfg.GraceSeconds),
		stuckTicks: env.Cfg.Ticks(env.Cfg.StuckSeconds),
		grace:      -1,
	}
	b.resolver = NewResolver(env, b.confinement)
	env.Tick = 0
	return b
}

// Spawn places a unit on its slot. Before Start it waits Idle; after Start it
// joins the fight immediately.
func (b *Battle) Spawn(id UnitID, team Team, lane LaneID, slot int, def string) (*Unit, error) {
	if b.result != nil {
		return nil, ErrBattleOver
	}
	if int(lane) < 0 || int(lane) >= len(b.lanes) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLane, lane)
	}
	l := b.lanes[lane]
	if slot < 0 || slot >= len(l.Slots(team)) {
		return nil, fmt.Errorf("%w: lane %s slot %d for %s", ErrInvalidSlot, l.Name, slot, team)
	}
	p, ok := b.env.Catalog.Lookup(def)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefinition, def)
	}
	if _, dup := b.byID[id]; dup {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateUnit, id)
	}
	u := newUnit(id, team, l, slot, p)
	b.units = append(b.units, u)
	b.byID[id] = u
	b.env.emit(EvUnitSpawned, map[string]any{
		"id": int64(u.ID), "team": team.String(), "lane": l.Name, "slot": slot, "def": def,
		"category": u.Category, "x": u.Pos.X, "y": u.Pos.Y, "h": u.Height, "hp": u.HP, "max_hp": u.MaxHP,
	})
	if b.started {
		u.setState(b.env, StateAdvancing)
	}
	return u, nil
}

// Start is the battle-start signal. Calling it again does nothing.
func (b *Battle) Start() {
	if b.started {
		return
	}
	b.started = true
	for _, u := range b.units {
		if u.State == StateIdle {
			u.setState(b.env, StateAdvancing)
		}
	}
	b.env.Log.Info("battle started", zap.String("battle", b.ID), zap.Int("units", len(b.units)))
}

// OrderRetreat flags every advancing or fighting unit of team; the flag is
// honoured at the start of the unit's next update.
func (b *Battle) OrderRetreat(team Team) {
	n := 0
	for _, u := range b.units {
		if u.Team == team && (u.State == StateAdvancing || u.State == StateFighting) {
			u.retreat = true
			n++
		}
	}
	b.env.Log.Debug("retreat ordered", zap.Stringer("team", team), zap.Int("units", n))
}

// Tick advances the battle one fixed step: structures, then units, then the
// end check. It is a no-op before Start and after a result.
func (b *Battle) Tick() {
	if !b.started || b.result != nil {
		return
	}
	b.ticks++
	b.env.Tick = b.ticks
	for _, s := range b.structures {
		s.update(b)
	}
	for _, u := range b.units {
		u.update(b)
	}
	b.evaluate()
}

// CheckBattleEnd reports the result produced by the last Tick, if any.
func (b *Battle) CheckBattleEnd() (BattleResult, bool) {
	if b.result == nil {
		return BattleResult{}, false
	}
	return *b.result, true
}

func (b *Battle) evaluate() {
	var lost [3]bool
	for _, s := range b.structures {
		if s.Kind == KindThrone && !s.Alive() {
			lost[s.Team] = true
		}
	}
	switch {
	case lost[TeamP1] && lost[TeamP2]:
		b.finish(OutcomeThroneDestroyed, TeamNone)
		return
	case lost[TeamP1]:
		b.finish(OutcomeThroneDestroyed, TeamP2)
		return
	case lost[TeamP2]:
		b.finish(OutcomeThroneDestroyed, TeamP1)
		return
	}

	n1, n2 := b.Living(TeamP1), b.Living(TeamP2)
	if n1 == 0 || n2 == 0 {
		if b.grace < 0 {
			b.grace = b.graceTicks
			b.env.Log.Debug("grace countdown started", zap.Int("p1", n1), zap.Int("p2", n2), zap.Int("ticks", b.grace))
		}
		if b.grace == 0 {
			winner := TeamNone
			if n1 > 0 {
				winner = TeamP1
			} else if n2 > 0 {
				winner = TeamP2
			}
			b.finish(OutcomeAllUnitsDead, winner)
			return
		}
		b.grace--
	} else if b.grace >= 0 {
		b.grace = -1
		b.env.Log.Debug("grace countdown cancelled")
	}

	if b.maxTicks > 0 && b.ticks >= b.maxTicks {
		b.finish(OutcomeTimeout, TeamNone)
	}
}

func (b *Battle) finish(kind OutcomeKind, winner Team) {
	b.result = &BattleResult{Kind: kind, Winner: winner, Tick: b.ticks}
	b.env.emit(EvBattleResult, map[string]any{
		"battle": b.ID, "kind": kind.String(), "winner": winner.String(),
	})
	b.env.Log.Info("battle resolved",
		zap.String("battle", b.ID), zap.Stringer("kind", kind), zap.Stringer("winner", winner), zap.Int("tick", b.ticks))
}

// Cleanup purges dead units and returns how many were removed. Call it after
// the round has been scored.
func (b *Battle) Cleanup() int {
	kept := b.units[:0]
	removed := 0
	for _, u := range b.units {
		if u.Alive() {
			kept = append(kept, u)
			continue
		}
		delete(b.byID, u.ID)
		removed++
	}
	for i := len(kept); i < len(b.units); i++ {
		b.units[i] = nil
	}
	b.units = kept
	return removed
}

func (b *Battle) Started() bool { return b.started }
func (b *Battle) TickCount() int { return b.ticks }
func (b *Battle) Units() []*Unit { return b.units }
func (b *Battle) Structures() []*Structure { return b.structures }
func (b *Battle) Lanes() []*Lane { return b.lanes }
func (b *Battle) Ledger(t Team) Ledger { return b.resolver.Ledger(t) }
func (b *Battle) GraceRemaining() (int, bool) { return b.grace, b.grace >= 0 }

func (b *Battle) Unit(id UnitID) *Unit { return b.byID[id] }

func (b *Battle) Living(t Team) int {
	n := 0
	for _, u := range b.units {
		if u.Team == t && u.Alive() {
			n++
		}
	}
	return n
}

func (b *Battle) structureByID(id StructureID) *Structure {
	if id == 0 {
		return nil
	}
	for _, s := range b.structures {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Throne returns team's throne, or nil if the arena has none.
func (b *Battle) Throne(t Team) *Structure {
	for _, s := range b.structures {
		if s.Kind == KindThrone && s.Team == t {
			return s
		}
	}
	return nil
}

// confinement is the rectangle a unit is clamped to: the lane bounds,
// widened toward a structure it is pursuing and toward its next waypoint.
func (b *Battle) confinement(u *Unit) Rect {
	cfg := b.env.Cfg
	lane := b.lanes[u.Lane]
	r := lane.Bounds()
	sid := u.heading
	if id, ok := u.TargetStructure(); ok {
		sid = id
	}
	if s := b.structureByID(sid); s != nil {
		r = r.Union(s.Region.Grow(cfg.TargetMargin))
	}
	switch u.State {
	case StateAdvancing:
		if wps := lane.WaypointsFor(u.Team); u.Waypoint < len(wps) {
			r = r.IncludePoint(wps[u.Waypoint], cfg.WaypointMargin)
		}
	case StateIdle, StateRetreating:
		r = r.IncludePoint(u.Origin, cfg.WaypointMargin)
	}
	return r
}

// acquire picks a fight for an advancing unit: the nearest enemy unit in
// aggro range, else an eligible enemy structure. A lane's tower shields the
// throne from that lane's units until it falls.
func (b *Battle) acquire(u *Unit) (target, bool) {
	cfg := b.env.Cfg
	if o := b.nearestEnemyUnit(u, cfg.UnitAggroRange, b.reachable); o != nil {
		return target{kind: targetUnit, unit: o.ID}, true
	}
	var tower, throne *Structure
	towerD, throneD := math.MaxFloat64, math.MaxFloat64
	guarded := false
	for _, s := range b.structures {
		if !s.EligibleFor(u.Team, u.Lane) {
			continue
		}
		if s.Kind == KindTower {
			guarded = true
		}
		d := u.Pos.Dist(s.Pos)
		if d > cfg.StructureAggroRange || d > s.AttackRange+cfg.ApproachBuffer {
			continue
		}
		switch s.Kind {
		case KindTower:
			if d < towerD {
				tower, towerD = s, d
			}
		case KindThrone:
			if d < throneD {
				throne, throneD = s, d
			}
		}
	}
	if tower != nil {
		return target{kind: targetStructure, structure: tower.ID}, true
	}
	if throne != nil && !guarded {
		return target{kind: targetStructure, structure: throne.ID}, true
	}
	return target{}, false
}

// nearestEnemyUnit returns the closest living enemy within rng that keep
// accepts. A nil keep accepts every candidate.
func (b *Battle) nearestEnemyUnit(u *Unit, rng float64, keep func(u, o *Unit) bool) *Unit {
	var best *Unit
	bestSq := rng * rng
	for _, o := range b.units {
		if !o.Alive() || o.Team == u.Team {
			continue
		}
		if keep != nil && !keep(u, o) {
			continue
		}
		if d := u.Pos.DistSq(o.Pos); d <= bestSq && (best == nil || d < bestSq) {
			best, bestSq = o, d
		}
	}
	return best
}

// reachable reports whether u can get within melee range of o without
// leaving its confinement. Units across a lane gap are out of reach.
func (b *Battle) reachable(u, o *Unit) bool {
	return b.confinement(u).DistTo(o.Pos) <= b.env.Cfg.MeleeRange
}

// nearestEligibleStructure honours the same lane filter and tower-first
// rule as acquire.
func (b *Battle) nearestEligibleStructure(u *Unit, rng float64) *Structure {
	var tower, throne *Structure
	towerD, throneD := rng, rng
	guarded := false
	for _, s := range b.structures {
		if !s.EligibleFor(u.Team, u.Lane) {
			continue
		}
		d := u.Pos.Dist(s.Pos)
		switch s.Kind {
		case KindTower:
			guarded = true
			if d <= towerD {
				tower, towerD = s, d
			}
		case KindThrone:
			if d <= throneD {
				throne, throneD = s, d
			}
		}
	}
	if tower != nil || guarded {
		return tower
	}
	return throne
}

// blockingStructure is the live enemy structure a non-combatant must stop
// in front of, if any.
func (b *Battle) blockingStructure(u *Unit) *Structure {
	stop := b.env.Cfg.NonCombatStop
	for _, s := range b.structures {
		if s.Alive() && s.Team != u.Team && s.Region.DistTo(u.Pos) <= stop {
			return s
		}
	}
	return nil
}

// resolveTarget returns the point to attack and the melee reach for u's
// target, or false when the target is gone, out of leash range or out of
// reach from inside u's confinement.
func (b *Battle) resolveTarget(u *Unit) (Vec2, float64, bool) {
	cfg := b.env.Cfg
	switch u.target.kind {
	case targetUnit:
		o := b.Unit(u.target.unit)
		if o == nil || !o.Alive() {
			return Vec2{}, 0, false
		}
		if cfg.LeashRange > 0 && u.Pos.DistSq(o.Pos) > cfg.LeashRange*cfg.LeashRange {
			return Vec2{}, 0, false
		}
		if !b.reachable(u, o) {
			return Vec2{}, 0, false
		}
		return o.Pos, cfg.MeleeRange, true
	case targetStructure:
		s := b.structureByID(u.target.structure)
		if s == nil || !s.Alive() {
			return Vec2{}, 0, false
		}
		return s.Pos, cfg.StructureMeleeRange, true
	}
	return Vec2{}, 0, false
}
