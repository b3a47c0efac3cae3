package combat

import (
	"go.uber.org/zap"
)

type UnitState int

const (
	StateIdle UnitState = iota
	StateAdvancing
	StateFighting
	StateRetreating
	StateDead
)

func (s UnitState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAdvancing:
		return "advancing"
	case StateFighting:
		return "fighting"
	case StateRetreating:
		return "retreating"
	case StateDead:
		return "dead"
	}
	return "unknown"
}

type targetKind int

const (
	targetNone targetKind = iota
	targetUnit
	targetStructure
)

// target holds at most one of a unit or a structure.
type target struct {
	kind      targetKind
	unit      UnitID
	structure StructureID
}

type Unit struct {
	ID       UnitID
	Team     Team
	Lane     LaneID
	Def      string
	Category string
	State    UnitState

	Pos    Vec2
	Height float64
	Facing float64

	HP, MaxHP           float64
	MoveSpeed           float64
	AttackDamage        float64
	AttackCooldownTicks int
	cooldown            int

	Waypoint int
	Origin   Vec2
	Slot     int

	target  target
	heading StructureID // wide-search destination once the route is exhausted
	retreat bool
	stuck   int

	reported struct {
		pos    Vec2
		facing float64
		hp     float64
	}
}

func newUnit(id UnitID, team Team, lane *Lane, slot int, p *Profile) *Unit {
	origin := lane.Slots(team)[slot]
	u := &Unit{
		ID:                  id,
		Team:                team,
		Lane:                lane.ID,
		Def:                 p.ID,
		Category:            p.Category,
		State:               StateIdle,
		Pos:                 origin,
		Height:              lane.Height,
		HP:                  p.MaxHP,
		MaxHP:               p.MaxHP,
		MoveSpeed:           p.MoveSpeed,
		AttackDamage:        p.AttackDamage,
		AttackCooldownTicks: p.AttackCooldownTicks,
		Origin:              origin,
		Slot:                slot,
	}
	if wps := lane.WaypointsFor(team); len(wps) > 0 {
		u.Facing = wps[0].Sub(origin).Heading()
	}
	u.markReported()
	return u
}

func (u *Unit) Alive() bool { return u.State != StateDead }

func (u *Unit) CooldownRemaining() int { return u.cooldown }

func (u *Unit) TargetUnit() (UnitID, bool) {
	return u.target.unit, u.target.kind == targetUnit
}

func (u *Unit) TargetStructure() (StructureID, bool) {
	return u.target.structure, u.target.kind == targetStructure
}

func (u *Unit) clearTarget() { u.target = target{} }

// setState applies a transition. Dead is terminal.
func (u *Unit) setState(env *Env, s UnitState) {
	if u.State == s || u.State == StateDead {
		return
	}
	from := u.State
	u.State = s
	env.emit(EvUnitState, map[string]any{
		"id": int64(u.ID), "from": from.String(), "to": s.String(),
	})
	env.Log.Debug("unit state",
		zap.Int64("unit", int64(u.ID)), zap.Stringer("from", from), zap.Stringer("to", s))
}

func (u *Unit) face(dir Vec2) {
	if dir.LenSq() > 0 {
		u.Facing = dir.Heading()
	}
}

// moveToward walks one tick's worth of distance toward dest without
// overshooting it.
func (u *Unit) moveToward(env *Env, dest Vec2) {
	to := dest.Sub(u.Pos)
	d := to.Len()
	if d == 0 {
		return
	}
	step := env.step(u.MoveSpeed)
	if step > d {
		step = d
	}
	u.Pos = u.Pos.Add(to.Scale(step / d))
	u.face(to)
}

func (u *Unit) update(b *Battle) {
	if !u.Alive() {
		return
	}
	if u.cooldown > 0 {
		u.cooldown--
	}
	if u.retreat {
		u.retreat = false
		if u.State == StateAdvancing || u.State == StateFighting {
			u.clearTarget()
			u.heading = 0
			u.stuck = 0
			u.setState(b.env, StateRetreating)
		}
	}
	switch u.State {
	case StateAdvancing:
		u.advance(b)
	case StateFighting:
		u.fight(b)
	case StateRetreating:
		u.walkHome(b)
	}
	u.report(b)
}

func (u *Unit) advance(b *Battle) {
	env := b.env
	if u.AttackDamage > 0 {
		if t, ok := b.acquire(u); ok {
			u.target = t
			u.heading = 0
			u.stuck = 0
			u.setState(env, StateFighting)
			u.fight(b)
			return
		}
	} else if s := b.blockingStructure(u); s != nil {
		// 非战斗单位：停在建筑前
		u.face(s.Pos.Sub(u.Pos))
		u.stuck = 0
		return
	}

	dest, ok := u.destination(b)
	if !ok {
		u.Pos = b.confinement(u).Clamp(u.Pos)
		return
	}
	before := u.Pos
	u.moveToward(env, dest)
	u.Pos = b.confinement(u).Clamp(u.Pos)
	u.checkStuck(b, before)
}

// destination advances past reached waypoints and returns where to walk.
// With the route exhausted it falls back to the nearest eligible enemy
// structure within the wide search range.
func (u *Unit) destination(b *Battle) (Vec2, bool) {
	cfg := b.env.Cfg
	wps := b.lanes[u.Lane].WaypointsFor(u.Team)
	reachSq := cfg.WaypointReach * cfg.WaypointReach
	for u.Waypoint < len(wps) && u.Pos.DistSq(wps[u.Waypoint]) <= reachSq {
		u.Waypoint++
	}
	if u.Waypoint < len(wps) {
		return wps[u.Waypoint], true
	}
	if s := b.structureByID(u.heading); s != nil && s.EligibleFor(u.Team, u.Lane) {
		return s.Pos, true
	}
	u.heading = 0
	if s := b.nearestEligibleStructure(u, cfg.WideSearchRange); s != nil {
		u.heading = s.ID
		b.env.Log.Debug("route exhausted, heading to structure",
			zap.Int64("unit", int64(u.ID)), zap.Int64("structure", int64(s.ID)))
		return s.Pos, true
	}
	return Vec2{}, false
}

// checkStuck skips a waypoint after too many ticks without real movement.
func (u *Unit) checkStuck(b *Battle, before Vec2) {
	cfg := b.env.Cfg
	eps := cfg.StuckEpsilon
	if u.Pos.DistSq(before) >= eps*eps {
		u.stuck = 0
		return
	}
	u.stuck++
	if u.stuck <= b.stuckTicks {
		return
	}
	u.stuck = 0
	if wps := b.lanes[u.Lane].WaypointsFor(u.Team); u.Waypoint < len(wps) {
		u.Waypoint++
		b.env.Log.Debug("unit stuck, skipping waypoint",
			zap.Int64("unit", int64(u.ID)), zap.Int("waypoint", u.Waypoint))
	}
}

func (u *Unit) fight(b *Battle) {
	env := b.env
	pos, reach, ok := b.resolveTarget(u)
	if !ok {
		u.clearTarget()
		u.setState(env, StateAdvancing)
		return
	}
	// a unit that just dropped a structure may still stand on its platform
	u.Pos = b.confinement(u).Clamp(u.Pos)
	to := pos.Sub(u.Pos)
	if to.Len() <= reach {
		u.face(to)
		if u.cooldown <= 0 {
			u.strike(b)
		}
		return
	}
	u.moveToward(env, pos)
	u.Pos = b.confinement(u).Clamp(u.Pos)
}

// strike hits the current target and restarts the cooldown.
func (u *Unit) strike(b *Battle) {
	src := Attacker{Team: u.Team, Pos: u.Pos, Unit: u.ID}
	switch u.target.kind {
	case targetUnit:
		o := b.Unit(u.target.unit)
		if o == nil {
			return
		}
		u.hitUnit(b, o)
		if !o.Alive() {
			u.clearTarget()
			u.setState(b.env, StateAdvancing)
		}
	case targetStructure:
		s := b.structureByID(u.target.structure)
		if s == nil {
			return
		}
		b.resolver.DamageStructure(src, s, u.AttackDamage, CategoryMelee)
		u.cooldown = u.AttackCooldownTicks
		if !s.Alive() {
			u.clearTarget()
			u.setState(b.env, StateAdvancing)
		}
	}
}

func (u *Unit) hitUnit(b *Battle, o *Unit) {
	src := Attacker{Team: u.Team, Pos: u.Pos, Unit: u.ID}
	b.resolver.DamageUnit(src, o, u.AttackDamage, CategoryMelee)
	b.resolver.Knockback(u.Pos, o, b.env.Cfg.Knockback)
	u.cooldown = u.AttackCooldownTicks
}

// strikeNearby lets a retreating unit hit an enemy in melee range without
// turning to fight it.
func (u *Unit) strikeNearby(b *Battle) {
	if u.AttackDamage <= 0 || u.cooldown > 0 {
		return
	}
	if o := b.nearestEnemyUnit(u, b.env.Cfg.MeleeRange, nil); o != nil {
		u.face(o.Pos.Sub(u.Pos))
		u.hitUnit(b, o)
	}
}

func (u *Unit) walkHome(b *Battle) {
	arriveSq := b.env.Cfg.ArrivalDistance * b.env.Cfg.ArrivalDistance
	if u.Pos.DistSq(u.Origin) > arriveSq {
		u.strikeNearby(b)
		u.moveToward(b.env, u.Origin)
	}
	if u.Pos.DistSq(u.Origin) <= arriveSq {
		u.Waypoint = 0
		u.stuck = 0
		u.setState(b.env, StateIdle)
	}
}

func (u *Unit) markReported() {
	u.reported.pos, u.reported.facing, u.reported.hp = u.Pos, u.Facing, u.HP
}

// report emits a UnitUpdate when position, facing or hp moved since the last
// one, including hp lost to structures earlier in the tick.
func (u *Unit) report(b *Battle) {
	if u.Pos == u.reported.pos && u.Facing == u.reported.facing && u.HP == u.reported.hp {
		return
	}
	u.markReported()
	b.env.emit(EvUnitUpdate, map[string]any{
		"id": int64(u.ID), "x": u.Pos.X, "y": u.Pos.Y, "h": u.Height, "facing": u.Facing,
		"hp": u.HP, "max_hp": u.MaxHP, "state": u.State.String(),
		"progress": b.lanes[u.Lane].Progress(u.Pos, u.Team),
	})
}
