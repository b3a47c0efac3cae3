package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanebattle/internal/config"
	"lanebattle/internal/util"
)

func TestSpawnValidation(t *testing.T) {
	h := newHarness(t, nil, []*Lane{straightLane(t, 0, 0)}, nil)

	_, err := h.b.Spawn(1, TeamP1, 3, 0, "footman")
	assert.ErrorIs(t, err, ErrUnknownLane)
	_, err = h.b.Spawn(1, TeamP1, 0, 9, "footman")
	assert.ErrorIs(t, err, ErrInvalidSlot)
	_, err = h.b.Spawn(1, TeamNone, 0, 0, "footman")
	assert.ErrorIs(t, err, ErrInvalidSlot)
	_, err = h.b.Spawn(1, TeamP1, 0, 0, "dragon")
	assert.ErrorIs(t, err, ErrUnknownDefinition)

	u := h.spawn(t, 1, TeamP1, 0, 0, "footman")
	assert.Equal(t, StateIdle, u.State)
	assert.Equal(t, Vec2{0, 0}, u.Pos)
	_, err = h.b.Spawn(1, TeamP1, 0, 1, "footman")
	assert.ErrorIs(t, err, ErrDuplicateUnit)

	assert.Len(t, h.ofType(EvUnitSpawned), 1)
	assert.NotEmpty(t, h.b.ID)
}

func TestTickBeforeStartDoesNothing(t *testing.T) {
	h := newHarness(t, nil, []*Lane{straightLane(t, 0, 0)}, nil)
	u := h.spawn(t, 1, TeamP1, 0, 1, "footman")
	h.spawn(t, 2, TeamP2, 0, 1, "footman")
	for i := 0; i < 50; i++ {
		h.b.Tick()
	}
	assert.Equal(t, 0, h.b.TickCount())
	assert.Equal(t, Vec2{0, 50}, u.Pos)
	assert.Equal(t, u.MaxHP, u.HP)
}

func TestStartIsIdempotentAndLateSpawnAdvances(t *testing.T) {
	h := newHarness(t, longGrace, []*Lane{straightLane(t, 0, 0)}, nil)
	a := h.spawn(t, 1, TeamP1, 0, 0, "footman")
	h.b.Start()
	h.b.Start()
	assert.Equal(t, StateAdvancing, a.State)
	assert.Len(t, h.ofType(EvUnitState), 1)

	late := h.spawn(t, 2, TeamP2, 0, 0, "footman")
	assert.Equal(t, StateAdvancing, late.State)
}

func TestAllUnitsDeadAfterGrace(t *testing.T) {
	h := newHarness(t, nil, []*Lane{straightLane(t, 0, 0)}, nil)
	scout := h.spawn(t, 1, TeamP1, 0, 1, "scout")
	h.spawn(t, 2, TeamP2, 0, 1, "brute")
	h.b.Start()

	res, ok := h.run(2000)
	require.True(t, ok)
	died := h.ofType(EvUnitDied)
	require.Len(t, died, 1)
	assert.Equal(t, int64(scout.ID), died[0].Payload["id"])

	graceTicks := h.env.Cfg.Ticks(h.env.Cfg.GraceSeconds)
	assert.Equal(t, OutcomeAllUnitsDead, res.Kind)
	assert.Equal(t, TeamP2, res.Winner)
	assert.Equal(t, died[0].Tick+graceTicks, res.Tick)

	got := h.ofType(EvBattleResult)
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].Payload["winner"])
}

func TestGraceCancelledByReinforcement(t *testing.T) {
	h := newHarness(t, nil, []*Lane{straightLane(t, 0, 0)}, nil)
	h.spawn(t, 1, TeamP1, 0, 1, "scout")
	h.spawn(t, 2, TeamP2, 0, 1, "brute")
	h.b.Start()

	for h.b.Living(TeamP1) > 0 {
		h.b.Tick()
		require.Less(t, h.b.TickCount(), 1000)
	}
	left, counting := h.b.GraceRemaining()
	require.True(t, counting)
	require.Greater(t, left, 0)

	h.spawn(t, 3, TeamP1, 0, 0, "footman")
	h.b.Tick()
	_, counting = h.b.GraceRemaining()
	assert.False(t, counting)

	graceTicks := h.env.Cfg.Ticks(h.env.Cfg.GraceSeconds)
	_, ok := h.run(graceTicks)
	assert.False(t, ok)
}

func TestThroneDestroyedOutranksAllUnitsDead(t *testing.T) {
	th := throne(1, TeamP2, Vec2{0, 3}, 0)
	th.HP = 1
	h := newHarness(t, func(c *config.BattleConfig) { c.GraceSeconds = 0 }, []*Lane{straightLane(t, 0, 0)}, []*Structure{th})
	h.spawn(t, 1, TeamP1, 0, 0, "footman")
	h.b.Start()

	res, ok := h.run(1)
	require.True(t, ok)
	assert.Equal(t, OutcomeThroneDestroyed, res.Kind)
	assert.Equal(t, TeamP1, res.Winner)
	assert.True(t, h.b.Ledger(TeamP1).ThroneDestroyed)
}

func TestBothThronesFallIsDraw(t *testing.T) {
	t1, t2 := throne(1, TeamP1, Vec2{0, -10}, 0), throne(2, TeamP2, Vec2{0, 110}, 0)
	h := newHarness(t, longGrace, []*Lane{straightLane(t, 0, 0)}, []*Structure{t1, t2})
	h.spawn(t, 1, TeamP1, 0, 0, "footman")
	h.spawn(t, 2, TeamP2, 0, 0, "footman")
	h.b.Start()
	h.b.Tick()

	t1.Destroyed, t2.Destroyed = true, true
	res, ok := h.run(1)
	require.True(t, ok)
	assert.Equal(t, OutcomeThroneDestroyed, res.Kind)
	assert.Equal(t, TeamNone, res.Winner)
}

func TestResultIsSticky(t *testing.T) {
	h := newHarness(t, func(c *config.BattleConfig) { c.MaxBattleSeconds = 1 }, []*Lane{straightLane(t, 0, 0)}, nil)
	h.spawn(t, 1, TeamP1, 0, 0, "bannerman")
	h.spawn(t, 2, TeamP2, 0, 0, "bannerman")
	h.b.Start()

	res, ok := h.run(100)
	require.True(t, ok)
	assert.Equal(t, OutcomeTimeout, res.Kind)
	assert.Equal(t, TeamNone, res.Winner)
	assert.Equal(t, 20, res.Tick)

	h.b.Tick()
	assert.Equal(t, 20, h.b.TickCount())
	again, _ := h.b.CheckBattleEnd()
	assert.Equal(t, res, again)
	assert.Len(t, h.ofType(EvBattleResult), 1)

	_, err := h.b.Spawn(3, TeamP1, 0, 1, "footman")
	assert.ErrorIs(t, err, ErrBattleOver)
}

func TestCleanupPurgesDead(t *testing.T) {
	h := newHarness(t, longGrace, []*Lane{straightLane(t, 0, 0)}, nil)
	a := h.spawn(t, 1, TeamP1, 0, 0, "footman")
	b := h.spawn(t, 2, TeamP2, 0, 0, "footman")
	h.b.resolver.DamageUnit(Attacker{Team: TeamP1}, b, 1000, CategoryMelee)

	assert.Equal(t, 1, h.b.Cleanup())
	assert.Len(t, h.b.Units(), 1)
	assert.Same(t, a, h.b.Unit(1))
	assert.Nil(t, h.b.Unit(2))
	assert.Equal(t, 0, h.b.Cleanup())
}

// Random deployments on the default arena: a unit never leaves its lane
// corridor except toward the enemy structures it may legally attack.
func TestConfinementHolds(t *testing.T) {
	bundle := config.Default()
	for seed := int64(1); seed <= 6; seed++ {
		lanes, err := LanesFromConfig(bundle.Arena)
		require.NoError(t, err)
		structures, err := StructuresFromConfig(bundle.Arena, bundle.Battle)
		require.NoError(t, err)
		h := newHarness(t, nil, lanes, structures)
		cfg := h.env.Cfg
		rng := util.New(seed)
		defs := h.env.Catalog.IDs()

		used := map[[3]int]bool{}
		for id := UnitID(1); id <= 14; id++ {
			team := Teams[rng.Intn(2)]
			lane := LaneID(rng.Intn(len(lanes)))
			slot := rng.Intn(len(lanes[lane].Slots(team)))
			key := [3]int{int(team), int(lane), slot}
			if used[key] {
				continue
			}
			used[key] = true
			h.spawn(t, id, team, lane, slot, defs[rng.Intn(len(defs))])
		}
		h.b.Start()

		// a unit is only widened toward the structure it pursues; one that
		// lets go mid-tick keeps that structure's region for the tick
		pursued := func(u *Unit) StructureID {
			if id, ok := u.TargetStructure(); ok {
				return id
			}
			return u.heading
		}
		allowed := func(u *Unit, sids ...StructureID) Rect {
			r := lanes[u.Lane].Bounds().IncludePoint(u.Origin, cfg.WaypointMargin)
			for _, sid := range sids {
				if s := h.b.structureByID(sid); s != nil {
					r = r.Union(s.Region.Grow(cfg.TargetMargin))
				}
			}
			return r.Grow(1e-9)
		}
		before := map[UnitID]StructureID{}
		for i := 0; i < 1500; i++ {
			for _, u := range h.b.Units() {
				before[u.ID] = pursued(u)
			}
			h.b.Tick()
			for _, u := range h.b.Units() {
				if !u.Alive() {
					continue
				}
				r := allowed(u, before[u.ID], pursued(u))
				require.True(t, r.Contains(u.Pos), "seed %d tick %d unit %d at %v", seed, h.b.TickCount(), u.ID, u.Pos)
				require.GreaterOrEqual(t, u.HP, 0.0)
			}
			if _, ok := h.b.CheckBattleEnd(); ok {
				break
			}
		}
	}
}
