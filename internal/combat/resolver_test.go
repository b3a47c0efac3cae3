package combat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDamageUnitKillsOnce(t *testing.T) {
	h := newHarness(t, longGrace, []*Lane{straightLane(t, 0, 0)}, nil)
	u := h.spawn(t, 7, TeamP2, 0, 0, "scout")
	r := h.b.resolver
	src := Attacker{Team: TeamP1}

	dealt, killed := r.DamageUnit(src, u, 20, CategoryMelee)
	assert.Equal(t, 20.0, dealt)
	assert.False(t, killed)

	dealt, killed = r.DamageUnit(src, u, 100, CategoryMelee)
	assert.Equal(t, 15.0, dealt)
	assert.True(t, killed)
	assert.Equal(t, StateDead, u.State)
	assert.Equal(t, 0.0, u.HP)

	dealt, killed = r.DamageUnit(src, u, 100, CategoryMelee)
	assert.Zero(t, dealt)
	assert.False(t, killed)

	assert.Len(t, h.ofType(EvUnitDied), 1)
	assert.Equal(t, 1, r.Ledger(TeamP1).Kills)
	assert.Equal(t, 35.0, r.Ledger(TeamP1).UnitDamage)
	assert.Equal(t, Ledger{}, r.Ledger(TeamNone))
}

func TestDamageSanitizesAmount(t *testing.T) {
	h := newHarness(t, longGrace, []*Lane{straightLane(t, 0, 0)}, nil)
	u := h.spawn(t, 1, TeamP2, 0, 0, "footman")
	r := h.b.resolver

	dealt, _ := r.DamageUnit(Attacker{}, u, math.NaN(), CategoryMelee)
	assert.Zero(t, dealt)
	dealt, _ = r.DamageUnit(Attacker{}, u, -5, CategoryMelee)
	assert.Zero(t, dealt)
	assert.Equal(t, u.MaxHP, u.HP)
}

func TestDamageStructureDestroysOnce(t *testing.T) {
	tw := tower(3, TeamP2, 0, Vec2{0, 60}, 0)
	th := throne(4, TeamP2, Vec2{0, 100}, 0)
	h := newHarness(t, longGrace, []*Lane{straightLane(t, 0, 0)}, []*Structure{tw, th})
	r := h.b.resolver
	src := Attacker{Team: TeamP1, Unit: 1}

	_, destroyed := r.DamageStructure(src, tw, 1000, CategoryMelee)
	assert.True(t, destroyed)
	assert.True(t, tw.Destroyed)
	_, destroyed = r.DamageStructure(src, tw, 1000, CategoryMelee)
	assert.False(t, destroyed)
	assert.Len(t, h.ofType(EvStructureDestroyed), 1)

	r.DamageStructure(src, th, 50, CategoryMelee)
	l := r.Ledger(TeamP1)
	assert.Equal(t, 150.0, l.TowerDamage)
	assert.Equal(t, 50.0, l.ThroneDamage)
	assert.Equal(t, 1, l.TowersDestroyed)
	assert.False(t, l.ThroneDestroyed)
	assert.Len(t, h.ofType(EvStructureHP), 2)
}

func TestKnockbackSkipsIdleAndClamps(t *testing.T) {
	h := newHarness(t, longGrace, []*Lane{straightLane(t, 0, 0)}, nil)
	u := h.spawn(t, 1, TeamP1, 0, 1, "footman")
	r := h.b.resolver

	before := u.Pos
	r.Knockback(Vec2{0, 49}, u, 5)
	assert.Equal(t, before, u.Pos, "idle units hold their slot")

	u.State = StateAdvancing
	r.Knockback(Vec2{-1, 50}, u, 50)
	require.Equal(t, StateAdvancing, u.State)
	assert.Equal(t, 3.0, u.Pos.X, "clamped to lane bounds")
	assert.Equal(t, 50.0, u.Pos.Y)
}
