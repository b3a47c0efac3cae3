package combat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lanebattle/internal/config"
)

type harness struct {
	b      *Battle
	env    *Env
	events []Event
}

func testUnits() config.UnitsConfig {
	uc := config.DefaultUnits()
	uc.Units = append(uc.Units, config.UnitDef{
		ID: "post", Name: "Post", Category: "support", MaxHP: 10, MoveSpeed: 0, AttackDamage: 0, AttackCooldown: 1,
	})
	return uc
}

// newHarness builds a battle over the given lanes and structures. mut may
// tweak the battle config before it is frozen into the env.
func newHarness(t *testing.T, mut func(*config.BattleConfig), lanes []*Lane, structures []*Structure) *harness {
	t.Helper()
	cfg := config.DefaultBattle()
	if mut != nil {
		mut(&cfg)
	}
	h := &harness{}
	cat := NewCatalog(testUnits(), cfg)
	h.env = NewEnv(cfg, cat, func(e Event) { h.events = append(h.events, e) }, nil)
	h.b = NewBattle(h.env, lanes, structures)
	return h
}

func longGrace(c *config.BattleConfig) {
	c.GraceSeconds = 1000
	c.MaxBattleSeconds = 1000
}

// straightLane runs along x from y=0 (p1) to y=100 (p2). Slot 1 of each team
// sits mid-lane so the two sides start in melee range.
func straightLane(t *testing.T, id LaneID, x float64) *Lane {
	t.Helper()
	l, err := NewLane(id, "test", 3,
		[]Vec2{{x, 0}, {x, 100}},
		[]Vec2{{x, 0}, {x, 50}},
		[]Vec2{{x, 100}, {x, 51}},
	)
	require.NoError(t, err)
	return l
}

func tower(id StructureID, team Team, lane LaneID, pos Vec2, damage float64) *Structure {
	return &Structure{
		ID: id, Kind: KindTower, Team: team, Pos: pos, Region: RectAround(pos, 1.5),
		HP: 150, MaxHP: 150, AttackRange: 7, AttackDamage: damage, AttackCooldownTicks: 20,
		Lane: lane, HasLane: true,
	}
}

func throne(id StructureID, team Team, pos Vec2, damage float64) *Structure {
	return &Structure{
		ID: id, Kind: KindThrone, Team: team, Pos: pos, Region: RectAround(pos, 2.5),
		HP: 200, MaxHP: 200, AttackRange: 6, AttackDamage: damage, AttackCooldownTicks: 30,
		Falloff: 0.7,
	}
}

func (h *harness) spawn(t *testing.T, id UnitID, team Team, lane LaneID, slot int, def string) *Unit {
	t.Helper()
	u, err := h.b.Spawn(id, team, lane, slot, def)
	require.NoError(t, err)
	return u
}

// run ticks until a result or n ticks, whichever comes first.
func (h *harness) run(n int) (BattleResult, bool) {
	for i := 0; i < n; i++ {
		h.b.Tick()
		if r, ok := h.b.CheckBattleEnd(); ok {
			return r, true
		}
	}
	return BattleResult{}, false
}

func (h *harness) ofType(typ string) []Event {
	var out []Event
	for _, e := range h.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func (h *harness) damageTo(kind string, id int64) []Event {
	var out []Event
	for _, e := range h.ofType(EvDamage) {
		if e.Payload["kind"] == kind && e.Payload["target"] == id {
			out = append(out, e)
		}
	}
	return out
}
