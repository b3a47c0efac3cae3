package match

import (
	"sort"

	"lanebattle/internal/combat"
)

type SlotView struct {
	Team combat.Team `json:"team"`
	Lane string      `json:"lane"`
	Slot int         `json:"slot"`
	Def  string      `json:"def"`
	Unit int64       `json:"unit"`
}

type UnitView struct {
	ID       int64       `json:"id"`
	Team     combat.Team `json:"team"`
	Lane     string      `json:"lane"`
	Def      string      `json:"def"`
	State    string      `json:"state"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Facing   float64     `json:"facing"`
	HP       float64     `json:"hp"`
	MaxHP    float64     `json:"max_hp"`
	Progress float64     `json:"progress"`
}

type StructureView struct {
	ID        int64       `json:"id"`
	Kind      string      `json:"kind"`
	Team      combat.Team `json:"team"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	HP        float64     `json:"hp"`
	MaxHP     float64     `json:"max_hp"`
	Destroyed bool        `json:"destroyed"`
}

// Snapshot is a copy of the visible match state, safe to hand to other
// goroutines.
type Snapshot struct {
	MatchID    string          `json:"match_id"`
	Phase      Phase           `json:"phase"`
	Round      int             `json:"round"`
	Rounds     int             `json:"rounds"`
	TicksLeft  int             `json:"phase_ticks_left"`
	BattleID   string          `json:"battle_id,omitempty"`
	BattleTick int             `json:"battle_tick"`
	Ready      map[string]bool `json:"ready"`
	Slots      []SlotView      `json:"slots"`
	Units      []UnitView      `json:"units"`
	Structures []StructureView `json:"structures"`
	P1         Totals          `json:"p1"`
	P2         Totals          `json:"p2"`
	Result     *Result         `json:"result,omitempty"`
}

func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		MatchID:   c.ID,
		Phase:     c.phase,
		Round:     c.round,
		Rounds:    c.cfg.Match.Rounds,
		TicksLeft: c.timer,
		Ready:     map[string]bool{"p1": c.ready[combat.TeamP1], "p2": c.ready[combat.TeamP2]},
		P1:        c.totals[combat.TeamP1],
		P2:        c.totals[combat.TeamP2],
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	for k, d := range c.slots {
		s.Slots = append(s.Slots, SlotView{Team: k.team, Lane: c.lanes[k.lane].Name, Slot: k.slot, Def: d.def, Unit: int64(d.unit)})
	}
	sort.Slice(s.Slots, func(i, j int) bool { return s.Slots[i].Unit < s.Slots[j].Unit })

	if b := c.battle; b != nil && c.phase != PhasePreparation && c.phase != PhaseSurvival {
		s.BattleID = b.ID
		s.BattleTick = b.TickCount()
		for _, u := range b.Units() {
			lane := c.lanes[u.Lane]
			s.Units = append(s.Units, UnitView{
				ID: int64(u.ID), Team: u.Team, Lane: lane.Name, Def: u.Def, State: u.State.String(),
				X: u.Pos.X, Y: u.Pos.Y, Facing: u.Facing, HP: u.HP, MaxHP: u.MaxHP,
				Progress: lane.Progress(u.Pos, u.Team),
			})
		}
	}
	for _, st := range c.structures {
		s.Structures = append(s.Structures, StructureView{
			ID: int64(st.ID), Kind: st.Kind.String(), Team: st.Team, X: st.Pos.X, Y: st.Pos.Y,
			HP: st.HP, MaxHP: st.MaxHP, Destroyed: st.Destroyed,
		})
	}
	return s
}
