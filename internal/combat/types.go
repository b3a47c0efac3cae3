package combat

import (
	"encoding/json"

	"go.uber.org/zap"

	"lanebattle/internal/config"
	"lanebattle/internal/logging"
)

type Team int

const (
	TeamNone Team = iota
	TeamP1
	TeamP2
)

func (t Team) Opponent() Team {
	switch t {
	case TeamP1:
		return TeamP2
	case TeamP2:
		return TeamP1
	}
	return TeamNone
}

func (t Team) String() string {
	switch t {
	case TeamP1:
		return "p1"
	case TeamP2:
		return "p2"
	}
	return "none"
}

func (t Team) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func ParseTeam(s string) (Team, bool) {
	switch s {
	case "p1":
		return TeamP1, true
	case "p2":
		return TeamP2, true
	}
	return TeamNone, false
}

// Teams lists the playing sides in a fixed order.
var Teams = [2]Team{TeamP1, TeamP2}

// LaneID indexes the arena's lanes.
type LaneID int

const (
	LaneLeft LaneID = iota
	LaneCenter
	LaneRight
)

type UnitID int64
type StructureID int64

type Event struct {
	Tick    int            `json:"tick"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

const (
	EvUnitSpawned        = "UnitSpawned"
	EvUnitUpdate         = "UnitUpdate"
	EvUnitState          = "UnitState"
	EvUnitDied           = "UnitDied"
	EvStructureHP        = "StructureHP"
	EvStructureDestroyed = "StructureDestroyed"
	EvDamage             = "Damage"
	EvBattleResult       = "BattleResult"
)

// Env is the explicit context a battle runs in. It replaces any shared
// manager instance: everything a controller needs is reachable from here.
type Env struct {
	Tick    int
	Cfg     config.BattleConfig
	Catalog *Catalog
	Emit    func(Event)
	Log     *zap.Logger
}

func NewEnv(cfg config.BattleConfig, cat *Catalog, emit func(Event), log *zap.Logger) *Env {
	if emit == nil {
		emit = func(Event) {}
	}
	return &Env{Cfg: cfg, Catalog: cat, Emit: emit, Log: logging.OrNop(log)}
}

func (e *Env) emit(typ string, payload map[string]any) {
	e.Emit(Event{Tick: e.Tick, Type: typ, Payload: payload})
}

// step converts a per-second speed to distance per tick.
func (e *Env) step(perSecond float64) float64 {
	if e.Cfg.TickRate <= 0 {
		return 0
	}
	return perSecond / float64(e.Cfg.TickRate)
}

type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeThroneDestroyed
	OutcomeAllUnitsDead
	OutcomeTimeout
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeThroneDestroyed:
		return "throne_destroyed"
	case OutcomeAllUnitsDead:
		return "all_units_dead"
	case OutcomeTimeout:
		return "timeout"
	}
	return "none"
}

func (k OutcomeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// BattleResult Winner is TeamNone for a draw or an undecided timeout.
type BattleResult struct {
	Kind   OutcomeKind `json:"kind"`
	Winner Team        `json:"winner"`
	Tick   int         `json:"tick"`
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
