package config

import (
	"fmt"
	"math"
)

// BattleConfig holds the tuning of the real-time battle. Distances are in
// world units, durations in seconds; the simulation converts durations to
// tick counts once.
type BattleConfig struct {
	TickRate            int     `yaml:"tick_rate"`
	MaxBattleSeconds    float64 `yaml:"max_battle_seconds"`
	GraceSeconds        float64 `yaml:"grace_seconds"`
	UnitAggroRange      float64 `yaml:"unit_aggro_range"`
	StructureAggroRange float64 `yaml:"structure_aggro_range"`
	ApproachBuffer      float64 `yaml:"approach_buffer"`
	WideSearchRange     float64 `yaml:"wide_search_range"`
	LeashRange          float64 `yaml:"leash_range"`
	MeleeRange          float64 `yaml:"melee_range"`
	StructureMeleeRange float64 `yaml:"structure_melee_range"`
	WaypointReach       float64 `yaml:"waypoint_reach"`
	ArrivalDistance     float64 `yaml:"arrival_distance"`
	NonCombatStop       float64 `yaml:"non_combat_stop"`
	StuckEpsilon        float64 `yaml:"stuck_epsilon"`
	StuckSeconds        float64 `yaml:"stuck_seconds"`
	TargetMargin        float64 `yaml:"target_margin"`
	WaypointMargin      float64 `yaml:"waypoint_margin"`
	Knockback           float64 `yaml:"knockback"`
	Note                string  `yaml:"note"`
}

func DefaultBattle() BattleConfig {
	return BattleConfig{
		TickRate:            20,
		MaxBattleSeconds:    180,
		GraceSeconds:        10,
		UnitAggroRange:      8,
		StructureAggroRange: 16,
		ApproachBuffer:      4,
		WideSearchRange:     64,
		LeashRange:          12,
		MeleeRange:          2,
		StructureMeleeRange: 3.5,
		WaypointReach:       1.75,
		ArrivalDistance:     2,
		NonCombatStop:       2.5,
		StuckEpsilon:        0.05,
		StuckSeconds:        2,
		TargetMargin:        3,
		WaypointMargin:      1.5,
		Knockback:           0.6,
	}
}

// Ticks converts seconds into a tick count at the configured rate.
func (c BattleConfig) Ticks(seconds float64) int {
	if seconds <= 0 || c.TickRate <= 0 {
		return 0
	}
	return int(math.Round(seconds * float64(c.TickRate)))
}

func (c BattleConfig) Validate() error {
	switch {
	case c.TickRate <= 0:
		return fmt.Errorf("%w: tick_rate must be positive", ErrInvalid)
	case c.UnitAggroRange <= 0:
		return fmt.Errorf("%w: unit_aggro_range must be positive", ErrInvalid)
	case c.StructureAggroRange < c.UnitAggroRange:
		return fmt.Errorf("%w: structure_aggro_range below unit_aggro_range", ErrInvalid)
	case c.MeleeRange <= 0 || c.StructureMeleeRange < c.MeleeRange:
		return fmt.Errorf("%w: melee ranges", ErrInvalid)
	case c.WaypointReach <= 0 || c.ArrivalDistance <= 0:
		return fmt.Errorf("%w: reach thresholds must be positive", ErrInvalid)
	}
	return nil
}
