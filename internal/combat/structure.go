package combat

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"lanebattle/internal/config"
)

type StructureKind int

const (
	KindTower StructureKind = iota
	KindThrone
)

func (k StructureKind) String() string {
	if k == KindThrone {
		return "throne"
	}
	return "tower"
}

// Structure is a stationary defender. Towers shoot the nearest enemy unit;
// thrones pulse damage over every enemy unit in range.
type Structure struct {
	ID     StructureID
	Kind   StructureKind
	Team   Team
	Pos    Vec2
	Region Rect

	HP, MaxHP           float64
	AttackRange         float64
	AttackDamage        float64
	AttackCooldownTicks int
	cooldown            int
	Falloff             float64
	Knockback           float64

	Lane    LaneID
	HasLane bool

	Destroyed bool
}

func (s *Structure) Alive() bool { return !s.Destroyed && s.HP > 0 }

func (s *Structure) CooldownRemaining() int { return s.cooldown }

// EligibleFor reports whether a unit walking lane may choose s as a
// destination. Off-lane towers are never walk-to targets even when they can
// shoot into the unit's lane.
func (s *Structure) EligibleFor(team Team, lane LaneID) bool {
	if !s.Alive() || s.Team == team {
		return false
	}
	if s.Kind == KindTower {
		return s.HasLane && s.Lane == lane
	}
	return true
}

// Reset restores full health. Only a full match reset calls it.
func (s *Structure) Reset() {
	s.HP = s.MaxHP
	s.Destroyed = false
	s.cooldown = 0
}

func StructuresFromConfig(ac config.ArenaConfig, bc config.BattleConfig) ([]*Structure, error) {
	out := make([]*Structure, 0, len(ac.Structures))
	for i, d := range ac.Structures {
		team, ok := ParseTeam(d.Team)
		if !ok {
			return nil, fmt.Errorf("structure %d: unknown team %q", i, d.Team)
		}
		pos := Vec2{X: d.Pos.X, Y: d.Pos.Y}
		s := &Structure{
			ID:                  StructureID(i + 1),
			Team:                team,
			Pos:                 pos,
			Region:              RectAround(pos, math.Max(d.HalfExtent, 0.5)),
			HP:                  d.MaxHP,
			MaxHP:               d.MaxHP,
			AttackRange:         d.AttackRange,
			AttackDamage:        d.AttackDamage,
			AttackCooldownTicks: max(bc.Ticks(d.AttackCooldown), 1),
			Knockback:           d.Knockback,
		}
		switch d.Kind {
		case "throne":
			s.Kind = KindThrone
			s.Falloff = d.Falloff
			if s.Falloff == 0 {
				s.Falloff = 0.7
			}
		case "tower":
			s.Kind = KindTower
			idx := ac.LaneIndex(d.Lane)
			if idx < 0 {
				return nil, fmt.Errorf("structure %d: unknown lane %q", i, d.Lane)
			}
			s.Lane, s.HasLane = LaneID(idx), true
		default:
			return nil, fmt.Errorf("structure %d: unknown kind %q", i, d.Kind)
		}
		out = append(out, s)
	}
	return out, nil
}

// PulseDamage is the throne falloff: full damage at the center, falling
// linearly to (1-falloff) of base at the edge of range.
func PulseDamage(base, falloff, dist, rng float64) float64 {
	if rng <= 0 {
		return base
	}
	f := clamp(dist/rng, 0, 1)
	return math.Max(base*(1-falloff*f), 0)
}

func (s *Structure) update(b *Battle) {
	if !s.Alive() {
		return
	}
	if s.cooldown > 0 {
		s.cooldown--
	}
	if s.cooldown > 0 || s.AttackDamage <= 0 {
		return
	}
	switch s.Kind {
	case KindTower:
		s.shoot(b)
	case KindThrone:
		s.pulse(b)
	}
}

func (s *Structure) shoot(b *Battle) {
	var best *Unit
	bestSq := s.AttackRange * s.AttackRange
	for _, u := range b.units {
		if !u.Alive() || u.Team == s.Team {
			continue
		}
		if d := s.Pos.DistSq(u.Pos); d <= bestSq {
			if best == nil || d < bestSq {
				best, bestSq = u, d
			}
		}
	}
	if best == nil {
		return
	}
	b.resolver.DamageUnit(s.attacker(), best, s.AttackDamage, CategoryTowerShot)
	s.cooldown = s.AttackCooldownTicks
	b.env.Log.Debug("tower shot",
		zap.Int64("structure", int64(s.ID)), zap.Int64("unit", int64(best.ID)), zap.Float64("damage", s.AttackDamage))
}

func (s *Structure) pulse(b *Battle) {
	rsq := s.AttackRange * s.AttackRange
	var hit []*Unit
	for _, u := range b.units {
		if u.Alive() && u.Team != s.Team && s.Pos.DistSq(u.Pos) <= rsq {
			hit = append(hit, u)
		}
	}
	if len(hit) == 0 {
		return
	}
	for _, u := range hit {
		dmg := PulseDamage(s.AttackDamage, s.Falloff, s.Pos.Dist(u.Pos), s.AttackRange)
		b.resolver.DamageUnit(s.attacker(), u, dmg, CategoryThronePulse)
		if u.Alive() && s.Knockback > 0 {
			b.resolver.Knockback(s.Pos, u, s.Knockback)
		}
	}
	s.cooldown = s.AttackCooldownTicks
	b.env.Log.Debug("throne pulse", zap.Int64("structure", int64(s.ID)), zap.Int("targets", len(hit)))
}

func (s *Structure) attacker() Attacker {
	return Attacker{Team: s.Team, Pos: s.Pos, Structure: s.ID}
}
