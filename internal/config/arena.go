package config

import "fmt"

type Vec2Def struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ArenaConfig is the fixed map of one match: lane geometry and the
// structures that defend each side.
type ArenaConfig struct {
	Lanes      []LaneDef      `yaml:"lanes"`
	Structures []StructureDef `yaml:"structures"`
}

// LaneDef waypoints run in the canonical direction, from team p1 toward p2.
type LaneDef struct {
	Name      string    `yaml:"name"`
	HalfWidth float64   `yaml:"half_width"`
	Height    float64   `yaml:"height"`
	Waypoints []Vec2Def `yaml:"waypoints"`
	SlotsP1   []Vec2Def `yaml:"slots_p1"`
	SlotsP2   []Vec2Def `yaml:"slots_p2"`
}

type StructureDef struct {
	Kind           string  `yaml:"kind"` // tower | throne
	Team           string  `yaml:"team"` // p1 | p2
	Lane           string  `yaml:"lane"` // towers only
	Pos            Vec2Def `yaml:"pos"`
	HalfExtent     float64 `yaml:"half_extent"`
	MaxHP          float64 `yaml:"max_hp"`
	AttackRange    float64 `yaml:"attack_range"`
	AttackDamage   float64 `yaml:"attack_damage"`
	AttackCooldown float64 `yaml:"attack_cooldown"`
	Falloff        float64 `yaml:"falloff"`
	Knockback      float64 `yaml:"knockback"`
}

func (a ArenaConfig) LaneIndex(name string) int {
	for i, l := range a.Lanes {
		if l.Name == name {
			return i
		}
	}
	return -1
}

func (a ArenaConfig) Validate() error {
	if len(a.Lanes) == 0 {
		return fmt.Errorf("%w: arena has no lanes", ErrInvalid)
	}
	for _, l := range a.Lanes {
		if len(l.Waypoints) < 2 {
			return fmt.Errorf("%w: lane %q needs at least 2 waypoints", ErrInvalid, l.Name)
		}
		if l.HalfWidth <= 0 {
			return fmt.Errorf("%w: lane %q half_width must be positive", ErrInvalid, l.Name)
		}
		if len(l.SlotsP1) == 0 || len(l.SlotsP2) == 0 {
			return fmt.Errorf("%w: lane %q needs deployment slots for both teams", ErrInvalid, l.Name)
		}
	}
	thrones := map[string]int{}
	for i, s := range a.Structures {
		if s.Team != "p1" && s.Team != "p2" {
			return fmt.Errorf("%w: structure %d has team %q", ErrInvalid, i, s.Team)
		}
		if s.MaxHP <= 0 {
			return fmt.Errorf("%w: structure %d max_hp must be positive", ErrInvalid, i)
		}
		switch s.Kind {
		case "tower":
			if a.LaneIndex(s.Lane) < 0 {
				return fmt.Errorf("%w: tower %d references unknown lane %q", ErrInvalid, i, s.Lane)
			}
		case "throne":
			thrones[s.Team]++
		default:
			return fmt.Errorf("%w: structure %d has kind %q", ErrInvalid, i, s.Kind)
		}
	}
	if thrones["p1"] != 1 || thrones["p2"] != 1 {
		return fmt.Errorf("%w: each team needs exactly one throne", ErrInvalid)
	}
	return nil
}

func DefaultArena() ArenaConfig {
	v := func(x, y float64) Vec2Def { return Vec2Def{X: x, Y: y} }
	side := func(name string, sx float64) LaneDef {
		return LaneDef{
			Name: name, HalfWidth: 3, Height: 64,
			Waypoints: []Vec2Def{v(6*sx, 8), v(24*sx, 20), v(24*sx, 60), v(6*sx, 72)},
			SlotsP1:   []Vec2Def{v(4.5*sx, 7), v(7.5*sx, 7), v(4.5*sx, 9), v(7.5*sx, 9)},
			SlotsP2:   []Vec2Def{v(4.5*sx, 73), v(7.5*sx, 73), v(4.5*sx, 71), v(7.5*sx, 71)},
		}
	}
	tower := func(team, lane string, x, y float64) StructureDef {
		return StructureDef{
			Kind: "tower", Team: team, Lane: lane, Pos: v(x, y), HalfExtent: 1.5,
			MaxHP: 150, AttackRange: 7, AttackDamage: 8, AttackCooldown: 1.0,
		}
	}
	throne := func(team string, y float64) StructureDef {
		return StructureDef{
			Kind: "throne", Team: team, Pos: v(0, y), HalfExtent: 2.5,
			MaxHP: 200, AttackRange: 6, AttackDamage: 5, AttackCooldown: 1.5,
			Falloff: 0.7, Knockback: 1.2,
		}
	}
	return ArenaConfig{
		Lanes: []LaneDef{
			side("left", -1),
			{
				Name: "center", HalfWidth: 3, Height: 64,
				Waypoints: []Vec2Def{v(0, 6), v(0, 40), v(0, 74)},
				SlotsP1:   []Vec2Def{v(-1.5, 5), v(1.5, 5), v(-1.5, 7), v(1.5, 7)},
				SlotsP2:   []Vec2Def{v(-1.5, 75), v(1.5, 75), v(-1.5, 73), v(1.5, 73)},
			},
			side("right", 1),
		},
		Structures: []StructureDef{
			throne("p1", 0),
			tower("p1", "left", -24, 22),
			tower("p1", "center", 0, 20),
			tower("p1", "right", 24, 22),
			throne("p2", 80),
			tower("p2", "left", -24, 58),
			tower("p2", "center", 0, 60),
			tower("p2", "right", 24, 58),
		},
	}
}
