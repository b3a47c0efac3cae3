package config

type UnitsConfig struct {
	Units []UnitDef `yaml:"units"`
}

// UnitDef is one row of the unit table. Category selects the presentation
// profile (sounds, particles) and never changes simulation behavior.
type UnitDef struct {
	ID             string  `yaml:"id"`
	Name           string  `yaml:"name"`
	Category       string  `yaml:"category"`
	MaxHP          float64 `yaml:"max_hp"`
	MoveSpeed      float64 `yaml:"move_speed"`
	AttackDamage   float64 `yaml:"attack_damage"`
	AttackCooldown float64 `yaml:"attack_cooldown"`
	Note           string  `yaml:"note"`
}

func DefaultUnits() UnitsConfig {
	return UnitsConfig{Units: []UnitDef{
		{ID: "footman", Name: "Footman", Category: "melee", MaxHP: 60, MoveSpeed: 3, AttackDamage: 6, AttackCooldown: 1.0},
		{ID: "brute", Name: "Brute", Category: "heavy", MaxHP: 120, MoveSpeed: 2, AttackDamage: 10, AttackCooldown: 1.5},
		{ID: "scout", Name: "Scout", Category: "light", MaxHP: 35, MoveSpeed: 5, AttackDamage: 3, AttackCooldown: 0.6},
		{ID: "bannerman", Name: "Bannerman", Category: "support", MaxHP: 50, MoveSpeed: 3, AttackDamage: 0, AttackCooldown: 1.0,
			Note: "non-combatant, holds in front of structures"},
	}}
}
