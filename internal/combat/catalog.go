package combat

import (
	"math"

	"lanebattle/internal/config"
)

// Profile is a unit definition resolved for the simulation. Cooldowns are
// already in ticks.
type Profile struct {
	ID                  string
	Name                string
	Category            string
	MaxHP               float64
	MoveSpeed           float64
	AttackDamage        float64
	AttackCooldownTicks int
}

// Catalog maps definition ids to profiles. Built once at load time.
type Catalog struct {
	profiles map[string]*Profile
	order    []string
}

func NewCatalog(uc config.UnitsConfig, bc config.BattleConfig) *Catalog {
	c := &Catalog{profiles: map[string]*Profile{}}
	for _, d := range uc.Units {
		cd := bc.Ticks(d.AttackCooldown)
		if cd < 1 {
			cd = 1
		}
		c.profiles[d.ID] = &Profile{
			ID:                  d.ID,
			Name:                d.Name,
			Category:            d.Category,
			MaxHP:               math.Max(d.MaxHP, 1),
			MoveSpeed:           math.Max(d.MoveSpeed, 0),
			AttackDamage:        d.AttackDamage,
			AttackCooldownTicks: cd,
		}
		c.order = append(c.order, d.ID)
	}
	return c
}

func (c *Catalog) Lookup(id string) (*Profile, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.profiles[id]
	return p, ok
}

// IDs returns definition ids in table order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}
