package combat

import (
	"math"

	"go.uber.org/zap"
)

type DamageCategory string

const (
	CategoryMelee       DamageCategory = "melee"
	CategoryTowerShot   DamageCategory = "tower_shot"
	CategoryThronePulse DamageCategory = "throne_pulse"
)

// Attacker identifies the source of damage. Unit and Structure are zero when
// not applicable.
type Attacker struct {
	Team      Team
	Pos       Vec2
	Unit      UnitID
	Structure StructureID
}

// Ledger accumulates what one team did to the other during a battle.
type Ledger struct {
	Kills           int     `json:"kills"`
	UnitDamage      float64 `json:"unit_damage"`
	TowerDamage     float64 `json:"tower_damage"`
	ThroneDamage    float64 `json:"throne_damage"`
	TowersDestroyed int     `json:"towers_destroyed"`
	ThroneDestroyed bool    `json:"throne_destroyed"`
}

// Resolver is the single place damage is applied.
type Resolver struct {
	env    *Env
	bounds func(*Unit) Rect
	ledger [3]Ledger
}

func NewResolver(env *Env, bounds func(*Unit) Rect) *Resolver {
	return &Resolver{env: env, bounds: bounds}
}

func (r *Resolver) Ledger(t Team) Ledger {
	if t != TeamP1 && t != TeamP2 {
		return Ledger{}
	}
	return r.ledger[t]
}

func sanitize(amount float64) float64 {
	if math.IsNaN(amount) || amount < 0 {
		return 0
	}
	return amount
}

// DamageUnit applies amount to u and returns what was actually taken.
// Damaging a dead unit is a no-op; death is signalled exactly once.
func (r *Resolver) DamageUnit(src Attacker, u *Unit, amount float64, cat DamageCategory) (dealt float64, killed bool) {
	if u == nil || !u.Alive() {
		return 0, false
	}
	amount = sanitize(amount)
	dealt = math.Min(amount, u.HP)
	u.HP -= dealt
	if u.HP <= 0 {
		u.HP = 0
	}
	if src.Team == TeamP1 || src.Team == TeamP2 {
		r.ledger[src.Team].UnitDamage += dealt
	}
	r.env.emit(EvDamage, map[string]any{
		"target": int64(u.ID), "kind": "unit", "amount": amount, "dealt": dealt,
		"x": u.Pos.X, "y": u.Pos.Y, "h": u.Height, "category": string(cat),
	})
	if u.HP == 0 {
		r.kill(src, u)
		return dealt, true
	}
	return dealt, false
}

func (r *Resolver) kill(src Attacker, u *Unit) {
	u.setState(r.env, StateDead)
	u.clearTarget()
	if src.Team == TeamP1 || src.Team == TeamP2 {
		r.ledger[src.Team].Kills++
	}
	r.env.emit(EvUnitDied, map[string]any{
		"id": int64(u.ID), "team": u.Team.String(), "def": u.Def,
		"killer_team": src.Team.String(), "killer_unit": int64(src.Unit), "killer_structure": int64(src.Structure),
		"x": u.Pos.X, "y": u.Pos.Y,
	})
	r.env.Log.Debug("unit died", zap.Int64("unit", int64(u.ID)), zap.Stringer("team", u.Team))
}

// DamageStructure applies amount to s. A destroyed structure takes nothing.
func (r *Resolver) DamageStructure(src Attacker, s *Structure, amount float64, cat DamageCategory) (dealt float64, destroyed bool) {
	if s == nil || !s.Alive() {
		return 0, false
	}
	amount = sanitize(amount)
	dealt = math.Min(amount, s.HP)
	s.HP -= dealt
	if s.HP <= 0 {
		s.HP = 0
	}
	if src.Team == TeamP1 || src.Team == TeamP2 {
		if s.Kind == KindThrone {
			r.ledger[src.Team].ThroneDamage += dealt
		} else {
			r.ledger[src.Team].TowerDamage += dealt
		}
	}
	r.env.emit(EvDamage, map[string]any{
		"target": int64(s.ID), "kind": s.Kind.String(), "amount": amount, "dealt": dealt,
		"x": s.Pos.X, "y": s.Pos.Y, "category": string(cat),
	})
	r.env.emit(EvStructureHP, map[string]any{
		"id": int64(s.ID), "team": s.Team.String(), "hp": s.HP, "max_hp": s.MaxHP,
	})
	if s.HP > 0 {
		return dealt, false
	}
	s.Destroyed = true
	if src.Team == TeamP1 || src.Team == TeamP2 {
		if s.Kind == KindThrone {
			r.ledger[src.Team].ThroneDestroyed = true
		} else {
			r.ledger[src.Team].TowersDestroyed++
		}
	}
	r.env.emit(EvStructureDestroyed, map[string]any{
		"id": int64(s.ID), "kind": s.Kind.String(), "team": s.Team.String(), "x": s.Pos.X, "y": s.Pos.Y,
	})
	r.env.Log.Info("structure destroyed",
		zap.Int64("structure", int64(s.ID)), zap.Stringer("kind", s.Kind), zap.Stringer("team", s.Team))
	return dealt, true
}

// Knockback pushes u away from origin by strength, then re-clamps it into
// its confinement rectangle. Idle units hold their slot.
func (r *Resolver) Knockback(origin Vec2, u *Unit, strength float64) {
	if u == nil || !u.Alive() || u.State == StateIdle || strength <= 0 {
		return
	}
	dir := u.Pos.Sub(origin).Norm()
	if dir == (Vec2{}) {
		return
	}
	p := u.Pos.Add(dir.Scale(strength))
	if r.bounds != nil {
		p = r.bounds(u).Clamp(p)
	}
	u.Pos = p
}
