package match

import (
	"go.uber.org/zap"

	"lanebattle/internal/combat"
)

// Totals accumulate across rounds for one team.
type Totals struct {
	Score           float64 `json:"score"`
	RoundsWon       int     `json:"rounds_won"`
	Kills           int     `json:"kills"`
	UnitDamage      float64 `json:"unit_damage"`
	TowerDamage     float64 `json:"tower_damage"`
	ThroneDamage    float64 `json:"throne_damage"`
	TowersDestroyed int     `json:"towers_destroyed"`
	ThroneDestroyed bool    `json:"throne_destroyed"`
}

// TeamRound is one team's board state at the end of a battle.
type TeamRound struct {
	Score          float64       `json:"score"`
	Survivors      int           `json:"survivors"`
	TowersStanding int           `json:"towers_standing"`
	ThroneHP       float64       `json:"throne_hp_fraction"`
	Ledger         combat.Ledger `json:"ledger"`
}

type RoundRecord struct {
	Round    int                 `json:"round"`
	BattleID string              `json:"battle_id"`
	Battle   combat.BattleResult `json:"battle"`
	Winner   combat.Team         `json:"winner"`
	P1       TeamRound           `json:"p1"`
	P2       TeamRound           `json:"p2"`
}

type Result struct {
	Winner combat.Team `json:"winner"`
	Reason string      `json:"reason"`
	Rounds int         `json:"rounds"`
}

func (c *Controller) teamRound(t combat.Team) TeamRound {
	w := c.cfg.Match.Score
	tr := TeamRound{Survivors: c.battle.Living(t), Ledger: c.battle.Ledger(t)}
	for _, s := range c.structures {
		if s.Team != t || !s.Alive() {
			continue
		}
		switch s.Kind {
		case combat.KindTower:
			tr.TowersStanding++
		case combat.KindThrone:
			if s.MaxHP > 0 {
				tr.ThroneHP = s.HP / s.MaxHP
			}
		}
	}
	tr.Score = float64(tr.Survivors)*w.Unit + float64(tr.TowersStanding)*w.Tower + tr.ThroneHP*w.Throne
	return tr
}

// scoreRound folds a finished battle into the cumulative totals. It must run
// before Cleanup so survivors can still be counted.
func (c *Controller) scoreRound(res combat.BattleResult) {
	rec := RoundRecord{
		Round:    c.round,
		BattleID: c.battle.ID,
		Battle:   res,
		P1:       c.teamRound(combat.TeamP1),
		P2:       c.teamRound(combat.TeamP2),
	}
	rec.Winner = res.Winner
	if rec.Winner == combat.TeamNone {
		switch {
		case rec.P1.Score > rec.P2.Score:
			rec.Winner = combat.TeamP1
		case rec.P2.Score > rec.P1.Score:
			rec.Winner = combat.TeamP2
		}
	}
	for _, tr := range []struct {
		team combat.Team
		r    TeamRound
	}{{combat.TeamP1, rec.P1}, {combat.TeamP2, rec.P2}} {
		tot := &c.totals[tr.team]
		tot.Score += tr.r.Score
		tot.Kills += tr.r.Ledger.Kills
		tot.UnitDamage += tr.r.Ledger.UnitDamage
		tot.TowerDamage += tr.r.Ledger.TowerDamage
		tot.ThroneDamage += tr.r.Ledger.ThroneDamage
		tot.TowersDestroyed += tr.r.Ledger.TowersDestroyed
		tot.ThroneDestroyed = tot.ThroneDestroyed || tr.r.Ledger.ThroneDestroyed
		if rec.Winner == tr.team {
			tot.RoundsWon++
		}
	}
	c.history = append(c.history, rec)
	c.emit(EvRoundScored, map[string]any{
		"battle": rec.BattleID, "kind": res.Kind.String(), "winner": rec.Winner.String(),
		"p1_score": rec.P1.Score, "p2_score": rec.P2.Score,
	})
	c.log.Info("round scored",
		zap.String("match", c.ID), zap.Int("round", c.round), zap.Stringer("winner", rec.Winner),
		zap.Float64("p1", rec.P1.Score), zap.Float64("p2", rec.P2.Score))
}

// decideWinner ranks the cumulative totals: a destroyed throne, then throne
// damage, towers destroyed and tower damage; equal on all of them is a draw.
func decideWinner(t [3]Totals) (combat.Team, string) {
	p1, p2 := t[combat.TeamP1], t[combat.TeamP2]
	pick := func(a, b float64) combat.Team {
		if a > b {
			return combat.TeamP1
		}
		return combat.TeamP2
	}
	switch {
	case p1.ThroneDestroyed && !p2.ThroneDestroyed:
		return combat.TeamP1, "throne_destroyed"
	case p2.ThroneDestroyed && !p1.ThroneDestroyed:
		return combat.TeamP2, "throne_destroyed"
	case p1.ThroneDamage != p2.ThroneDamage:
		return pick(p1.ThroneDamage, p2.ThroneDamage), "throne_damage"
	case p1.TowersDestroyed != p2.TowersDestroyed:
		return pick(float64(p1.TowersDestroyed), float64(p2.TowersDestroyed)), "towers_destroyed"
	case p1.TowerDamage != p2.TowerDamage:
		return pick(p1.TowerDamage, p2.TowerDamage), "tower_damage"
	}
	return combat.TeamNone, "draw"
}
