package match

import (
	"math/rand"

	"go.uber.org/zap"

	"lanebattle/internal/combat"
)

// AutoDeploy fills up to n free slots for team with random definitions.
// Used by the batch runner and the local spectator as a stand-in opponent.
func AutoDeploy(c *Controller, team combat.Team, n int, rng *rand.Rand) int {
	type free struct {
		lane combat.LaneID
		slot int
	}
	var open []free
	for li, l := range c.lanes {
		for si := range l.Slots(team) {
			if _, taken := c.slots[slotKey{team, combat.LaneID(li), si}]; !taken {
				open = append(open, free{combat.LaneID(li), si})
			}
		}
	}
	defs := c.env.Catalog.IDs()
	if len(defs) == 0 {
		return 0
	}
	rng.Shuffle(len(open), func(i, j int) { open[i], open[j] = open[j], open[i] })
	placed := 0
	for _, f := range open {
		if placed >= n {
			break
		}
		if _, err := c.Deploy(team, f.lane, f.slot, defs[rng.Intn(len(defs))]); err == nil {
			placed++
		}
	}
	return placed
}

// AutoPilot plays both teams: the first time it sees each Preparation it
// fills PerTeam slots per side and readies both.
type AutoPilot struct {
	Rng     *rand.Rand
	PerTeam int
	filled  int
}

// Step plays the current phase, then ticks c once.
func (p *AutoPilot) Step(c *Controller) {
	if c.Phase() == PhaseGameOver {
		return
	}
	if c.Phase() == PhasePreparation && p.filled != c.Round() {
		p.filled = c.Round()
		for _, t := range []combat.Team{combat.TeamP1, combat.TeamP2} {
			n := AutoDeploy(c, t, p.PerTeam, p.Rng)
			c.log.Debug("auto deploy", zap.Stringer("team", t), zap.Int("units", n), zap.Int("round", p.filled))
			_ = c.SetReady(t, true)
		}
	}
	c.Tick()
}

// RunAuto begins c if needed and steps it until GameOver or limit ticks.
// It returns the ticks spent.
func RunAuto(c *Controller, p *AutoPilot, limit int) int {
	if c.Phase() == PhaseLobby {
		_ = c.Begin()
	}
	n := 0
	for ; n < limit && c.Phase() != PhaseGameOver; n++ {
		p.Step(c)
	}
	return n
}
