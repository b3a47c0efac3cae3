package match

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lanebattle/internal/combat"
	"lanebattle/internal/config"
	"lanebattle/internal/logging"
)

var (
	ErrInvalidPlacement  = errors.New("match: invalid placement")
	ErrUnknownDefinition = errors.New("match: unknown unit definition")
	ErrWrongPhase        = errors.New("match: not allowed in this phase")
	ErrQueueFull         = errors.New("match: command queue full")
)

const (
	EvPhaseChanged = "PhaseChanged"
	EvDeployed     = "Deployed"
	EvRemoved      = "Removed"
	EvRoundScored  = "RoundScored"
	EvMatchOver    = "MatchOver"
)

type Phase int

const (
	PhaseLobby Phase = iota
	PhaseSurvival
	PhasePreparation
	PhaseBattle
	PhaseRoundEnd
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseSurvival:
		return "survival"
	case PhasePreparation:
		return "preparation"
	case PhaseBattle:
		return "battle"
	case PhaseRoundEnd:
		return "round_end"
	case PhaseGameOver:
		return "game_over"
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

type slotKey struct {
	team combat.Team
	lane combat.LaneID
	slot int
}

type deployment struct {
	unit combat.UnitID
	def  string
}

// Controller drives a match through its phases. Everything except Submit
// must be called from the goroutine that calls Tick.
type Controller struct {
	ID string

	cfg        *config.Bundle
	env        *combat.Env
	log        *zap.Logger
	lanes      []*combat.Lane
	structures []*combat.Structure
	queue      *CommandQueue

	tick     int
	phase    Phase
	timer    int
	round    int
	slots    map[slotKey]deployment
	nextUnit combat.UnitID
	ready    [3]bool
	battle   *combat.Battle

	totals  [3]Totals
	history []RoundRecord
	result  *Result
}

// New builds a controller in the Lobby phase. emit receives both match and
// battle events and must not block.
func New(cfg *config.Bundle, emit func(combat.Event), log *zap.Logger) (*Controller, error) {
	lanes, err := combat.LanesFromConfig(cfg.Arena)
	if err != nil {
		return nil, err
	}
	structures, err := combat.StructuresFromConfig(cfg.Arena, cfg.Battle)
	if err != nil {
		return nil, err
	}
	log = logging.OrNop(log)
	cat := combat.NewCatalog(cfg.Units, cfg.Battle)
	c := &Controller{
		cfg:        cfg,
		env:        combat.NewEnv(cfg.Battle, cat, emit, log.Named("battle")),
		log:        log,
		lanes:      lanes,
		structures: structures,
		queue:      NewCommandQueue(cfg.Match.QueueCapacity),
	}
	c.Reset()
	return c, nil
}

// Reset is the full match reset: structures are rebuilt to full health and
// all round history is dropped.
func (c *Controller) Reset() {
	for _, s := range c.structures {
		s.Reset()
	}
	c.ID = uuid.NewString()
	c.tick = 0
	c.phase = PhaseLobby
	c.timer = 0
	c.round = 1
	c.slots = map[slotKey]deployment{}
	c.nextUnit = 0
	c.ready = [3]bool{}
	c.battle = nil
	c.totals = [3]Totals{}
	c.history = nil
	c.result = nil
	c.log.Info("match reset", zap.String("match", c.ID))
}

func (c *Controller) emit(typ string, payload map[string]any) {
	payload["match"] = c.ID
	payload["round"] = c.round
	c.env.Emit(combat.Event{Tick: c.tick, Type: typ, Payload: payload})
}

func (c *Controller) seconds(s float64) int { return c.cfg.Battle.Ticks(s) }

func (c *Controller) setPhase(p Phase, timer int) {
	from := c.phase
	c.phase, c.timer = p, timer
	c.emit(EvPhaseChanged, map[string]any{"from": from.String(), "to": p.String(), "ticks": timer})
	c.log.Info("phase changed",
		zap.String("match", c.ID), zap.Int("round", c.round), zap.Stringer("from", from), zap.Stringer("to", p))
}

// Begin leaves the lobby.
func (c *Controller) Begin() error {
	if c.phase != PhaseLobby {
		return ErrWrongPhase
	}
	c.enterRound()
	return nil
}

func (c *Controller) enterRound() {
	if n := c.seconds(c.cfg.Match.SurvivalSeconds); n > 0 {
		c.setPhase(PhaseSurvival, n)
		return
	}
	c.enterPreparation()
}

func (c *Controller) enterPreparation() {
	c.ready = [3]bool{}
	c.setPhase(PhasePreparation, c.seconds(c.cfg.Match.PreparationSeconds))
}

// Submit stages cmd for the next tick. Safe for concurrent use.
func (c *Controller) Submit(cmd Command) error {
	if !c.queue.Push(cmd) {
		return ErrQueueFull
	}
	return nil
}

// Tick drains staged commands, then advances the current phase by one step.
func (c *Controller) Tick() {
	for _, cmd := range c.queue.Drain() {
		c.apply(cmd)
	}
	c.tick++
	switch c.phase {
	case PhaseSurvival:
		if c.countdown() {
			c.enterPreparation()
		}
	case PhasePreparation:
		if c.ready[combat.TeamP1] && c.ready[combat.TeamP2] || c.countdown() {
			_ = c.StartBattle()
		}
	case PhaseBattle:
		c.battle.Tick()
		if res, ok := c.battle.CheckBattleEnd(); ok {
			c.scoreRound(res)
			c.setPhase(PhaseRoundEnd, c.seconds(c.cfg.Match.RoundEndSeconds))
		}
	case PhaseRoundEnd:
		if c.countdown() {
			c.endRound()
		}
	}
}

// countdown reports true once the phase timer has run out.
func (c *Controller) countdown() bool {
	if c.timer > 0 {
		c.timer--
	}
	return c.timer <= 0
}

func (c *Controller) apply(cmd Command) {
	var r Reply
	switch cmd.Kind {
	case CmdDeploy:
		r.Unit, r.Err = c.Deploy(cmd.Team, cmd.Lane, cmd.Slot, cmd.Def)
		r.Def = cmd.Def
	case CmdRemove:
		r.Def, r.Removed = c.Remove(cmd.Team, cmd.Lane, cmd.Slot)
	case CmdReady:
		r.Err = c.SetReady(cmd.Team, cmd.Ready)
	case CmdRetreat:
		r.Err = c.OrderRetreat(cmd.Team)
	case CmdStartBattle:
		r.Err = c.StartBattle()
	default:
		r.Err = fmt.Errorf("match: unknown command %d", cmd.Kind)
	}
	if r.Err != nil {
		c.log.Debug("command rejected", zap.Stringer("kind", cmd.Kind), zap.Stringer("team", cmd.Team), zap.Error(r.Err))
	}
	if cmd.Reply != nil {
		select {
		case cmd.Reply <- r:
		default:
		}
	}
}

// Deploy reserves a slot for the next battle and returns the id the unit
// will spawn with. Nothing changes on error.
func (c *Controller) Deploy(team combat.Team, lane combat.LaneID, slot int, def string) (combat.UnitID, error) {
	if c.phase != PhasePreparation {
		return 0, ErrWrongPhase
	}
	if int(lane) < 0 || int(lane) >= len(c.lanes) {
		return 0, fmt.Errorf("%w: unknown lane %d", ErrInvalidPlacement, lane)
	}
	if slot < 0 || slot >= len(c.lanes[lane].Slots(team)) {
		return 0, fmt.Errorf("%w: %s has no slot %d on lane %s", ErrInvalidPlacement, team, slot, c.lanes[lane].Name)
	}
	k := slotKey{team, lane, slot}
	if _, taken := c.slots[k]; taken {
		return 0, fmt.Errorf("%w: slot %d on lane %s is occupied", ErrInvalidPlacement, slot, c.lanes[lane].Name)
	}
	if _, ok := c.env.Catalog.Lookup(def); !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDefinition, def)
	}
	c.nextUnit++
	c.slots[k] = deployment{unit: c.nextUnit, def: def}
	c.emit(EvDeployed, map[string]any{
		"team": team.String(), "lane": c.lanes[lane].Name, "slot": slot, "def": def, "unit": int64(c.nextUnit),
	})
	return c.nextUnit, nil
}

// Remove empties a slot and returns what it held. An empty slot, or any
// call outside Preparation, removes nothing.
func (c *Controller) Remove(team combat.Team, lane combat.LaneID, slot int) (string, bool) {
	if c.phase != PhasePreparation {
		return "", false
	}
	k := slotKey{team, lane, slot}
	d, ok := c.slots[k]
	if !ok {
		return "", false
	}
	delete(c.slots, k)
	c.emit(EvRemoved, map[string]any{
		"team": team.String(), "lane": c.lanes[lane].Name, "slot": slot, "def": d.def, "unit": int64(d.unit),
	})
	return d.def, true
}

// SlotContents returns the definition deployed in a slot, if any.
func (c *Controller) SlotContents(team combat.Team, lane combat.LaneID, slot int) (string, bool) {
	d, ok := c.slots[slotKey{team, lane, slot}]
	return d.def, ok
}

func (c *Controller) SetReady(team combat.Team, ready bool) error {
	if c.phase != PhasePreparation {
		return ErrWrongPhase
	}
	if team != combat.TeamP1 && team != combat.TeamP2 {
		return fmt.Errorf("%w: team %s", ErrInvalidPlacement, team)
	}
	c.ready[team] = ready
	return nil
}

// StartBattle spawns every deployment and starts the round's battle.
func (c *Controller) StartBattle() error {
	if c.phase != PhasePreparation {
		return ErrWrongPhase
	}
	b := combat.NewBattle(c.env, c.lanes, c.structures)
	// spawn in deployment order so every replay ticks units identically
	keys := make([]slotKey, 0, len(c.slots))
	for k := range c.slots {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return c.slots[keys[i]].unit < c.slots[keys[j]].unit })
	for _, k := range keys {
		d := c.slots[k]
		if _, err := b.Spawn(d.unit, k.team, k.lane, k.slot, d.def); err != nil {
			c.log.Warn("spawn failed", zap.Int64("unit", int64(d.unit)), zap.Error(err))
		}
	}
	c.battle = b
	c.setPhase(PhaseBattle, 0)
	b.Start()
	return nil
}

func (c *Controller) OrderRetreat(team combat.Team) error {
	if c.phase != PhaseBattle {
		return ErrWrongPhase
	}
	c.battle.OrderRetreat(team)
	return nil
}

func (c *Controller) endRound() {
	removed := c.battle.Cleanup()
	c.log.Debug("round cleanup", zap.Int("purged", removed))
	c.slots = map[slotKey]deployment{}
	if c.throneDown() || c.round >= c.cfg.Match.Rounds {
		c.finish()
		return
	}
	c.round++
	c.enterRound()
}

func (c *Controller) throneDown() bool {
	for _, s := range c.structures {
		if s.Kind == combat.KindThrone && !s.Alive() {
			return true
		}
	}
	return false
}

func (c *Controller) finish() {
	winner, reason := decideWinner(c.totals)
	c.result = &Result{Winner: winner, Reason: reason, Rounds: len(c.history)}
	c.setPhase(PhaseGameOver, 0)
	c.emit(EvMatchOver, map[string]any{"winner": winner.String(), "reason": reason})
	c.log.Info("match over", zap.String("match", c.ID), zap.Stringer("winner", winner), zap.String("reason", reason))
}

func (c *Controller) Phase() Phase { return c.phase }
func (c *Controller) Round() int { return c.round }
func (c *Controller) PhaseTicksLeft() int { return c.timer }
func (c *Controller) Battle() *combat.Battle { return c.battle }
func (c *Controller) Lanes() []*combat.Lane { return c.lanes }
func (c *Controller) Structures() []*combat.Structure { return c.structures }
func (c *Controller) Catalog() *combat.Catalog { return c.env.Catalog }
func (c *Controller) Totals(t combat.Team) Totals { return c.totals[t] }

// History returns one record per scored round, oldest first.
func (c *Controller) History() []RoundRecord {
	return append([]RoundRecord(nil), c.history...)
}

func (c *Controller) Result() (Result, bool) {
	if c.result == nil {
		return Result{}, false
	}
	return *c.result, true
}
