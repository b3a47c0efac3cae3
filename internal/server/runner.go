package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"lanebattle/internal/combat"
	"lanebattle/internal/logging"
	"lanebattle/internal/match"
)

// Runner owns a match controller and is the only goroutine that touches it.
// Other goroutines talk to the match through Submit and read it through
// Snapshot.
type Runner struct {
	ctl      *match.Controller
	interval time.Duration
	lanes    map[string]combat.LaneID
	log      *zap.Logger

	mu   sync.RWMutex
	snap match.Snapshot
}

func NewRunner(ctl *match.Controller, tickRate int, log *zap.Logger) *Runner {
	if tickRate <= 0 {
		tickRate = 20
	}
	r := &Runner{
		ctl:      ctl,
		interval: time.Second / time.Duration(tickRate),
		lanes:    map[string]combat.LaneID{},
		log:      logging.OrNop(log).Named("runner"),
	}
	for _, l := range ctl.Lanes() {
		r.lanes[l.Name] = l.ID
	}
	r.snap = ctl.Snapshot()
	return r
}

// Run leaves the lobby and ticks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.ctl.Begin(); err != nil {
		r.log.Debug("match already started", zap.Error(err))
	}
	r.publish()
	t := time.NewTicker(r.interval)
	defer t.Stop()
	r.log.Info("runner started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("runner stopped")
			return ctx.Err()
		case <-t.C:
			r.Step()
		}
	}
}

// Step advances the match one tick. Only the Run goroutine, or a test that
// does not call Run, may use it.
func (r *Runner) Step() {
	r.ctl.Tick()
	r.publish()
}

func (r *Runner) publish() {
	s := r.ctl.Snapshot()
	r.mu.Lock()
	r.snap = s
	r.mu.Unlock()
}

func (r *Runner) Snapshot() match.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

func (r *Runner) MatchID() string { return r.Snapshot().MatchID }

// Lane resolves a lane name. The lane table never changes after start.
func (r *Runner) Lane(name string) (combat.LaneID, bool) {
	id, ok := r.lanes[name]
	return id, ok
}

// Do submits cmd and waits for the tick that applies it.
func (r *Runner) Do(ctx context.Context, cmd match.Command) (match.Reply, error) {
	reply := make(chan match.Reply, 1)
	cmd.Reply = reply
	if err := r.ctl.Submit(cmd); err != nil {
		return match.Reply{}, err
	}
	select {
	case rep := <-reply:
		return rep, nil
	case <-ctx.Done():
		return match.Reply{}, ctx.Err()
	}
}
