// Command arenaview plays a seeded local match in the terminal. Both teams
// are filled by AutoDeploy each round and ready up immediately.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"lanebattle/internal/combat"
	"lanebattle/internal/config"
	"lanebattle/internal/logging"
	"lanebattle/internal/match"
	"lanebattle/internal/util"
)

// tickRate is set from the loaded config before the first frame.
var tickRate = 20

type app struct {
	ctl    *match.Controller
	view   *view
	sounds *Sounds
	log    *zap.Logger
	pilot  *match.AutoPilot
}

func main() {
	var cfgDir, logPath string
	var seed int64
	var perTeam int
	var mute bool
	flag.StringVar(&cfgDir, "config", "assets", "config dir")
	flag.Int64Var(&seed, "seed", 12345, "seed")
	flag.IntVar(&perTeam, "units", 6, "units auto-deployed per team each round")
	flag.BoolVar(&mute, "mute", false, "disable sound")
	flag.StringVar(&logPath, "log", "", "write logs to this file")
	flag.Parse()

	if err := run(cfgDir, logPath, seed, perTeam, mute); err != nil {
		fmt.Fprintf(os.Stderr, "arenaview: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgDir, logPath string, seed int64, perTeam int, mute bool) error {
	cfg, err := config.LoadAll(cfgDir)
	if err != nil {
		return err
	}
	tickRate = cfg.Battle.TickRate

	log := zap.NewNop()
	if logPath != "" {
		if log, err = logging.ToFile(logPath, "debug"); err != nil {
			return err
		}
		defer log.Sync()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	a := &app{
		sounds: NewSounds(),
		log:    log,
		pilot:  &match.AutoPilot{Rng: util.New(seed), PerTeam: perTeam},
	}
	if !mute {
		if err := a.sounds.Init(); err != nil {
			// the match still plays without a device
			log.Warn("audio init failed", zap.Error(err))
		}
	}
	defer a.sounds.Close()

	a.ctl, err = match.New(cfg, a.onEvent, log)
	if err != nil {
		return err
	}
	a.view = &view{
		screen: screen,
		lanes:  a.ctl.Lanes(),
		world:  worldBounds(a.ctl.Lanes(), a.ctl.Structures()),
		speed:  1,
	}
	if err := a.ctl.Begin(); err != nil {
		return err
	}
	a.loop()
	return nil
}

func (a *app) loop() {
	interval := time.Second / time.Duration(max(tickRate, 1))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.view.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	var owed float64
	for {
		select {
		case ev := <-eventChan:
			if !a.handleInput(ev) {
				return
			}
		case <-ticker.C:
			if !a.view.paused {
				owed += a.view.speed
				for ; owed >= 1; owed-- {
					a.step()
				}
			}
			a.view.draw(a.ctl.Snapshot())
			a.sounds.Frame()
		}
	}
}

func (a *app) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				a.view.paused = !a.view.paused
			case '+', '=':
				a.view.speed = min(a.view.speed*2, 16)
			case '-':
				a.view.speed = max(a.view.speed/2, 0.25)
			}
		}
	case *tcell.EventResize:
		a.view.screen.Sync()
	}
	return true
}

func (a *app) step() { a.pilot.Step(a.ctl) }

func (a *app) onEvent(ev combat.Event) {
	switch ev.Type {
	case combat.EvDamage:
		if ev.Payload["kind"] == "unit" {
			a.sounds.Play(cueHit)
		} else {
			a.sounds.Play(cueStructure)
		}
	case combat.EvUnitDied:
		a.sounds.Play(cueDeath)
	case combat.EvStructureDestroyed:
		a.sounds.Play(cueDestroyed)
		a.view.note("%5d  %v %v destroyed", ev.Tick, ev.Payload["team"], ev.Payload["kind"])
	case combat.EvBattleResult:
		a.view.note("%5d  battle: %v winner %v", ev.Tick, ev.Payload["kind"], ev.Payload["winner"])
	case match.EvPhaseChanged:
		a.view.note("%5d  phase %v", ev.Tick, ev.Payload["to"])
	case match.EvMatchOver:
		a.view.note("%5d  match over: %v (%v)", ev.Tick, ev.Payload["winner"], ev.Payload["reason"])
	}
}
