package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"lanebattle/internal/combat"
	"lanebattle/internal/config"
	"lanebattle/internal/logging"
	"lanebattle/internal/match"
	"lanebattle/internal/util"
)

const maxMatchTicks = 200000

type single struct {
	MatchID string              `json:"match_id"`
	Seed    int64               `json:"seed"`
	Ticks   int                 `json:"ticks"`
	Result  match.Result        `json:"result"`
	P1      match.Totals        `json:"p1"`
	P2      match.Totals        `json:"p2"`
	Rounds  []match.RoundRecord `json:"rounds"`
	Events  []combat.Event      `json:"events,omitempty"`
}

func main() {
	var cfgDir, out, level string
	var seed int64
	var n, perTeam int
	var saveLog bool
	flag.StringVar(&cfgDir, "config", "assets", "config dir")
	flag.StringVar(&out, "out", "out.json", "output file (single) or summary file (batch)")
	flag.Int64Var(&seed, "seed", 12345, "seed")
	flag.IntVar(&n, "n", 1, "number of simulations")
	flag.IntVar(&perTeam, "units", 6, "units auto-deployed per team each round")
	flag.BoolVar(&saveLog, "log", true, "save full event log when n==1")
	flag.StringVar(&level, "log-level", "warn", "log level")
	flag.Parse()

	log, err := logging.New(level, true)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.LoadAll(cfgDir)
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	if n <= 1 {
		events := make([]combat.Event, 0, 4096)
		emit := func(ev combat.Event) {
			if saveLog && ev.Type != combat.EvUnitUpdate {
				events = append(events, ev)
			}
		}
		ctl, err := match.New(cfg, emit, log)
		if err != nil {
			log.Fatal("new match", zap.Error(err))
		}
		ticks := match.RunAuto(ctl, &match.AutoPilot{Rng: util.New(seed), PerTeam: perTeam}, maxMatchTicks)
		res, _ := ctl.Result()
		doc := single{
			MatchID: ctl.ID, Seed: seed, Ticks: ticks, Result: res,
			P1: ctl.Totals(combat.TeamP1), P2: ctl.Totals(combat.TeamP2),
			Rounds: ctl.History(),
		}
		if saveLog {
			doc.Events = events
		}
		if err := os.WriteFile(out, combat.MarshalPretty(doc), 0644); err != nil {
			log.Fatal("write output", zap.Error(err))
		}
		fmt.Printf("Single simsvc finished. Winner=%s (%s), rounds=%d, ticks=%d -> %s\n",
			res.Winner, res.Reason, res.Rounds, ticks, out)
		return
	}

	st := runBatch(cfg, seed, n, perTeam, 8, log)

	done := n - st.Failed
	ratio := func(m map[string]int, total int) map[string]any {
		out := map[string]any{}
		for k, v := range m {
			share := 0.0
			if total > 0 {
				share = float64(v) / float64(total)
			}
			out[k] = map[string]any{"count": v, "ratio": share}
		}
		return out
	}
	battles := 0
	for _, v := range st.ByKind {
		battles += v
	}
	avg := func(sum int) float64 {
		if done == 0 {
			return 0
		}
		return float64(sum) / float64(done)
	}

	summary := map[string]any{
		"runs":       n,
		"failed":     st.Failed,
		"winners":    ratio(st.Wins, done),
		"reasons":    ratio(st.ByReason, done),
		"battles":    ratio(st.ByKind, battles),
		"avg_rounds": avg(st.SumRound),
		"avg_ticks":  avg(st.SumTicks),
	}
	if err := os.WriteFile(out, combat.MarshalPretty(summary), 0644); err != nil {
		log.Fatal("write summary", zap.Error(err))
	}
	fmt.Printf("Batch %d done -> %s\n", n, filepath.Base(out))
}
