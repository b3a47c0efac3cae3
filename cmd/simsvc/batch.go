package main

import (
	"sync"

	"go.uber.org/zap"

	"lanebattle/internal/config"
	"lanebattle/internal/match"
	"lanebattle/internal/util"
)

type stat struct {
	Wins     map[string]int
	ByReason map[string]int
	ByKind   map[string]int
	SumRound int
	SumTicks int
	Failed   int
}

// runBatch plays n auto-deployed matches on a worker pool. Job i is always
// seeded from i alone, so the totals do not depend on the worker count.
func runBatch(cfg *config.Bundle, seed int64, n, perTeam, workers int, log *zap.Logger) stat {
	st := stat{
		Wins:     map[string]int{},
		ByReason: map[string]int{},
		ByKind:   map[string]int{},
	}
	var mu sync.Mutex
	wg := sync.WaitGroup{}
	jobs := make(chan int, n)
	for w := 0; w < max(workers, 1); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ctl, err := match.New(cfg, nil, nil)
				if err != nil {
					log.Error("new match", zap.Error(err))
					mu.Lock()
					st.Failed++
					mu.Unlock()
					continue
				}
				pilot := &match.AutoPilot{Rng: util.New(util.JobSeed(seed, i)), PerTeam: perTeam}
				ticks := match.RunAuto(ctl, pilot, maxMatchTicks)
				res, ok := ctl.Result()

				mu.Lock()
				if !ok {
					st.Failed++
					mu.Unlock()
					continue
				}
				st.Wins[res.Winner.String()]++
				st.ByReason[res.Reason]++
				st.SumRound += res.Rounds
				st.SumTicks += ticks
				for _, r := range ctl.History() {
					st.ByKind[r.Battle.Kind.String()]++
				}
				mu.Unlock()
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return st
}
