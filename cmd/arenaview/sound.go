package main

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(48000)

// cue is one short sound keyed off a battle event.
type cue struct {
	freq float64
	dur  time.Duration
}

var (
	cueHit       = cue{freq: 880, dur: 40 * time.Millisecond}
	cueStructure = cue{freq: 220, dur: 120 * time.Millisecond}
	cueDestroyed = cue{freq: 110, dur: 400 * time.Millisecond}
	cueDeath     = cue{freq: 330, dur: 90 * time.Millisecond}
)

// Sounds plays event cues through a single mixer. A zero Sounds (or one that
// failed to open the device) is silent.
type Sounds struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	// at most one cue of each kind per frame
	played map[cue]bool
}

func NewSounds() *Sounds {
	return &Sounds{mixer: &beep.Mixer{}, played: map[cue]bool{}}
}

func (s *Sounds) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(s.mixer)
	s.initialized = true
	return nil
}

func (s *Sounds) Play(c cue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized || s.played[c] {
		return
	}
	s.played[c] = true
	speaker.Lock()
	s.mixer.Add(beep.Take(sampleRate.N(c.dur), newTone(sampleRate, c.freq, c.dur)))
	speaker.Unlock()
}

// Frame re-arms every cue.
func (s *Sounds) Frame() {
	s.mu.Lock()
	clear(s.played)
	s.mu.Unlock()
}

func (s *Sounds) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return
	}
	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	s.initialized = false
}

// tone is a sine with a short linear attack and a release over the last
// quarter of its length.
type tone struct {
	sr   beep.SampleRate
	freq float64
	n    int
	pos  int
}

func newTone(sr beep.SampleRate, freq float64, dur time.Duration) *tone {
	return &tone{sr: sr, freq: freq, n: sr.N(dur)}
}

func (g *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		v := 0.25 * math.Sin(2*math.Pi*g.freq*t)
		v *= g.envelope()
		samples[i][0] = v
		samples[i][1] = v
		g.pos++
	}
	return len(samples), true
}

func (g *tone) envelope() float64 {
	attack := math.Min(float64(g.pos)/float64(g.sr)/0.005, 1)
	tail := g.n / 4
	if tail == 0 || g.pos < g.n-tail {
		return attack
	}
	left := float64(g.n-g.pos) / float64(tail)
	return attack * math.Max(left, 0)
}

func (g *tone) Err() error { return nil }
