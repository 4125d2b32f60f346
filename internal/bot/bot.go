// Package bot simulates the AI opponent for single-player races.
package bot

import (
	"math/rand"
	"time"

	"github.com/typedash/typedash/internal/engine"
	"github.com/typedash/typedash/internal/model"
)

// Success probability is drift-adjusted toward the target WPM but
// always leaves room for misses, so bot accuracy is never 100%.
const (
	minSuccessProb = 0.05
	maxSuccessProb = 0.95

	// Each successful action advances one word chunk: five characters
	// plus the commit space.
	chunkWeight = 6
)

// Bot drives one AI racer. It is advanced on an irregular schedule
// (NextDelay) rather than a fixed tick, so its cadence is not
// perfectly periodic.
type Bot struct {
	rnd     *rand.Rand
	cfg     model.GameConfig
	pending int
}

// New returns a bot for the given race config, seeded with the
// current time.
func New(cfg model.GameConfig) *Bot {
	return NewSeeded(cfg, time.Now().UnixNano())
}

// NewSeeded returns a bot with a fixed seed for reproducible races.
func NewSeeded(cfg model.GameConfig, seed int64) *Bot {
	return &Bot{rnd: rand.New(rand.NewSource(seed)), cfg: cfg}
}

// NextDelay is the time until the bot's next action: a random
// 300-1000ms offset, compressed for high target speeds so the cadence
// ceiling stays above the target WPM.
func (b *Bot) NextDelay() time.Duration {
	base := 300 + b.rnd.Intn(701)
	scale := 50.0 / float64(b.cfg.AITargetWPM)
	if scale < 0.35 {
		scale = 0.35
	}
	if scale > 1.5 {
		scale = 1.5
	}
	return time.Duration(float64(base)*scale) * time.Millisecond
}

// Advance applies one AI action to the bot's racer and returns the new
// state. wordLen is the length of the bot's current word. A successful
// action lands one word chunk; a miss costs a mistake and clears the
// in-progress word. Long-run WPM converges to the configured target
// because the success probability drifts against the current WPM.
func (b *Bot) Advance(p model.PlayerState, wordLen int, elapsed time.Duration) model.PlayerState {
	if p.IsFinished {
		return p
	}

	if b.rnd.Float64() < b.successProb(p, elapsed) {
		p.CorrectHits += chunkWeight
		p.TotalHits += chunkWeight
		b.pending += chunkWeight
		if b.pending >= wordLen+1 {
			b.pending -= wordLen + 1
			p.Streak++
			if p.Streak > p.BestStreak {
				p.BestStreak = p.Streak
			}
		}
	} else {
		p.TotalHits++
		p.Mistakes++
		b.pending = 0
	}

	p.WPM = engine.ComputeWPM(p.CorrectHits, elapsed)
	p.Accuracy = engine.ComputeAccuracy(p.CorrectHits, p.TotalHits)
	p.Progress = engine.ProgressPercent(p.Streak, b.cfg.TrackLength)
	if p.Streak >= b.cfg.TrackLength {
		p.IsFinished = true
		p.Progress = 100
	}
	return p
}

func (b *Bot) successProb(p model.PlayerState, elapsed time.Duration) float64 {
	target := float64(b.cfg.AITargetWPM)
	if target <= 0 {
		return minSuccessProb
	}
	current := float64(engine.ComputeWPM(p.CorrectHits, elapsed))
	prob := 0.5 + 2*(target-current)/target
	if prob < minSuccessProb {
		return minSuccessProb
	}
	if prob > maxSuccessProb {
		return maxSuccessProb
	}
	return prob
}
