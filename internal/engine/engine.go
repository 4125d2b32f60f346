// Package engine implements the per-keystroke typing state machine.
package engine

import (
	"math"
	"time"

	"github.com/typedash/typedash/internal/model"
)

// KeyKind discriminates the three semantic key intents the state
// machine accepts. Modifier chords and multi-character inputs are
// filtered upstream and never reach this package.
type KeyKind int

const (
	// KeyRune is a single printable character.
	KeyRune KeyKind = iota
	// KeyCommit finalizes a fully typed word (space).
	KeyCommit
	// KeyBackspace removes the last typed character, cost-free.
	KeyBackspace
)

// Key is one semantic key intent.
type Key struct {
	Kind KeyKind
	Rune rune
}

// Result is the outcome of one keystroke.
type Result struct {
	Player        model.PlayerState
	WordCompleted bool
}

// ProcessKeyPress applies one keystroke to a racer and returns the new
// state. The input PlayerState is not mutated, so callers can diff
// before/after for per-key feedback. elapsed is the time since the
// race transitioned to racing; cfg supplies TrackLength and the
// SkipOnError commit policy.
func ProcessKeyPress(p model.PlayerState, key Key, targetWord string, cfg model.GameConfig, elapsed time.Duration) Result {
	if p.IsFinished {
		return Result{Player: p}
	}
	p.CharStates = append([]model.CharState(nil), p.CharStates...)

	switch key.Kind {
	case KeyBackspace:
		return Result{Player: applyBackspace(p)}
	case KeyRune:
		return Result{Player: applyRune(p, key.Rune, targetWord, elapsed)}
	case KeyCommit:
		return applyCommit(p, targetWord, cfg, elapsed)
	}
	// Unknown key kinds are a defensive no-op.
	return Result{Player: p}
}

func applyBackspace(p model.PlayerState) model.PlayerState {
	typed := []rune(p.CurrentWordProgress)
	if len(typed) == 0 {
		return p
	}
	typed = typed[:len(typed)-1]
	p.CurrentWordProgress = string(typed)
	if len(p.CharStates) > len(typed) {
		p.CharStates = p.CharStates[:len(typed)]
	}
	p.AwaitingSpace = false
	return p
}

func applyRune(p model.PlayerState, r rune, targetWord string, elapsed time.Duration) model.PlayerState {
	target := []rune(targetWord)
	typed := []rune(p.CurrentWordProgress)
	if len(typed) >= len(target) {
		// Word already fully typed; ignore extra characters.
		return p
	}

	idx := len(typed)
	p.CurrentWordProgress = string(append(typed, r))
	p.TotalHits++
	if r == target[idx] {
		p.CorrectHits++
		p.CharStates = append(p.CharStates, model.CharCorrect)
	} else {
		p.Mistakes++
		p.CharStates = append(p.CharStates, model.CharIncorrect)
	}

	if idx+1 == len(target) && allCorrect(p.CharStates) {
		p.AwaitingSpace = true
	}
	p.WPM = ComputeWPM(p.CorrectHits, elapsed)
	p.Accuracy = ComputeAccuracy(p.CorrectHits, p.TotalHits)
	return p
}

func applyCommit(p model.PlayerState, targetWord string, cfg model.GameConfig, elapsed time.Duration) Result {
	fullyTyped := len([]rune(p.CurrentWordProgress)) == len([]rune(targetWord))
	if !p.AwaitingSpace && !(cfg.SkipOnError && fullyTyped) {
		// Word incomplete or still containing errors: commit rejected.
		return Result{Player: p}
	}

	p.Streak++
	if p.Streak > p.BestStreak {
		p.BestStreak = p.Streak
	}
	p.Progress = ProgressPercent(p.Streak, cfg.TrackLength)
	p.WPM = ComputeWPM(p.CorrectHits, elapsed)
	p.Accuracy = ComputeAccuracy(p.CorrectHits, p.TotalHits)
	p.CurrentWordProgress = ""
	p.CharStates = nil
	p.AwaitingSpace = false

	if p.Streak >= cfg.TrackLength {
		p.IsFinished = true
		p.Progress = 100
	}
	return Result{Player: p, WordCompleted: true}
}

func allCorrect(states []model.CharState) bool {
	for _, s := range states {
		if s != model.CharCorrect {
			return false
		}
	}
	return true
}

// ComputeWPM converts correct hits over elapsed time to whole words
// per minute, with five characters per word. Zero or negative elapsed
// time yields 0, never NaN or Inf.
func ComputeWPM(correctHits int, elapsed time.Duration) int {
	minutes := elapsed.Minutes()
	if minutes <= 0 {
		return 0
	}
	return int(math.Round(float64(correctHits) / 5.0 / minutes))
}

// ComputeAccuracy returns the integer percentage of correct hits.
// A racer with no hits has 100% accuracy.
func ComputeAccuracy(correctHits, totalHits int) int {
	if totalHits == 0 {
		return 100
	}
	return int(math.Round(float64(correctHits) / float64(totalHits) * 100))
}

// ProgressPercent converts a streak to race completion, clamped to
// [0, 100].
func ProgressPercent(streak, trackLength int) float64 {
	if trackLength <= 0 {
		return 0
	}
	pct := float64(streak) / float64(trackLength) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
