// Package model defines shared data structures.
package model

import "time"

// GameState is the lifecycle phase of one race.
type GameState string

// Race lifecycle phases. Each phase gates which timers and listeners
// are legal to run.
const (
	StateIdle      GameState = "idle"
	StateCountdown GameState = "countdown"
	StateRacing    GameState = "racing"
	StateFinished  GameState = "finished"
)

// Difficulty selects the vocabulary tier and race parameters.
type Difficulty string

// Supported difficulty tiers.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyInsane Difficulty = "insane"
)

// ParseDifficulty maps a user-supplied tier name to a Difficulty.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyInsane:
		return Difficulty(s), true
	}
	return "", false
}

// CharState is the match state of one character position in the
// current word. It exists only for the word in flight and is discarded
// on commit.
type CharState int

const (
	CharUntyped CharState = iota
	CharCorrect
	CharIncorrect
)

// GameConfig holds the per-difficulty race parameters. It is looked up
// once at race setup and never changes for the race duration.
type GameConfig struct {
	Difficulty       Difficulty
	TrackLength      int
	CountdownSeconds int
	AITargetWPM      int
	// SkipOnError allows committing a word that still contains
	// incorrect characters, forfeiting accuracy. Off by default:
	// mistakes must be corrected before the commit key advances.
	SkipOnError bool
}

// ConfigFor returns the fixed config table entry for a difficulty.
// Unknown values fall back to medium.
func ConfigFor(d Difficulty) GameConfig {
	switch d {
	case DifficultyEasy:
		return GameConfig{Difficulty: d, TrackLength: 10, CountdownSeconds: 3, AITargetWPM: 30}
	case DifficultyHard:
		return GameConfig{Difficulty: d, TrackLength: 20, CountdownSeconds: 3, AITargetWPM: 70}
	case DifficultyInsane:
		return GameConfig{Difficulty: d, TrackLength: 25, CountdownSeconds: 3, AITargetWPM: 100}
	default:
		return GameConfig{Difficulty: DifficultyMedium, TrackLength: 15, CountdownSeconds: 3, AITargetWPM: 50}
	}
}

// PlayerState is one racer: the local human, a remote human, or the
// bot. Progress counters are monotonic; the derived metrics (wpm,
// accuracy, progress) are recomputed on every mutation.
type PlayerState struct {
	ID       string
	Username string

	CorrectHits int
	TotalHits   int
	Mistakes    int

	Streak     int
	BestStreak int

	WPM      int
	Accuracy int
	Progress float64

	CurrentWordProgress string
	CharStates          []CharState
	AwaitingSpace       bool

	IsFinished bool
}

// NewPlayerState creates a fresh racer with zeroed counters and 100%
// accuracy (no hits yet).
func NewPlayerState(id, username string) PlayerState {
	return PlayerState{ID: id, Username: username, Accuracy: 100}
}

// Speed is the WPM alias used for opponent display.
func (p PlayerState) Speed() int { return p.WPM }

// MatchResult is the immutable outcome of one race, created exactly
// once when the race reaches the finished state.
type MatchResult struct {
	MatchID        string
	WinnerID       string
	WinnerUsername string
	LoserID        string
	LoserUsername  string
	Duration       float64
	StakeAmount    int64
	WinnerWPM      int
	LoserWPM       int
	WinnerAccuracy int
	LoserAccuracy  int
}

// MatchRecord is a persisted finalized race in the local history.
type MatchRecord struct {
	RowID      int64
	PlayedAt   time.Time
	Difficulty Difficulty
	Result     MatchResult
	LocalID    string
	Settled    bool
}

// LocalWon reports whether the locally controlled racer won the match.
func (r MatchRecord) LocalWon() bool { return r.Result.WinnerID == r.LocalID }

// MatchFilter selects matches for history reporting.
type MatchFilter struct {
	Difficulty Difficulty
	Since      *time.Time
	Last       int
}
