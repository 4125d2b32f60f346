// Package race owns the state of one match: both racers, the word
// buffer, timers, lifecycle transitions, and the final result.
package race

import (
	"time"

	"github.com/google/uuid"

	"github.com/typedash/typedash/internal/bot"
	"github.com/typedash/typedash/internal/engine"
	"github.com/typedash/typedash/internal/model"
	"github.com/typedash/typedash/internal/realtime"
	"github.com/typedash/typedash/internal/words"
)

// Mode distinguishes bot races from synchronized duels.
type Mode int

const (
	// ModeBot races against the simulated opponent.
	ModeBot Mode = iota
	// ModeDuel races a remote human through the realtime channel.
	ModeDuel
)

// lookahead is the upcoming-word window kept full in bot mode. Duels
// instead race a fixed pre-shared sequence that is never replenished.
const lookahead = 10

// Controller drives one race from idle to finished. It is a plain
// state object owned by a single event loop; timer and channel
// callbacks reach it through seq-stamped methods so anything scheduled
// before a reset is dropped.
type Controller struct {
	now func() time.Time

	cfg   model.GameConfig
	mode  Mode
	state model.GameState

	local    model.PlayerState
	opponent model.PlayerState

	wordBuf  []string
	gen      *words.Generator
	ai       *bot.Bot
	botWords []string

	matchID  string
	roomCode string
	stake    int64

	countdown  int
	startTime  time.Time
	elapsedSec int

	firstFinisher string
	result        *model.MatchResult

	// customGen, when set, overrides the default word source for
	// subsequent bot races. Survives ResetGame.
	customGen *words.Generator

	// skipOnError is applied to the config of every new race.
	skipOnError bool

	seq uint64
}

// New returns an idle controller using the wall clock.
func New() *Controller {
	return &Controller{now: time.Now, state: model.StateIdle}
}

// NewWithClock returns a controller with an injected clock for tests.
func NewWithClock(now func() time.Time) *Controller {
	return &Controller{now: now, state: model.StateIdle}
}

// UseGenerator overrides the word source for later bot races, for
// user-supplied word lists.
func (c *Controller) UseGenerator(g *words.Generator) {
	c.customGen = g
}

// SetSkipOnError chooses the commit policy for later races: when true,
// a word may be committed with uncorrected mistakes.
func (c *Controller) SetSkipOnError(skip bool) {
	c.skipOnError = skip
}

// InitGame sets up a bot match: difficulty config, a fresh word
// lookahead buffer, and the AI racer. Valid only from idle.
func (c *Controller) InitGame(d model.Difficulty, localID, localName string, stake int64) {
	if c.state != model.StateIdle {
		return
	}
	c.cfg = model.ConfigFor(d)
	c.cfg.SkipOnError = c.skipOnError
	c.mode = ModeBot
	c.matchID = uuid.NewString()
	c.stake = stake
	c.gen = c.customGen
	if c.gen == nil {
		c.gen = words.New()
	}
	c.wordBuf = c.gen.Sequence(d, lookahead)
	c.local = model.NewPlayerState(localID, localName)
	c.opponent = model.NewPlayerState(uuid.NewString(), "bot")
	c.ai = bot.New(c.cfg)
	c.botWords = c.gen.Sequence(d, lookahead)
}

// InitMultiplayerGame sets up a duel from the pre-shared word
// sequence. The sequence, not the generator, is the source of truth:
// both peers race exactly this array.
func (c *Controller) InitMultiplayerGame(d model.Difficulty, trackLength int, seq []string, roomCode string, stake int64, localID, localName, oppID, oppName string) {
	if c.state != model.StateIdle {
		return
	}
	c.cfg = model.ConfigFor(d)
	c.cfg.SkipOnError = c.skipOnError
	if trackLength > 0 {
		c.cfg.TrackLength = trackLength
	}
	if c.cfg.TrackLength > len(seq) {
		c.cfg.TrackLength = len(seq)
	}
	c.mode = ModeDuel
	c.matchID = uuid.NewString()
	c.roomCode = roomCode
	c.stake = stake
	c.wordBuf = append([]string(nil), seq...)
	c.local = model.NewPlayerState(localID, localName)
	c.opponent = model.NewPlayerState(oppID, oppName)
}

// StartCountdown moves idle to countdown. The per-second tick drives
// the rest.
func (c *Controller) StartCountdown() {
	if c.state != model.StateIdle {
		return
	}
	c.state = model.StateCountdown
	c.countdown = c.cfg.CountdownSeconds
}

// Tick is the once-per-second wall-clock callback. seq must match the
// value captured when the tick was scheduled; stale ticks from a
// previous race are dropped.
func (c *Controller) Tick(seq uint64) {
	if seq != c.seq {
		return
	}
	switch c.state {
	case model.StateCountdown:
		c.countdown--
		if c.countdown <= 0 {
			c.state = model.StateRacing
			c.startTime = c.now()
			c.elapsedSec = 0
		}
	case model.StateRacing:
		c.elapsedSec = int(c.now().Sub(c.startTime).Seconds())
	default:
		// No timers are legal outside countdown/racing.
	}
}

// HandleKeyPress applies one local keystroke. Keys outside the racing
// state are discarded, not queued. The first return reports whether
// the keystroke was correct (for UI feedback), the second whether it
// committed a word.
func (c *Controller) HandleKeyPress(key engine.Key) (correct, committed bool) {
	if c.state != model.StateRacing || len(c.wordBuf) == 0 {
		return false, false
	}
	before := c.local
	res := engine.ProcessKeyPress(c.local, key, c.wordBuf[0], c.cfg, c.elapsed())
	c.local = res.Player
	switch key.Kind {
	case engine.KeyRune:
		correct = res.Player.CorrectHits > before.CorrectHits
	case engine.KeyCommit:
		correct = res.WordCompleted
	default:
		correct = true
	}

	if res.WordCompleted {
		c.wordBuf = c.wordBuf[1:]
		if c.mode == ModeBot {
			c.wordBuf = append(c.wordBuf, c.gen.Next(c.cfg.Difficulty))
		}
	}
	if c.local.IsFinished {
		c.noteFinisher(c.local.ID)
		c.EndGame()
	} else if len(c.wordBuf) == 0 {
		// Pre-shared sequence exhausted before the track was done.
		c.EndGame()
	}
	return correct, res.WordCompleted
}

// UpdateOpponent advances the AI racer by one action. Bot mode only,
// and only while racing; the seq guard drops actions scheduled before
// a reset. Returns the delay until the next action should fire.
func (c *Controller) UpdateOpponent(seq uint64) (time.Duration, bool) {
	if seq != c.seq || c.state != model.StateRacing || c.mode != ModeBot {
		return 0, false
	}
	idx := c.opponent.Streak
	for idx >= len(c.botWords) {
		c.botWords = append(c.botWords, c.gen.Next(c.cfg.Difficulty))
	}
	c.opponent = c.ai.Advance(c.opponent, len(c.botWords[idx]), c.elapsed())
	if c.opponent.IsFinished {
		c.noteFinisher(c.opponent.ID)
		c.EndGame()
		return 0, false
	}
	return c.ai.NextDelay(), true
}

// UpdateRemoteOpponent applies an inbound duel progress snapshot to
// the opponent half of state. Local state is never touched here.
// Snapshots outside racing, after the finish, or for an unknown player
// are dropped silently.
func (c *Controller) UpdateRemoteOpponent(snap realtime.ProgressSnap) {
	if c.state != model.StateRacing || c.mode != ModeDuel {
		return
	}
	if snap.PlayerID != c.opponent.ID {
		return
	}
	c.opponent.Progress = snap.Progress
	c.opponent.WPM = snap.WPM
	c.opponent.Accuracy = snap.Accuracy
	c.opponent.CorrectHits = snap.CorrectHits
	c.opponent.TotalHits = snap.TotalHits
	c.opponent.Streak = snap.Streak
	if snap.Username != "" {
		c.opponent.Username = snap.Username
	}
	if snap.IsFinished {
		c.opponent.IsFinished = true
		c.opponent.Progress = 100
		c.noteFinisher(c.opponent.ID)
		c.EndGame()
	}
}

// MarkRemoteFinished handles an inbound finish notification.
func (c *Controller) MarkRemoteFinished(playerID string) {
	if c.state != model.StateRacing || playerID != c.opponent.ID {
		return
	}
	c.opponent.IsFinished = true
	c.opponent.Progress = 100
	c.noteFinisher(playerID)
	c.EndGame()
}

// EndGame finalizes the race. Idempotent: the first caller computes
// the single MatchResult; calls after finished are no-ops, so a local
// commit and a remote finish landing in the same tick settle to one
// result.
func (c *Controller) EndGame() {
	if c.state == model.StateFinished || c.state == model.StateIdle {
		return
	}
	c.state = model.StateFinished
	r := c.calculateMatchResult()
	c.result = &r
}

// ResetGame clears all race state and invalidates every scheduled
// callback by bumping the sequence number. A new race starts from
// idle.
func (c *Controller) ResetGame() {
	c.seq++
	c.state = model.StateIdle
	c.local = model.PlayerState{}
	c.opponent = model.PlayerState{}
	c.wordBuf = nil
	c.botWords = nil
	c.gen = nil
	c.ai = nil
	c.result = nil
	c.firstFinisher = ""
	c.matchID = ""
	c.roomCode = ""
	c.stake = 0
	c.countdown = 0
	c.elapsedSec = 0
	c.startTime = time.Time{}
}

func (c *Controller) noteFinisher(id string) {
	if c.firstFinisher == "" {
		c.firstFinisher = id
	}
}

// calculateMatchResult decides the winner deterministically: first
// finisher, else higher progress/streak, else higher WPM, else the
// lexicographically smaller id.
func (c *Controller) calculateMatchResult() model.MatchResult {
	winner, loser := c.local, c.opponent
	switch {
	case c.firstFinisher == c.opponent.ID:
		winner, loser = c.opponent, c.local
	case c.firstFinisher == c.local.ID:
		// Local finished first.
	case c.opponent.Progress > c.local.Progress:
		winner, loser = c.opponent, c.local
	case c.opponent.Progress == c.local.Progress && c.opponent.WPM > c.local.WPM:
		winner, loser = c.opponent, c.local
	case c.opponent.Progress == c.local.Progress && c.opponent.WPM == c.local.WPM && c.opponent.ID < c.local.ID:
		winner, loser = c.opponent, c.local
	}

	duration := 0.0
	if !c.startTime.IsZero() {
		duration = c.now().Sub(c.startTime).Seconds()
	}
	return model.MatchResult{
		MatchID:        c.matchID,
		WinnerID:       winner.ID,
		WinnerUsername: winner.Username,
		LoserID:        loser.ID,
		LoserUsername:  loser.Username,
		Duration:       duration,
		StakeAmount:    c.stake,
		WinnerWPM:      winner.WPM,
		LoserWPM:       loser.WPM,
		WinnerAccuracy: winner.Accuracy,
		LoserAccuracy:  loser.Accuracy,
	}
}

func (c *Controller) elapsed() time.Duration {
	if c.startTime.IsZero() {
		return 0
	}
	return c.now().Sub(c.startTime)
}

// Seq is the current race sequence number. Callbacks capture it when
// scheduled and pass it back, so anything from a torn-down race is
// rejected.
func (c *Controller) Seq() uint64 { return c.seq }

// State returns the lifecycle phase.
func (c *Controller) State() model.GameState { return c.state }

// Local returns the local racer snapshot.
func (c *Controller) Local() model.PlayerState { return c.local }

// Opponent returns the opposing racer snapshot.
func (c *Controller) Opponent() model.PlayerState { return c.opponent }

// CurrentWord is the word the local racer is typing, or "" when the
// buffer is empty.
func (c *Controller) CurrentWord() string {
	if len(c.wordBuf) == 0 {
		return ""
	}
	return c.wordBuf[0]
}

// Upcoming returns up to n words after the current one.
func (c *Controller) Upcoming(n int) []string {
	if len(c.wordBuf) <= 1 {
		return nil
	}
	rest := c.wordBuf[1:]
	if len(rest) > n {
		rest = rest[:n]
	}
	return rest
}

// Words returns the full remaining buffer (duels share it verbatim).
func (c *Controller) Words() []string {
	return append([]string(nil), c.wordBuf...)
}

// Countdown returns seconds until the race starts.
func (c *Controller) Countdown() int { return c.countdown }

// ElapsedSeconds returns whole seconds raced so far.
func (c *Controller) ElapsedSeconds() int { return c.elapsedSec }

// Config returns the race config.
func (c *Controller) Config() model.GameConfig { return c.cfg }

// ModeOf returns the race mode.
func (c *Controller) ModeOf() Mode { return c.mode }

// MatchID returns the race identifier.
func (c *Controller) MatchID() string { return c.matchID }

// RoomCode returns the duel room code, if any.
func (c *Controller) RoomCode() string { return c.roomCode }

// Stake returns the staked amount.
func (c *Controller) Stake() int64 { return c.stake }

// Result returns the finalized result, or nil before the race ends.
func (c *Controller) Result() *model.MatchResult { return c.result }

// Snapshot builds the outbound progress broadcast for the local racer.
func (c *Controller) Snapshot() realtime.ProgressSnap {
	return realtime.SnapshotOf(c.local)
}

// NextAIDelay returns the initial delay before the first AI action.
func (c *Controller) NextAIDelay() time.Duration {
	if c.ai == nil {
		return 0
	}
	return c.ai.NextDelay()
}
