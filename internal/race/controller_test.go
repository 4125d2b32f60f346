package race

import (
	"testing"
	"time"

	"github.com/typedash/typedash/internal/engine"
	"github.com/typedash/typedash/internal/model"
	"github.com/typedash/typedash/internal/realtime"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newBotRace(t *testing.T) (*Controller, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	c := NewWithClock(clk.now)
	c.InitGame(model.DifficultyEasy, "local", "alice", 0)
	return c, clk
}

func startRacing(t *testing.T, c *Controller, clk *fakeClock) {
	t.Helper()
	c.StartCountdown()
	for c.State() == model.StateCountdown {
		clk.advance(time.Second)
		c.Tick(c.Seq())
	}
	if c.State() != model.StateRacing {
		t.Fatalf("expected racing, got %s", c.State())
	}
}

func typeCurrentWord(t *testing.T, c *Controller) {
	t.Helper()
	word := c.CurrentWord()
	for _, r := range word {
		c.HandleKeyPress(engine.Key{Kind: engine.KeyRune, Rune: r})
	}
	if _, committed := c.HandleKeyPress(engine.Key{Kind: engine.KeyCommit}); !committed {
		t.Fatalf("word %q did not commit", word)
	}
}

func TestRejectedCommitReportsIncorrect(t *testing.T) {
	c, clk := newBotRace(t)
	startRacing(t, c, clk)

	word := c.CurrentWord()
	// Mistype the first character, then try to commit the partial word.
	wrong := 'x'
	if rune(word[0]) == wrong {
		wrong = 'y'
	}
	c.HandleKeyPress(engine.Key{Kind: engine.KeyRune, Rune: wrong})
	correct, committed := c.HandleKeyPress(engine.Key{Kind: engine.KeyCommit})
	if committed {
		t.Fatalf("erroneous word committed")
	}
	if correct {
		t.Fatalf("refused commit reported as correct")
	}

	// Fix the word; the commit should now report success.
	c.HandleKeyPress(engine.Key{Kind: engine.KeyBackspace})
	for _, r := range word {
		c.HandleKeyPress(engine.Key{Kind: engine.KeyRune, Rune: r})
	}
	correct, committed = c.HandleKeyPress(engine.Key{Kind: engine.KeyCommit})
	if !committed || !correct {
		t.Fatalf("accepted commit reported correct=%v committed=%v", correct, committed)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	c, clk := newBotRace(t)
	if c.State() != model.StateIdle {
		t.Fatalf("expected idle, got %s", c.State())
	}
	c.StartCountdown()
	if c.State() != model.StateCountdown {
		t.Fatalf("expected countdown, got %s", c.State())
	}
	if c.Countdown() != 3 {
		t.Fatalf("expected 3s countdown, got %d", c.Countdown())
	}
	for i := 0; i < 3; i++ {
		clk.advance(time.Second)
		c.Tick(c.Seq())
	}
	if c.State() != model.StateRacing {
		t.Fatalf("expected racing after countdown, got %s", c.State())
	}
}

func TestStartCountdownOnlyFromIdle(t *testing.T) {
	c, clk := newBotRace(t)
	startRacing(t, c, clk)
	c.StartCountdown()
	if c.State() != model.StateRacing {
		t.Fatalf("countdown restarted mid-race")
	}
}

func TestKeysDiscardedOutsideRacing(t *testing.T) {
	c, _ := newBotRace(t)
	c.HandleKeyPress(engine.Key{Kind: engine.KeyRune, Rune: 'a'})
	if c.Local().TotalHits != 0 {
		t.Fatalf("key applied while idle")
	}
	c.StartCountdown()
	c.HandleKeyPress(engine.Key{Kind: engine.KeyRune, Rune: 'a'})
	if c.Local().TotalHits != 0 {
		t.Fatalf("key applied during countdown")
	}
}

func TestBotRaceToCompletion(t *testing.T) {
	c, clk := newBotRace(t)
	startRacing(t, c, clk)

	track := c.Config().TrackLength
	for i := 0; i < track; i++ {
		clk.advance(4 * time.Second)
		c.Tick(c.Seq())
		typeCurrentWord(t, c)
	}
	if !c.Local().IsFinished {
		t.Fatalf("local racer not finished after %d words", track)
	}
	if c.Local().Progress != 100 {
		t.Fatalf("expected progress 100, got %v", c.Local().Progress)
	}
	if c.State() != model.StateFinished {
		t.Fatalf("expected finished, got %s", c.State())
	}
	res := c.Result()
	if res == nil {
		t.Fatalf("expected a match result")
	}
	if res.WinnerID != "local" {
		t.Fatalf("expected local win, got %+v", res)
	}
	if res.WinnerWPM != c.Local().WPM {
		t.Fatalf("result wpm mismatch: %d vs %d", res.WinnerWPM, c.Local().WPM)
	}
}

func TestWordBufferReplenishedInBotMode(t *testing.T) {
	c, clk := newBotRace(t)
	startRacing(t, c, clk)
	before := len(c.Words())
	clk.advance(time.Second)
	typeCurrentWord(t, c)
	if got := len(c.Words()); got != before {
		t.Fatalf("bot-mode buffer not replenished: %d -> %d", before, got)
	}
}

func TestEndGameIdempotent(t *testing.T) {
	c, clk := newBotRace(t)
	startRacing(t, c, clk)
	clk.advance(10 * time.Second)

	c.EndGame()
	first := c.Result()
	if first == nil {
		t.Fatalf("expected result after EndGame")
	}
	clk.advance(5 * time.Second)
	c.EndGame()
	if c.Result() != first {
		t.Fatalf("second EndGame produced a new result")
	}
}

func TestFirstFinisherWinsDoubleFinish(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	c := NewWithClock(clk.now)
	seq := []string{"go", "on", "up", "we", "it", "to", "at", "of", "in", "my", "no", "so", "la", "da", "re"}
	c.InitMultiplayerGame(model.DifficultyEasy, 2, seq, "ABCD", 0, "local", "alice", "remote", "bob")
	startRacing(t, c, clk)

	// Remote finish arrives first, then the local commit lands in the
	// same tick.
	c.UpdateRemoteOpponent(realtime.ProgressSnap{PlayerID: "remote", Streak: 2, Progress: 100, IsFinished: true})
	if c.State() != model.StateFinished {
		t.Fatalf("expected finished after remote finish")
	}
	res := c.Result()
	if res.WinnerID != "remote" {
		t.Fatalf("expected remote winner, got %+v", res)
	}
	c.HandleKeyPress(engine.Key{Kind: engine.KeyRune, Rune: 'g'})
	if c.Result() != res {
		t.Fatalf("result replaced after finish")
	}
	if c.Local().TotalHits != 0 {
		t.Fatalf("local state mutated after finish")
	}
}

func TestForcedEndTieBreak(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	c := NewWithClock(clk.now)
	seq := []string{"sun", "map", "dog", "ice", "cat", "tea", "oak", "elm", "fig", "ivy", "bee", "ant", "owl", "fox", "ram"}
	c.InitMultiplayerGame(model.DifficultyEasy, 5, seq, "ABCD", 0, "b-local", "alice", "a-remote", "bob")
	startRacing(t, c, clk)

	// Both at streak 3 of 5; remote reports a higher WPM.
	clk.advance(10 * time.Second)
	for i := 0; i < 3; i++ {
		typeCurrentWord(t, c)
	}
	c.UpdateRemoteOpponent(realtime.ProgressSnap{PlayerID: "a-remote", Streak: 3, Progress: 60, WPM: 500})
	c.EndGame()
	res := c.Result()
	if res.WinnerID != "a-remote" {
		t.Fatalf("higher WPM should win forced end, got %+v", res)
	}
}

func TestForcedEndLexicographicLastResort(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	c := NewWithClock(clk.now)
	seq := []string{"sun", "map", "dog", "ice", "cat"}
	c.InitMultiplayerGame(model.DifficultyEasy, 5, seq, "ABCD", 0, "bbb", "alice", "aaa", "bob")
	startRacing(t, c, clk)
	c.EndGame()
	if got := c.Result().WinnerID; got != "aaa" {
		t.Fatalf("expected lexicographic winner aaa, got %s", got)
	}
}

func TestMultiplayerSequenceIntegrity(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	host := NewWithClock(clk.now)
	hostSeq := []string{"a1", "b2", "c3", "d4", "e5", "f6", "g7", "h8", "i9", "j10", "k11", "l12", "m13", "n14", "o15"}
	host.InitMultiplayerGame(model.DifficultyMedium, 5, hostSeq, "WXYZ", 0, "host", "alice", "guest", "bob")

	guest := NewWithClock(clk.now)
	guest.InitMultiplayerGame(model.DifficultyMedium, 5, host.Words(), "WXYZ", 0, "guest", "bob", "host", "alice")

	hw, gw := host.Words(), guest.Words()
	if len(hw) != 15 || len(gw) != 15 {
		t.Fatalf("sequence length changed: host=%d guest=%d", len(hw), len(gw))
	}
	for i := range hw {
		if hw[i] != gw[i] {
			t.Fatalf("sequences diverge at %d: %q vs %q", i, hw[i], gw[i])
		}
	}

	// Duel buffers are never replenished.
	startRacing(t, guest, clk)
	clk.advance(time.Second)
	typeCurrentWord(t, guest)
	if got := len(guest.Words()); got != 14 {
		t.Fatalf("duel buffer should shrink, got %d", got)
	}
}

func TestRemoteSnapshotsValidated(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	c := NewWithClock(clk.now)
	seq := []string{"sun", "map", "dog", "ice", "cat"}
	c.InitMultiplayerGame(model.DifficultyEasy, 5, seq, "ABCD", 0, "local", "alice", "remote", "bob")

	// Not racing yet: dropped.
	c.UpdateRemoteOpponent(realtime.ProgressSnap{PlayerID: "remote", Streak: 2})
	if c.Opponent().Streak != 0 {
		t.Fatalf("snapshot applied before racing")
	}

	startRacing(t, c, clk)

	// Unknown player: dropped.
	c.UpdateRemoteOpponent(realtime.ProgressSnap{PlayerID: "stranger", Streak: 4})
	if c.Opponent().Streak != 0 {
		t.Fatalf("snapshot for unknown player applied")
	}

	c.UpdateRemoteOpponent(realtime.ProgressSnap{PlayerID: "remote", Streak: 2, Progress: 40, WPM: 55})
	if c.Opponent().Streak != 2 || c.Opponent().WPM != 55 {
		t.Fatalf("valid snapshot not applied: %+v", c.Opponent())
	}
	if c.Local().Streak != 0 {
		t.Fatalf("remote snapshot mutated local state")
	}

	// After finish: dropped.
	c.EndGame()
	c.UpdateRemoteOpponent(realtime.ProgressSnap{PlayerID: "remote", Streak: 5})
	if c.Opponent().Streak != 2 {
		t.Fatalf("snapshot applied after finish")
	}
}

func TestResetInvalidatesScheduledCallbacks(t *testing.T) {
	c, clk := newBotRace(t)
	startRacing(t, c, clk)
	stale := c.Seq()

	c.ResetGame()
	if c.State() != model.StateIdle {
		t.Fatalf("expected idle after reset")
	}
	c.InitGame(model.DifficultyEasy, "local", "alice", 0)
	c.StartCountdown()

	before := c.Countdown()
	clk.advance(time.Second)
	c.Tick(stale)
	if c.Countdown() != before {
		t.Fatalf("stale tick advanced the countdown")
	}
	if _, ok := c.UpdateOpponent(stale); ok {
		t.Fatalf("stale AI action was accepted")
	}
}

func TestAIOpponentAdvancesAndFinishes(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	c := NewWithClock(clk.now)
	c.InitGame(model.DifficultyEasy, "local", "alice", 0)
	startRacing(t, c, clk)

	for i := 0; i < 100000 && c.State() == model.StateRacing; i++ {
		delay, ok := c.UpdateOpponent(c.Seq())
		if !ok {
			break
		}
		clk.advance(delay)
		c.Tick(c.Seq())
	}
	if !c.Opponent().IsFinished {
		t.Fatalf("AI opponent never finished: %+v", c.Opponent())
	}
	if c.State() != model.StateFinished {
		t.Fatalf("race not finished after AI win")
	}
	if got := c.Result().WinnerID; got != c.Opponent().ID {
		t.Fatalf("expected AI winner, got %s", got)
	}
	if c.Opponent().Accuracy >= 100 {
		t.Fatalf("AI accuracy should not be perfect")
	}
}

func TestProgressMonotonic(t *testing.T) {
	c, clk := newBotRace(t)
	startRacing(t, c, clk)
	prev := 0.0
	for i := 0; i < c.Config().TrackLength && c.State() == model.StateRacing; i++ {
		clk.advance(2 * time.Second)
		typeCurrentWord(t, c)
		got := c.Local().Progress
		if got < prev {
			t.Fatalf("progress decreased: %v -> %v", prev, got)
		}
		if got < 0 || got > 100 {
			t.Fatalf("progress out of bounds: %v", got)
		}
		prev = got
	}
}
