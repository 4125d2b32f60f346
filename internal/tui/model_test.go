package tui

import (
	"context"
	"testing"

	"github.com/typedash/typedash/internal/engine"
	"github.com/typedash/typedash/internal/model"
	"github.com/typedash/typedash/internal/race"
	"github.com/typedash/typedash/internal/realtime"
	"github.com/typedash/typedash/internal/settle"
)

type stubEscrow struct {
	calls int
}

func (e *stubEscrow) Transfer(_ context.Context, _ string, amount int64, _ string) (settle.Receipt, error) {
	e.calls++
	return settle.Receipt{TxID: "tx-1", Amount: amount}, nil
}

type allowVerifier struct{}

func (allowVerifier) Verify(context.Context, model.MatchResult) error { return nil }

type memLedger struct {
	settled map[string]bool
}

func (l *memLedger) MarkSettled(_ context.Context, matchID string) (bool, error) {
	if l.settled == nil {
		l.settled = map[string]bool{}
	}
	if l.settled[matchID] {
		return false, nil
	}
	l.settled[matchID] = true
	return true, nil
}

// winStakedDuelAsGuest drives a joined (non-host) duel through the
// game_start handshake to a local win. The stake arrives on the wire,
// never through local options.
func winStakedDuelAsGuest(t *testing.T, m *Model) {
	t.Helper()
	m.phase = phaseWaiting
	m.handleEnvelope(realtime.Envelope{
		Type: realtime.MsgJoin,
		Room: "ABCD",
		Join: &realtime.Join{PlayerID: "host", Username: "bob"},
	})
	m.handleEnvelope(realtime.Envelope{
		Type: realtime.MsgGameStart,
		Room: "ABCD",
		GameStart: &realtime.GameStart{
			Difficulty:  model.DifficultyEasy,
			TrackLength: 1,
			Words:       []string{"ab"},
			StakeAmount: 100,
		},
	})
	if m.ctrl.Stake() != 100 {
		t.Fatalf("stake not taken from game_start, got %d", m.ctrl.Stake())
	}
	for m.ctrl.State() == model.StateCountdown {
		m.ctrl.Tick(m.ctrl.Seq())
	}
	if m.ctrl.State() != model.StateRacing {
		t.Fatalf("expected racing, got %s", m.ctrl.State())
	}
	m.ctrl.HandleKeyPress(engine.Key{Kind: engine.KeyRune, Rune: 'a'})
	m.ctrl.HandleKeyPress(engine.Key{Kind: engine.KeyRune, Rune: 'b'})
	m.ctrl.HandleKeyPress(engine.Key{Kind: engine.KeyCommit})
	result := m.ctrl.Result()
	if result == nil || result.WinnerID != "guest" {
		t.Fatalf("expected local guest win, got %+v", result)
	}
}

func TestGuestStakedWinSettles(t *testing.T) {
	escrow := &stubEscrow{}
	settler := settle.New(escrow, allowVerifier{}, &memLedger{})

	m := NewModel(Options{
		Settler:  settler,
		Mode:     race.ModeDuel,
		RoomCode: "ABCD",
		LocalID:  "guest",
		Username: "alice",
		Wallet:   "wallet-1",
	})
	winStakedDuelAsGuest(t, m)

	cmd := m.maybeFinalize()
	if cmd == nil {
		t.Fatal("staked win produced no settlement command")
	}
	raw := cmd()
	msg, ok := raw.(settledMsg)
	if !ok {
		t.Fatalf("unexpected message %T", raw)
	}
	if msg.err != nil {
		t.Fatalf("settlement failed: %v", msg.err)
	}
	if want := settle.Payout(100); msg.receipt.Amount != want {
		t.Fatalf("payout = %d, want %d", msg.receipt.Amount, want)
	}
	if escrow.calls != 1 {
		t.Fatalf("escrow called %d times", escrow.calls)
	}
}

func TestStakedWinWithoutSettlerSurfaces(t *testing.T) {
	m := NewModel(Options{
		Mode:     race.ModeDuel,
		RoomCode: "ABCD",
		LocalID:  "guest",
		Username: "alice",
		Wallet:   "wallet-1",
	})
	winStakedDuelAsGuest(t, m)

	if cmd := m.maybeFinalize(); cmd != nil {
		t.Fatal("no settler configured but a command was produced")
	}
	if m.status == "" {
		t.Fatal("unsettled staked win must be surfaced to the racer")
	}
}

func TestFinalizeRunsOnce(t *testing.T) {
	escrow := &stubEscrow{}
	settler := settle.New(escrow, allowVerifier{}, &memLedger{})

	m := NewModel(Options{
		Settler:  settler,
		Mode:     race.ModeDuel,
		RoomCode: "ABCD",
		LocalID:  "guest",
		Username: "alice",
		Wallet:   "wallet-1",
	})
	winStakedDuelAsGuest(t, m)

	if cmd := m.maybeFinalize(); cmd == nil {
		t.Fatal("first finalize produced no command")
	}
	if cmd := m.maybeFinalize(); cmd != nil {
		t.Fatal("second finalize should be a no-op")
	}
}
