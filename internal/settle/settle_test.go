package settle

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/typedash/typedash/internal/model"
	"github.com/typedash/typedash/internal/store"
)

type fakeEscrow struct {
	calls int
	fail  bool
}

func (f *fakeEscrow) Transfer(_ context.Context, wallet string, amount int64, matchID string) (Receipt, error) {
	f.calls++
	if f.fail {
		return Receipt{}, errors.New("rpc unavailable")
	}
	return Receipt{TxID: "tx-" + matchID, Amount: amount}, nil
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "typedash.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sampleResult(stake int64) model.MatchResult {
	return model.MatchResult{
		MatchID:        "match-1",
		WinnerID:       "w1",
		WinnerUsername: "alice",
		LoserID:        "l1",
		LoserUsername:  "bob",
		Duration:       42.5,
		StakeAmount:    stake,
		WinnerWPM:      80,
		LoserWPM:       61,
		WinnerAccuracy: 97,
		LoserAccuracy:  94,
	}
}

func persist(t *testing.T, st *store.Store, result model.MatchResult) {
	t.Helper()
	_, err := st.InsertMatch(context.Background(), model.MatchRecord{
		PlayedAt:   time.Now(),
		Difficulty: model.DifficultyMedium,
		Result:     result,
		LocalID:    result.WinnerID,
	})
	if err != nil {
		t.Fatalf("insert match: %v", err)
	}
}

func TestPayoutMath(t *testing.T) {
	cases := []struct {
		stake int64
		want  int64
	}{
		{100, 190},
		{1000, 1900},
		{1, 2},
		{0, 0},
		{-5, 0},
	}
	for _, tc := range cases {
		if got := Payout(tc.stake); got != tc.want {
			t.Fatalf("Payout(%d) = %d, want %d", tc.stake, got, tc.want)
		}
	}
}

func TestSettleHappyPath(t *testing.T) {
	st := openStore(t)
	result := sampleResult(100)
	persist(t, st, result)

	escrow := &fakeEscrow{}
	settler := New(escrow, StoreVerifier{Store: st}, st)

	receipt, err := settler.Settle(context.Background(), result, "wallet-1")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if receipt.Amount != 190 {
		t.Fatalf("expected payout 190, got %d", receipt.Amount)
	}
	if escrow.calls != 1 {
		t.Fatalf("expected one transfer, got %d", escrow.calls)
	}
}

func TestSettleIdempotent(t *testing.T) {
	st := openStore(t)
	result := sampleResult(100)
	persist(t, st, result)

	escrow := &fakeEscrow{}
	settler := New(escrow, StoreVerifier{Store: st}, st)

	ctx := context.Background()
	if _, err := settler.Settle(ctx, result, "wallet-1"); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	_, err := settler.Settle(ctx, result, "wallet-1")
	if !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
	if escrow.calls != 1 {
		t.Fatalf("duplicate payout: %d transfers", escrow.calls)
	}
}

func TestSettleNoStake(t *testing.T) {
	st := openStore(t)
	escrow := &fakeEscrow{}
	settler := New(escrow, StoreVerifier{Store: st}, st)

	_, err := settler.Settle(context.Background(), sampleResult(0), "wallet-1")
	if !errors.Is(err, ErrNoStake) {
		t.Fatalf("expected ErrNoStake, got %v", err)
	}
	if escrow.calls != 0 {
		t.Fatalf("transfer attempted for unstaked match")
	}
}

func TestSettleRejectsUnverifiedResult(t *testing.T) {
	st := openStore(t)
	escrow := &fakeEscrow{}
	settler := New(escrow, StoreVerifier{Store: st}, st)

	// No persisted record at all.
	result := sampleResult(100)
	if _, err := settler.Settle(context.Background(), result, "wallet-1"); err == nil {
		t.Fatalf("expected verification failure without a record")
	}

	// Record exists but claims a different winner.
	persist(t, st, result)
	forged := result
	forged.WinnerID = "l1"
	if _, err := settler.Settle(context.Background(), forged, "wallet-1"); err == nil {
		t.Fatalf("expected verification failure on winner mismatch")
	}
	if escrow.calls != 0 {
		t.Fatalf("transfer attempted for unverified result")
	}
}

func TestSettleEscrowFailureLeavesLedgerClaimed(t *testing.T) {
	st := openStore(t)
	result := sampleResult(100)
	persist(t, st, result)

	escrow := &fakeEscrow{fail: true}
	settler := New(escrow, StoreVerifier{Store: st}, st)

	if _, err := settler.Settle(context.Background(), result, "wallet-1"); err == nil {
		t.Fatalf("expected escrow failure to surface")
	}
	// The mark is already claimed: retries go through the collaborator's
	// policy, never a silent double payout.
	_, err := settler.Settle(context.Background(), result, "wallet-1")
	if !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled after failed transfer, got %v", err)
	}
}
