// Package settle is the escrow/payout boundary for staked matches.
// The race engine never blocks on it: settlement runs strictly after
// the race reaches finished, and failure here never reopens a race.
package settle

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/typedash/typedash/internal/model"
)

// PlatformFeeRate is the cut retained from the doubled stake.
const PlatformFeeRate = 0.05

// Payout is the winner's take: both stakes minus the platform fee.
func Payout(stake int64) int64 {
	if stake <= 0 {
		return 0
	}
	return int64(math.Round(float64(stake) * 2 * (1 - PlatformFeeRate)))
}

// Receipt confirms one completed transfer.
type Receipt struct {
	TxID   string
	Amount int64
}

// Escrow moves funds to the winner's wallet. Implementations wrap the
// external value-transfer service.
type Escrow interface {
	Transfer(ctx context.Context, winnerWallet string, amount int64, matchID string) (Receipt, error)
}

// Verifier checks a claimed result against an independent record
// before any funds move. It is a pluggable policy: client-asserted
// winners are not trusted by default.
type Verifier interface {
	Verify(ctx context.Context, result model.MatchResult) error
}

// Ledger records which matches have already paid out. MarkSettled
// must be atomic: it returns true exactly once per match id.
type Ledger interface {
	MarkSettled(ctx context.Context, matchID string) (bool, error)
}

// Settlement errors callers branch on. None of them invalidates the
// already-displayed match outcome.
var (
	ErrNoStake        = errors.New("match has no stake")
	ErrAlreadySettled = errors.New("match already settled")
)

// Settler pays out staked matches at most once each.
type Settler struct {
	escrow   Escrow
	verifier Verifier
	ledger   Ledger
}

// New builds a Settler from its collaborators.
func New(escrow Escrow, verifier Verifier, ledger Ledger) *Settler {
	return &Settler{escrow: escrow, verifier: verifier, ledger: ledger}
}

// Settle verifies the result, claims the idempotency mark, and
// transfers the payout. A second call for the same match returns
// ErrAlreadySettled without touching the escrow.
func (s *Settler) Settle(ctx context.Context, result model.MatchResult, winnerWallet string) (Receipt, error) {
	if result.StakeAmount <= 0 {
		return Receipt{}, ErrNoStake
	}
	if err := s.verifier.Verify(ctx, result); err != nil {
		return Receipt{}, fmt.Errorf("result verification failed: %w", err)
	}
	fresh, err := s.ledger.MarkSettled(ctx, result.MatchID)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to claim settlement: %w", err)
	}
	if !fresh {
		return Receipt{}, ErrAlreadySettled
	}
	receipt, err := s.escrow.Transfer(ctx, winnerWallet, Payout(result.StakeAmount), result.MatchID)
	if err != nil {
		return Receipt{}, fmt.Errorf("escrow transfer failed: %w", err)
	}
	return receipt, nil
}

// RecordStore reads back persisted matches for verification.
type RecordStore interface {
	GetMatch(ctx context.Context, matchID string) (model.MatchRecord, error)
}

// StoreVerifier accepts a result only when a persisted record exists
// for the match and names the same winner.
type StoreVerifier struct {
	Store RecordStore
}

// Verify implements Verifier.
func (v StoreVerifier) Verify(ctx context.Context, result model.MatchResult) error {
	rec, err := v.Store.GetMatch(ctx, result.MatchID)
	if err != nil {
		return fmt.Errorf("no persisted record for match %s: %w", result.MatchID, err)
	}
	if rec.Result.WinnerID != result.WinnerID {
		return fmt.Errorf("winner mismatch for match %s", result.MatchID)
	}
	return nil
}
