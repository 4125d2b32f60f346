// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/typedash/typedash/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for the local match history. It doubles
// as the settlement ledger: the settled flag is the idempotency mark
// for payouts.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY,
			match_id TEXT NOT NULL UNIQUE,
			played_at TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			local_id TEXT NOT NULL,
			winner_id TEXT NOT NULL,
			winner_username TEXT NOT NULL,
			loser_id TEXT NOT NULL,
			loser_username TEXT NOT NULL,
			duration_seconds REAL NOT NULL,
			stake_amount INTEGER NOT NULL,
			winner_wpm INTEGER NOT NULL,
			loser_wpm INTEGER NOT NULL,
			winner_accuracy INTEGER NOT NULL,
			loser_accuracy INTEGER NOT NULL,
			settled INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_matches_played_at ON matches(played_at);`,
		`CREATE INDEX IF NOT EXISTS idx_matches_difficulty ON matches(difficulty);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertMatch stores one finalized race. Re-inserting the same match
// id is a no-op, so the best-effort write can be retried safely.
func (s *Store) InsertMatch(ctx context.Context, rec model.MatchRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO matches
			(match_id, played_at, difficulty, local_id,
			 winner_id, winner_username, loser_id, loser_username,
			 duration_seconds, stake_amount,
			 winner_wpm, loser_wpm, winner_accuracy, loser_accuracy, settled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Result.MatchID,
		rec.PlayedAt.Format(time.RFC3339Nano),
		string(rec.Difficulty),
		rec.LocalID,
		rec.Result.WinnerID,
		rec.Result.WinnerUsername,
		rec.Result.LoserID,
		rec.Result.LoserUsername,
		rec.Result.Duration,
		rec.Result.StakeAmount,
		rec.Result.WinnerWPM,
		rec.Result.LoserWPM,
		rec.Result.WinnerAccuracy,
		rec.Result.LoserAccuracy,
		boolToInt(rec.Settled),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetMatch loads one match by its match id.
func (s *Store) GetMatch(ctx context.Context, matchID string) (model.MatchRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, match_id, played_at, difficulty, local_id,
			winner_id, winner_username, loser_id, loser_username,
			duration_seconds, stake_amount,
			winner_wpm, loser_wpm, winner_accuracy, loser_accuracy, settled
		 FROM matches WHERE match_id = ?`, matchID)
	return scanMatch(row)
}

// MarkSettled claims the settlement mark for a match. It returns true
// exactly once per match id; later calls return false.
func (s *Store) MarkSettled(ctx context.Context, matchID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE matches SET settled = 1 WHERE match_id = ? AND settled = 0`, matchID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListMatches returns matches filtered and ordered oldest first.
func (s *Store) ListMatches(ctx context.Context, filter model.MatchFilter) ([]model.MatchRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Difficulty != "" {
		clauses = append(clauses, "difficulty = ?")
		args = append(args, string(filter.Difficulty))
	}
	if filter.Since != nil {
		clauses = append(clauses, "played_at >= ?")
		args = append(args, filter.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, match_id, played_at, difficulty, local_id,
			winner_id, winner_username, loser_id, loser_username,
			duration_seconds, stake_amount,
			winner_wpm, loser_wpm, winner_accuracy, loser_accuracy, settled
		FROM matches
		WHERE %s
		ORDER BY played_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var matches []model.MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(matches) > filter.Last {
		matches = matches[len(matches)-filter.Last:]
	}
	return matches, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (model.MatchRecord, error) {
	var rec model.MatchRecord
	var playedAt, difficulty string
	var settled int
	err := row.Scan(
		&rec.RowID,
		&rec.Result.MatchID,
		&playedAt,
		&difficulty,
		&rec.LocalID,
		&rec.Result.WinnerID,
		&rec.Result.WinnerUsername,
		&rec.Result.LoserID,
		&rec.Result.LoserUsername,
		&rec.Result.Duration,
		&rec.Result.StakeAmount,
		&rec.Result.WinnerWPM,
		&rec.Result.LoserWPM,
		&rec.Result.WinnerAccuracy,
		&rec.Result.LoserAccuracy,
		&settled,
	)
	if err != nil {
		return model.MatchRecord{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, playedAt)
	if err != nil {
		return model.MatchRecord{}, err
	}
	rec.PlayedAt = parsed
	rec.Difficulty = model.Difficulty(difficulty)
	rec.Settled = settled == 1
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
