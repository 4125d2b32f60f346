// Package realtime defines the duel synchronization channel: the wire
// message schema, room codes, and a WebSocket client for the relay.
// The race engine treats this channel as an opaque pub/sub; connection
// setup, presence, and retry live behind it.
package realtime

import "github.com/typedash/typedash/internal/model"

// MsgType tags a wire envelope.
type MsgType string

const (
	MsgJoin      MsgType = "join"
	MsgGameStart MsgType = "game_start"
	MsgProgress  MsgType = "progress"
	MsgFinish    MsgType = "finish"
	MsgPeerGone  MsgType = "peer_gone"
)

// Envelope is one relay message. Exactly one payload field is set,
// according to Type.
type Envelope struct {
	Type      MsgType        `json:"type" validate:"required,oneof=join game_start progress finish peer_gone"`
	Room      string         `json:"room,omitempty"`
	Join      *Join          `json:"join,omitempty"`
	GameStart *GameStart     `json:"gameStart,omitempty"`
	Progress  *ProgressSnap  `json:"progress,omitempty"`
	Finish    *FinishNote    `json:"finish,omitempty"`
}

// Join announces a peer entering a room.
type Join struct {
	PlayerID string `json:"playerId" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// GameStart carries the host-generated race parameters. The word
// sequence itself is the source of truth: the guest races this exact
// array and never re-invokes its generator.
type GameStart struct {
	Difficulty  model.Difficulty `json:"difficulty" validate:"required"`
	TrackLength int              `json:"trackLength" validate:"required,gt=0"`
	Words       []string         `json:"words" validate:"required,min=1"`
	StakeAmount int64            `json:"stakeAmount"`
}

// ProgressSnap is the periodic per-player progress broadcast.
type ProgressSnap struct {
	PlayerID    string  `json:"playerId" validate:"required"`
	Username    string  `json:"username"`
	Progress    float64 `json:"progress"`
	WPM         int     `json:"wpm"`
	Accuracy    int     `json:"accuracy"`
	CorrectHits int     `json:"correctHits"`
	TotalHits   int     `json:"totalHits"`
	Streak      int     `json:"streak"`
	IsFinished  bool    `json:"isFinished"`
}

// FinishNote signals that a peer crossed the finish line.
type FinishNote struct {
	PlayerID string `json:"playerId" validate:"required"`
}

// SnapshotOf builds the progress broadcast for a racer.
func SnapshotOf(p model.PlayerState) ProgressSnap {
	return ProgressSnap{
		PlayerID:    p.ID,
		Username:    p.Username,
		Progress:    p.Progress,
		WPM:         p.WPM,
		Accuracy:    p.Accuracy,
		CorrectHits: p.CorrectHits,
		TotalHits:   p.TotalHits,
		Streak:      p.Streak,
		IsFinished:  p.IsFinished,
	}
}
