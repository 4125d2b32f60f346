// Package relay implements the duel relay: a WebSocket hub that pairs
// two racers in a room and forwards their frames to each other.
package relay

import (
	"log/slog"

	"github.com/typedash/typedash/internal/realtime"
)

// roomSize caps a room at exactly two racers.
const roomSize = 2

type eventType int

const (
	evRegister eventType = iota
	evUnregister
	evFrame
)

// peerConn is the write side of one connected racer.
type peerConn interface {
	WriteJSON(v any) error
	Close() error
}

type event struct {
	conn peerConn
	t    eventType
	env  realtime.Envelope
}

type member struct {
	conn peerConn
	room string
	join realtime.Join
}

// Hub owns all rooms. A single Run loop processes every event, so room
// state needs no locks.
type Hub struct {
	events  chan event
	rooms   map[string]map[peerConn]*member
	byConn  map[peerConn]*member
	pending map[peerConn]struct{}
}

// NewHub returns an idle hub. Call Run on its own goroutine before
// serving connections.
func NewHub() *Hub {
	return &Hub{
		events:  make(chan event, 64),
		rooms:   map[string]map[peerConn]*member{},
		byConn:  map[peerConn]*member{},
		pending: map[peerConn]struct{}{},
	}
}

// Run processes hub events until the event channel closes.
func (h *Hub) Run() {
	for e := range h.events {
		switch e.t {
		case evRegister:
			h.pending[e.conn] = struct{}{}
		case evUnregister:
			h.dropConn(e.conn)
		case evFrame:
			h.handleFrame(e.conn, e.env)
		}
	}
}

func (h *Hub) handleFrame(conn peerConn, env realtime.Envelope) {
	if env.Type == realtime.MsgJoin {
		h.handleJoin(conn, env)
		return
	}
	m, ok := h.byConn[conn]
	if !ok {
		slog.Warn("frame before join", "type", env.Type)
		return
	}
	env.Room = m.room
	h.broadcast(m.room, conn, env)
}

func (h *Hub) handleJoin(conn peerConn, env realtime.Envelope) {
	if env.Join == nil || !realtime.ValidRoomCode(env.Room) {
		slog.Warn("rejecting malformed join", "room", env.Room)
		h.closeConn(conn)
		return
	}
	if _, already := h.byConn[conn]; already {
		return
	}
	room := h.rooms[env.Room]
	if len(room) >= roomSize {
		slog.Info("room full", "room", env.Room)
		h.closeConn(conn)
		return
	}
	if room == nil {
		room = map[peerConn]*member{}
		h.rooms[env.Room] = room
	}

	m := &member{conn: conn, room: env.Room, join: *env.Join}
	room[conn] = m
	h.byConn[conn] = m
	delete(h.pending, conn)
	slog.Info("racer joined", "room", env.Room, "player", env.Join.PlayerID, "size", len(room))

	// Replay existing joins to the newcomer so both sides learn their
	// opponent's identity regardless of arrival order.
	for _, other := range room {
		if other.conn == conn {
			continue
		}
		join := other.join
		h.send(conn, realtime.Envelope{Type: realtime.MsgJoin, Room: m.room, Join: &join})
	}
	h.broadcast(m.room, conn, env)
}

// broadcast forwards env to every member of the room except the sender.
func (h *Hub) broadcast(room string, from peerConn, env realtime.Envelope) {
	for conn := range h.rooms[room] {
		if conn == from {
			continue
		}
		h.send(conn, env)
	}
}

func (h *Hub) dropConn(conn peerConn) {
	delete(h.pending, conn)
	m, ok := h.byConn[conn]
	if !ok {
		return
	}
	delete(h.byConn, conn)
	room := h.rooms[m.room]
	delete(room, conn)
	if len(room) == 0 {
		delete(h.rooms, m.room)
	}
	slog.Info("racer left", "room", m.room, "player", m.join.PlayerID)
	h.broadcast(m.room, nil, realtime.Envelope{Type: realtime.MsgPeerGone, Room: m.room})
}

func (h *Hub) send(conn peerConn, env realtime.Envelope) {
	if err := conn.WriteJSON(env); err != nil {
		slog.Error("relay send failed", "error", err)
	}
}

func (h *Hub) closeConn(conn peerConn) {
	if err := conn.Close(); err != nil {
		// Best-effort close for rejected connections.
		_ = err
	}
}
