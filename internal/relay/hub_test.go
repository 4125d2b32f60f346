package relay

import (
	"testing"

	"github.com/typedash/typedash/internal/realtime"
)

type fakeConn struct {
	sent   []realtime.Envelope
	closed bool
}

func (f *fakeConn) WriteJSON(v any) error {
	env, ok := v.(realtime.Envelope)
	if !ok {
		panic("unexpected frame type")
	}
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func joinEnv(room, playerID, username string) realtime.Envelope {
	return realtime.Envelope{
		Type: realtime.MsgJoin,
		Room: room,
		Join: &realtime.Join{PlayerID: playerID, Username: username},
	}
}

func TestJoinReplaysExistingMembers(t *testing.T) {
	h := NewHub()
	host := &fakeConn{}
	guest := &fakeConn{}

	h.handleFrame(host, joinEnv("ABCD", "p1", "host"))
	h.handleFrame(guest, joinEnv("ABCD", "p2", "guest"))

	// Host hears the guest's join.
	if len(host.sent) != 1 || host.sent[0].Type != realtime.MsgJoin || host.sent[0].Join.PlayerID != "p2" {
		t.Fatalf("host received %+v", host.sent)
	}
	// Guest has the host's join replayed.
	if len(guest.sent) != 1 || guest.sent[0].Join.PlayerID != "p1" {
		t.Fatalf("guest received %+v", guest.sent)
	}
}

func TestRoomCapacity(t *testing.T) {
	h := NewHub()
	h.handleFrame(&fakeConn{}, joinEnv("ABCD", "p1", "a"))
	h.handleFrame(&fakeConn{}, joinEnv("ABCD", "p2", "b"))

	third := &fakeConn{}
	h.handleFrame(third, joinEnv("ABCD", "p3", "c"))
	if !third.closed {
		t.Fatal("third racer should be rejected")
	}
}

func TestInvalidRoomCodeRejected(t *testing.T) {
	h := NewHub()
	conn := &fakeConn{}
	h.handleFrame(conn, joinEnv("toolong!", "p1", "a"))
	if !conn.closed {
		t.Fatal("invalid room code should close the connection")
	}
}

func TestFramesForwardedToPeerOnly(t *testing.T) {
	h := NewHub()
	host := &fakeConn{}
	guest := &fakeConn{}
	h.handleFrame(host, joinEnv("ABCD", "p1", "host"))
	h.handleFrame(guest, joinEnv("ABCD", "p2", "guest"))
	host.sent = nil
	guest.sent = nil

	h.handleFrame(host, realtime.Envelope{
		Type:     realtime.MsgProgress,
		Room:     "ABCD",
		Progress: &realtime.ProgressSnap{PlayerID: "p1", WPM: 42},
	})

	if len(host.sent) != 0 {
		t.Fatalf("sender echoed its own frame: %+v", host.sent)
	}
	if len(guest.sent) != 1 || guest.sent[0].Progress.WPM != 42 {
		t.Fatalf("guest received %+v", guest.sent)
	}
}

func TestFrameBeforeJoinDropped(t *testing.T) {
	h := NewHub()
	conn := &fakeConn{}
	h.handleFrame(conn, realtime.Envelope{
		Type:     realtime.MsgProgress,
		Progress: &realtime.ProgressSnap{PlayerID: "p1"},
	})
	if len(conn.sent) != 0 || conn.closed {
		t.Fatalf("unjoined frame should be dropped silently")
	}
}

func TestDisconnectNotifiesPeer(t *testing.T) {
	h := NewHub()
	host := &fakeConn{}
	guest := &fakeConn{}
	h.handleFrame(host, joinEnv("ABCD", "p1", "host"))
	h.handleFrame(guest, joinEnv("ABCD", "p2", "guest"))
	host.sent = nil

	h.dropConn(guest)

	if len(host.sent) != 1 || host.sent[0].Type != realtime.MsgPeerGone {
		t.Fatalf("host received %+v", host.sent)
	}
	if len(h.rooms) != 1 {
		t.Fatalf("room should survive with one member")
	}

	h.dropConn(host)
	if len(h.rooms) != 0 {
		t.Fatalf("empty room should be removed")
	}
}
