package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Client is the duel channel endpoint: a WebSocket connection to the
// relay scoped to one room. Inbound messages are delivered on a
// channel the UI drains; sends are serialized by a write lock.
type Client struct {
	conn    *websocket.Conn
	room    string
	inbound chan Envelope
	done    chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial connects to the relay, joins the given room, and starts the
// read loop. The inbound channel is closed when the connection drops.
func Dial(ctx context.Context, relayURL, room string, join Join) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, relayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay: %w", err)
	}
	c := &Client{
		conn:    conn,
		room:    room,
		inbound: make(chan Envelope, 32),
		done:    make(chan struct{}),
	}
	if err := c.send(Envelope{Type: MsgJoin, Room: room, Join: &join}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	go c.readLoop()
	return c, nil
}

// Inbound returns the channel of relay messages for this room.
func (c *Client) Inbound() <-chan Envelope {
	return c.inbound
}

// SendGameStart broadcasts the host-generated race parameters.
func (c *Client) SendGameStart(gs GameStart) error {
	return c.send(Envelope{Type: MsgGameStart, Room: c.room, GameStart: &gs})
}

// SendProgress broadcasts a progress snapshot.
func (c *Client) SendProgress(snap ProgressSnap) error {
	return c.send(Envelope{Type: MsgProgress, Room: c.room, Progress: &snap})
}

// SendFinish broadcasts a finish notification.
func (c *Client) SendFinish(playerID string) error {
	return c.send(Envelope{Type: MsgFinish, Room: c.room, Finish: &FinishNote{PlayerID: playerID}})
}

// Close tears down the connection. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) send(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.inbound)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			// Malformed frames are dropped, not fatal.
			continue
		}
		// Close must unblock a send parked on a full buffer, not just
		// the next ReadMessage.
		select {
		case c.inbound <- env:
		case <-c.done:
			return
		}
	}
}
