package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"chat-server/domain/event"
	"chat-server/relay"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
)

// Client owns one websocket connection: a read pump feeding inbound
// envelopes to the relay and a write pump draining the buffered send
// channel the relay delivers into.
type Client struct {
	connID string
	conn   *websocket.Conn
	send   chan []byte
	relay  *relay.Relay
	log    *slog.Logger
}

func newClient(connID string, conn *websocket.Conn, sendBufferSize int,
	r *relay.Relay, log *slog.Logger) *Client {
	conn.SetReadLimit(maxMessageSize)
	return &Client{
		connID: connID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		relay:  r,
		log:    log,
	}
}

// readPump decodes inbound envelopes and hands them to the relay, one at a
// time in receipt order. A malformed frame is skipped; the connection stays
// up. Returning from readPump is the disconnect signal: the deferred cleanup
// is the transport-driven removal from every joined room.
func (c *Client) readPump(onDisconnect func(connID string)) {
	// The send channel is never closed: a broadcast snapshotted before
	// Disconnect may still consume the sink, and writing to a closed
	// channel would panic the sender. The write pump exits on its own once
	// the connection is gone.
	defer func() {
		onDisconnect(c.connID)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.log.Warn("Unexpected websocket close", "conn_id", c.connID, "error", err)
			}
			return
		}

		var env event.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.log.Debug("Dropping malformed frame", "conn_id", c.connID, "error", err)
			continue
		}

		emissions := c.relay.Handle(c.connID, env)
		c.relay.Deliver(emissions)
	}
}

// writePump serializes all writes for the connection and keeps it alive
// with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
