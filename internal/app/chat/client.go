package chat

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"parley/internal/pkg/logx"
	"parley/internal/pkg/metrics"
)

const (
	// timeout for writing to the websocket connection.
	writeWait = 10 * time.Second

	// maximum time the server waits for a Pong from the client.
	pongWait = 60 * time.Second

	// frequency of server Ping messages.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size in bytes of an inbound frame.
	maxFrameSize = 16384

	// capacity of the outbound send queue per client.
	sendQueueSize = 256
)

// Client represents one websocket connection. A connection starts
// anonymous; it acquires a username when its join event binds it in the
// presence registry, and handles all of its inbound events serially on its
// own read loop.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// username is set once on join and only ever read from the client's
	// own read loop afterwards.
	username string

	// send queues outbound frames for the write pump. Fan-out never
	// blocks on a slow client: a full queue drops the frame.
	send chan []byte

	logger zerolog.Logger
}

// NewClient wraps an upgraded websocket connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		logger: logx.Logger().With().Str("component", "Client").Logger(),
	}
}

// ReadPump reads frames from the connection and dispatches them until the
// connection closes. Events from this connection are handled one at a
// time, run to completion, in arrival order.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			break
		}

		c.processInboundFrame(frame)
	}
}

// processInboundFrame decodes the envelope and hands it to the hub. Any
// handler failure is contained here: it is logged and the connection
// lives on.
func (c *Client) processInboundFrame(frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Interface("panic", r).
				Str("username", c.username).
				Msg("Recovered from panic in event handler")
		}
	}()

	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		return
	}

	c.hub.dispatch(c, env)
}

// cleanupOnDisconnect runs when the read pump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.hub.Unregister(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// WritePump writes queued frames to the connection and keeps the
// heartbeat alive. It owns all writes on the socket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		// The send queue is never closed; shutdown closes the socket
		// instead, which fails the next write and ends the pump.
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Error().Err(err).Msg("Error writing frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue pushes a pre-marshaled frame onto the send queue, dropping it
// when the queue is full. A disconnected client's queue simply fills and
// drains nowhere; fan-out after a mid-flight disconnect is dropped here.
// It runs on the sender's goroutine, so the dropped-event log resolves
// the name through the registry rather than reading c.username.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		metrics.EventDropped()
		username, _ := c.hub.presence.BoundName(c)
		c.logger.Warn().
			Str("username", username).
			Int("queue_len", len(c.send)).
			Msg("Client send queue full, dropping event")
	}
}

// sendEvent marshals and enqueues a single-recipient event.
func (c *Client) sendEvent(eventType EventType, payload any) {
	frame, err := encodeEvent(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Error marshaling event")
		return
	}

	c.enqueue(frame)
}
