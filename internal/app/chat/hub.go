package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"parley/internal/app/message"
	"parley/internal/app/user"
	"parley/internal/pkg/logx"
	"parley/internal/pkg/metrics"
	"parley/internal/pkg/randx"
)

// SystemUsername signs the synthetic join/left announcements.
const SystemUsername = "system"

// Hub is the event fan-out router. It tracks every open connection, owns
// the presence registry, and decides which connections receive which
// outbound events. Handlers run on the calling connection's read loop;
// the hub itself only guards shared state, so one connection's store call
// never blocks another connection's events.
type Hub struct {
	svc      *message.Service
	presence *Presence

	mu    sync.RWMutex
	conns map[*Client]struct{}

	logger zerolog.Logger
}

// NewHub builds a Hub over the message service.
func NewHub(svc *message.Service) *Hub {
	return &Hub{
		svc:      svc,
		presence: NewPresence(),
		conns:    make(map[*Client]struct{}),
		logger:   logx.Logger().With().Str("component", "Hub").Logger(),
	}
}

// Register adds a freshly upgraded connection in the anonymous state.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	metrics.ConnOpened()
}

// Unregister removes a closed connection. If it still held a presence
// binding, the departure is announced: updated snapshot plus a synthetic
// "left" message.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, tracked := h.conns[c]
	delete(h.conns, c)
	h.mu.Unlock()

	if !tracked {
		return
	}

	metrics.ConnClosed()

	if username, ok := h.presence.Unbind(c); ok {
		h.logger.Info().Str("username", username).Msg("User disconnected")
		h.broadcastPresence()
		h.broadcastSystemMessage(username + " left the chat")
	}
}

// Shutdown closes every open socket, which terminates each client's read
// and write pumps; the read pumps then unregister themselves.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	open := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		open = append(open, c)
	}
	h.mu.RUnlock()

	for _, c := range open {
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// dispatch routes one inbound event. Anonymous connections may only join;
// everything else requires a bound username. Failures are logged and
// swallowed: with the exception of requestHistory, which answers an empty
// list, a failed operation produces no reply.
func (h *Hub) dispatch(c *Client, env envelope) {
	if env.Type == EventJoin {
		h.handleJoin(c, env.Payload)
		return
	}

	if c.username == "" {
		h.logger.Warn().Str("event_type", string(env.Type)).Msg("Event from anonymous connection ignored")
		return
	}

	switch env.Type {
	case EventChatMessage:
		h.handleChatMessage(c, env.Payload)
	case EventTyping:
		h.handleTyping(c, env.Payload)
	case EventReact:
		h.handleReact(c, env.Payload)
	case EventDelivered:
		h.handleStatus(c, env.Payload, message.StatusDelivered)
	case EventSeen:
		h.handleStatus(c, env.Payload, message.StatusSeen)
	case EventRequestHistory:
		h.handleRequestHistory(c, env.Payload)
	default:
		h.logger.Warn().Str("event_type", string(env.Type)).Msg("Client sent unsupported event type")
	}
}

// handleJoin binds the connection to a username and announces the arrival:
// presence snapshot to everyone, a synthetic system message to everyone,
// and the joining user's own history back to them alone.
func (h *Hub) handleJoin(c *Client, payload json.RawMessage) {
	var username string
	if err := json.Unmarshal(payload, &username); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid join payload")
		return
	}

	username = strings.TrimSpace(username)
	if !randx.IsValidUsername(username) {
		c.logger.Warn().Str("username", username).Msg("Join rejected: invalid username")
		return
	}

	c.username = username
	h.presence.Bind(username, c)
	h.logger.Info().Str("username", username).Msg("User joined")

	h.broadcastPresence()
	h.broadcastSystemMessage(username + " joined the chat")

	history, err := h.svc.History(context.Background(), username, message.Broadcast)
	if err != nil {
		history = []message.Enriched{}
	}
	c.sendEvent(EventLoadMessages, history)
}

// handleChatMessage persists the message, then fans it out: broadcast for
// the "all" channel, otherwise the sender plus the addressee if online.
// An offline addressee still gets the message later through history.
func (h *Hub) handleChatMessage(c *Client, payload json.RawMessage) {
	var p ChatMessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid chatMessage payload")
		return
	}

	// The connection's bound identity wins over whatever the payload claims.
	p.From = c.username

	enriched, err := h.svc.PostMessage(context.Background(), p.From, p.To, p.Text, p.Attachment)
	if err != nil {
		c.logger.Warn().Err(err).Str("from", p.From).Msg("Message rejected")
		return
	}

	if enriched.To == message.Broadcast {
		h.broadcast(EventMessage, enriched)
		return
	}

	frame, err := encodeEvent(EventMessage, enriched)
	if err != nil {
		h.logger.Error().Err(err).Msg("Error marshaling message event")
		return
	}

	c.enqueue(frame)
	if target, ok := h.presence.Resolve(enriched.To); ok && target != c {
		target.enqueue(frame)
	}
}

// handleTyping forwards the original payload: unicast when aimed at a
// specific online user, otherwise broadcast to everyone but the sender.
func (h *Hub) handleTyping(c *Client, payload json.RawMessage) {
	var p TypingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid typing payload")
		return
	}

	p.From = c.username

	if p.To != "" && p.To != message.Broadcast {
		if target, ok := h.presence.Resolve(p.To); ok {
			target.sendEvent(EventTyping, p)
		}
		return
	}

	h.broadcastExcept(c, EventTyping, p)
}

// handleReact toggles the reaction and broadcasts the resulting list to
// every connection. An unknown message id is a silent no-op with no
// broadcast.
func (h *Hub) handleReact(c *Client, payload json.RawMessage) {
	var p ReactPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid react payload")
		return
	}

	reactions, found, err := h.svc.ToggleReaction(context.Background(), p.MessageID, p.Emoji, c.username)
	if err != nil || !found {
		return
	}

	h.broadcast(EventReactionUpdate, ReactionUpdatePayload{
		MessageID: p.MessageID,
		Reactions: reactions,
	})
}

// handleStatus flips a delivery-state flag and broadcasts the change. An
// unknown message id is a silent no-op with no broadcast.
func (h *Hub) handleStatus(c *Client, payload json.RawMessage, field message.StatusField) {
	var p StatusPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid status payload")
		return
	}

	found, err := h.svc.SetStatus(context.Background(), p.MessageID, field)
	if err != nil || !found {
		return
	}

	set := true
	update := StatusUpdatePayload{MessageID: p.MessageID}
	if field == message.StatusDelivered {
		update.Delivered = &set
	} else {
		update.Seen = &set
	}

	h.broadcast(EventStatusUpdate, update)
}

// handleRequestHistory answers the requester alone. Internal failures are
// downgraded to an empty list rather than an error event.
func (h *Hub) handleRequestHistory(c *Client, payload json.RawMessage) {
	var p HistoryRequestPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid requestHistory payload")
		return
	}

	history, err := h.svc.History(context.Background(), c.username, p.With)
	if err != nil {
		history = []message.Enriched{}
	}

	c.sendEvent(EventLoadMessages, history)
}

// broadcastPresence recomputes the online snapshot, enriches it with
// avatars in one batch lookup, and sends it to every connection. A failed
// avatar lookup degrades to a snapshot without avatars.
func (h *Hub) broadcastPresence() {
	names := h.presence.Snapshot()
	avatars := h.svc.Avatars(context.Background(), names)

	snapshot := make(OnlineUsersPayload, 0, len(names))
	for _, name := range names {
		var avatar *string
		if url, ok := avatars[name]; ok {
			avatar = &url
		}
		snapshot = append(snapshot, user.OnlineUser{Name: name, Avatar: avatar})
	}

	h.broadcast(EventOnlineUsers, snapshot)
}

// broadcastSystemMessage fans out a synthetic, never-persisted message
// addressed to the broadcast channel.
func (h *Hub) broadcastSystemMessage(text string) {
	h.broadcast(EventMessage, message.Enriched{
		Message: message.Message{
			ID:        randx.SystemMessageID(),
			From:      SystemUsername,
			To:        message.Broadcast,
			Text:      text,
			Reactions: []message.Reaction{},
			CreatedAt: time.Now().UTC(),
		},
	})
}

// broadcast sends one event to every open connection.
func (h *Hub) broadcast(eventType EventType, payload any) {
	h.fanOut(nil, eventType, payload)
}

// broadcastExcept sends one event to every open connection but skip.
func (h *Hub) broadcastExcept(skip *Client, eventType EventType, payload any) {
	h.fanOut(skip, eventType, payload)
}

func (h *Hub) fanOut(skip *Client, eventType EventType, payload any) {
	frame, err := encodeEvent(eventType, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Error marshaling broadcast event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		if c == skip {
			continue
		}
		c.enqueue(frame)
	}
}
