package chat

import (
	"encoding/json"

	"parley/internal/app/message"
	"parley/internal/app/user"
)

// EventType names a wire event. The identifiers are stable: clients depend
// on them verbatim.
type EventType string

// Inbound event types.
const (
	EventJoin           EventType = "join"
	EventTyping         EventType = "typing"
	EventChatMessage    EventType = "chatMessage"
	EventReact          EventType = "react"
	EventDelivered      EventType = "delivered"
	EventSeen           EventType = "seen"
	EventRequestHistory EventType = "requestHistory"
)

// Outbound event types.
const (
	EventOnlineUsers    EventType = "onlineUsers"
	EventMessage        EventType = "message"
	EventLoadMessages   EventType = "loadMessages"
	EventReactionUpdate EventType = "reactionUpdate"
	EventStatusUpdate   EventType = "statusUpdate"
)

// envelope frames every event in both directions.
type envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TypingPayload carries a typing notification; it is forwarded verbatim.
type TypingPayload struct {
	From string `json:"from"`
	To   string `json:"to,omitempty"`
}

// ChatMessagePayload is the inbound new-message event.
type ChatMessagePayload struct {
	From       string              `json:"from"`
	To         string              `json:"to,omitempty"`
	Text       string              `json:"text,omitempty"`
	Attachment *message.Attachment `json:"attachment,omitempty"`
}

// ReactPayload toggles a reaction on behalf of the connection's user.
type ReactPayload struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

// StatusPayload acknowledges delivery or read state for a message.
type StatusPayload struct {
	MessageID string `json:"messageId"`
}

// HistoryRequestPayload asks for the requester's conversation with a peer;
// an absent peer means the full "all" view.
type HistoryRequestPayload struct {
	With string `json:"with,omitempty"`
}

// ReactionUpdatePayload broadcasts the full reaction list after a toggle.
type ReactionUpdatePayload struct {
	MessageID string             `json:"messageId"`
	Reactions []message.Reaction `json:"reactions"`
}

// StatusUpdatePayload broadcasts a status flip. Exactly one of the two
// flags is present per event.
type StatusUpdatePayload struct {
	MessageID string `json:"messageId"`
	Delivered *bool  `json:"delivered,omitempty"`
	Seen      *bool  `json:"seen,omitempty"`
}

// OnlineUsersPayload is the presence snapshot.
type OnlineUsersPayload []user.OnlineUser

// encodeEvent frames payload in an envelope and marshals it once, so a
// broadcast serializes a single time regardless of audience size.
func encodeEvent(eventType EventType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(envelope{Type: eventType, Payload: raw})
}
