/*
Package message defines the message data model and the service that
orchestrates persistence, enrichment, and mutation of messages.
*/
package message

import (
	"errors"
	"time"
)

// Broadcast is the reserved address for messages visible to everyone.
// Broadcast messages appear in every peer-scoped conversation view.
const Broadcast = "all"

// MaxContentBytes is the maximum allowed size of the message text.
const MaxContentBytes = 5000

// ErrNotFound reports that a message id did not resolve against the store
// that is currently active. Reaction and status mutations treat it as a
// silent no-op.
var ErrNotFound = errors.New("message not found")

// Attachment is the url/metadata triple produced by the attachment
// resolver. The core never handles raw file bytes.
type Attachment struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// Reaction is a single emoji reaction on a message. At most one reaction
// exists per (emoji, by) pair; toggling removes or re-adds it.
type Reaction struct {
	Emoji string `json:"emoji"`
	By    string `json:"by"`
}

// Message is a chat message as held by either store backend.
//
// A message is accepted when at least one of Text or Attachment is present.
// The id is assigned by the durable store (uuid) or minted locally by the
// volatile store ("mem_" prefix); the two id spaces never overlap.
type Message struct {
	ID         string      `json:"id"`
	From       string      `json:"from"`
	To         string      `json:"to"`
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Delivered  bool        `json:"delivered"`
	Seen       bool        `json:"seen"`
	Reactions  []Reaction  `json:"reactions"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Enriched is a Message merged with the sender's current avatar URL at
// read time. The avatar is best-effort: it is null when the sender never
// uploaded one or the lookup failed, and the wire always carries the
// explicit null rather than omitting the field.
type Enriched struct {
	Message
	Avatar *string `json:"avatar"`
}

// StatusField names one of the two delivery-state flags on a message.
type StatusField string

const (
	StatusDelivered StatusField = "delivered"
	StatusSeen      StatusField = "seen"
)

// Valid reports whether f names a known status field.
func (f StatusField) Valid() bool {
	return f == StatusDelivered || f == StatusSeen
}
