package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"parley/internal/app/message"
	"parley/internal/pkg/randx"
)

// Volatile is the in-process fallback store. Messages and avatars live in
// memory only and are lost when the process exits; this data loss is the
// documented degraded-mode contract, not an accident.
type Volatile struct {
	mu       sync.RWMutex
	messages []message.Message
	avatars  map[string]string
}

// NewVolatile returns an empty volatile store.
func NewVolatile() *Volatile {
	return &Volatile{
		avatars: make(map[string]string),
	}
}

// Name implements message.Store.
func (v *Volatile) Name() string { return BackendVolatile }

// SaveMessage appends m with a locally minted id and the current time.
// The "mem_" prefix keeps volatile ids disjoint from durable uuids.
func (v *Volatile) SaveMessage(_ context.Context, m message.Message) (message.Message, error) {
	m.ID = randx.VolatileMessageID()
	m.CreatedAt = time.Now().UTC()
	m.Delivered = false
	m.Seen = false
	m.Reactions = []message.Reaction{}

	v.mu.Lock()
	v.messages = append(v.messages, m)
	v.mu.Unlock()

	return m, nil
}

// UpdateStatus sets the named flag on the message with the given id.
func (v *Volatile) UpdateStatus(_ context.Context, id string, field message.StatusField) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.messages {
		if v.messages[i].ID != id {
			continue
		}
		switch field {
		case message.StatusDelivered:
			v.messages[i].Delivered = true
		case message.StatusSeen:
			v.messages[i].Seen = true
		}
		return nil
	}

	return message.ErrNotFound
}

// Query filters the buffered messages with the shared conversation
// predicate and returns the last QueryLimit matches in ascending creation
// order. The buffer is not necessarily insertion-ordered after concurrent
// writers, so the matches are sorted explicitly before trimming.
func (v *Volatile) Query(_ context.Context, username, peer string) ([]message.Message, error) {
	v.mu.RLock()

	matched := make([]message.Message, 0, len(v.messages))
	for _, m := range v.messages {
		if matchesConversation(m, username, peer) {
			matched = append(matched, copyMessage(m))
		}
	}

	v.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if len(matched) > QueryLimit {
		matched = matched[len(matched)-QueryLimit:]
	}

	return matched, nil
}

// FindAvatars returns the avatars explicitly set in this process; users
// who never uploaded one are absent.
func (v *Volatile) FindAvatars(_ context.Context, usernames []string) (map[string]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	found := make(map[string]string, len(usernames))
	for _, name := range usernames {
		if url, ok := v.avatars[name]; ok {
			found[name] = url
		}
	}

	return found, nil
}

// UpsertAvatar records url as the avatar of username.
func (v *Volatile) UpsertAvatar(_ context.Context, username, url string) error {
	v.mu.Lock()
	v.avatars[username] = url
	v.mu.Unlock()

	return nil
}

// ToggleReaction removes the (emoji, by) reaction if present, otherwise
// appends it, and returns a copy of the resulting list.
func (v *Volatile) ToggleReaction(_ context.Context, id, emoji, by string) ([]message.Reaction, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.messages {
		if v.messages[i].ID != id {
			continue
		}

		v.messages[i].Reactions = toggleReaction(v.messages[i].Reactions, emoji, by)

		out := make([]message.Reaction, len(v.messages[i].Reactions))
		copy(out, v.messages[i].Reactions)
		return out, true, nil
	}

	return nil, false, nil
}

// toggleReaction applies the at-most-one-per-(emoji,by) constraint.
func toggleReaction(reactions []message.Reaction, emoji, by string) []message.Reaction {
	for i, r := range reactions {
		if r.Emoji == emoji && r.By == by {
			return append(reactions[:i:i], reactions[i+1:]...)
		}
	}
	return append(reactions, message.Reaction{Emoji: emoji, By: by})
}

// copyMessage deep-copies the reaction slice so callers never alias the
// store's internal state.
func copyMessage(m message.Message) message.Message {
	reactions := make([]message.Reaction, len(m.Reactions))
	copy(reactions, m.Reactions)
	m.Reactions = reactions
	return m
}
