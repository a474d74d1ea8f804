/*
Package chat contains the real-time core: the presence registry mapping
usernames to live connections, the websocket client lifecycle, and the hub
that routes inbound events to outbound fan-out.
*/
package chat

import (
	"sort"
	"sync"
)

// Presence is the source of truth for who is online and where to deliver a
// targeted event. It guarantees each username maps to at most one live
// connection at any instant, last-write-wins.
type Presence struct {
	mu     sync.RWMutex
	byName map[string]*Client
	byConn map[*Client]string
}

// NewPresence returns an empty registry.
func NewPresence() *Presence {
	return &Presence{
		byName: make(map[string]*Client),
		byConn: make(map[*Client]string),
	}
}

// Bind maps username to c, silently replacing any prior connection bound to
// that username and any prior username bound to that connection. The
// displaced connection stays open; it simply stops being the delivery
// target for the name.
func (p *Presence) Bind(username string, c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.byName[username]; ok && old != c {
		delete(p.byConn, old)
	}
	if oldName, ok := p.byConn[c]; ok && oldName != username {
		delete(p.byName, oldName)
	}

	p.byName[username] = c
	p.byConn[c] = username
}

// Unbind removes c's binding and returns the username it held. A stale
// handle (already displaced by a reconnect) is a no-op, so a late
// disconnect never clobbers a newer binding.
func (p *Presence) Unbind(c *Client) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	username, ok := p.byConn[c]
	if !ok {
		return "", false
	}

	delete(p.byConn, c)
	delete(p.byName, username)

	return username, true
}

// BoundName returns the username currently bound to c. Fan-out paths use
// it for logging from foreign goroutines instead of touching the
// connection's own state.
func (p *Presence) BoundName(c *Client) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	username, ok := p.byConn[c]
	return username, ok
}

// Resolve returns the live connection bound to username.
func (p *Presence) Resolve(username string) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	c, ok := p.byName[username]
	return c, ok
}

// Snapshot returns the currently bound usernames in stable order.
func (p *Presence) Snapshot() []string {
	p.mu.RLock()
	names := make([]string, 0, len(p.byName))
	for name := range p.byName {
		names = append(names, name)
	}
	p.mu.RUnlock()

	sort.Strings(names)
	return names
}
