package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceBindResolve(t *testing.T) {
	p := NewPresence()
	h1 := &Client{}

	p.Bind("alice", h1)

	got, ok := p.Resolve("alice")
	require.True(t, ok)
	assert.Same(t, h1, got)

	_, ok = p.Resolve("bob")
	assert.False(t, ok)
}

func TestPresenceRebindIsLastWriteWins(t *testing.T) {
	p := NewPresence()
	h1 := &Client{}
	h2 := &Client{}

	p.Bind("alice", h1)
	p.Bind("alice", h2)

	got, ok := p.Resolve("alice")
	require.True(t, ok)
	assert.Same(t, h2, got)

	// A late disconnect of the displaced handle must not clobber the
	// newer binding.
	_, removed := p.Unbind(h1)
	assert.False(t, removed)

	got, ok = p.Resolve("alice")
	require.True(t, ok)
	assert.Same(t, h2, got)
}

func TestPresenceHandleRejoinsUnderNewName(t *testing.T) {
	p := NewPresence()
	h1 := &Client{}

	p.Bind("alice", h1)
	p.Bind("alicia", h1)

	// The first name is abandoned silently.
	_, ok := p.Resolve("alice")
	assert.False(t, ok)

	got, ok := p.Resolve("alicia")
	require.True(t, ok)
	assert.Same(t, h1, got)

	assert.Equal(t, []string{"alicia"}, p.Snapshot())
}

func TestPresenceUnbindReturnsUsername(t *testing.T) {
	p := NewPresence()
	h1 := &Client{}

	p.Bind("alice", h1)

	name, ok := p.Unbind(h1)
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	_, ok = p.Resolve("alice")
	assert.False(t, ok)

	// Unbinding again is a no-op.
	_, ok = p.Unbind(h1)
	assert.False(t, ok)
}

func TestPresenceBoundName(t *testing.T) {
	p := NewPresence()
	h1 := &Client{}

	_, ok := p.BoundName(h1)
	assert.False(t, ok)

	p.Bind("alice", h1)

	name, ok := p.BoundName(h1)
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	// A displaced handle no longer reports the name.
	h2 := &Client{}
	p.Bind("alice", h2)

	_, ok = p.BoundName(h1)
	assert.False(t, ok)
}

func TestPresenceSnapshotIsSorted(t *testing.T) {
	p := NewPresence()

	p.Bind("carol", &Client{})
	p.Bind("alice", &Client{})
	p.Bind("bob", &Client{})

	assert.Equal(t, []string{"alice", "bob", "carol"}, p.Snapshot())
}
