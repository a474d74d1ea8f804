package randx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolatileMessageIDsAreUniqueAndPrefixed(t *testing.T) {
	seen := make(map[string]struct{})

	for range 1000 {
		id := VolatileMessageID()
		assert.True(t, strings.HasPrefix(id, VolatileIDPrefix))

		_, dup := seen[id]
		assert.False(t, dup, "duplicate volatile id %s", id)
		seen[id] = struct{}{}
	}
}

func TestSystemMessageIDPrefix(t *testing.T) {
	assert.True(t, strings.HasPrefix(SystemMessageID(), SystemIDPrefix))
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"alice", true},
		{"Alice_99", true},
		{"点心", true},
		{"", false},
		{"   ", false},
		{"all", false},
		{"ALL", false},
		{"system", false},
		{"System", false},
		{strings.Repeat("x", MaxUsernameLength), true},
		{strings.Repeat("x", MaxUsernameLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidUsername(tt.name))
		})
	}
}
