package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"parley/internal/app/message"
)

func TestMatchesConversation(t *testing.T) {
	tests := []struct {
		name  string
		msg   message.Message
		local string
		peer  string
		want  bool
	}{
		{"broadcast visible in all view", message.Message{From: "x", To: "all"}, "a", "", true},
		{"broadcast visible in peer view", message.Message{From: "x", To: "all"}, "a", "b", true},
		{"own outgoing in all view", message.Message{From: "a", To: "c"}, "a", "", true},
		{"own incoming in all view", message.Message{From: "c", To: "a"}, "a", "all", true},
		{"unrelated direct hidden in all view", message.Message{From: "b", To: "c"}, "a", "", false},
		{"outgoing to peer", message.Message{From: "a", To: "b"}, "a", "b", true},
		{"incoming from peer", message.Message{From: "b", To: "a"}, "a", "b", true},
		{"outgoing to other peer hidden", message.Message{From: "a", To: "c"}, "a", "b", false},
		{"incoming from other peer hidden", message.Message{From: "c", To: "a"}, "a", "b", false},
		{"third-party flow hidden", message.Message{From: "b", To: "c"}, "a", "b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesConversation(tt.msg, tt.local, tt.peer))
		})
	}
}
