/*
Package randx generates unique identifiers and validates user-supplied names.

Volatile and synthetic message identifiers are minted here. They are
prefixed so they can never collide with the uuid identifiers assigned by the
durable store: the three id spaces stay disjoint for the process lifetime.
*/
package randx

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// VolatileIDPrefix marks message ids minted by the in-process store.
	VolatileIDPrefix = "mem_"

	// SystemIDPrefix marks ids of synthetic system messages (join/left
	// announcements) that are never persisted.
	SystemIDPrefix = "sys_"

	// MaxUsernameLength bounds the accepted username length in runes.
	MaxUsernameLength = 32
)

// VolatileMessageID mints an identifier for a message saved by the volatile
// store: a uuid v4 behind the volatile prefix.
func VolatileMessageID() string {
	return VolatileIDPrefix + uuid.New().String()
}

// SystemMessageID mints an identifier for a synthetic system message.
func SystemMessageID() string {
	return SystemIDPrefix + uuid.New().String()
}

// IsValidUsername reports whether name is acceptable as a chat identity:
// non-empty after trimming, within the length bound, and not a reserved
// wire keyword.
func IsValidUsername(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxUsernameLength {
		return false
	}

	// "all" is the broadcast address and "system" signs synthetic messages.
	switch strings.ToLower(name) {
	case "all", "system":
		return false
	}

	return true
}
