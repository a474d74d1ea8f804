/*
Package store provides the two message store backends and the connectivity
monitor that selects between them.

The durable backend keeps messages in Postgres; the volatile backend keeps
them in process memory and loses them on restart. Both implement
message.Store and apply identical conversation-routing semantics, so a
switch between them changes durability, never query behavior.
*/
package store

import "parley/internal/app/message"

// QueryLimit bounds every history query to the most recent matches.
const QueryLimit = 500

// Backend names reported by Store.Name and the liveness endpoint.
const (
	BackendDurable  = "durable"
	BackendVolatile = "volatile"
)

// matchesConversation is the routing predicate shared by both backends.
//
// With peer empty or "all", the view contains broadcast messages plus
// everything sent by or addressed to the local user. With a concrete peer,
// it contains broadcast messages plus the two directed flows between the
// local user and that peer: "all" is a superset channel, not a separate
// room.
func matchesConversation(m message.Message, local, peer string) bool {
	if m.To == message.Broadcast {
		return true
	}

	if peer == "" || peer == message.Broadcast {
		return m.To == local || m.From == local
	}

	return (m.From == local && m.To == peer) || (m.From == peer && m.To == local)
}
