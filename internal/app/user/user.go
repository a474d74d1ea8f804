/*
Package user holds the wire-level user types.

The username is the sole identity in the system; there is no separate
numeric id. Durable user records exist only to carry the avatar, are
created lazily on first avatar upload, and cross the store boundary as
plain username/url pairs rather than a record type.
*/
package user

// OnlineUser is one entry of the presence snapshot broadcast to clients
// whenever membership changes. Avatar is null until the user uploads one.
type OnlineUser struct {
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}
