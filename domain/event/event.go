// Package event defines the socket wire contract: the envelope exchanged on
// a live connection and the event names both sides agree on. The names are
// part of the client contract and must not be renamed, including the
// historical "message recieved" spelling.
package event

import "encoding/json"

// Inbound event names.
const (
	Setup      = "setup"
	JoinChat   = "join chat"
	Typing     = "typing"
	StopTyping = "stop typing"
	NewMessage = "new message"
)

// Outbound event names.
const (
	Connected       = "connected"
	MessageReceived = "message recieved"
)

// Envelope is the unit of exchange on a socket connection. Payload stays raw:
// the relay only inspects the fields it needs and passes the rest through
// unmodified.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Participant is the minimal identity carried inside a message payload.
type Participant struct {
	ID string `json:"id"`
}

// ChatRef is the chat fragment of a message payload. Users is nil when the
// client sent a payload without a participant list, which the fan-out policy
// treats as a reportable condition.
type ChatRef struct {
	Users []Participant `json:"users"`
}

// MessagePayload is the minimum shape of a "new message" payload. Arbitrary
// extra fields are tolerated and preserved by keeping the raw payload
// alongside.
type MessagePayload struct {
	Sender Participant `json:"sender"`
	Chat   ChatRef     `json:"chat"`
}
