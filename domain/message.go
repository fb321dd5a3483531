package domain

import "time"

// Message is a persisted chat message with its sender and chat populated,
// the document the client emits back on the socket as "new message".
type Message struct {
	ID        string    `json:"id"`
	Sender    User      `json:"sender"`
	Content   string    `json:"content"`
	Lang      string    `json:"lang,omitempty"`
	Chat      Chat      `json:"chat"`
	CreatedAt time.Time `json:"createdAt"`
}
