package domain

import "time"

// Chat is a conversation between two users (direct) or more (group). Users
// is always populated in API responses so the client can run the socket
// fan-out against it.
type Chat struct {
	ID            string    `json:"id"`
	Name          string    `json:"chatName,omitempty"`
	IsGroup       bool      `json:"isGroupChat"`
	Users         []User    `json:"users"`
	GroupAdmin    *User     `json:"groupAdmin,omitempty"`
	LatestMessage *Message  `json:"latestMessage,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
