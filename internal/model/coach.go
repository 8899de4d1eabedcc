package model

import "time"

// CoachMessage is one side of a coach conversation.
type CoachMessage struct {
	ID        uint64    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Model     string    `json:"model"`
	TokensIn  int       `json:"tokens_in,omitempty"`
	TokensOut int       `json:"tokens_out,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
