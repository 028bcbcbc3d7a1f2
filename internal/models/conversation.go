package models

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// ConversationTurn is a single message within a session.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Query is one user request against the pipeline. Immutable input.
type Query struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
	ModelID   string `json:"model_id"`
}

// LastTurns returns the trailing n turns of a history, or the whole
// history when it is shorter.
func LastTurns(history []ConversationTurn, n int) []ConversationTurn {
	if n <= 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
