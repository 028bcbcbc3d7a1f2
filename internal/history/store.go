// Package history provides session conversation storage.
//
// Sessions are ordered, append-only sequences of turns keyed by session
// id, created lazily on first append. The pipeline only reads and
// appends; it never restructures a session.
package history

import (
	"context"
	"errors"

	"github.com/raphaelgruber/podrag-go/internal/models"
)

// ErrSessionNotFound is returned by Delete when no session exists for
// the id. It is a "nothing to delete" outcome, distinct from a storage
// failure.
var ErrSessionNotFound = errors.New("session not found")

// Store is the session history capability consumed by the pipeline.
type Store interface {
	// Get returns all turns of a session in append order. An unknown
	// session yields an empty history, not an error.
	Get(ctx context.Context, sessionID string) ([]models.ConversationTurn, error)

	// Append adds one turn to a session, creating it if needed.
	Append(ctx context.Context, sessionID string, turn models.ConversationTurn) error

	// Delete removes a session and its turns. Returns
	// ErrSessionNotFound when the session does not exist.
	Delete(ctx context.Context, sessionID string) error
}
