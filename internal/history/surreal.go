package history

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/podrag-go/internal/models"
	"github.com/raphaelgruber/podrag-go/internal/surreal"
	"github.com/surrealdb/surrealdb.go"
)

// Schema is the DDL for the session turn table.
const Schema = `
    DEFINE TABLE IF NOT EXISTS turn SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS session_id ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS role ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS content ON turn TYPE string;
    DEFINE FIELD IF NOT EXISTS created ON turn TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS turn_session ON turn FIELDS session_id;
`

// SurrealStore persists session history in SurrealDB.
type SurrealStore struct {
	client *surreal.Client
}

// NewSurrealStore creates a SurrealDB-backed history store and ensures
// its schema exists.
func NewSurrealStore(ctx context.Context, client *surreal.Client) (*SurrealStore, error) {
	if err := client.InitSchema(ctx, Schema); err != nil {
		return nil, fmt.Errorf("history schema: %w", err)
	}
	return &SurrealStore{client: client}, nil
}

// Get returns all turns of a session in append order.
func (s *SurrealStore) Get(ctx context.Context, sessionID string) ([]models.ConversationTurn, error) {
	results, err := surrealdb.Query[[]models.ConversationTurn](ctx, s.client.DB(), `
		SELECT role, content, created AS created_at FROM turn
		WHERE session_id = $sid ORDER BY created ASC
	`, map[string]any{"sid": sessionID})
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.ConversationTurn{}, nil
	}
	return (*results)[0].Result, nil
}

// Append adds a turn to a session.
func (s *SurrealStore) Append(ctx context.Context, sessionID string, turn models.ConversationTurn) error {
	_, err := surrealdb.Query[any](ctx, s.client.DB(), `
		CREATE turn SET session_id = $sid, role = $role, content = $content
	`, map[string]any{
		"sid":     sessionID,
		"role":    string(turn.Role),
		"content": turn.Content,
	})
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// Delete removes a session's turns, reporting ErrSessionNotFound when
// the session had none.
func (s *SurrealStore) Delete(ctx context.Context, sessionID string) error {
	counts, err := surrealdb.Query[[]countRow](ctx, s.client.DB(), `
		SELECT count() AS count FROM turn WHERE session_id = $sid GROUP ALL
	`, map[string]any{"sid": sessionID})
	if err != nil {
		return fmt.Errorf("count session turns: %w", err)
	}
	if counts == nil || len(*counts) == 0 || len((*counts)[0].Result) == 0 || (*counts)[0].Result[0].Count == 0 {
		return ErrSessionNotFound
	}

	if _, err := surrealdb.Query[any](ctx, s.client.DB(), `
		DELETE turn WHERE session_id = $sid
	`, map[string]any{"sid": sessionID}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type countRow struct {
	Count int `json:"count"`
}
