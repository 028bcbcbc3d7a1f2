package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/podrag-go/internal/filter"
	"github.com/raphaelgruber/podrag-go/internal/models"
	"github.com/raphaelgruber/podrag-go/internal/surreal"
	"github.com/surrealdb/surrealdb.go"
)

// knnEF is the HNSW search ef parameter; 40 trades recall for speed
// the same way the corpus ingestion sized the index.
const knnEF = 40

// SchemaTemplate is the DDL for the episode document table. The HNSW
// dimension must match the configured embedder.
const SchemaTemplate = `
    DEFINE TABLE IF NOT EXISTS episode_doc SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS content ON episode_doc TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON episode_doc TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS episode_number ON episode_doc TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS episode_name ON episode_doc TYPE string;
    DEFINE FIELD IF NOT EXISTS episode_tags ON episode_doc TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS file_id ON episode_doc TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON episode_doc TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS episode_doc_number ON episode_doc FIELDS episode_number;
    DEFINE INDEX IF NOT EXISTS episode_doc_embedding ON episode_doc FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
`

// Surreal is the SurrealDB-backed vector index.
type Surreal struct {
	client   *surreal.Client
	embedder Embedder
	logger   *slog.Logger
}

// NewSurreal creates the index and ensures its schema exists with the
// embedder's dimension.
func NewSurreal(ctx context.Context, client *surreal.Client, embedder Embedder, dimension int, logger *slog.Logger) (*Surreal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := client.InitSchema(ctx, fmt.Sprintf(SchemaTemplate, dimension)); err != nil {
		return nil, fmt.Errorf("index schema: %w", err)
	}
	return &Surreal{client: client, embedder: embedder, logger: logger}, nil
}

type docRow struct {
	Content       string   `json:"content"`
	EpisodeNumber *int     `json:"episode_number"`
	EpisodeName   string   `json:"episode_name"`
	EpisodeTags   []string `json:"episode_tags"`
	FileID        string   `json:"file_id"`
}

// SimilaritySearch embeds the query and runs a KNN search, restricted by
// the compiled filter clause when one is present.
func (s *Surreal) SimilaritySearch(ctx context.Context, query string, k int, f filter.Filter) ([]models.EpisodeDocument, error) {
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	where, vars := compileWhere(f)
	clause := ""
	if where != "" {
		clause = " AND " + where
	}
	vars["emb"] = emb

	sql := fmt.Sprintf(`
		SELECT content, episode_number, episode_name, episode_tags, file_id
		FROM episode_doc
		WHERE embedding <|%d,%d|> $emb%s
	`, k, knnEF, clause)

	s.logger.Debug("similarity search", "k", k, "filter", f.String())

	results, err := surrealdb.Query[[]docRow](ctx, s.client.DB(), sql, vars)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.EpisodeDocument{}, nil
	}

	rows := (*results)[0].Result
	docs := make([]models.EpisodeDocument, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, models.EpisodeDocument{
			Content: row.Content,
			Metadata: models.EpisodeMetadata{
				EpisodeNumber: row.EpisodeNumber,
				EpisodeName:   row.EpisodeName,
				EpisodeTags:   row.EpisodeTags,
				FileID:        row.FileID,
			},
		})
	}
	return docs, nil
}

// Add indexes one document with a precomputed or freshly generated
// embedding. Used by the corpus load tooling, not the query pipeline.
func (s *Surreal) Add(ctx context.Context, doc models.EpisodeDocument, embedding []float32) error {
	if embedding == nil {
		var err error
		embedding, err = s.embedder.Embed(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("embed document: %w", err)
		}
	}

	tags := doc.Metadata.EpisodeTags
	if tags == nil {
		tags = []string{}
	}
	_, err := surrealdb.Query[any](ctx, s.client.DB(), `
		CREATE episode_doc SET
			content = $content,
			embedding = $embedding,
			episode_number = $number,
			episode_name = $name,
			episode_tags = $tags,
			file_id = $file_id
	`, map[string]any{
		"content":   doc.Content,
		"embedding": embedding,
		"number":    doc.Metadata.EpisodeNumber,
		"name":      doc.Metadata.EpisodeName,
		"tags":      tags,
		"file_id":   doc.Metadata.FileID,
	})
	if err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}
