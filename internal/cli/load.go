package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/raphaelgruber/podrag-go/internal/catalog"
	"github.com/raphaelgruber/podrag-go/internal/chunk"
	"github.com/raphaelgruber/podrag-go/internal/index"
	"github.com/raphaelgruber/podrag-go/internal/models"
	"github.com/spf13/cobra"
)

// embedBatchSize bounds one embedding request.
const embedBatchSize = 32

// episodeRecord is one entry of the load file.
type episodeRecord struct {
	EpisodeNumber *int     `json:"episodeNumber"`
	EpisodeName   string   `json:"episodeName"`
	EpisodeTags   []string `json:"episodeTags"`
	FileID        string   `json:"fileId"`
	Content       string   `json:"content"`
}

var loadCmd = &cobra.Command{
	Use:   "load <episodes.json>",
	Short: "Load episode documents into the vector index",
	Long: `Load episode documents from a JSON file into the vector index.

The file holds an array of episode records:

  [{"episodeNumber": 85, "episodeName": "Bubble Trouble",
    "episodeTags": ["bubble", "tournament"], "fileId": "ep85",
    "content": "..."}]

Tags outside the catalogue are dropped with a warning so filtered
search never references unknown tags.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read episodes file: %w", err)
	}
	var records []episodeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse episodes file: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No episodes to load.")
		return nil
	}

	emb, err := getEmbedder()
	if err != nil {
		return err
	}
	idx, err := index.NewSurreal(ctx, surrealClient, emb, emb.Dimension(), nil)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}

	// Long transcripts are split into overlapping chunks; every chunk
	// carries the episode's full metadata so filters match any of them.
	tags := catalog.Default()
	var docs []models.EpisodeDocument
	for _, rec := range records {
		known := tags.Normalize(rec.EpisodeTags)
		if len(known) < len(rec.EpisodeTags) {
			fmt.Fprintf(os.Stderr, "Warning: %s carries tags outside the catalogue, dropped\n", rec.EpisodeName)
		}
		meta := models.EpisodeMetadata{
			EpisodeNumber: rec.EpisodeNumber,
			EpisodeName:   rec.EpisodeName,
			EpisodeTags:   known,
			FileID:        rec.FileID,
		}
		for _, piece := range chunk.Split(rec.Content, chunk.DefaultConfig()) {
			docs = append(docs, models.EpisodeDocument{Content: piece, Metadata: meta})
		}
	}

	for start := 0; start < len(docs); start += embedBatchSize {
		end := min(start+embedBatchSize, len(docs))
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Content
		}
		embeddings, err := emb.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}

		for i, d := range batch {
			if err := idx.Add(ctx, d, embeddings[i]); err != nil {
				return fmt.Errorf("index %s: %w", d.Metadata.EpisodeName, err)
			}
		}
		fmt.Printf("Indexed %d/%d chunks\n", end, len(docs))
	}

	fmt.Printf("Done. %d episodes (%d chunks) indexed.\n", len(records), len(docs))
	return nil
}
