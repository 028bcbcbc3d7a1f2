package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/raphaelgruber/podrag-go/internal/client"
	"github.com/spf13/cobra"
)

var statsServerURL string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pipeline metrics of a running server",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsServerURL, "server", "", "server base URL (default PODRAG_SERVER_URL or localhost:8480)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c := client.New(statsServerURL)

	if err := c.Health(ctx); err != nil {
		return err
	}
	snap, err := c.Stats(ctx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("format stats: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
