package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphaelgruber/podrag-go/internal/history"
	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge <session-id>",
	Short: "Delete a session's conversation history",
	Args:  cobra.ExactArgs(1),
	RunE:  runPurge,
}

func runPurge(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := history.NewSurrealStore(ctx, surrealClient)
	if err != nil {
		return fmt.Errorf("init history: %w", err)
	}

	if err := store.Delete(ctx, args[0]); err != nil {
		if errors.Is(err, history.ErrSessionNotFound) {
			fmt.Printf("No history for session %s.\n", args[0])
			return nil
		}
		return fmt.Errorf("delete history: %w", err)
	}

	fmt.Printf("Deleted history for session %s.\n", args[0])
	return nil
}
