package cli

import (
	"fmt"

	"github.com/raphaelgruber/podrag-go/internal/catalog"
	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Print the tag catalogue",
	Long: `Print the full catalogue of topic tags episodes are labelled with.

These are the only tags search questions are matched against; questions
mentioning topics outside the catalogue fall back to free-form search.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(catalog.Default().Catalogue())
	},
}
