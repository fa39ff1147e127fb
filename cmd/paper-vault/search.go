// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-vault/internal/embed"
	"github.com/pdiddy/paper-vault/internal/semindex"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the vault semantically",
	Long: `Search embeds the query and ranks every indexed chunk by cosine
similarity, printing the best matches with their paper key and page.
Only valorized papers are searchable; run "paper-vault valorize" to
process the backlog first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	layout := vaultLayout(cmd)

	idx, err := semindex.NewIndex(layout.SemIndexPath())
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx := context.Background()
	query := strings.Join(args, " ")

	client := embed.NewClient(embeddingConfig())
	vectors, err := client.EmbedBatch(ctx, []string{query})
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	hits, err := idx.Search(ctx, vectors[0], limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("no matches (is the vault valorized?)")
		return nil
	}

	for i, h := range hits {
		text := strings.Join(strings.Fields(h.Text), " ")
		if len(text) > 160 {
			text = text[:157] + "..."
		}
		fmt.Fprintf(os.Stdout, "%2d. %.3f  %s p.%d\n    %s\n",
			i+1, h.Score, h.Key, h.Page, text)
	}
	return nil
}

func init() {
	searchCmd.Flags().Int("limit", 10, "maximum results")

	rootCmd.AddCommand(searchCmd)
}
