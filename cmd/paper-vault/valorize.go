// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-vault/internal/embed"
	"github.com/pdiddy/paper-vault/internal/semindex"
	"github.com/pdiddy/paper-vault/internal/valorize"
)

var valorizeCmd = &cobra.Command{
	Use:   "valorize",
	Short: "Chunk, embed, and index every unprocessed archive",
	Long: `Valorize scans the vault for archives that have not yet been chunked
and embedded (freshly ingested papers, or papers whose valorization
failed earlier), processes the backlog, and exits when the queue is
drained. Safe to run while another process ingests; a scan already
running in another process is skipped.`,
	RunE: runValorize,
}

func runValorize(cmd *cobra.Command, args []string) error {
	layout := vaultLayout(cmd)

	idx, err := semindex.NewIndex(layout.SemIndexPath())
	if err != nil {
		return err
	}
	defer idx.Close()

	svc := valorize.NewService(valorizeConfig(), layout,
		embed.NewClient(embeddingConfig()), idx, os.Stdout)

	n, err := svc.ScanVault(context.Background())
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("nothing to valorize")
		return nil
	}
	return svc.Shutdown(valorizeConfig().ShutdownTimeout)
}

func init() {
	rootCmd.AddCommand(valorizeCmd)
}
