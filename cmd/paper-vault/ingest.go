// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-vault/internal/catalog"
	"github.com/pdiddy/paper-vault/internal/embed"
	"github.com/pdiddy/paper-vault/internal/ingest"
	"github.com/pdiddy/paper-vault/internal/semindex"
	"github.com/pdiddy/paper-vault/internal/valorize"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [pdf...]",
	Short: "Verify and admit PDFs into the vault",
	Long: `Ingest runs each PDF through the verification gate and, on acceptance,
assigns a key, stores the PDF and its text archive in the vault, records
it in the catalog, and queues it for background chunking and embedding.

Rejected PDFs are reported with the gate that failed; duplicates are
reported with the key they already hold. Externally known metadata
(--doi, --title, --author, --year) strengthens verification: a supplied
title must match the PDF's, and a supplied DOI must not contradict one
found inside it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	layout := vaultLayout(cmd)
	if err := layout.EnsureDirs(); err != nil {
		return err
	}

	store, err := catalog.NewStore(layout.CatalogPath())
	if err != nil {
		return err
	}
	defer store.Close()

	ext := ingest.ExternalMeta{}
	ext.DOI, _ = cmd.Flags().GetString("doi")
	ext.Title, _ = cmd.Flags().GetString("title")
	ext.FirstAuthor, _ = cmd.Flags().GetString("author")
	ext.Year, _ = cmd.Flags().GetInt("year")
	ext.Journal, _ = cmd.Flags().GetString("journal")

	pipeline := &ingest.Pipeline{
		Layout:  layout,
		Catalog: store,
		Out:     os.Stdout,
	}

	noValorize, _ := cmd.Flags().GetBool("no-valorize")
	var svc *valorize.Service
	if !noValorize {
		idx, err := semindex.NewIndex(layout.SemIndexPath())
		if err != nil {
			return err
		}
		defer idx.Close()
		svc = valorize.NewService(valorizeConfig(), layout,
			embed.NewClient(embeddingConfig()), idx, os.Stderr)
		pipeline.Queue = svc
	}

	ctx := context.Background()
	yamlOutput, _ := cmd.Flags().GetBool("yaml")
	accepted, rejected, duplicates := 0, 0, 0

	for _, pdfPath := range args {
		res, err := pipeline.Ingest(ctx, pdfPath, ext)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", pdfPath, err)
		}
		switch res.Status {
		case ingest.StatusAccepted:
			accepted++
		case ingest.StatusRejected:
			rejected++
			fmt.Fprintf(os.Stdout, "rejected %s: %s\n", pdfPath, res.Message)
		case ingest.StatusDuplicate:
			duplicates++
			fmt.Fprintf(os.Stdout, "duplicate %s: %s\n", pdfPath, res.Message)
		}
		if yamlOutput {
			if err := writeResultYAML(res); err != nil {
				return err
			}
		}
	}

	if svc != nil {
		if err := svc.Shutdown(valorizeConfig().ShutdownTimeout); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	fmt.Fprintf(os.Stdout, "\naccepted: %d, rejected: %d, duplicate: %d\n",
		accepted, rejected, duplicates)
	if rejected > 0 {
		return fmt.Errorf("%d PDF(s) failed verification", rejected)
	}
	return nil
}

// resultYAML is the stable report shape for scripted callers.
type resultYAML struct {
	Status      string   `yaml:"status"`
	Key         string   `yaml:"key,omitempty"`
	ContentHash string   `yaml:"content_hash"`
	Message     string   `yaml:"message"`
	Gates       []string `yaml:"gates,omitempty"`
}

func writeResultYAML(res ingest.Result) error {
	out := resultYAML{
		Status:      string(res.Status),
		Key:         res.Key,
		ContentHash: res.ContentHash,
		Message:     res.Message,
	}
	if res.Decision != nil {
		for _, g := range res.Decision.Gates {
			state := "pass"
			if !g.Passed {
				state = "fail"
			}
			out.Gates = append(out.Gates, fmt.Sprintf("%s: %s (%s)", g.Gate, state, g.Detail))
		}
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintf(os.Stdout, "---\n%s", data)
	return nil
}

func init() {
	ingestCmd.Flags().String("doi", "", "externally known DOI for the paper")
	ingestCmd.Flags().String("title", "", "externally known title (must match the PDF's)")
	ingestCmd.Flags().String("author", "", "first author surname for key assignment")
	ingestCmd.Flags().Int("year", 0, "publication year for key assignment")
	ingestCmd.Flags().String("journal", "", "journal name, recorded for reporting only")
	ingestCmd.Flags().Bool("no-valorize", false, "skip background chunking and embedding")
	ingestCmd.Flags().Bool("yaml", false, "emit a YAML report per PDF")

	rootCmd.AddCommand(ingestCmd)
}
