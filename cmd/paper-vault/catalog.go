// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-vault/internal/catalog"
	"github.com/pdiddy/paper-vault/internal/ingest"
	"github.com/pdiddy/paper-vault/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and repair the vault catalog",
}

// --- list subcommand ---

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every paper in the vault",
	RunE:  runCatalogList,
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	layout := vaultLayout(cmd)
	store, err := catalog.NewStore(layout.CatalogPath())
	if err != nil {
		return err
	}
	defer store.Close()

	papers, err := store.List(context.Background())
	if err != nil {
		return err
	}

	yamlOutput, _ := cmd.Flags().GetBool("yaml")
	if yamlOutput {
		data, err := yaml.Marshal(papers)
		if err != nil {
			return fmt.Errorf("encoding catalog: %w", err)
		}
		os.Stdout.Write(data)
		return nil
	}

	if len(papers) == 0 {
		fmt.Println("vault is empty")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-24s  %-6s  %-8s  %-11s  %-50s\n",
		"Key", "Year", "Quality", "Status", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 105))
	for _, p := range papers {
		title := p.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		year := ""
		if p.Year != 0 {
			year = fmt.Sprintf("%d", p.Year)
		}
		fmt.Fprintf(os.Stdout, "%-24s  %-6s  %-8s  %-11s  %-50s\n",
			p.Key, year, p.TextQuality, p.Status, title)
	}
	fmt.Fprintf(os.Stdout, "\n%d paper(s)\n", len(papers))
	return nil
}

// --- show subcommand ---

var catalogShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Show the full catalog record for one paper",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogShow,
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	layout := vaultLayout(cmd)
	store, err := catalog.NewStore(layout.CatalogPath())
	if err != nil {
		return err
	}
	defer store.Close()

	meta, err := store.GetByKey(context.Background(), args[0])
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding paper: %w", err)
	}
	os.Stdout.Write(data)
	return nil
}

// --- stats subcommand ---

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the vault catalog",
	RunE:  runCatalogStats,
}

func runCatalogStats(cmd *cobra.Command, args []string) error {
	layout := vaultLayout(cmd)
	store, err := catalog.NewStore(layout.CatalogPath())
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "papers:      %d\n", stats.Total)
	fmt.Fprintf(os.Stdout, "verified:    %d\n", stats.Verified)
	fmt.Fprintf(os.Stdout, "provisional: %d\n", stats.Provisional)
	fmt.Fprintf(os.Stdout, "with DOI:    %d\n", stats.WithDOI)
	for _, q := range []types.TextQuality{types.QualityGood, types.QualityPartial, types.QualityNone} {
		if n := stats.ByQuality[q]; n > 0 {
			fmt.Fprintf(os.Stdout, "quality %s: %d\n", q, n)
		}
	}
	return nil
}

// --- rebuild subcommand ---

var catalogRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Restore catalog rows from the archives on disk",
	Long: `Rebuild sweeps every archive in the vault and restores catalog rows
that are missing (after a crash between the vault write and the catalog
write, or after catalog loss). Restored rows are marked provisional
since the original verification evidence is gone.`,
	RunE: runCatalogRebuild,
}

func runCatalogRebuild(cmd *cobra.Command, args []string) error {
	layout := vaultLayout(cmd)
	store, err := catalog.NewStore(layout.CatalogPath())
	if err != nil {
		return err
	}
	defer store.Close()

	pipeline := &ingest.Pipeline{Layout: layout, Catalog: store, Out: os.Stdout}
	summary, err := pipeline.Reconcile(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d archive(s) could not be reconciled", summary.Failed)
	}
	return nil
}

func init() {
	catalogListCmd.Flags().Bool("yaml", false, "output the catalog as YAML")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogStatsCmd)
	catalogCmd.AddCommand(catalogRebuildCmd)

	rootCmd.AddCommand(catalogCmd)
}
