// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-vault/internal/extract"
	"github.com/pdiddy/paper-vault/internal/identify"
	"github.com/pdiddy/paper-vault/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [pdf...]",
	Short: "Run the verification gate without ingesting",
	Long: `Verify runs each PDF through identification and the verification gate
and prints every gate's verdict. Nothing is written to the vault; use
this to see why a paper would be rejected before ingesting it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	extDOI, _ := cmd.Flags().GetString("doi")
	extTitle, _ := cmd.Flags().GetString("title")

	failed := 0
	for _, pdfPath := range args {
		res, err := identify.PDF(pdfPath)
		if err != nil {
			return fmt.Errorf("identifying %s: %w", pdfPath, err)
		}
		pages, err := extract.ReadPages(pdfPath)
		if err != nil {
			return fmt.Errorf("extracting text from %s: %w", pdfPath, err)
		}
		metrics := extract.ComputeMetrics(pages)

		decision := verify.Evaluate(res, metrics, extTitle, extDOI)

		fmt.Fprintf(os.Stdout, "%s\n", pdfPath)
		if res.DOI != "" {
			fmt.Fprintf(os.Stdout, "  doi:   %s (%s)\n", res.DOI, res.DOISource)
		}
		if res.TitleFromPDF != "" {
			fmt.Fprintf(os.Stdout, "  title: %s\n", res.TitleFromPDF)
		}
		for _, g := range decision.Gates {
			state := "pass"
			if !g.Passed {
				state = "FAIL"
			}
			fmt.Fprintf(os.Stdout, "  %-18s %s  %s\n", g.Gate, state, g.Detail)
		}
		if decision.Accept {
			fmt.Fprintln(os.Stdout, "  verdict: would be accepted")
		} else {
			failed++
			fmt.Fprintln(os.Stdout, "  verdict: would be rejected")
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d PDF(s) would fail verification", failed)
	}
	return nil
}

func init() {
	verifyCmd.Flags().String("doi", "", "externally known DOI to check against")
	verifyCmd.Flags().String("title", "", "externally known title to check against")

	rootCmd.AddCommand(verifyCmd)
}
