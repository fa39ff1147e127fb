// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-vault CLI. All logic
// lives in the internal packages; subcommands are thin wrappers over
// the ingest pipeline, the valorization service, and the catalog.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-vault/internal/secrets"
	"github.com/pdiddy/paper-vault/internal/vault"
	"github.com/pdiddy/paper-vault/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the paper-vault CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-vault",
	Short: "A verified vault for research papers",
	Long: `paper-vault maintains a content-addressed vault of research papers. Each
candidate PDF passes a verification gate (DOI present, titles agree, text
extractable) before it is admitted, receives a human-readable key, and is
stored three ways: the original PDF, a durable archive of extracted page
text, and a catalog row. A background worker then chunks and embeds the
text so the vault is semantically searchable.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-vault.yaml or ~/.config/paper-vault/config.yaml)")
	rootCmd.PersistentFlags().String("vault", "", "vault root directory (default: ./vault or vault.root from config)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-vault")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-vault"))
		}
	}

	viper.SetEnvPrefix("PAPER_VAULT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// vaultLayout resolves the vault root: --vault flag, then secrets, then
// config, then ./vault.
func vaultLayout(cmd *cobra.Command) vault.Layout {
	root, _ := cmd.Flags().GetString("vault")
	if root == "" {
		root = secretDefault("vault-root", viper.GetString("vault.root"))
	}
	if root == "" {
		root = "vault"
	}
	return vault.NewLayout(root)
}

// embeddingConfig assembles the embedding client settings from config
// and secrets.
func embeddingConfig() types.EmbeddingConfig {
	cfg := types.EmbeddingConfig{
		URL:       viper.GetString("embedding.url"),
		Model:     viper.GetString("embedding.model"),
		APIKey:    secretDefault("embed-api-key", viper.GetString("embedding.api_key")),
		BatchSize: viper.GetInt("embedding.batch_size"),
		MaxChars:  viper.GetInt("embedding.max_chars"),
	}
	cfg.Timeout = viper.GetDuration("embedding.timeout")
	if cfg.URL == "" {
		cfg.URL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	return cfg
}

func valorizeConfig() types.ValorizeConfig {
	cfg := types.ValorizeConfig{
		QueueSize:       viper.GetInt("valorize.queue_size"),
		ShutdownTimeout: viper.GetDuration("valorize.shutdown_timeout"),
		Chunking: types.ChunkingConfig{
			MaxChars: viper.GetInt("valorize.chunking.max_chars"),
			Overlap:  viper.GetInt("valorize.chunking.overlap"),
		},
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
