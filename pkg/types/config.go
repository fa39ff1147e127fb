// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-vault/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// VaultConfig holds settings for the vault storage root.
type VaultConfig struct {
	// Root is the vault root directory (contains pdf/, archive/, catalog.db).
	Root string `json:"root" yaml:"root"`
}

// ChunkingConfig holds settings for the fixed-window chunker.
type ChunkingConfig struct {
	// MaxChars is the target character budget per chunk (default 500).
	MaxChars int `json:"max_chars" yaml:"max_chars"`

	// Overlap is the approximate character overlap between consecutive
	// chunks (default 100).
	Overlap int `json:"overlap" yaml:"overlap"`
}

// EmbeddingConfig holds settings for the embedding service client.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline"`

	// URL is the base URL of the embedding server (default
	// "http://localhost:11434", an Ollama-style endpoint).
	URL string `json:"url" yaml:"url"`

	// Model is the embedding model name (default "nomic-embed-text").
	Model string `json:"model" yaml:"model"`

	// APIKey is an optional bearer token for hosted embedding services.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BatchSize is the number of texts per embed request (default 16).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MaxChars truncates each text before embedding to stay within the
	// model context window (default 3500).
	MaxChars int `json:"max_chars" yaml:"max_chars"`
}

// ValorizeConfig holds settings for the background valorization worker.
type ValorizeConfig struct {
	// QueueSize bounds the in-process FIFO queue (default 256). A full
	// queue drops new items; they are picked up by the next vault scan.
	QueueSize int `json:"queue_size" yaml:"queue_size"`

	// ShutdownTimeout bounds how long Shutdown waits for the worker to
	// drain (default 30s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Chunking configures the fixed-window chunker.
	Chunking ChunkingConfig `json:"chunking" yaml:"chunking"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Vault     VaultConfig     `json:"vault" yaml:"vault"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Valorize  ValorizeConfig  `json:"valorize" yaml:"valorize"`
}
