// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed talks to an Ollama-style embedding endpoint. Batching
// and input truncation happen here so callers can hand over arbitrary
// chunk lists; order of the returned vectors always matches the input.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/paper-vault/internal/httputil"
	"github.com/pdiddy/paper-vault/pkg/types"
)

const (
	defaultBatchSize = 16

	// defaultMaxChars truncates one input before embedding. Most
	// embedding models silently truncate far earlier; this just keeps
	// request bodies bounded.
	defaultMaxChars = 3500

	defaultTimeout = 60 * time.Second
)

// Client calls the /api/embed endpoint of an embedding service.
type Client struct {
	http      *http.Client
	url       string
	model     string
	apiKey    string
	batchSize int
	maxChars  int
}

// NewClient builds a Client from config, applying defaults for unset
// batch size, truncation limit, and timeout.
func NewClient(cfg types.EmbeddingConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		url:       strings.TrimRight(cfg.URL, "/") + "/api/embed",
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		batchSize: batchSize,
		maxChars:  maxChars,
	}
}

// Model returns the configured model name, recorded in archives for
// provenance.
func (c *Client) Model() string { return c.model }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EmbedBatch embeds texts in configured-size batches and returns one
// vector per input, in input order. Unreachable or persistently failing
// services surface as a ServiceUnavailableError; cancellation between
// batches surfaces as a CancelledError.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		if err := types.Cancelled(ctx, "embedding"); err != nil {
			return nil, err
		}

		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embedOnce(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (c *Client) embedOnce(ctx context.Context, batch []string) ([][]float32, error) {
	input := make([]string, len(batch))
	for i, text := range batch {
		input[i] = truncate(text, c.maxChars)
	}

	body, err := json.Marshal(embedRequest{Model: c.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("encoding embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, &types.ServiceUnavailableError{Service: "embedding service", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &types.ServiceUnavailableError{
			Service: "embedding service",
			Err:     fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(detail)),
		}
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing embed response: %w", err)
	}
	if len(parsed.Embeddings) != len(batch) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs",
			len(parsed.Embeddings), len(batch))
	}
	return parsed.Embeddings, nil
}

// truncate cuts s to at most max bytes without splitting a UTF-8
// sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
