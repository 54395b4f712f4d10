// Package embedding provides the client for the embedding provider. The
// provider speaks a Jina-style API: a bearer-authenticated POST carrying
// model, task, dimensions and a list of inputs, returning one float vector
// per input.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"docuchat/internal/apperr"
	"docuchat/internal/config"
)

// maxConcurrentBatches bounds the worker pool used for one EmbedBatch call.
const maxConcurrentBatches = 4

type Client struct {
	httpClient    *http.Client
	baseURL       string
	key           string
	model         string
	task          string
	dimensions    int
	batchSize     int
	maxInputChars int
	maxAttempts   int
}

func NewClient(cfg *config.EmbeddingConfig) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second},
		baseURL:       cfg.BaseURL,
		key:           cfg.Key,
		model:         cfg.Model,
		task:          cfg.Task,
		dimensions:    cfg.Dimensions,
		batchSize:     cfg.BatchSize,
		maxInputChars: cfg.MaxInputChars,
		maxAttempts:   cfg.MaxAttempts,
	}
}

// Dimensions returns the vector dimension every returned embedding is
// guaranteed to have.
func (c *Client) Dimensions() int { return c.dimensions }

// EmbedBatch embeds texts one-to-one, preserving order. Inputs are truncated
// to the configured maximum length and sent in fixed-size batches; batches
// run under a bounded worker pool and are reassembled in input order. Any
// batch failure fails the whole call, so a document is either fully embedded
// or not at all.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = truncateRunes(t, c.maxInputChars)
	}

	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)
	for start := 0; start < len(truncated); start += c.batchSize {
		start := start
		end := min(start+c.batchSize, len(truncated))
		g.Go(func() error {
			batch, err := c.embed(gctx, truncated[start:end])
			if err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{truncateRunes(text, c.maxInputChars)})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type embedRequest struct {
	Model         string   `json:"model"`
	Task          string   `json:"task"`
	Dimensions    int      `json:"dimensions"`
	LateChunking  bool     `json:"late_chunking"`
	EmbeddingType string   `json:"embedding_type"`
	Input         []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// embed performs one provider call with bounded retry: network failures and
// 5xx responses are retried up to the configured attempt count with
// exponential backoff, 4xx responses and dimension mismatches are not.
func (c *Client) embed(ctx context.Context, batch []string) ([][]float32, error) {
	var vectors [][]float32
	op := func() error {
		var err error
		vectors, err = c.embedOnce(ctx, batch)
		if err == nil {
			return nil
		}
		if ue, ok := err.(*apperr.UpstreamError); ok && ue.Retryable() {
			log.Warn().Err(err).Int("batch_size", len(batch)).Msg("retrying embedding batch")
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (c *Client) embedOnce(ctx context.Context, batch []string) ([][]float32, error) {
	payload := embedRequest{
		Model:         c.model,
		Task:          c.task,
		Dimensions:    c.dimensions,
		EmbeddingType: "float",
		Input:         batch,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.UpstreamError{Op: "embedding", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &apperr.UpstreamError{Op: "embedding", Status: resp.StatusCode, Body: string(body)}
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &apperr.UpstreamError{Op: "embedding", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Data) != len(batch) {
		return nil, &apperr.UpstreamError{Op: "embedding", Err: fmt.Errorf("got %d embeddings for %d inputs", len(parsed.Data), len(batch))}
	}

	vectors := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		if len(d.Embedding) != c.dimensions {
			return nil, &apperr.ConfigMismatchError{Want: c.dimensions, Got: len(d.Embedding)}
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
