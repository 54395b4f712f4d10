// Package retrieval embeds a query, searches the vector store, and
// assembles the scored context string the generation prompts are built on.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"docuchat/internal/vectorstore"
)

// Embedder is the slice of the embedding client retrieval needs.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type Service struct {
	embedder Embedder
	store    vectorstore.Store
}

func NewService(embedder Embedder, store vectorstore.Store) *Service {
	return &Service{embedder: embedder, store: store}
}

// Retrieve embeds the question and returns up to topK matches ordered by
// descending similarity.
func (s *Service) Retrieve(ctx context.Context, namespace, question string, topK int) ([]vectorstore.Match, error) {
	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}
	matches, err := s.store.Search(ctx, namespace, vector, topK)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("namespace", namespace).Int("matches", len(matches)).Msg("retrieved context")
	return matches, nil
}

// SampleContext joins a representative sample of the namespace's stored
// chunk texts, for summary and quiz generation.
func (s *Service) SampleContext(ctx context.Context, namespace string, sampleSize int) (string, error) {
	records, err := s.store.FetchSample(ctx, namespace, sampleSize)
	if err != nil {
		return "", err
	}
	texts := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Text == "" {
			continue
		}
		texts = append(texts, rec.Text)
	}
	return strings.Join(texts, "\n\n"), nil
}

// BuildContext renders matches in descending-score order, each prefixed
// with its ordinal and rounded score so answers can cite their sources.
func BuildContext(matches []vectorstore.Match) string {
	lines := make([]string, len(matches))
	for i, m := range matches {
		lines[i] = fmt.Sprintf("Chunk %d (score %.3f): %s", i+1, m.Score, m.Text)
	}
	return strings.Join(lines, "\n\n")
}
