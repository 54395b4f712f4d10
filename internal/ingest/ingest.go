// Package ingest runs the upload pipeline: extract text, chunk it, embed
// the chunks, and upsert the vectors under the document's namespace. No
// partial results are visible until the upsert completes.
package ingest

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"docuchat/internal/extractor"
	"docuchat/internal/models"
	"docuchat/internal/vectorstore"
)

type Chunker interface {
	Chunk(text string) ([]models.Chunk, error)
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Service struct {
	chunker  Chunker
	embedder Embedder
	store    vectorstore.Store
	locks    namespaceLocks
}

func NewService(chunker Chunker, embedder Embedder, store vectorstore.Store) *Service {
	return &Service{chunker: chunker, embedder: embedder, store: store}
}

// Result describes a completed ingestion.
type Result struct {
	DocID  string `json:"docId"`
	Chunks int    `json:"chunks"`
}

// Ingest stores a new document under a fresh namespace.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (*Result, error) {
	return s.IngestAs(ctx, uuid.NewString(), filename, data)
}

// IngestAs stores a document under the given namespace. Re-ingesting an
// existing namespace appends records rather than replacing them; concurrent
// ingestions of the same namespace are serialized by an advisory lock.
// A document whose extracted text is empty yields zero chunks and stores
// nothing, which is a success, not an error.
func (s *Service) IngestAs(ctx context.Context, docID, filename string, data []byte) (*Result, error) {
	unlock := s.locks.lock(docID)
	defer unlock()

	text, err := extractor.Extract(filename, data)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunker.Chunk(text)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		log.Info().Str("namespace", docID).Str("filename", filename).Msg("no chunks generated from content")
		return &Result{DocID: docID, Chunks: 0}, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	records := make([]vectorstore.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = vectorstore.Record{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Text:   chunk.Text,
			Page:   chunk.SourcePage,
		}
	}

	if err := s.store.EnsureNamespace(ctx, docID); err != nil {
		return nil, err
	}
	count, err := s.store.Upsert(ctx, docID, records)
	if err != nil {
		return nil, err
	}

	log.Info().Str("namespace", docID).Int("chunks", count).Msg("stored document chunks")
	return &Result{DocID: docID, Chunks: count}, nil
}

// namespaceLocks hands out one mutex per namespace so two ingestions of the
// same document cannot interleave their upserts.
type namespaceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (n *namespaceLocks) lock(namespace string) func() {
	n.mu.Lock()
	if n.locks == nil {
		n.locks = make(map[string]*sync.Mutex)
	}
	l, ok := n.locks[namespace]
	if !ok {
		l = &sync.Mutex{}
		n.locks[namespace] = l
	}
	n.mu.Unlock()

	l.Lock()
	return l.Unlock
}
