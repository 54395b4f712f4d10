// Package chromem backs the vector store contract with chromem-go, either
// in-memory or persisted to disk. Each namespace maps to its own collection.
package chromem

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"runtime"
	"strconv"
	"sync"

	chromemgo "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"docuchat/internal/vectorstore"
)

const compress = false

type Store struct {
	db         *chromemgo.DB
	dimensions int

	mu          sync.Mutex
	collections map[string]*chromemgo.Collection
}

// New creates a chromem-backed store. An empty path selects the in-memory
// database.
func New(path string, dimensions int) (*Store, error) {
	var (
		db  *chromemgo.DB
		err error
	)
	if path == "" {
		db = chromemgo.NewDB()
	} else {
		db, err = chromemgo.NewPersistentDB(path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}
	return &Store{
		db:          db,
		dimensions:  dimensions,
		collections: make(map[string]*chromemgo.Collection),
	}, nil
}

func (s *Store) EnsureNamespace(ctx context.Context, namespace string) error {
	_, err := s.collection(namespace)
	return err
}

// collection lazily creates the namespace's collection. Safe to race:
// chromem's GetOrCreateCollection is idempotent and the cache holds
// whichever collection handle wins.
func (s *Store) collection(namespace string) (*chromemgo.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[namespace]; ok {
		return c, nil
	}
	c, err := s.db.GetOrCreateCollection(namespace, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	s.collections[namespace] = c
	return c, nil
}

func (s *Store) Upsert(ctx context.Context, namespace string, records []vectorstore.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	c, err := s.collection(namespace)
	if err != nil {
		return 0, err
	}

	docs := make([]chromemgo.Document, len(records))
	for i, rec := range records {
		if len(rec.Vector) != s.dimensions {
			return 0, fmt.Errorf("record %s: vector has dimension %d, index expects %d", rec.ID, len(rec.Vector), s.dimensions)
		}
		docs[i] = chromemgo.Document{
			ID:        rec.ID,
			Content:   rec.Text,
			Embedding: rec.Vector,
			Metadata: map[string]string{
				"text": rec.Text,
				"page": strconv.Itoa(rec.Page),
			},
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("failed to add documents: %v", err)
	}
	return len(records), nil
}

func (s *Store) Search(ctx context.Context, namespace string, vector []float32, topK int) ([]vectorstore.Match, error) {
	c, err := s.collection(namespace)
	if err != nil {
		return nil, err
	}
	results, err := s.query(ctx, c, vector, topK)
	if err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, len(results))
	for i, res := range results {
		page, _ := strconv.Atoi(res.Metadata["page"])
		matches[i] = vectorstore.Match{
			Score: float64(res.Similarity),
			Text:  res.Content,
			Page:  page,
		}
	}
	return matches, nil
}

// FetchSample approximates a listing by querying with a unit-free vector
// seeded deterministically from the namespace. chromem exposes no listing
// primitive, so the sample is biased toward that vector's neighbourhood;
// the postgres backend provides the genuine listing.
func (s *Store) FetchSample(ctx context.Context, namespace string, sampleSize int) ([]vectorstore.Record, error) {
	c, err := s.collection(namespace)
	if err != nil {
		return nil, err
	}
	results, err := s.query(ctx, c, sampleVector(namespace, s.dimensions), sampleSize)
	if err != nil {
		return nil, err
	}

	records := make([]vectorstore.Record, len(results))
	for i, res := range results {
		page, _ := strconv.Atoi(res.Metadata["page"])
		records[i] = vectorstore.Record{
			ID:     res.ID,
			Vector: res.Embedding,
			Text:   res.Content,
			Page:   page,
		}
	}
	return records, nil
}

// query clamps nResults to the collection size; chromem rejects requests
// for more results than stored documents.
func (s *Store) query(ctx context.Context, c *chromemgo.Collection, vector []float32, topK int) ([]chromemgo.Result, error) {
	n := topK
	if count := c.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}
	results, err := c.QueryWithOptions(ctx, chromemgo.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}
	return results, nil
}

func sampleVector(namespace string, dimensions int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(namespace))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float32, dimensions)
	for i := range vec {
		vec[i] = rng.Float32()*2 - 1
	}
	log.Debug().Str("namespace", namespace).Msg("sampling via seeded query vector")
	return vec
}
