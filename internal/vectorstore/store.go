// Package vectorstore defines the contract every vector index backend
// implements. One namespace corresponds to one ingested document and is the
// sole multi-tenancy mechanism: no topK may leak chunks across namespaces.
package vectorstore

import "context"

// Record is a stored chunk vector with its retrieval metadata. Records are
// immutable once upserted; corrections require re-ingesting the document.
type Record struct {
	ID     string
	Vector []float32
	Text   string
	Page   int
}

// Match is one similarity-search result. Score is cosine similarity,
// higher = closer. Matches are ephemeral, produced per query.
type Match struct {
	Score float64 `json:"score"`
	Text  string  `json:"text"`
	Page  int     `json:"sourcePage"`
}

type Store interface {
	// EnsureNamespace is idempotent and safe to race across concurrent
	// first-use callers. It may block for a one-time provisioning delay.
	EnsureNamespace(ctx context.Context, namespace string) error

	// Upsert stores all records under the namespace and returns the count.
	// Re-running with freshly generated ids adds records rather than
	// replacing them; avoiding double-ingestion is the caller's job.
	Upsert(ctx context.Context, namespace string, records []Record) (int, error)

	// Search returns up to topK matches ordered by descending score.
	Search(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)

	// FetchSample returns up to sampleSize stored records as a
	// representative sample of the namespace, for summary and quiz
	// generation. Backends without a listing primitive may approximate
	// this, but the selection must be deterministic.
	FetchSample(ctx context.Context, namespace string, sampleSize int) ([]Record, error)
}
