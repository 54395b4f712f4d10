// Package postgres backs the vector store contract with Postgres and
// pgvector. All namespaces share one table; the namespace column scopes
// every query. Unlike the chromem backend, FetchSample here is a genuine
// listing.
package postgres

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docuchat/internal/apperr"
	"docuchat/internal/vectorstore"
)

// indexDimensions is baked into the table schema; the configured embedding
// dimension must match it exactly.
const indexDimensions = 1024

type ChunkRecord struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`
	ID            int64   `bun:"id,pk,autoincrement"`
	RecordID      string  `bun:"record_id,notnull"`
	Namespace     string  `bun:"namespace,notnull"`
	Text          string  `bun:"text,notnull"`
	Page          int     `bun:"page,notnull"`
	Embedding     Vector  `bun:"embedding,notnull,type:vector(1024)"`
	Score         float64 `bun:"score,scanonly"`
}

type Store struct {
	db *bun.DB
}

func Connect(dsn, password string, debug bool) (*bun.DB, error) {
	if !strings.Contains(dsn, "sslmode") {
		dsn += "?sslmode=disable"
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(password)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

// New wraps a bun connection. dimensions must equal the schema dimension;
// anything else is a fatal configuration error, not a recoverable one.
func New(db *bun.DB, dimensions int) (*Store, error) {
	if dimensions != indexDimensions {
		return nil, &apperr.ConfigMismatchError{Want: indexDimensions, Got: dimensions}
	}
	return &Store{db: db}, nil
}

// EnsureNamespace provisions the shared table on first use. Namespaces are
// rows here, so there is nothing per-namespace to create; CREATE TABLE IF
// NOT EXISTS makes racing callers harmless.
func (s *Store) EnsureNamespace(ctx context.Context, namespace string) error {
	if _, err := s.db.NewCreateTable().Model((*ChunkRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return &apperr.UpstreamError{Op: "vectorstore.ensure", Err: err}
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, namespace string, records []vectorstore.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	rows := make([]ChunkRecord, len(records))
	for i, rec := range records {
		rows[i] = ChunkRecord{
			RecordID:  rec.ID,
			Namespace: namespace,
			Text:      rec.Text,
			Page:      rec.Page,
			Embedding: Vector(rec.Vector),
		}
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return 0, &apperr.UpstreamError{Op: "vectorstore.upsert", Err: err}
	}
	return len(rows), nil
}

func (s *Store) Search(ctx context.Context, namespace string, vector []float32, topK int) ([]vectorstore.Match, error) {
	qv := Vector(vector)
	var rows []ChunkRecord
	err := s.db.NewSelect().
		Model(&rows).
		Column("text", "page").
		ColumnExpr("1 - (embedding <=> ?) AS score", qv).
		Where("namespace = ?", namespace).
		OrderExpr("embedding <=> ?", qv).
		Limit(topK).
		Scan(ctx)
	if err != nil {
		return nil, &apperr.UpstreamError{Op: "vectorstore.search", Err: err}
	}

	matches := make([]vectorstore.Match, len(rows))
	for i, row := range rows {
		matches[i] = vectorstore.Match{Score: row.Score, Text: row.Text, Page: row.Page}
	}
	return matches, nil
}

// FetchSample lists stored records in insertion order.
func (s *Store) FetchSample(ctx context.Context, namespace string, sampleSize int) ([]vectorstore.Record, error) {
	var rows []ChunkRecord
	err := s.db.NewSelect().
		Model(&rows).
		Where("namespace = ?", namespace).
		Order("id ASC").
		Limit(sampleSize).
		Scan(ctx)
	if err != nil {
		return nil, &apperr.UpstreamError{Op: "vectorstore.sample", Err: err}
	}

	records := make([]vectorstore.Record, len(rows))
	for i, row := range rows {
		records[i] = vectorstore.Record{
			ID:     row.RecordID,
			Vector: []float32(row.Embedding),
			Text:   row.Text,
			Page:   row.Page,
		}
	}
	return records, nil
}

var _ vectorstore.Store = (*Store)(nil)
