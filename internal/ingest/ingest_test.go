package ingest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat/internal/apperr"
	"docuchat/internal/chunker"
	"docuchat/internal/vectorstore"
)

type fakeEmbedder struct {
	err   error
	texts []string
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.texts = texts
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{float32(i), 1}
	}
	return vectors, nil
}

type fakeStore struct {
	ensured  []string
	upserted map[string][]vectorstore.Record
}

func (f *fakeStore) EnsureNamespace(ctx context.Context, namespace string) error {
	f.ensured = append(f.ensured, namespace)
	return nil
}

func (f *fakeStore) Upsert(ctx context.Context, namespace string, records []vectorstore.Record) (int, error) {
	if f.upserted == nil {
		f.upserted = make(map[string][]vectorstore.Record)
	}
	f.upserted[namespace] = append(f.upserted[namespace], records...)
	return len(records), nil
}

func (f *fakeStore) Search(ctx context.Context, namespace string, vector []float32, topK int) ([]vectorstore.Match, error) {
	return nil, nil
}

func (f *fakeStore) FetchSample(ctx context.Context, namespace string, sampleSize int) ([]vectorstore.Record, error) {
	return nil, nil
}

func newTestService(embedder *fakeEmbedder, store *fakeStore) *Service {
	return NewService(chunker.New(500, 50), embedder, store)
}

func TestIngest_FullPipeline(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	s := newTestService(embedder, store)

	var sb strings.Builder
	for i := 1; i <= 60; i++ {
		fmt.Fprintf(&sb, "This is sentence number %d of the uploaded document. ", i)
	}

	result, err := s.Ingest(context.Background(), "report.txt", []byte(sb.String()))
	require.NoError(t, err)
	assert.NotEmpty(t, result.DocID)
	assert.Greater(t, result.Chunks, 1)

	assert.Equal(t, []string{result.DocID}, store.ensured)
	records := store.upserted[result.DocID]
	require.Len(t, records, result.Chunks)
	require.Len(t, embedder.texts, result.Chunks)

	for i, rec := range records {
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, embedder.texts[i], rec.Text, "record %d out of chunk order", i)
		assert.Equal(t, i+1, rec.Page)
		assert.Equal(t, []float32{float32(i), 1}, rec.Vector)
	}
}

func TestIngest_EmptyDocument(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(&fakeEmbedder{}, store)

	result, err := s.Ingest(context.Background(), "empty.txt", []byte("   \n  "))
	require.NoError(t, err)
	assert.NotEmpty(t, result.DocID)
	assert.Equal(t, 0, result.Chunks)
	assert.Empty(t, store.ensured, "nothing should be stored for an empty document")
	assert.Empty(t, store.upserted)
}

func TestIngest_UnsupportedFormat(t *testing.T) {
	s := newTestService(&fakeEmbedder{}, &fakeStore{})

	_, err := s.Ingest(context.Background(), "binary.exe", []byte{0x4d, 0x5a})
	var extErr *apperr.ExtractionError
	require.ErrorAs(t, err, &extErr)
}

func TestIngest_EmbedFailureStoresNothing(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(&fakeEmbedder{err: assert.AnError}, store)

	_, err := s.Ingest(context.Background(), "doc.txt", []byte("some document text"))
	require.Error(t, err)
	assert.Empty(t, store.upserted, "failed embedding must not persist partial state")
}

func TestIngestAs_ReusesNamespace(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(&fakeEmbedder{}, store)

	first, err := s.IngestAs(context.Background(), "doc-1", "a.txt", []byte("alpha text here"))
	require.NoError(t, err)
	second, err := s.IngestAs(context.Background(), "doc-1", "b.txt", []byte("beta text here"))
	require.NoError(t, err)

	assert.Equal(t, "doc-1", first.DocID)
	assert.Equal(t, "doc-1", second.DocID)
	assert.Len(t, store.upserted["doc-1"], first.Chunks+second.Chunks)
}

func TestIngest_ConcurrentSameNamespace(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(&fakeEmbedder{}, store)

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := s.IngestAs(context.Background(), "doc-1", "a.txt", []byte("some text to ingest"))
			done <- err
		}()
	}
	require.NoError(t, <-done)
	require.NoError(t, <-done)
}
