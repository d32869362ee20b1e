package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/maesd-ai/maesd/pkg/core"
	"github.com/maesd-ai/maesd/pkg/errors"
)

// Semantic is a core.Memory backed by an embedder and a vector store. Each
// stored step is embedded and upserted; Retrieve embeds the query and
// returns the nearest past steps.
type Semantic struct {
	store      VectorStore
	embedder   Embedder
	collection string
	vectorSize uint64
	limit      int
}

// NewSemantic wires a semantic memory. The collection is created lazily on
// first Store.
func NewSemantic(store VectorStore, embedder Embedder, collection string, vectorSize uint64) *Semantic {
	return &Semantic{
		store:      store,
		embedder:   embedder,
		collection: collection,
		vectorSize: vectorSize,
		limit:      5,
	}
}

// Store implements core.Memory.
func (s *Semantic) Store(ctx context.Context, data any) error {
	rec, ok := recordFrom(data)
	if !ok {
		return errors.New(errors.CodeMemoryError, "unsupported memory record", nil)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	vec, err := s.embedder.Embed(ctx, rec.Content)
	if err != nil {
		return err
	}

	// Create is idempotent enough here: an existing collection errors and
	// the upsert proceeds regardless.
	_ = s.store.CreateCollection(ctx, s.collection, s.vectorSize)

	payload := map[string]any{
		"run_id":  rec.RunID,
		"role":    rec.Role,
		"action":  rec.Action,
		"content": rec.Content,
	}
	return s.store.Upsert(ctx, s.collection, []Point{{
		ID:        uuid.NewString(),
		Vector:    vec,
		Payload:   payload,
		Timestamp: rec.CreatedAt.Unix(),
	}})
}

// Retrieve implements core.Memory. The query must be a string; the result
// is a JSON-friendly slice of the nearest stored steps.
func (s *Semantic) Retrieve(ctx context.Context, query any) (any, error) {
	q, ok := query.(string)
	if !ok {
		raw, err := json.Marshal(query)
		if err != nil {
			return nil, errors.New(errors.CodeMemoryError, "unsupported query type", err)
		}
		q = string(raw)
	}

	vec, err := s.embedder.Embed(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.store.Search(ctx, s.collection, vec, s.limit, 0)
}

var _ core.Memory = (*Semantic)(nil)
var _ core.Memory = (*InMemory)(nil)
var _ core.Memory = (*SQLiteStore)(nil)
