package vecstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

// memoryStore is a brute-force cosine index. It backs local development and
// tests and doubles as the reference behavior for the remote store.
type memoryStore struct {
	log *logger.Logger
	dim int

	mu      sync.RWMutex
	vectors map[string]Vector
}

func NewMemoryStore(log *logger.Logger, dim int) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("vector dim must be positive, got %d", dim)
	}
	return &memoryStore{
		log:     log.With("service", "MemoryVectorStore"),
		dim:     dim,
		vectors: make(map[string]Vector),
	}, nil
}

func (s *memoryStore) Dim() int { return s.dim }

func (s *memoryStore) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	for _, v := range vectors {
		if strings.TrimSpace(v.ID) == "" {
			return apierr.Validation(fmt.Errorf("vector id is required"))
		}
		if len(v.Values) != s.dim {
			return apierr.DimensionMismatch(s.dim, len(v.Values))
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		s.vectors[v.ID] = v
	}
	return nil
}

func (s *memoryStore) Search(ctx context.Context, query []float32, opts SearchOpts) ([]Match, error) {
	if err := checkDim(s.dim, query); err != nil {
		return nil, err
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Pre-filter, then rank: TopK counts eligible candidates only.
	matches := make([]Match, 0, len(s.vectors))
	for _, v := range s.vectors {
		if !matchesFilter(v.Metadata, opts.Filter) {
			continue
		}
		score := SimilarityScore(CosineSimilarity(query, v.Values))
		if score < opts.Threshold {
			continue
		}
		matches = append(matches, Match{ID: v.ID, Score: score, Metadata: v.Metadata})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		// Ties: prefer more recent documents, then stable by ID.
		yi, yj := metadataYear(matches[i].Metadata), metadataYear(matches[j].Metadata)
		if yi != yj {
			return yi > yj
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}
	return matches, nil
}

func (s *memoryStore) DeleteIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.vectors, id)
	}
	return nil
}

func matchesFilter(meta map[string]any, f *Filter) bool {
	if f == nil {
		return true
	}
	if f.YearFrom > 0 || f.YearTo > 0 {
		year := metadataYear(meta)
		if f.YearFrom > 0 && year < f.YearFrom {
			return false
		}
		if f.YearTo > 0 && (year == 0 || year > f.YearTo) {
			return false
		}
	}
	if f.Section != "" {
		sec, _ := meta[PayloadSectionKey].(string)
		if !strings.EqualFold(strings.TrimSpace(sec), strings.TrimSpace(f.Section)) {
			return false
		}
	}
	return true
}

func metadataYear(meta map[string]any) int {
	switch v := meta[PayloadYearKey].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
