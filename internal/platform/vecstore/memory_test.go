package vecstore

import (
	"context"
	"testing"

	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

func newTestStore(t *testing.T, dim int) Store {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	s, err := NewMemoryStore(log, dim)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return s
}

func seedStore(t *testing.T, s Store, vectors []Vector) {
	t.Helper()
	if err := s.Upsert(context.Background(), vectors); err != nil {
		t.Fatalf("upsert: %v", err)
	}
}

func TestMemoryStore_SearchRanksAndThresholds(t *testing.T) {
	s := newTestStore(t, 3)
	seedStore(t, s, []Vector{
		{ID: "exact", Values: []float32{1, 0, 0}},
		{ID: "close", Values: []float32{0.9, 0.1, 0}},
		{ID: "orthogonal", Values: []float32{0, 1, 0}},
	})

	got, err := s.Search(context.Background(), []float32{1, 0, 0}, SearchOpts{TopK: 10, Threshold: 0.5})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches above threshold, got %d", len(got))
	}
	if got[0].ID != "exact" || got[1].ID != "close" {
		t.Fatalf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Score != 1 {
		t.Fatalf("expected exact match score 1, got %v", got[0].Score)
	}
}

func TestMemoryStore_FilterAppliedBeforeTopK(t *testing.T) {
	s := newTestStore(t, 2)
	seedStore(t, s, []Vector{
		{ID: "new-far", Values: []float32{0.5, 0.8}, Metadata: map[string]any{PayloadYearKey: 2024}},
		{ID: "old-near", Values: []float32{1, 0}, Metadata: map[string]any{PayloadYearKey: 2001}},
		{ID: "new-near", Values: []float32{0.99, 0.05}, Metadata: map[string]any{PayloadYearKey: 2023}},
	})

	// TopK=1 with a year filter must consider eligible candidates only: the
	// highest-scoring overall ("old-near") is filtered out, not counted.
	got, err := s.Search(context.Background(), []float32{1, 0}, SearchOpts{
		TopK:   1,
		Filter: &Filter{YearFrom: 2020},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "new-near" {
		t.Fatalf("expected new-near, got %#v", got)
	}
}

func TestMemoryStore_SectionFilter(t *testing.T) {
	s := newTestStore(t, 2)
	seedStore(t, s, []Vector{
		{ID: "results", Values: []float32{1, 0}, Metadata: map[string]any{PayloadSectionKey: "Results"}},
		{ID: "intro", Values: []float32{1, 0}, Metadata: map[string]any{PayloadSectionKey: "Introduction"}},
	})

	got, err := s.Search(context.Background(), []float32{1, 0}, SearchOpts{
		Filter: &Filter{Section: "results"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "results" {
		t.Fatalf("expected a case-insensitive section match, got %#v", got)
	}
}

func TestMemoryStore_TieBreaksOnRecency(t *testing.T) {
	s := newTestStore(t, 2)
	seedStore(t, s, []Vector{
		{ID: "older", Values: []float32{1, 0}, Metadata: map[string]any{PayloadYearKey: 2010}},
		{ID: "newer", Values: []float32{1, 0}, Metadata: map[string]any{PayloadYearKey: 2022}},
	})

	got, err := s.Search(context.Background(), []float32{1, 0}, SearchOpts{TopK: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got[0].ID != "newer" || got[1].ID != "older" {
		t.Fatalf("expected recency tie-break, got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestMemoryStore_DimensionMismatch(t *testing.T) {
	s := newTestStore(t, 3)

	if err := s.Upsert(context.Background(), []Vector{{ID: "bad", Values: []float32{1, 0}}}); !apierr.IsDimensionMismatch(err) {
		t.Fatalf("expected dimension mismatch on upsert, got %v", err)
	}
	if _, err := s.Search(context.Background(), []float32{1, 0}, SearchOpts{}); !apierr.IsDimensionMismatch(err) {
		t.Fatalf("expected dimension mismatch on search, got %v", err)
	}
}

func TestMemoryStore_DeleteIDs(t *testing.T) {
	s := newTestStore(t, 2)
	seedStore(t, s, []Vector{
		{ID: "a", Values: []float32{1, 0}},
		{ID: "b", Values: []float32{0, 1}},
	})
	if err := s.DeleteIDs(context.Background(), []string{"a", "missing"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := s.Search(context.Background(), []float32{1, 0}, SearchOpts{Threshold: -1})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected only b to remain, got %#v", got)
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Fatalf("expected 0 for zero magnitude, got %v", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Fatalf("expected 0 for mismatched lengths, got %v", got)
	}
}

func TestSimilarityScore_Clamps(t *testing.T) {
	if got := SimilarityScore(-0.4); got != 0 {
		t.Fatalf("expected negative cosine clamped to 0, got %v", got)
	}
	if got := SimilarityScore(1.0000001); got != 1 {
		t.Fatalf("expected >1 clamped to 1, got %v", got)
	}
}
