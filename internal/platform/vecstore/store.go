package vecstore

import (
	"context"
	"math"

	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
)

// Payload keys shared by every store implementation. Filters match against
// these keys, so indexers must set them on upsert.
const (
	PayloadDocumentIDKey = "document_id"
	PayloadPassageIDKey  = "passage_id"
	PayloadYearKey       = "year"
	PayloadSectionKey    = "section"
)

type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is one similarity hit. Score is cosine similarity mapped to [0,1]
// via 1 - cosine_distance; higher is better.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Filter narrows the candidate set before top-k selection, never after, so
// TopK always reflects eligible candidates.
type Filter struct {
	YearFrom int
	YearTo   int
	Section  string
}

type SearchOpts struct {
	TopK      int
	Threshold float64
	Filter    *Filter
}

type Store interface {
	Upsert(ctx context.Context, vectors []Vector) error
	Search(ctx context.Context, query []float32, opts SearchOpts) ([]Match, error)
	DeleteIDs(ctx context.Context, ids []string) error
	Dim() int
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector has zero magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// SimilarityScore maps cosine similarity to the [0,1] scoring space used
// across the evidence pipeline: score = 1 - cosine_distance, clamped.
func SimilarityScore(cos float64) float64 {
	if cos < 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}

func checkDim(want int, query []float32) error {
	if want > 0 && len(query) != want {
		return apierr.DimensionMismatch(want, len(query))
	}
	return nil
}
