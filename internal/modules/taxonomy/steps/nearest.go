package steps

import (
	"errors"
	"sort"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/vecstore"
)

var errEmptyEmbedding = errors.New("embedding is required")

type NearestCluster struct {
	Cluster    *domain.ClusterDefinition `json:"cluster"`
	Similarity float64                   `json:"similarity"`
}

// NearestClusters classifies a new embedding against the current cluster
// generation by centroid similarity, without a refit. Definitions lacking
// a centroid are skipped.
func NearestClusters(defs []*domain.ClusterDefinition, embedding []float32, k int) ([]NearestCluster, error) {
	if len(embedding) == 0 {
		return nil, apierr.Validation(errEmptyEmbedding)
	}
	if k <= 0 {
		k = 3
	}
	out := make([]NearestCluster, 0, len(defs))
	for _, def := range defs {
		centroid := domain.UnmarshalVector(def.Centroid)
		if len(centroid) == 0 {
			continue
		}
		if len(centroid) != len(embedding) {
			return nil, apierr.DimensionMismatch(len(centroid), len(embedding))
		}
		out = append(out, NearestCluster{
			Cluster:    def,
			Similarity: vecstore.SimilarityScore(vecstore.CosineSimilarity(embedding, centroid)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}
