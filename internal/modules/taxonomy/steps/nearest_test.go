package steps

import (
	"testing"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
)

func defWithCentroid(label string, centroid []float32) *domain.ClusterDefinition {
	return &domain.ClusterDefinition{Label: label, Centroid: domain.MarshalVector(centroid)}
}

func TestNearestClusters_RanksBySimilarity(t *testing.T) {
	defs := []*domain.ClusterDefinition{
		defWithCentroid("orthogonal", []float32{0, 1, 0}),
		defWithCentroid("exact", []float32{1, 0, 0}),
		defWithCentroid("close", []float32{0.9, 0.1, 0}),
	}

	got, err := NearestClusters(defs, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected top-2, got %d", len(got))
	}
	if got[0].Cluster.Label != "exact" || got[1].Cluster.Label != "close" {
		t.Fatalf("unexpected ranking: %s, %s", got[0].Cluster.Label, got[1].Cluster.Label)
	}
	if got[0].Similarity != 1 {
		t.Fatalf("expected exact similarity 1, got %v", got[0].Similarity)
	}
}

func TestNearestClusters_SkipsDefinitionsWithoutCentroids(t *testing.T) {
	defs := []*domain.ClusterDefinition{
		{Label: "no centroid"},
		defWithCentroid("ok", []float32{1, 0}),
	}
	got, err := NearestClusters(defs, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if len(got) != 1 || got[0].Cluster.Label != "ok" {
		t.Fatalf("expected only the centroided definition, got %#v", got)
	}
}

func TestNearestClusters_Errors(t *testing.T) {
	defs := []*domain.ClusterDefinition{defWithCentroid("a", []float32{1, 0, 0})}

	if _, err := NearestClusters(defs, nil, 3); err == nil {
		t.Fatalf("expected an error for an empty embedding")
	}
	if _, err := NearestClusters(defs, []float32{1, 0}, 3); !apierr.IsDimensionMismatch(err) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}
