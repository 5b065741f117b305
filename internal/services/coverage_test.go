package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/domain"
)

func makeClusters(n int) []*domain.ClusterDefinition {
	defs := make([]*domain.ClusterDefinition, 0, n)
	for i := 0; i < n; i++ {
		defs = append(defs, &domain.ClusterDefinition{ID: uuid.New(), Label: "cluster"})
	}
	return defs
}

func member(clusterID, itemID uuid.UUID, confidence float64, primary bool) *domain.ClusterMembership {
	return &domain.ClusterMembership{
		ClusterID:  clusterID,
		ItemID:     itemID,
		ItemKind:   domain.MembershipItemClaim,
		Confidence: confidence,
		IsPrimary:  primary,
	}
}

func TestAggregateCoverage_ZeroFillsEveryCluster(t *testing.T) {
	defs := makeClusters(4)
	itemID := uuid.New()
	rows := []*domain.ClusterMembership{
		member(defs[1].ID, itemID, 0.6, true),
		member(defs[1].ID, uuid.New(), 0.3, false),
	}

	got := AggregateCoverage(defs, rows)

	if len(got) != 4 {
		t.Fatalf("expected a row per cluster, got %d", len(got))
	}
	if got[1].ItemCount != 2 || got[1].PrimaryCount != 1 {
		t.Fatalf("unexpected aggregation: %#v", got[1])
	}
	if got[1].ConfidenceSum != 0.9 {
		t.Fatalf("expected confidence sum 0.9, got %v", got[1].ConfidenceSum)
	}
	for _, i := range []int{0, 2, 3} {
		if got[i].ItemCount != 0 || got[i].PrimaryCount != 0 || got[i].ConfidenceSum != 0 {
			t.Fatalf("expected zero-filled row for untouched cluster %d: %#v", i, got[i])
		}
	}
}

func TestAggregateCoverage_IgnoresRowsForUnknownClusters(t *testing.T) {
	defs := makeClusters(1)
	rows := []*domain.ClusterMembership{
		member(uuid.New(), uuid.New(), 0.5, false), // stale row from a deleted cluster
	}
	got := AggregateCoverage(defs, rows)
	if got[0].ItemCount != 0 {
		t.Fatalf("expected the stale row to be skipped, got %#v", got[0])
	}
}

func TestCompareCoverage_WorkedExample(t *testing.T) {
	// Episode touches clusters 1,2,3; the notebook touches 2,4; cluster 5 is
	// covered by neither.
	defs := makeClusters(5)
	episodeRows := []*domain.ClusterMembership{
		member(defs[0].ID, uuid.New(), 0.5, true),
		member(defs[1].ID, uuid.New(), 0.5, true),
		member(defs[2].ID, uuid.New(), 0.5, true),
	}
	notebookRows := []*domain.ClusterMembership{
		member(defs[1].ID, uuid.New(), 0.5, true),
		member(defs[3].ID, uuid.New(), 0.5, true),
	}

	got := CompareCoverage(defs, episodeRows, notebookRows)
	if len(got) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(got))
	}

	want := []struct {
		inEpisode  bool
		inNotebook bool
	}{
		{true, false},
		{true, true},
		{true, false},
		{false, true},
		{false, false},
	}
	for i, w := range want {
		if got[i].InEpisode != w.inEpisode || got[i].InNotebook != w.inNotebook {
			t.Fatalf("row %d: expected in_episode=%v in_notebook=%v, got %#v", i, w.inEpisode, w.inNotebook, got[i])
		}
	}
	if got[1].EpisodeCount != 1 || got[1].NotebookCount != 1 {
		t.Fatalf("unexpected counts on the shared cluster: %#v", got[1])
	}
}

func TestCompareCoverage_EmptyScopes(t *testing.T) {
	defs := makeClusters(2)
	got := CompareCoverage(defs, nil, nil)
	for _, row := range got {
		if row.InEpisode || row.InNotebook || row.EpisodeCount != 0 || row.NotebookCount != 0 {
			t.Fatalf("expected fully false/zero rows, got %#v", row)
		}
	}
}
