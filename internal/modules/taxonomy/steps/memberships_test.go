package steps

import (
	"testing"

	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/domain"
)

func TestBuildMembershipRows_ThresholdAndPrimary(t *testing.T) {
	itemID := uuid.New()
	clusterIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	// Posteriors A=0.62, B=0.25, C=0.05, D=0.08: only A and B clear the
	// threshold, A is primary.
	posteriors := [][]float64{{0.62, 0.25, 0.05, 0.08}}

	rows := BuildMembershipRows([]uuid.UUID{itemID}, domain.MembershipItemDocument, posteriors, clusterIDs, 0.1)

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows above threshold, got %d", len(rows))
	}
	if rows[0].ClusterID != clusterIDs[0] || !rows[0].IsPrimary || rows[0].Confidence != 0.62 {
		t.Fatalf("unexpected first row: %#v", rows[0])
	}
	if rows[1].ClusterID != clusterIDs[1] || rows[1].IsPrimary {
		t.Fatalf("unexpected second row: %#v", rows[1])
	}
}

func TestBuildMembershipRows_UnclusteredItemGetsNoRows(t *testing.T) {
	clusterIDs := []uuid.UUID{uuid.New(), uuid.New()}
	posteriors := [][]float64{{0.08, 0.05}}

	rows := BuildMembershipRows([]uuid.UUID{uuid.New()}, domain.MembershipItemDocument, posteriors, clusterIDs, 0.1)
	if len(rows) != 0 {
		t.Fatalf("expected no rows for an unclustered item, got %d", len(rows))
	}
}

func TestBuildMembershipRows_AtMostOnePrimaryPerItem(t *testing.T) {
	clusterIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	items := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	posteriors := [][]float64{
		{0.5, 0.3, 0.2},
		{0.33, 0.33, 0.34},
		{0.02, 0.03, 0.95},
	}

	rows := BuildMembershipRows(items, domain.MembershipItemClaim, posteriors, clusterIDs, 0.1)

	primaries := map[uuid.UUID]int{}
	maxConf := map[uuid.UUID]float64{}
	primaryConf := map[uuid.UUID]float64{}
	for _, r := range rows {
		if r.Confidence > maxConf[r.ItemID] {
			maxConf[r.ItemID] = r.Confidence
		}
		if r.IsPrimary {
			primaries[r.ItemID]++
			primaryConf[r.ItemID] = r.Confidence
		}
	}
	for _, item := range items {
		if primaries[item] != 1 {
			t.Fatalf("item %s: expected exactly one primary row, got %d", item, primaries[item])
		}
		if primaryConf[item] != maxConf[item] {
			t.Fatalf("item %s: primary row must carry the max confidence", item)
		}
	}
}

func TestBuildMembershipRows_DefaultThreshold(t *testing.T) {
	clusterIDs := []uuid.UUID{uuid.New(), uuid.New()}
	posteriors := [][]float64{{0.95, 0.05}}

	rows := BuildMembershipRows([]uuid.UUID{uuid.New()}, domain.MembershipItemDocument, posteriors, clusterIDs, 0)
	if len(rows) != 1 {
		t.Fatalf("expected the 0.1 default threshold to drop the 0.05 posterior, got %d rows", len(rows))
	}
}
