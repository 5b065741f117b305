package steps

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/domain"
)

func docMembership(clusterID, docID uuid.UUID, confidence float64) *domain.ClusterMembership {
	return &domain.ClusterMembership{
		ClusterID:  clusterID,
		ItemID:     docID,
		ItemKind:   domain.MembershipItemDocument,
		Confidence: confidence,
	}
}

func TestPropagateClaimMemberships_ScalesByLinkScore(t *testing.T) {
	clusterID := uuid.New()
	docID := uuid.New()
	claim := &domain.Claim{ID: uuid.New()}
	links := []*domain.EvidenceLink{{ClaimID: claim.ID, DocumentID: docID, Score: 0.5}}
	docRows := []*domain.ClusterMembership{docMembership(clusterID, docID, 0.8)}

	rows := PropagateClaimMemberships([]*domain.Claim{claim}, links, docRows, 0.1)

	if len(rows) != 1 {
		t.Fatalf("expected 1 claim row, got %d", len(rows))
	}
	if math.Abs(rows[0].Confidence-0.4) > 1e-9 {
		t.Fatalf("expected confidence 0.8*0.5=0.4, got %v", rows[0].Confidence)
	}
	if rows[0].ItemKind != domain.MembershipItemClaim || !rows[0].IsPrimary {
		t.Fatalf("unexpected row: %#v", rows[0])
	}
}

func TestPropagateClaimMemberships_KeepsStrongestPathPerCluster(t *testing.T) {
	clusterID := uuid.New()
	docA, docB := uuid.New(), uuid.New()
	claim := &domain.Claim{ID: uuid.New()}
	links := []*domain.EvidenceLink{
		{ClaimID: claim.ID, DocumentID: docA, Score: 0.9},
		{ClaimID: claim.ID, DocumentID: docB, Score: 0.4},
	}
	docRows := []*domain.ClusterMembership{
		docMembership(clusterID, docA, 0.5), // path: 0.45
		docMembership(clusterID, docB, 0.9), // path: 0.36
	}

	rows := PropagateClaimMemberships([]*domain.Claim{claim}, links, docRows, 0.1)

	if len(rows) != 1 {
		t.Fatalf("expected one row per cluster, got %d", len(rows))
	}
	if math.Abs(rows[0].Confidence-0.45) > 1e-9 {
		t.Fatalf("expected the strongest path 0.45, got %v", rows[0].Confidence)
	}
}

func TestPropagateClaimMemberships_ResolvesDuplicatesToRoot(t *testing.T) {
	clusterID := uuid.New()
	docID := uuid.New()
	root := &domain.Claim{ID: uuid.New()}
	dup := &domain.Claim{ID: uuid.New(), DuplicateOfID: &root.ID}
	links := []*domain.EvidenceLink{{ClaimID: dup.ID, DocumentID: docID, Score: 0.9}}
	docRows := []*domain.ClusterMembership{docMembership(clusterID, docID, 0.7)}

	rows := PropagateClaimMemberships([]*domain.Claim{root, dup}, links, docRows, 0.1)

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].ItemID != root.ID {
		t.Fatalf("expected the membership on the root claim, got %s", rows[0].ItemID)
	}
}

func TestPropagateClaimMemberships_BelowThresholdStaysUnclustered(t *testing.T) {
	clusterID := uuid.New()
	docID := uuid.New()
	claim := &domain.Claim{ID: uuid.New()}
	links := []*domain.EvidenceLink{{ClaimID: claim.ID, DocumentID: docID, Score: 0.2}}
	docRows := []*domain.ClusterMembership{docMembership(clusterID, docID, 0.3)} // path: 0.06

	rows := PropagateClaimMemberships([]*domain.Claim{claim}, links, docRows, 0.1)
	if len(rows) != 0 {
		t.Fatalf("expected no rows below the threshold, got %d", len(rows))
	}
}

func TestPropagateClaimMemberships_IgnoresClaimKindRows(t *testing.T) {
	clusterID := uuid.New()
	docID := uuid.New()
	claim := &domain.Claim{ID: uuid.New()}
	links := []*domain.EvidenceLink{{ClaimID: claim.ID, DocumentID: docID, Score: 0.9}}
	// A claim-kind row sharing the document ID must not feed propagation.
	docRows := []*domain.ClusterMembership{
		{ClusterID: clusterID, ItemID: docID, ItemKind: domain.MembershipItemClaim, Confidence: 0.9},
	}

	rows := PropagateClaimMemberships([]*domain.Claim{claim}, links, docRows, 0.1)
	if len(rows) != 0 {
		t.Fatalf("expected claim-kind rows to be ignored, got %d rows", len(rows))
	}
}
