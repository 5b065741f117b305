package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/domain"
)

func newTestClaim(anchorMs int64) *domain.Claim {
	return &domain.Claim{ID: uuid.New(), AnchorMs: anchorMs}
}

func newTestLink(claim *domain.Claim, docID uuid.UUID) *domain.EvidenceLink {
	return &domain.EvidenceLink{ID: uuid.New(), ClaimID: claim.ID, DocumentID: docID, Score: 0.5}
}

func claimIndex(claims ...*domain.Claim) map[uuid.UUID]*domain.Claim {
	m := make(map[uuid.UUID]*domain.Claim, len(claims))
	for _, c := range claims {
		m[c.ID] = c
	}
	return m
}

func TestBuildContextBundle_NeverReturnsFutureEvidence(t *testing.T) {
	past := newTestClaim(10_000)
	future := newTestClaim(60_000)
	links := []*domain.EvidenceLink{
		newTestLink(past, uuid.New()),
		newTestLink(future, uuid.New()),
	}

	bundle := BuildContextBundle(nil, links, claimIndex(past, future), 30_000, AssembleOpts{})

	if len(bundle.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(bundle.Items))
	}
	if bundle.Items[0].AnchorMs != 10_000 {
		t.Fatalf("expected the past claim, got anchor %d", bundle.Items[0].AnchorMs)
	}
}

func TestBuildContextBundle_LookbackCutoff(t *testing.T) {
	tooOld := newTestClaim(1_000) // outside the 5-minute default window
	recent := newTestClaim(290_000)
	links := []*domain.EvidenceLink{
		newTestLink(tooOld, uuid.New()),
		newTestLink(recent, uuid.New()),
	}

	bundle := BuildContextBundle(nil, links, claimIndex(tooOld, recent), 400_000, AssembleOpts{})

	if len(bundle.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(bundle.Items))
	}
	if bundle.Items[0].Claim.ID != recent.ID {
		t.Fatalf("expected the recent claim to survive the cutoff")
	}
}

func TestBuildContextBundle_DedupesBySourceDocument(t *testing.T) {
	docID := uuid.New()
	older := newTestClaim(5_000)
	newer := newTestClaim(20_000)
	other := newTestClaim(1_000)
	links := []*domain.EvidenceLink{
		newTestLink(older, docID),
		newTestLink(newer, docID),
		newTestLink(other, uuid.New()),
	}

	bundle := BuildContextBundle(nil, links, claimIndex(older, newer, other), 25_000, AssembleOpts{})

	if len(bundle.Items) != 2 {
		t.Fatalf("expected 2 items after dedupe, got %d", len(bundle.Items))
	}
	if bundle.Items[0].Claim.ID != newer.ID {
		t.Fatalf("expected the newer claim to win the shared document slot")
	}
	if bundle.Items[0].AnchorMs < bundle.Items[1].AnchorMs {
		t.Fatalf("expected newest-first ordering")
	}
}

func TestBuildContextBundle_CapsItemCount(t *testing.T) {
	claims := make([]*domain.Claim, 0, 10)
	links := make([]*domain.EvidenceLink, 0, 10)
	for i := 0; i < 10; i++ {
		c := newTestClaim(int64(1_000 * (i + 1)))
		claims = append(claims, c)
		links = append(links, newTestLink(c, uuid.New()))
	}

	bundle := BuildContextBundle(nil, links, claimIndex(claims...), 20_000, AssembleOpts{MaxItems: 3})

	if len(bundle.Items) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(bundle.Items))
	}
	// Highest anchors first.
	if bundle.Items[0].AnchorMs != 10_000 || bundle.Items[2].AnchorMs != 8_000 {
		t.Fatalf("expected the 3 newest anchors, got %d..%d", bundle.Items[0].AnchorMs, bundle.Items[2].AnchorMs)
	}
}

func TestBuildContextBundle_WindowOnlyWhenContaining(t *testing.T) {
	w := &domain.TemporalWindow{StartMs: 10_000, EndMs: 20_000}

	in := BuildContextBundle(w, nil, nil, 15_000, AssembleOpts{})
	if in.Window == nil {
		t.Fatalf("expected window at position inside [start,end)")
	}

	atEnd := BuildContextBundle(w, nil, nil, 20_000, AssembleOpts{})
	if atEnd.Window != nil {
		t.Fatalf("end bound is exclusive; expected nil window")
	}

	gap := BuildContextBundle(nil, nil, nil, 15_000, AssembleOpts{})
	if gap.Window != nil {
		t.Fatalf("expected nil window for a gap")
	}
	if gap.Items == nil {
		t.Fatalf("items must be non-nil even when empty")
	}
}

func TestBuildContextBundle_SkipsDuplicateClaims(t *testing.T) {
	root := newTestClaim(10_000)
	dup := newTestClaim(12_000)
	dup.DuplicateOfID = &root.ID
	links := []*domain.EvidenceLink{newTestLink(dup, uuid.New())}

	bundle := BuildContextBundle(nil, links, claimIndex(root, dup), 20_000, AssembleOpts{})

	if len(bundle.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(bundle.Items))
	}
	if bundle.Items[0].Claim.ID != root.ID {
		t.Fatalf("expected the duplicate to resolve to its root claim")
	}
}
