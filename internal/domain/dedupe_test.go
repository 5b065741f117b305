package domain

import (
	"testing"

	"github.com/google/uuid"
)

func claimChain(n int) ([]*Claim, map[uuid.UUID]*Claim) {
	claims := make([]*Claim, n)
	for i := range claims {
		claims[i] = &Claim{ID: uuid.New()}
	}
	// claims[i] duplicates claims[i+1]; the last is the root.
	for i := 0; i < n-1; i++ {
		claims[i].DuplicateOfID = &claims[i+1].ID
	}
	byID := make(map[uuid.UUID]*Claim, n)
	for _, c := range claims {
		byID[c.ID] = c
	}
	return claims, byID
}

func TestResolveRootClaim_FollowsChain(t *testing.T) {
	claims, byID := claimChain(3)

	root := ResolveRootClaim(claims[0], byID)
	if root == nil || root.ID != claims[2].ID {
		t.Fatalf("expected the chain to resolve to the final root")
	}
	if ResolveRootClaim(claims[2], byID).ID != claims[2].ID {
		t.Fatalf("a root should resolve to itself")
	}
}

func TestResolveRootClaim_StopsOnCycle(t *testing.T) {
	a := &Claim{ID: uuid.New()}
	b := &Claim{ID: uuid.New()}
	a.DuplicateOfID = &b.ID
	b.DuplicateOfID = &a.ID
	byID := map[uuid.UUID]*Claim{a.ID: a, b.ID: b}

	got := ResolveRootClaim(a, byID)
	if got == nil {
		t.Fatalf("expected a claim back, got nil")
	}
	if got.ID != b.ID {
		t.Fatalf("expected the walk to stop at the last claim before revisiting, got %s", got.ID)
	}
}

func TestResolveRootClaim_DanglingReference(t *testing.T) {
	missing := uuid.New()
	c := &Claim{ID: uuid.New(), DuplicateOfID: &missing}

	got := ResolveRootClaim(c, map[uuid.UUID]*Claim{c.ID: c})
	if got == nil || got.ID != c.ID {
		t.Fatalf("expected the last resolvable claim, got %#v", got)
	}
}

func TestResolveRootClaim_NilInput(t *testing.T) {
	if got := ResolveRootClaim(nil, nil); got != nil {
		t.Fatalf("expected nil for nil input, got %#v", got)
	}
}

func TestFilterDuplicateClaims(t *testing.T) {
	claims, _ := claimChain(3)
	claims = append(claims, nil)

	got := FilterDuplicateClaims(claims)
	if len(got) != 1 || got[0].ID != claims[2].ID {
		t.Fatalf("expected only the root claim to survive, got %d", len(got))
	}
}
