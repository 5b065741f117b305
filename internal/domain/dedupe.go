package domain

import "github.com/google/uuid"

// ResolveRootClaim follows duplicate_of references to the root non-duplicate
// claim. Aggregate queries always operate on roots; duplicates are retained
// for lineage only. The ingestion pipeline should never produce cycles, but
// the walk guards against them and against dangling references by stopping
// at the last resolvable claim.
func ResolveRootClaim(start *Claim, byID map[uuid.UUID]*Claim) *Claim {
	if start == nil {
		return nil
	}
	seen := map[uuid.UUID]bool{start.ID: true}
	cur := start
	for cur.IsDuplicate() {
		next, ok := byID[*cur.DuplicateOfID]
		if !ok || next == nil {
			return cur
		}
		if seen[next.ID] {
			return cur
		}
		seen[next.ID] = true
		cur = next
	}
	return cur
}

// FilterDuplicateClaims drops duplicate claims, keeping only roots, for use
// by every aggregate query.
func FilterDuplicateClaims(claims []*Claim) []*Claim {
	out := make([]*Claim, 0, len(claims))
	for _, c := range claims {
		if c == nil || c.IsDuplicate() {
			continue
		}
		out = append(out, c)
	}
	return out
}
