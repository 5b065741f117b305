package steps

import (
	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/domain"
)

// DefaultMinPosterior is the minimum posterior probability a cluster must
// reach before an item is recorded as a member.
const DefaultMinPosterior = 0.1

// BuildMembershipRows converts per-item posteriors into membership rows.
// Clusters below the threshold are skipped; an item whose best posterior
// misses the threshold gets no rows at all and stays unclustered. The
// maximum-confidence row, and only that row, is flagged primary.
func BuildMembershipRows(
	itemIDs []uuid.UUID,
	kind domain.MembershipItemKind,
	posteriors [][]float64,
	clusterIDs []uuid.UUID,
	minPosterior float64,
) []*domain.ClusterMembership {
	if minPosterior <= 0 {
		minPosterior = DefaultMinPosterior
	}
	rows := make([]*domain.ClusterMembership, 0, len(itemIDs))
	for i, itemID := range itemIDs {
		if i >= len(posteriors) {
			break
		}
		best := -1
		bestConf := 0.0
		start := len(rows)
		for j, p := range posteriors[i] {
			if j >= len(clusterIDs) || p < minPosterior {
				continue
			}
			rows = append(rows, &domain.ClusterMembership{
				ClusterID:  clusterIDs[j],
				ItemID:     itemID,
				ItemKind:   kind,
				Confidence: domain.ClampScore(p),
			})
			if p > bestConf {
				bestConf = p
				best = len(rows) - 1
			}
		}
		if best >= start {
			rows[best].IsPrimary = true
		}
	}
	return rows
}
