package steps

import (
	"sort"

	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/domain"
)

// PropagateClaimMemberships derives claim memberships from the documents
// each claim links to, scaling the document's cluster confidence by the
// evidence-link score and keeping the strongest path per cluster. Duplicate
// claims are resolved to their roots first; claims whose best inherited
// confidence misses the threshold stay unclustered.
func PropagateClaimMemberships(
	claims []*domain.Claim,
	links []*domain.EvidenceLink,
	documentRows []*domain.ClusterMembership,
	minPosterior float64,
) []*domain.ClusterMembership {
	if minPosterior <= 0 {
		minPosterior = DefaultMinPosterior
	}

	claimsByID := make(map[uuid.UUID]*domain.Claim, len(claims))
	for _, c := range claims {
		claimsByID[c.ID] = c
	}
	docClusters := make(map[uuid.UUID][]*domain.ClusterMembership)
	for _, row := range documentRows {
		if row.ItemKind != domain.MembershipItemDocument {
			continue
		}
		docClusters[row.ItemID] = append(docClusters[row.ItemID], row)
	}

	// claim -> cluster -> best inherited confidence
	inherited := make(map[uuid.UUID]map[uuid.UUID]float64)
	for _, link := range links {
		claim := claimsByID[link.ClaimID]
		if claim == nil {
			continue
		}
		root := domain.ResolveRootClaim(claim, claimsByID)
		if root == nil || root.IsDuplicate() {
			continue
		}
		score := domain.ClampScore(link.Score)
		for _, docRow := range docClusters[link.DocumentID] {
			conf := docRow.Confidence * score
			perCluster := inherited[root.ID]
			if perCluster == nil {
				perCluster = map[uuid.UUID]float64{}
				inherited[root.ID] = perCluster
			}
			if conf > perCluster[docRow.ClusterID] {
				perCluster[docRow.ClusterID] = conf
			}
		}
	}

	rows := make([]*domain.ClusterMembership, 0, len(inherited))
	for _, claim := range domain.FilterDuplicateClaims(claims) {
		perCluster := inherited[claim.ID]
		if len(perCluster) == 0 {
			continue
		}
		clusterIDs := make([]uuid.UUID, 0, len(perCluster))
		for clusterID := range perCluster {
			clusterIDs = append(clusterIDs, clusterID)
		}
		sort.Slice(clusterIDs, func(i, j int) bool {
			return clusterIDs[i].String() < clusterIDs[j].String()
		})
		start := len(rows)
		best := -1
		bestConf := 0.0
		for _, clusterID := range clusterIDs {
			conf := perCluster[clusterID]
			if conf < minPosterior {
				continue
			}
			rows = append(rows, &domain.ClusterMembership{
				ClusterID:  clusterID,
				ItemID:     claim.ID,
				ItemKind:   domain.MembershipItemClaim,
				Confidence: domain.ClampScore(conf),
			})
			if conf > bestConf {
				bestConf = conf
				best = len(rows) - 1
			}
		}
		if best >= start {
			rows[best].IsPrimary = true
		}
	}
	return rows
}
