package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/data/repos"
	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

type ScopeKind string

const (
	ScopeEpisode  ScopeKind = "episode"
	ScopeNotebook ScopeKind = "notebook"
	ScopeCorpus   ScopeKind = "corpus"
)

// Scope selects a set of items for coverage aggregation: the claims of one
// episode, the claims a user has annotated ("notebook"), or every document
// in the corpus.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   uuid.UUID `json:"id,omitempty"`
}

// CoverageRow reports one cluster for a scope. Every cluster appears,
// zero-filled when nothing in scope maps onto it, so callers can render a
// complete territory map.
type CoverageRow struct {
	ClusterID     uuid.UUID `json:"cluster_id"`
	Label         string    `json:"label"`
	LayoutX       float64   `json:"layout_x"`
	LayoutY       float64   `json:"layout_y"`
	ItemCount     int       `json:"item_count"`
	PrimaryCount  int       `json:"primary_count"`
	ConfidenceSum float64   `json:"confidence_sum"`
}

type ComparisonRow struct {
	ClusterID     uuid.UUID `json:"cluster_id"`
	Label         string    `json:"label"`
	InEpisode     bool      `json:"in_episode"`
	InNotebook    bool      `json:"in_notebook"`
	EpisodeCount  int       `json:"episode_count"`
	NotebookCount int       `json:"notebook_count"`
}

type ClusterItems struct {
	Cluster *domain.ClusterDefinition   `json:"cluster"`
	Members []*domain.ClusterMembership `json:"members"`
}

type CoverageService interface {
	Overview(ctx context.Context, scope Scope) ([]CoverageRow, error)
	Comparison(ctx context.Context, episodeScope, notebookScope Scope) ([]ComparisonRow, error)
	ItemsInCluster(ctx context.Context, clusterID uuid.UUID, scope Scope) (*ClusterItems, error)
}

type coverageService struct {
	log         *logger.Logger
	defs        repos.ClusterDefinitionRepo
	memberships repos.ClusterMembershipRepo
	claims      repos.ClaimRepo
	docs        repos.DocumentRepo
	annotations repos.AnnotationRepo
}

func NewCoverageService(
	log *logger.Logger,
	defs repos.ClusterDefinitionRepo,
	memberships repos.ClusterMembershipRepo,
	claims repos.ClaimRepo,
	docs repos.DocumentRepo,
	annotations repos.AnnotationRepo,
) CoverageService {
	return &coverageService{
		log:         log.With("service", "CoverageService"),
		defs:        defs,
		memberships: memberships,
		claims:      claims,
		docs:        docs,
		annotations: annotations,
	}
}

func (s *coverageService) Overview(ctx context.Context, scope Scope) ([]CoverageRow, error) {
	defs, err := s.defs.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	rows, err := s.scopeMemberships(ctx, scope)
	if err != nil {
		return nil, err
	}
	return AggregateCoverage(defs, rows), nil
}

func (s *coverageService) Comparison(ctx context.Context, episodeScope, notebookScope Scope) ([]ComparisonRow, error) {
	defs, err := s.defs.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	episodeRows, err := s.scopeMemberships(ctx, episodeScope)
	if err != nil {
		return nil, err
	}
	notebookRows, err := s.scopeMemberships(ctx, notebookScope)
	if err != nil {
		return nil, err
	}
	return CompareCoverage(defs, episodeRows, notebookRows), nil
}

func (s *coverageService) ItemsInCluster(ctx context.Context, clusterID uuid.UUID, scope Scope) (*ClusterItems, error) {
	def, err := s.defs.GetByID(ctx, nil, clusterID)
	if err != nil {
		return nil, apierr.NotFound("cluster", clusterID)
	}
	members, err := s.memberships.GetByClusterID(ctx, nil, clusterID)
	if err != nil {
		return nil, err
	}
	kind, inScope, err := s.scopeItemIDs(ctx, scope)
	if err != nil {
		return nil, err
	}
	filtered := make([]*domain.ClusterMembership, 0, len(members))
	for _, m := range members {
		if m.ItemKind == kind && inScope[m.ItemID] {
			filtered = append(filtered, m)
		}
	}
	return &ClusterItems{Cluster: def, Members: filtered}, nil
}

func (s *coverageService) scopeMemberships(ctx context.Context, scope Scope) ([]*domain.ClusterMembership, error) {
	kind, inScope, err := s.scopeItemIDs(ctx, scope)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(inScope))
	for id := range inScope {
		ids = append(ids, id)
	}
	return s.memberships.GetByItemIDs(ctx, nil, kind, ids)
}

// scopeItemIDs resolves a scope to concrete item IDs. Duplicate claims are
// excluded everywhere; annotated duplicates are resolved to their roots.
func (s *coverageService) scopeItemIDs(ctx context.Context, scope Scope) (domain.MembershipItemKind, map[uuid.UUID]bool, error) {
	switch scope.Kind {
	case ScopeEpisode:
		claims, err := s.claims.GetByEpisodeID(ctx, nil, scope.ID)
		if err != nil {
			return "", nil, err
		}
		out := map[uuid.UUID]bool{}
		for _, c := range domain.FilterDuplicateClaims(claims) {
			out[c.ID] = true
		}
		return domain.MembershipItemClaim, out, nil
	case ScopeNotebook:
		claimIDs, err := s.annotations.GetClaimIDsForUser(ctx, nil, scope.ID)
		if err != nil {
			return "", nil, err
		}
		claims, err := s.claims.GetByIDs(ctx, nil, claimIDs)
		if err != nil {
			return "", nil, err
		}
		byID := make(map[uuid.UUID]*domain.Claim, len(claims))
		for _, c := range claims {
			byID[c.ID] = c
		}
		out := map[uuid.UUID]bool{}
		for _, c := range claims {
			if root := domain.ResolveRootClaim(c, byID); root != nil && !root.IsDuplicate() {
				out[root.ID] = true
			}
		}
		return domain.MembershipItemClaim, out, nil
	case ScopeCorpus:
		docs, err := s.docs.GetAll(ctx, nil)
		if err != nil {
			return "", nil, err
		}
		out := map[uuid.UUID]bool{}
		for _, d := range docs {
			out[d.ID] = true
		}
		return domain.MembershipItemDocument, out, nil
	default:
		return "", nil, apierr.Validation(fmt.Errorf("unknown scope kind %q", scope.Kind))
	}
}

// AggregateCoverage folds membership rows into per-cluster statistics,
// emitting one row per cluster definition regardless of matches.
func AggregateCoverage(defs []*domain.ClusterDefinition, rows []*domain.ClusterMembership) []CoverageRow {
	byCluster := make(map[uuid.UUID]*CoverageRow, len(defs))
	out := make([]CoverageRow, 0, len(defs))
	for _, def := range defs {
		out = append(out, CoverageRow{
			ClusterID: def.ID,
			Label:     def.Label,
			LayoutX:   def.LayoutX,
			LayoutY:   def.LayoutY,
		})
		byCluster[def.ID] = &out[len(out)-1]
	}
	for _, row := range rows {
		agg, ok := byCluster[row.ClusterID]
		if !ok {
			continue
		}
		agg.ItemCount++
		agg.ConfidenceSum += row.Confidence
		if row.IsPrimary {
			agg.PrimaryCount++
		}
	}
	return out
}

// CompareCoverage reports, per cluster, whether each of two scopes touches
// it and with how many items.
func CompareCoverage(defs []*domain.ClusterDefinition, episodeRows, notebookRows []*domain.ClusterMembership) []ComparisonRow {
	episodeCounts := map[uuid.UUID]int{}
	for _, r := range episodeRows {
		episodeCounts[r.ClusterID]++
	}
	notebookCounts := map[uuid.UUID]int{}
	for _, r := range notebookRows {
		notebookCounts[r.ClusterID]++
	}
	out := make([]ComparisonRow, 0, len(defs))
	for _, def := range defs {
		out = append(out, ComparisonRow{
			ClusterID:     def.ID,
			Label:         def.Label,
			InEpisode:     episodeCounts[def.ID] > 0,
			InNotebook:    notebookCounts[def.ID] > 0,
			EpisodeCount:  episodeCounts[def.ID],
			NotebookCount: notebookCounts[def.ID],
		})
	}
	return out
}
