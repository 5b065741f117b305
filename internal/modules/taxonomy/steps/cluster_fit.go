package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/proofcast/proofcast-backend/internal/data/repos"
	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
	"github.com/proofcast/proofcast-backend/internal/platform/openai"
)

type ClusterFitDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Docs     repos.DocumentRepo
	Passages repos.PassageRepo
	Claims   repos.ClaimRepo
	Links    repos.EvidenceLinkRepo
	Clusters repos.ClusterDefinitionRepo
	Members  repos.ClusterMembershipRepo
	AI       openai.Client // optional; nil falls back to positional labels
}

type ClusterFitInput struct {
	NumClusters  int
	MinPosterior float64
	MaxIter      int
	Seed         int64
}

type ClusterFitOutput struct {
	ClustersMade    int `json:"clusters_made"`
	DocumentMembers int `json:"document_members"`
	ClaimMembers    int `json:"claim_members"`
	UnclusteredDocs int `json:"unclustered_docs"`
}

// ClusterFit is the offline refit: it fits the soft clustering model over
// every document embedding, lays the clusters out for display, labels
// them, and rewrites the definition and membership tables. It assumes
// exclusive write access to those tables for its duration; readers may see
// the previous generation until the swap lands.
func ClusterFit(ctx context.Context, deps ClusterFitDeps, in ClusterFitInput) (ClusterFitOutput, error) {
	out := ClusterFitOutput{}
	if deps.DB == nil || deps.Log == nil || deps.Docs == nil || deps.Passages == nil || deps.Claims == nil || deps.Links == nil || deps.Clusters == nil || deps.Members == nil {
		return out, fmt.Errorf("cluster_fit: missing deps")
	}
	if in.NumClusters <= 0 {
		return out, fmt.Errorf("cluster_fit: num_clusters must be positive")
	}
	if in.MinPosterior <= 0 {
		in.MinPosterior = DefaultMinPosterior
	}

	docs, err := deps.Docs.GetAll(ctx, nil)
	if err != nil {
		return out, err
	}
	if len(docs) == 0 {
		return out, fmt.Errorf("cluster_fit: no documents to cluster")
	}
	docIDs := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		docIDs = append(docIDs, d.ID)
	}
	passages, err := deps.Passages.GetByDocumentIDs(ctx, nil, docIDs)
	if err != nil {
		return out, err
	}

	embeddedIDs, vectors := documentEmbeddings(docs, passages)
	out.UnclusteredDocs = len(docs) - len(embeddedIDs)
	if len(vectors) == 0 {
		return out, fmt.Errorf("cluster_fit: no document has embedded passages")
	}

	fit, err := FitGMM(vectors, in.NumClusters, in.MaxIter, in.Seed)
	if err != nil {
		return out, err
	}
	layout := ProjectLayout2D(fit.Centroids)

	labels, err := labelClusters(ctx, deps, docs, embeddedIDs, fit)
	if err != nil {
		return out, err
	}

	var prevGeneration int64
	if existing, getErr := deps.Clusters.GetAll(ctx, nil); getErr == nil {
		for _, def := range existing {
			if def.Generation > prevGeneration {
				prevGeneration = def.Generation
			}
		}
	}

	defs := make([]*domain.ClusterDefinition, 0, len(fit.Centroids))
	for j := range fit.Centroids {
		keywordsJSON, _ := json.Marshal(labels[j].Keywords)
		defs = append(defs, &domain.ClusterDefinition{
			ID:          uuid.New(),
			Label:       labels[j].Label,
			Description: labels[j].Description,
			Keywords:    keywordsJSON,
			LayoutX:     layout[j][0],
			LayoutY:     layout[j][1],
			Centroid:    domain.MarshalVector(fit.Centroids[j]),
			Generation:  prevGeneration + 1,
		})
	}
	clusterIDs := make([]uuid.UUID, len(defs))
	for j, def := range defs {
		clusterIDs[j] = def.ID
	}

	docRows := BuildMembershipRows(embeddedIDs, domain.MembershipItemDocument, fit.Posteriors, clusterIDs, in.MinPosterior)

	claims, err := deps.Claims.GetAll(ctx, nil)
	if err != nil {
		return out, err
	}
	rootClaims := domain.FilterDuplicateClaims(claims)
	rootIDs := make([]uuid.UUID, 0, len(rootClaims))
	for _, c := range rootClaims {
		rootIDs = append(rootIDs, c.ID)
	}
	links, err := deps.Links.GetByClaimIDs(ctx, nil, rootIDs)
	if err != nil {
		return out, err
	}
	claimRows := PropagateClaimMemberships(claims, links, docRows, in.MinPosterior)

	err = deps.DB.Transaction(func(tx *gorm.DB) error {
		if _, txErr := deps.Clusters.ReplaceAll(ctx, tx, defs); txErr != nil {
			return txErr
		}
		if _, txErr := deps.Members.ReplaceForKind(ctx, tx, domain.MembershipItemDocument, docRows); txErr != nil {
			return txErr
		}
		if _, txErr := deps.Members.ReplaceForKind(ctx, tx, domain.MembershipItemClaim, claimRows); txErr != nil {
			return txErr
		}
		return updateClusterStats(ctx, tx, deps, defs, docRows, claimRows)
	})
	if err != nil {
		return out, err
	}

	out.ClustersMade = len(defs)
	out.DocumentMembers = len(docRows)
	out.ClaimMembers = len(claimRows)
	deps.Log.Info(
		"Cluster fit complete",
		"clusters", out.ClustersMade,
		"document_members", out.DocumentMembers,
		"claim_members", out.ClaimMembers,
		"unclustered_docs", out.UnclusteredDocs,
	)
	return out, nil
}

// documentEmbeddings averages each document's passage embeddings. A
// document with no embedded passages is skipped and stays unclustered.
func documentEmbeddings(docs []*domain.Document, passages []*domain.Passage) ([]uuid.UUID, [][]float32) {
	byDoc := make(map[uuid.UUID][][]float32)
	for _, p := range passages {
		vec := domain.UnmarshalVector(p.Embedding)
		if len(vec) == 0 {
			continue
		}
		byDoc[p.DocumentID] = append(byDoc[p.DocumentID], vec)
	}
	ids := make([]uuid.UUID, 0, len(byDoc))
	vectors := make([][]float32, 0, len(byDoc))
	for _, d := range docs {
		vecs := byDoc[d.ID]
		if len(vecs) == 0 {
			continue
		}
		ids = append(ids, d.ID)
		vectors = append(vectors, meanVector(vecs))
	}
	return ids, vectors
}

func meanVector(vecs [][]float32) []float32 {
	dim := len(vecs[0])
	sum := make([]float64, dim)
	for _, v := range vecs {
		for d := 0; d < dim && d < len(v); d++ {
			sum[d] += float64(v[d])
		}
	}
	out := make([]float32, dim)
	for d := 0; d < dim; d++ {
		out[d] = float32(sum[d] / float64(len(vecs)))
	}
	return out
}

type clusterLabel struct {
	Label       string
	Description string
	Keywords    []string
}

// labelClusters names each concept territory from its strongest member
// titles via the generation client, falling back to positional labels when
// no client is wired (offline or test runs).
func labelClusters(ctx context.Context, deps ClusterFitDeps, docs []*domain.Document, embeddedIDs []uuid.UUID, fit *GMMResult) ([]clusterLabel, error) {
	k := len(fit.Centroids)
	labels := make([]clusterLabel, k)
	titlesByDoc := make(map[uuid.UUID]string, len(docs))
	for _, d := range docs {
		titlesByDoc[d.ID] = d.Title
	}

	topTitles := make([][]string, k)
	for j := 0; j < k; j++ {
		type scored struct {
			title string
			p     float64
		}
		members := []scored{}
		for i, id := range embeddedIDs {
			if fit.Posteriors[i][j] >= DefaultMinPosterior {
				members = append(members, scored{title: titlesByDoc[id], p: fit.Posteriors[i][j]})
			}
		}
		sort.Slice(members, func(a, b int) bool { return members[a].p > members[b].p })
		if len(members) > 8 {
			members = members[:8]
		}
		for _, m := range members {
			topTitles[j] = append(topTitles[j], m.title)
		}
	}

	if deps.AI == nil {
		for j := 0; j < k; j++ {
			labels[j] = fallbackLabel(j, topTitles[j])
		}
		return labels, nil
	}

	payload, err := json.Marshal(map[string]any{"clusters": topTitles})
	if err != nil {
		return nil, err
	}
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"clusters": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"label":       map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
						"keywords":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
					"required":             []string{"label", "description", "keywords"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"clusters"},
		"additionalProperties": false,
	}
	system := "You name concept territories in a research corpus. For each group of paper titles, produce a short label, a one-sentence description, and up to five keywords."
	obj, err := deps.AI.GenerateJSON(ctx, system, string(payload), "cluster_labels", schema)
	if err != nil {
		deps.Log.Warn("Cluster labeling failed, using fallback labels", "error", err)
		for j := 0; j < k; j++ {
			labels[j] = fallbackLabel(j, topTitles[j])
		}
		return labels, nil
	}

	parsed := parseClusterLabels(obj)
	for j := 0; j < k; j++ {
		if j < len(parsed) && strings.TrimSpace(parsed[j].Label) != "" {
			labels[j] = parsed[j]
		} else {
			labels[j] = fallbackLabel(j, topTitles[j])
		}
	}
	return labels, nil
}

func parseClusterLabels(obj map[string]any) []clusterLabel {
	raw, _ := obj["clusters"].([]any)
	out := make([]clusterLabel, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		label, _ := m["label"].(string)
		desc, _ := m["description"].(string)
		var keywords []string
		if kws, ok := m["keywords"].([]any); ok {
			for _, kw := range kws {
				if s, ok := kw.(string); ok && strings.TrimSpace(s) != "" {
					keywords = append(keywords, s)
				}
			}
		}
		out = append(out, clusterLabel{Label: label, Description: desc, Keywords: keywords})
	}
	return out
}

func fallbackLabel(idx int, titles []string) clusterLabel {
	label := fmt.Sprintf("Cluster %d", idx+1)
	if len(titles) > 0 {
		label = titles[0]
	}
	return clusterLabel{Label: label, Description: "", Keywords: nil}
}

func updateClusterStats(ctx context.Context, tx *gorm.DB, deps ClusterFitDeps, defs []*domain.ClusterDefinition, docRows, claimRows []*domain.ClusterMembership) error {
	memberCount := map[uuid.UUID]int{}
	primaryCount := map[uuid.UUID]int{}
	for _, rows := range [][]*domain.ClusterMembership{docRows, claimRows} {
		for _, r := range rows {
			memberCount[r.ClusterID]++
			if r.IsPrimary {
				primaryCount[r.ClusterID]++
			}
		}
	}
	for _, def := range defs {
		if err := deps.Clusters.UpdateStats(ctx, tx, def.ID, memberCount[def.ID], primaryCount[def.ID]); err != nil {
			return err
		}
	}
	return nil
}
