package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/proofcast/proofcast-backend/internal/data/repos"
	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

const (
	// DefaultLookbackMs bounds how far back the assembler reaches: 5
	// minutes of source time.
	DefaultLookbackMs int64 = 5 * 60 * 1000
	// DefaultMaxContextItems caps the bundle to bound payload size.
	DefaultMaxContextItems = 20
)

type AssembleOpts struct {
	LookbackMs int64
	MaxItems   int
}

type ContextItem struct {
	Link     *domain.EvidenceLink `json:"link"`
	Claim    *domain.Claim        `json:"claim"`
	AnchorMs int64                `json:"anchor_ms"`
}

// ContextBundle is everything the assembler considers "already said" at a
// playback position: the immediate window (nil when the position falls in
// a gap) and prior evidence, newest first, one item per source document.
type ContextBundle struct {
	Window     *domain.TemporalWindow `json:"window,omitempty"`
	Items      []ContextItem          `json:"items"`
	PositionMs int64                  `json:"position_ms"`
}

type ContextAssemblerService interface {
	AssembleContext(ctx context.Context, episodeID uuid.UUID, positionMs int64, opts AssembleOpts) (*ContextBundle, error)
}

type contextAssemblerService struct {
	log     *logger.Logger
	claims  repos.ClaimRepo
	links   repos.EvidenceLinkRepo
	windows repos.TemporalWindowRepo
}

func NewContextAssemblerService(
	log *logger.Logger,
	claims repos.ClaimRepo,
	links repos.EvidenceLinkRepo,
	windows repos.TemporalWindowRepo,
) ContextAssemblerService {
	return &contextAssemblerService{
		log:     log.With("service", "ContextAssemblerService"),
		claims:  claims,
		links:   links,
		windows: windows,
	}
}

func (s *contextAssemblerService) AssembleContext(ctx context.Context, episodeID uuid.UUID, positionMs int64, opts AssembleOpts) (*ContextBundle, error) {
	if opts.LookbackMs <= 0 {
		opts.LookbackMs = DefaultLookbackMs
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxContextItems
	}

	var (
		window *domain.TemporalWindow
		links  []*domain.EvidenceLink
		claims []*domain.Claim
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		window, err = s.windows.GetContaining(gctx, nil, episodeID, positionMs)
		return err
	})
	g.Go(func() error {
		var err error
		// Over-fetch before dedup so the cap is applied to distinct
		// documents, not raw links.
		links, err = s.links.GetAnchoredBefore(gctx, nil, episodeID, positionMs, opts.MaxItems*4)
		return err
	})
	g.Go(func() error {
		var err error
		claims, err = s.claims.GetByEpisodeID(gctx, nil, episodeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	claimsByID := make(map[uuid.UUID]*domain.Claim, len(claims))
	for _, c := range claims {
		claimsByID[c.ID] = c
	}
	return BuildContextBundle(window, links, claimsByID, positionMs, opts), nil
}

// BuildContextBundle is the pure assembly step. It never emits evidence
// anchored strictly after positionMs regardless of what the caller hands
// it; that is the causality guarantee, re-checked here rather than trusted
// to the query layer.
func BuildContextBundle(
	window *domain.TemporalWindow,
	links []*domain.EvidenceLink,
	claimsByID map[uuid.UUID]*domain.Claim,
	positionMs int64,
	opts AssembleOpts,
) *ContextBundle {
	if opts.LookbackMs <= 0 {
		opts.LookbackMs = DefaultLookbackMs
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxContextItems
	}
	bundle := &ContextBundle{
		Items:      []ContextItem{},
		PositionMs: positionMs,
	}
	if window != nil && window.Contains(positionMs) {
		bundle.Window = window
	}

	cutoff := positionMs - opts.LookbackMs
	candidates := make([]ContextItem, 0, len(links))
	for _, link := range links {
		if link == nil {
			continue
		}
		claim := claimsByID[link.ClaimID]
		if claim == nil {
			continue
		}
		root := domain.ResolveRootClaim(claim, claimsByID)
		if root == nil || root.IsDuplicate() {
			continue
		}
		anchor := claim.AnchorMs
		if anchor > positionMs {
			continue
		}
		if anchor < cutoff {
			continue
		}
		candidates = append(candidates, ContextItem{Link: link, Claim: root, AnchorMs: anchor})
	}

	// Newest first, then dedupe by source document keeping the first seen.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].AnchorMs > candidates[j].AnchorMs
	})
	seenDocs := map[uuid.UUID]bool{}
	for _, c := range candidates {
		if len(bundle.Items) >= opts.MaxItems {
			break
		}
		if seenDocs[c.Link.DocumentID] {
			continue
		}
		seenDocs[c.Link.DocumentID] = true
		bundle.Items = append(bundle.Items, c)
	}
	return bundle
}
