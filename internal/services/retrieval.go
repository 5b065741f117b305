package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/proofcast/proofcast-backend/internal/data/repos"
	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
	"github.com/proofcast/proofcast-backend/internal/platform/openai"
	"github.com/proofcast/proofcast-backend/internal/platform/vecstore"
)

type RetrieveOpts struct {
	Threshold float64
	TopK      int
	Filter    *vecstore.Filter
}

type RetrievedEvidence struct {
	Claim   *domain.Claim                  `json:"claim"`
	Summary EvidenceSummary                `json:"summary"`
	Items   []domain.EvidenceItem          `json:"-"`
	Docs    map[uuid.UUID]*domain.Document `json:"-"`
}

// EvidenceRetrievalService encodes a claim, runs similarity search over the
// passage index, and supersedes the claim's evidence-link set with the new
// results. Stateless apart from the link write; safe to run in parallel
// across claims.
type EvidenceRetrievalService interface {
	RetrieveForClaim(ctx context.Context, claimID uuid.UUID, opts RetrieveOpts) (*RetrievedEvidence, error)
}

type evidenceRetrievalService struct {
	log      *logger.Logger
	claims   repos.ClaimRepo
	docs     repos.DocumentRepo
	passages repos.PassageRepo
	links    repos.EvidenceLinkRepo
	vec      vecstore.Store
	ai       openai.Client
}

func NewEvidenceRetrievalService(
	log *logger.Logger,
	claims repos.ClaimRepo,
	docs repos.DocumentRepo,
	passages repos.PassageRepo,
	links repos.EvidenceLinkRepo,
	vec vecstore.Store,
	ai openai.Client,
) EvidenceRetrievalService {
	return &evidenceRetrievalService{
		log:      log.With("service", "EvidenceRetrievalService"),
		claims:   claims,
		docs:     docs,
		passages: passages,
		links:    links,
		vec:      vec,
		ai:       ai,
	}
}

const (
	defaultRetrieveThreshold = 0.35
	defaultRetrieveTopK      = 12
)

func (s *evidenceRetrievalService) RetrieveForClaim(ctx context.Context, claimID uuid.UUID, opts RetrieveOpts) (*RetrievedEvidence, error) {
	claim, err := s.loadRootClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if opts.Threshold <= 0 {
		opts.Threshold = defaultRetrieveThreshold
	}
	if opts.TopK <= 0 {
		opts.TopK = defaultRetrieveTopK
	}

	queryText := strings.TrimSpace(claim.ShortForm)
	if queryText == "" {
		queryText = claim.Text
	}
	embs, err := s.ai.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, err
	}
	matches, err := s.vec.Search(ctx, embs[0], vecstore.SearchOpts{
		TopK:      opts.TopK,
		Threshold: opts.Threshold,
		Filter:    opts.Filter,
	})
	if err != nil {
		return nil, err
	}

	passageIDs := make([]uuid.UUID, 0, len(matches))
	scoreByPassage := make(map[uuid.UUID]float64, len(matches))
	for _, m := range matches {
		id, parseErr := uuid.Parse(m.ID)
		if parseErr != nil {
			continue
		}
		passageIDs = append(passageIDs, id)
		scoreByPassage[id] = m.Score
	}

	passageRows, err := s.passages.GetByIDs(ctx, nil, passageIDs)
	if err != nil {
		return nil, err
	}

	docIDSet := map[uuid.UUID]bool{}
	docIDs := make([]uuid.UUID, 0, len(passageRows))
	for _, p := range passageRows {
		if !docIDSet[p.DocumentID] {
			docIDSet[p.DocumentID] = true
			docIDs = append(docIDs, p.DocumentID)
		}
	}

	docRows, err := s.docs.GetByIDs(ctx, nil, docIDs)
	if err != nil {
		return nil, err
	}
	docsByID := make(map[uuid.UUID]*domain.Document, len(docRows))
	for _, d := range docRows {
		docsByID[d.ID] = d
	}

	links := make([]*domain.EvidenceLink, 0, len(passageRows))
	items := make([]domain.EvidenceItem, 0, len(passageRows))
	for _, p := range passageRows {
		score := domain.ClampScore(scoreByPassage[p.ID])
		pid := p.ID
		links = append(links, &domain.EvidenceLink{
			ClaimID:    claim.ID,
			DocumentID: p.DocumentID,
			PassageID:  &pid,
			Score:      score,
		})
		item, itemErr := domain.NewPassageEvidence(p.DocumentID, p.ID, p.SectionLabel, p.Text, score)
		if itemErr != nil {
			s.log.Warn("Skipping malformed passage evidence", "passage_id", p.ID, "error", itemErr)
			continue
		}
		items = append(items, item)
	}

	if _, err := s.links.Supersede(ctx, nil, claim.ID, links); err != nil {
		return nil, err
	}

	return &RetrievedEvidence{
		Claim:   claim,
		Summary: SummarizeEvidence(s.log, links),
		Items:   items,
		Docs:    docsByID,
	}, nil
}

// loadRootClaim resolves duplicate_of chains to the root claim so all
// derived work attaches to the canonical assertion. The walk is bounded
// and cycle-guarded even though upstream should prevent cycles.
func (s *evidenceRetrievalService) loadRootClaim(ctx context.Context, claimID uuid.UUID) (*domain.Claim, error) {
	claim, err := s.claims.GetByID(ctx, nil, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("claim", claimID)
		}
		return nil, err
	}
	seen := map[uuid.UUID]bool{claim.ID: true}
	for claim.IsDuplicate() {
		next, nextErr := s.claims.GetByID(ctx, nil, *claim.DuplicateOfID)
		if nextErr != nil {
			if errors.Is(nextErr, gorm.ErrRecordNotFound) {
				break
			}
			return nil, nextErr
		}
		if seen[next.ID] {
			s.log.Warn("Duplicate chain cycle detected, stopping at last resolvable claim", "claim_id", claim.ID)
			break
		}
		seen[next.ID] = true
		claim = next
	}
	return claim, nil
}
