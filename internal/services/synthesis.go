package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/proofcast/proofcast-backend/internal/data/repos"
	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
	"github.com/proofcast/proofcast-backend/internal/platform/openai"
)

// SynthesisService serves cached synthesis artifacts per (claim, style).
// A fresh cache hit returns immediately; a miss or stale hit recomputes
// through retrieval, classification, context assembly and the generation
// service. Concurrent calls for the same key share one in-flight
// computation; unrelated keys proceed fully in parallel.
type SynthesisService interface {
	GetOrCompute(ctx context.Context, claimID uuid.UUID, style string) (*domain.SynthesisArtifact, error)
}

type synthesisService struct {
	log       *logger.Logger
	artifacts repos.SynthesisArtifactRepo
	retrieval EvidenceRetrievalService
	assembler ContextAssemblerService
	ai        openai.Client

	flight     singleflight.Group
	genTimeout time.Duration
}

func NewSynthesisService(
	log *logger.Logger,
	artifacts repos.SynthesisArtifactRepo,
	retrieval EvidenceRetrievalService,
	assembler ContextAssemblerService,
	ai openai.Client,
	genTimeout time.Duration,
) SynthesisService {
	if genTimeout <= 0 {
		genTimeout = 30 * time.Second
	}
	return &synthesisService{
		log:        log.With("service", "SynthesisService"),
		artifacts:  artifacts,
		retrieval:  retrieval,
		assembler:  assembler,
		ai:         ai,
		genTimeout: genTimeout,
	}
}

func (s *synthesisService) GetOrCompute(ctx context.Context, claimID uuid.UUID, style string) (*domain.SynthesisArtifact, error) {
	if style == "" {
		style = "default"
	}
	artifact, err := s.artifacts.Get(ctx, nil, claimID, style)
	if err != nil {
		return nil, err
	}
	if artifact != nil && !artifact.IsStale {
		return artifact, nil
	}

	key := claimID.String() + "|" + style
	result, err, _ := s.flight.Do(key, func() (interface{}, error) {
		// Re-read under the flight: another caller may have finished the
		// computation between our miss and acquiring the key.
		current, readErr := s.artifacts.Get(ctx, nil, claimID, style)
		if readErr != nil {
			return nil, readErr
		}
		if current != nil && !current.IsStale {
			return current, nil
		}
		// One retry when an invalidation races the computation: the stale
		// result is discarded, never served.
		for attempt := 0; attempt < 2; attempt++ {
			fresh, ok, computeErr := s.computeOnce(ctx, claimID, style)
			if computeErr != nil {
				return nil, computeErr
			}
			if ok {
				return fresh, nil
			}
			s.log.Warn("Synthesis raced an invalidation, recomputing", "claim_id", claimID, "style", style, "attempt", attempt+1)
		}
		return nil, apierr.StaleWriteConflict(key)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.SynthesisArtifact), nil
}

func (s *synthesisService) computeOnce(ctx context.Context, claimID uuid.UUID, style string) (*domain.SynthesisArtifact, bool, error) {
	var expectedGeneration int64
	if existing, err := s.artifacts.Get(ctx, nil, claimID, style); err != nil {
		return nil, false, err
	} else if existing != nil {
		expectedGeneration = existing.Generation
	}

	retrieved, err := s.retrieval.RetrieveForClaim(ctx, claimID, RetrieveOpts{})
	if err != nil {
		return nil, false, err
	}
	claim := retrieved.Claim

	bundle, err := s.assembler.AssembleContext(ctx, claim.EpisodeID, claim.AnchorMs, AssembleOpts{})
	if err != nil {
		return nil, false, err
	}

	narrative, err := s.generate(ctx, claim, retrieved, bundle, style)
	if err != nil {
		return nil, false, err
	}

	evidencePayload, err := json.Marshal(map[string]any{
		"summary": retrieved.Summary,
		"context": bundle,
	})
	if err != nil {
		return nil, false, err
	}
	meta, _ := json.Marshal(map[string]any{
		"style":          style,
		"evidence_total": retrieved.Summary.Counts.Total(),
	})

	artifact := &domain.SynthesisArtifact{
		ClaimID:        claimID,
		Style:          style,
		EvidenceJSON:   datatypes.JSON(evidencePayload),
		Narrative:      narrative,
		GenerationMeta: datatypes.JSON(meta),
	}
	ok, err := s.artifacts.UpsertFresh(ctx, nil, artifact, expectedGeneration)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	stored, err := s.artifacts.Get(ctx, nil, claimID, style)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("synthesis artifact vanished after upsert")
	}
	return stored, !stored.IsStale, nil
}

func (s *synthesisService) generate(ctx context.Context, claim *domain.Claim, retrieved *RetrievedEvidence, bundle *ContextBundle, style string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	evidenceJSON, err := json.Marshal(retrieved.Summary)
	if err != nil {
		return "", err
	}
	system := "You synthesize research evidence for a spoken claim. Style: " + style
	user := fmt.Sprintf("Claim: %s\nEvidence: %s", claim.Text, string(evidenceJSON))

	narrative, err := s.ai.GenerateText(genCtx, system, user)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && genCtx.Err() != nil {
			return "", apierr.Timeout("synthesis generation", err)
		}
		return "", err
	}
	return narrative, nil
}
