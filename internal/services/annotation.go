package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/proofcast/proofcast-backend/internal/clients/redis"
	"github.com/proofcast/proofcast-backend/internal/data/repos"
	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

// AnnotationService owns the coupling between user annotations and the
// synthesis cache: every create or delete marks the claim's artifacts
// stale inside the same transaction as the annotation write. The redis
// event goes out after commit and only wakes remote readers; correctness
// never depends on it arriving.
type AnnotationService interface {
	Create(ctx context.Context, userID, claimID uuid.UUID, kind domain.AnnotationKind) (*domain.Annotation, error)
	Delete(ctx context.Context, annotationID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Annotation, error)
}

type annotationService struct {
	log         *logger.Logger
	db          *gorm.DB
	annotations repos.AnnotationRepo
	artifacts   repos.SynthesisArtifactRepo
	claims      repos.ClaimRepo
	bus         redisclient.InvalidationBus
}

func NewAnnotationService(
	log *logger.Logger,
	db *gorm.DB,
	annotations repos.AnnotationRepo,
	artifacts repos.SynthesisArtifactRepo,
	claims repos.ClaimRepo,
	bus redisclient.InvalidationBus,
) AnnotationService {
	return &annotationService{
		log:         log.With("service", "AnnotationService"),
		db:          db,
		annotations: annotations,
		artifacts:   artifacts,
		claims:      claims,
		bus:         bus,
	}
}

func (s *annotationService) Create(ctx context.Context, userID, claimID uuid.UUID, kind domain.AnnotationKind) (*domain.Annotation, error) {
	if kind == "" {
		kind = domain.AnnotationKindSave
	}
	if _, err := s.claims.GetByID(ctx, nil, claimID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("claim", claimID)
		}
		return nil, err
	}

	ann := &domain.Annotation{UserID: userID, ClaimID: claimID, Kind: kind}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, txErr := s.annotations.Create(ctx, tx, ann); txErr != nil {
			return txErr
		}
		return s.artifacts.MarkStaleForClaim(ctx, tx, claimID)
	})
	if err != nil {
		return nil, err
	}
	s.publishInvalidation(ctx, claimID)
	return ann, nil
}

func (s *annotationService) Delete(ctx context.Context, annotationID uuid.UUID) error {
	var claimID uuid.UUID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ann, txErr := s.annotations.Delete(ctx, tx, annotationID)
		if txErr != nil {
			return txErr
		}
		claimID = ann.ClaimID
		return s.artifacts.MarkStaleForClaim(ctx, tx, claimID)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.NotFound("annotation", annotationID)
	}
	if err != nil {
		return err
	}
	s.publishInvalidation(ctx, claimID)
	return nil
}

func (s *annotationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Annotation, error) {
	return s.annotations.GetByUserID(ctx, nil, userID)
}

func (s *annotationService) publishInvalidation(ctx context.Context, claimID uuid.UUID) {
	if s.bus == nil {
		return
	}
	ev := redisclient.InvalidationEvent{ClaimID: claimID, At: time.Now().UTC()}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn("Failed to publish invalidation event", "claim_id", claimID, "error", err)
	}
}
