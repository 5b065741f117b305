package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

type SynthesisArtifactRepo interface {
	Get(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, style string) (*domain.SynthesisArtifact, error)
	GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*domain.SynthesisArtifact, error)
	// UpsertFresh writes a computed artifact and clears is_stale, but only
	// if no invalidation advanced the generation since expectedGeneration
	// was read. A conflicting write leaves the row untouched and returns
	// ok=false so the caller can recompute.
	UpsertFresh(ctx context.Context, tx *gorm.DB, artifact *domain.SynthesisArtifact, expectedGeneration int64) (bool, error)
	// MarkStaleForClaim flips every artifact for the claim stale and bumps
	// its generation. Callers run it inside the annotation write transaction.
	MarkStaleForClaim(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) error
}

type synthesisArtifactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSynthesisArtifactRepo(db *gorm.DB, baseLog *logger.Logger) SynthesisArtifactRepo {
	return &synthesisArtifactRepo{db: db, log: baseLog.With("repo", "SynthesisArtifactRepo")}
}

func (r *synthesisArtifactRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *synthesisArtifactRepo) Get(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, style string) (*domain.SynthesisArtifact, error) {
	var a domain.SynthesisArtifact
	err := r.conn(tx).WithContext(ctx).
		Where("claim_id = ? AND style = ?", claimID, style).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *synthesisArtifactRepo) GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*domain.SynthesisArtifact, error) {
	var results []*domain.SynthesisArtifact
	if err := r.conn(tx).WithContext(ctx).
		Where("claim_id = ?", claimID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *synthesisArtifactRepo) UpsertFresh(ctx context.Context, tx *gorm.DB, artifact *domain.SynthesisArtifact, expectedGeneration int64) (bool, error) {
	conn := r.conn(tx).WithContext(ctx)

	var existing domain.SynthesisArtifact
	err := conn.Where("claim_id = ? AND style = ?", artifact.ClaimID, artifact.Style).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		artifact.IsStale = false
		artifact.Generation = expectedGeneration
		if createErr := conn.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "claim_id"}, {Name: "style"}},
			DoNothing: true,
		}).Create(artifact).Error; createErr != nil {
			return false, createErr
		}
		return true, nil
	case err != nil:
		return false, err
	}

	if existing.Generation != expectedGeneration {
		return false, nil
	}
	res := conn.Model(&domain.SynthesisArtifact{}).
		Where("id = ? AND generation = ?", existing.ID, expectedGeneration).
		Updates(map[string]any{
			"evidence_json":   artifact.EvidenceJSON,
			"narrative":       artifact.Narrative,
			"generation_meta": artifact.GenerationMeta,
			"is_stale":        false,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *synthesisArtifactRepo) MarkStaleForClaim(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.SynthesisArtifact{}).
		Where("claim_id = ?", claimID).
		Updates(map[string]any{
			"is_stale":   true,
			"generation": gorm.Expr("generation + 1"),
		}).Error
}
