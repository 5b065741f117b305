package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

// ClaimRepo reads claims owned by the upstream extraction pipeline. Create
// exists for ingestion glue and fixtures; the core itself never writes.
type ClaimRepo interface {
	Create(ctx context.Context, tx *gorm.DB, claims []*domain.Claim) ([]*domain.Claim, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Claim, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Claim, error)
	GetByEpisodeID(ctx context.Context, tx *gorm.DB, episodeID uuid.UUID) ([]*domain.Claim, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*domain.Claim, error)
}

type claimRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClaimRepo(db *gorm.DB, baseLog *logger.Logger) ClaimRepo {
	return &claimRepo{db: db, log: baseLog.With("repo", "ClaimRepo")}
}

func (r *claimRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *claimRepo) Create(ctx context.Context, tx *gorm.DB, claims []*domain.Claim) ([]*domain.Claim, error) {
	if len(claims) == 0 {
		return []*domain.Claim{}, nil
	}
	const batchSize = 200
	if err := r.conn(tx).WithContext(ctx).CreateInBatches(claims, batchSize).Error; err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *claimRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Claim, error) {
	var c domain.Claim
	if err := r.conn(tx).WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *claimRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Claim, error) {
	var results []*domain.Claim
	if len(ids) == 0 {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *claimRepo) GetByEpisodeID(ctx context.Context, tx *gorm.DB, episodeID uuid.UUID) ([]*domain.Claim, error) {
	var results []*domain.Claim
	if err := r.conn(tx).WithContext(ctx).
		Where("episode_id = ?", episodeID).
		Order("anchor_ms ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *claimRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*domain.Claim, error) {
	var results []*domain.Claim
	if err := r.conn(tx).WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
