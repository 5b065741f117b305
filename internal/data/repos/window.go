package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

type TemporalWindowRepo interface {
	Create(ctx context.Context, tx *gorm.DB, windows []*domain.TemporalWindow) ([]*domain.TemporalWindow, error)
	// GetContaining returns the window covering positionMs, or nil when no
	// window matches. At most one window contains any position.
	GetContaining(ctx context.Context, tx *gorm.DB, episodeID uuid.UUID, positionMs int64) (*domain.TemporalWindow, error)
	GetByEpisodeID(ctx context.Context, tx *gorm.DB, episodeID uuid.UUID) ([]*domain.TemporalWindow, error)
}

type temporalWindowRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemporalWindowRepo(db *gorm.DB, baseLog *logger.Logger) TemporalWindowRepo {
	return &temporalWindowRepo{db: db, log: baseLog.With("repo", "TemporalWindowRepo")}
}

func (r *temporalWindowRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *temporalWindowRepo) Create(ctx context.Context, tx *gorm.DB, windows []*domain.TemporalWindow) ([]*domain.TemporalWindow, error) {
	if len(windows) == 0 {
		return []*domain.TemporalWindow{}, nil
	}
	const batchSize = 200
	if err := r.conn(tx).WithContext(ctx).CreateInBatches(windows, batchSize).Error; err != nil {
		return nil, err
	}
	return windows, nil
}

func (r *temporalWindowRepo) GetContaining(ctx context.Context, tx *gorm.DB, episodeID uuid.UUID, positionMs int64) (*domain.TemporalWindow, error) {
	var w domain.TemporalWindow
	err := r.conn(tx).WithContext(ctx).
		Where("episode_id = ? AND start_ms <= ? AND end_ms > ?", episodeID, positionMs, positionMs).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *temporalWindowRepo) GetByEpisodeID(ctx context.Context, tx *gorm.DB, episodeID uuid.UUID) ([]*domain.TemporalWindow, error) {
	var results []*domain.TemporalWindow
	if err := r.conn(tx).WithContext(ctx).
		Where("episode_id = ?", episodeID).
		Order("start_ms ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
