package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

type EpisodeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, episodes []*domain.Episode) ([]*domain.Episode, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Episode, error)
}

type episodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEpisodeRepo(db *gorm.DB, baseLog *logger.Logger) EpisodeRepo {
	return &episodeRepo{db: db, log: baseLog.With("repo", "EpisodeRepo")}
}

func (r *episodeRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *episodeRepo) Create(ctx context.Context, tx *gorm.DB, episodes []*domain.Episode) ([]*domain.Episode, error) {
	if len(episodes) == 0 {
		return []*domain.Episode{}, nil
	}
	if err := r.conn(tx).WithContext(ctx).Create(episodes).Error; err != nil {
		return nil, err
	}
	return episodes, nil
}

func (r *episodeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Episode, error) {
	var e domain.Episode
	if err := r.conn(tx).WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}
