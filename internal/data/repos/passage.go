package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

type PassageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, passages []*domain.Passage) ([]*domain.Passage, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Passage, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Passage, error)
	GetByDocumentIDs(ctx context.Context, tx *gorm.DB, documentIDs []uuid.UUID) ([]*domain.Passage, error)
	GetMissingEmbeddings(ctx context.Context, tx *gorm.DB, limit int) ([]*domain.Passage, error)
	UpdateEmbedding(ctx context.Context, tx *gorm.DB, id uuid.UUID, embedding []float32) error
}

type passageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPassageRepo(db *gorm.DB, baseLog *logger.Logger) PassageRepo {
	return &passageRepo{db: db, log: baseLog.With("repo", "PassageRepo")}
}

func (r *passageRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *passageRepo) Create(ctx context.Context, tx *gorm.DB, passages []*domain.Passage) ([]*domain.Passage, error) {
	if len(passages) == 0 {
		return []*domain.Passage{}, nil
	}
	// Keep batches small because Text is large
	const batchSize = 100
	if err := r.conn(tx).WithContext(ctx).CreateInBatches(passages, batchSize).Error; err != nil {
		return nil, err
	}
	return passages, nil
}

func (r *passageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Passage, error) {
	var p domain.Passage
	if err := r.conn(tx).WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *passageRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Passage, error) {
	var results []*domain.Passage
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

func (r *passageRepo) GetByDocumentIDs(ctx context.Context, tx *gorm.DB, documentIDs []uuid.UUID) ([]*domain.Passage, error) {
	var results []*domain.Passage
	if len(documentIDs) == 0 {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("document_id IN ?", documentIDs).
		Order("document_id, index ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *passageRepo) GetMissingEmbeddings(ctx context.Context, tx *gorm.DB, limit int) ([]*domain.Passage, error) {
	var results []*domain.Passage
	q := r.conn(tx).WithContext(ctx).
		Where("embedding IS NULL OR embedding = 'null'").
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *passageRepo) UpdateEmbedding(ctx context.Context, tx *gorm.DB, id uuid.UUID, embedding []float32) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.Passage{}).
		Where("id = ?", id).
		Update("embedding", domain.MarshalVector(embedding)).Error
}
