package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

type AnnotationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ann *domain.Annotation) (*domain.Annotation, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Annotation, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Annotation, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.Annotation, error)
	GetClaimIDsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
}

type annotationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnotationRepo(db *gorm.DB, baseLog *logger.Logger) AnnotationRepo {
	return &annotationRepo{db: db, log: baseLog.With("repo", "AnnotationRepo")}
}

func (r *annotationRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *annotationRepo) Create(ctx context.Context, tx *gorm.DB, ann *domain.Annotation) (*domain.Annotation, error) {
	if err := r.conn(tx).WithContext(ctx).Create(ann).Error; err != nil {
		return nil, err
	}
	return ann, nil
}

// Delete removes the row and returns it so the caller can invalidate the
// claim's artifacts inside the same transaction.
func (r *annotationRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Annotation, error) {
	conn := r.conn(tx).WithContext(ctx)
	var ann domain.Annotation
	if err := conn.First(&ann, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := conn.Delete(&domain.Annotation{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ann, nil
}

func (r *annotationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Annotation, error) {
	var ann domain.Annotation
	if err := r.conn(tx).WithContext(ctx).First(&ann, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ann, nil
}

func (r *annotationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.Annotation, error) {
	var results []*domain.Annotation
	if err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *annotationRepo) GetClaimIDsForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.conn(tx).WithContext(ctx).
		Model(&domain.Annotation{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("claim_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
