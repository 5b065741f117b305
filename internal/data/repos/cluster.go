package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

type ClusterDefinitionRepo interface {
	ReplaceAll(ctx context.Context, tx *gorm.DB, defs []*domain.ClusterDefinition) ([]*domain.ClusterDefinition, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*domain.ClusterDefinition, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.ClusterDefinition, error)
	UpdateStats(ctx context.Context, tx *gorm.DB, id uuid.UUID, memberCount, primaryMemberCount int) error
}

type clusterDefinitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClusterDefinitionRepo(db *gorm.DB, baseLog *logger.Logger) ClusterDefinitionRepo {
	return &clusterDefinitionRepo{db: db, log: baseLog.With("repo", "ClusterDefinitionRepo")}
}

func (r *clusterDefinitionRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ReplaceAll swaps in a new clustering generation. The batch fit runs with
// exclusive write access; readers during the swap may still see the
// previous generation, which is acceptable for this table.
func (r *clusterDefinitionRepo) ReplaceAll(ctx context.Context, tx *gorm.DB, defs []*domain.ClusterDefinition) ([]*domain.ClusterDefinition, error) {
	run := func(transaction *gorm.DB) error {
		if err := transaction.WithContext(ctx).
			Where("1 = 1").
			Delete(&domain.ClusterDefinition{}).Error; err != nil {
			return err
		}
		if len(defs) == 0 {
			return nil
		}
		return transaction.WithContext(ctx).Create(defs).Error
	}
	if tx != nil {
		if err := run(tx); err != nil {
			return nil, err
		}
		return defs, nil
	}
	if err := r.db.Transaction(run); err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *clusterDefinitionRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*domain.ClusterDefinition, error) {
	var results []*domain.ClusterDefinition
	if err := r.conn(tx).WithContext(ctx).
		Order("label ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *clusterDefinitionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.ClusterDefinition, error) {
	var def domain.ClusterDefinition
	if err := r.conn(tx).WithContext(ctx).First(&def, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *clusterDefinitionRepo) UpdateStats(ctx context.Context, tx *gorm.DB, id uuid.UUID, memberCount, primaryMemberCount int) error {
	return r.conn(tx).WithContext(ctx).
		Model(&domain.ClusterDefinition{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"member_count":         memberCount,
			"primary_member_count": primaryMemberCount,
		}).Error
}

type ClusterMembershipRepo interface {
	ReplaceForKind(ctx context.Context, tx *gorm.DB, kind domain.MembershipItemKind, rows []*domain.ClusterMembership) ([]*domain.ClusterMembership, error)
	GetByItemIDs(ctx context.Context, tx *gorm.DB, kind domain.MembershipItemKind, itemIDs []uuid.UUID) ([]*domain.ClusterMembership, error)
	GetByClusterID(ctx context.Context, tx *gorm.DB, clusterID uuid.UUID) ([]*domain.ClusterMembership, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*domain.ClusterMembership, error)
}

type clusterMembershipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClusterMembershipRepo(db *gorm.DB, baseLog *logger.Logger) ClusterMembershipRepo {
	return &clusterMembershipRepo{db: db, log: baseLog.With("repo", "ClusterMembershipRepo")}
}

func (r *clusterMembershipRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *clusterMembershipRepo) ReplaceForKind(ctx context.Context, tx *gorm.DB, kind domain.MembershipItemKind, rows []*domain.ClusterMembership) ([]*domain.ClusterMembership, error) {
	run := func(transaction *gorm.DB) error {
		if err := transaction.WithContext(ctx).
			Where("item_kind = ?", kind).
			Delete(&domain.ClusterMembership{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		const batchSize = 500
		return transaction.WithContext(ctx).CreateInBatches(rows, batchSize).Error
	}
	if tx != nil {
		if err := run(tx); err != nil {
			return nil, err
		}
		return rows, nil
	}
	if err := r.db.Transaction(run); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *clusterMembershipRepo) GetByItemIDs(ctx context.Context, tx *gorm.DB, kind domain.MembershipItemKind, itemIDs []uuid.UUID) ([]*domain.ClusterMembership, error) {
	var results []*domain.ClusterMembership
	if len(itemIDs) == 0 {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("item_kind = ? AND item_id IN ?", kind, itemIDs).
		Order("confidence DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *clusterMembershipRepo) GetByClusterID(ctx context.Context, tx *gorm.DB, clusterID uuid.UUID) ([]*domain.ClusterMembership, error) {
	var results []*domain.ClusterMembership
	if err := r.conn(tx).WithContext(ctx).
		Where("cluster_id = ?", clusterID).
		Order("confidence DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *clusterMembershipRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*domain.ClusterMembership, error) {
	var results []*domain.ClusterMembership
	if err := r.conn(tx).WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
