package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

// EvidenceLinkRepo persists claim-to-document associations. Links are
// immutable; Supersede swaps the whole set for a claim in one transaction.
type EvidenceLinkRepo interface {
	Supersede(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, links []*domain.EvidenceLink) ([]*domain.EvidenceLink, error)
	GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*domain.EvidenceLink, error)
	GetByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) ([]*domain.EvidenceLink, error)
	GetAnchoredBefore(ctx context.Context, tx *gorm.DB, episodeID uuid.UUID, anchorMs int64, limit int) ([]*domain.EvidenceLink, error)
}

type evidenceLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvidenceLinkRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceLinkRepo {
	return &evidenceLinkRepo{db: db, log: baseLog.With("repo", "EvidenceLinkRepo")}
}

func (r *evidenceLinkRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *evidenceLinkRepo) Supersede(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, links []*domain.EvidenceLink) ([]*domain.EvidenceLink, error) {
	run := func(transaction *gorm.DB) error {
		if err := transaction.WithContext(ctx).
			Where("claim_id = ?", claimID).
			Delete(&domain.EvidenceLink{}).Error; err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}
		return transaction.WithContext(ctx).Create(links).Error
	}
	if tx != nil {
		if err := run(tx); err != nil {
			return nil, err
		}
		return links, nil
	}
	if err := r.db.Transaction(run); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *evidenceLinkRepo) GetByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) ([]*domain.EvidenceLink, error) {
	var results []*domain.EvidenceLink
	if err := r.conn(tx).WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("score DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *evidenceLinkRepo) GetByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) ([]*domain.EvidenceLink, error) {
	var results []*domain.EvidenceLink
	if len(claimIDs) == 0 {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("claim_id IN ?", claimIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetAnchoredBefore returns links whose claims are anchored at or before
// anchorMs in the episode, newest anchor first. The strict upper bound is
// the assembler's causality guarantee; it is enforced in SQL so no later
// evidence can leak through pagination.
func (r *evidenceLinkRepo) GetAnchoredBefore(ctx context.Context, tx *gorm.DB, episodeID uuid.UUID, anchorMs int64, limit int) ([]*domain.EvidenceLink, error) {
	var results []*domain.EvidenceLink
	q := r.conn(tx).WithContext(ctx).
		Joins("JOIN claim ON claim.id = evidence_link.claim_id").
		Where("claim.episode_id = ? AND claim.anchor_ms <= ?", episodeID, anchorMs).
		Order("claim.anchor_ms DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
