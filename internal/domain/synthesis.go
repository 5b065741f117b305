package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SynthesisArtifact caches one computed synthesis per (claim, style).
// Artifacts are invalidated in place, never deleted: annotation changes
// flip IsStale and bump Generation inside the same transaction.
type SynthesisArtifact struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_artifact_claim_style" json:"claim_id"`
	Style          string         `gorm:"column:style;not null;uniqueIndex:idx_artifact_claim_style" json:"style"`
	EvidenceJSON   datatypes.JSON `gorm:"type:jsonb;column:evidence_json" json:"evidence_json,omitempty"`
	Narrative      string         `gorm:"column:narrative" json:"narrative"`
	GenerationMeta datatypes.JSON `gorm:"type:jsonb;column:generation_meta" json:"generation_meta,omitempty"`
	IsStale        bool           `gorm:"column:is_stale;not null;default:false" json:"is_stale"`
	Generation     int64          `gorm:"column:generation;not null;default:0" json:"generation"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (SynthesisArtifact) TableName() string { return "synthesis_artifact" }

func (a *SynthesisArtifact) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
