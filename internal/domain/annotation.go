package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnnotationKind string

const (
	AnnotationKindSave AnnotationKind = "save"
	AnnotationKindStar AnnotationKind = "star"
)

// Annotation is a user save/star referencing a claim. Creating or deleting
// one invalidates every synthesis artifact for that claim in the same
// transaction, and scopes the coverage "notebook" view.
type Annotation struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ClaimID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"claim_id"`
	Kind      AnnotationKind `gorm:"column:kind;not null" json:"kind"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Annotation) TableName() string { return "annotation" }

func (a *Annotation) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
