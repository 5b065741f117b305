package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Episode is one source recording. Claims anchor into it by offset.
type Episode struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string    `gorm:"column:title;not null" json:"title"`
	DurationMs int64     `gorm:"column:duration_ms" json:"duration_ms"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Episode) TableName() string { return "episode" }

func (e *Episode) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Claim is an assertion extracted from source audio by the upstream
// pipeline. The core never mutates claims; it derives evidence links,
// memberships and synthesis artifacts from them. Anchor offsets are
// best-effort: upstream segment alignment is known to drift by tens of
// seconds and is not corrected here.
type Claim struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EpisodeID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"episode_id"`
	Text          string     `gorm:"column:text;not null" json:"text"`
	ShortForm     string     `gorm:"column:short_form" json:"short_form"`
	AnchorMs      int64      `gorm:"column:anchor_ms;not null;index" json:"anchor_ms"`
	DuplicateOfID *uuid.UUID `gorm:"type:uuid;column:duplicate_of_id" json:"duplicate_of_id,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (Claim) TableName() string { return "claim" }

func (c *Claim) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Claim) IsDuplicate() bool {
	return c != nil && c.DuplicateOfID != nil && *c.DuplicateOfID != uuid.Nil
}
