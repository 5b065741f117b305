package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TemporalWindow is a fixed-size slice of source material. The assembler
// uses it to bound what counts as "already said" at a playback position.
type TemporalWindow struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EpisodeID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"episode_id"`
	StartMs    int64          `gorm:"column:start_ms;not null" json:"start_ms"`
	EndMs      int64          `gorm:"column:end_ms;not null" json:"end_ms"`
	Text       string         `gorm:"column:text" json:"text"`
	Utterances datatypes.JSON `gorm:"type:jsonb;column:utterances" json:"utterances,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (TemporalWindow) TableName() string { return "temporal_window" }

func (w *TemporalWindow) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (w *TemporalWindow) Contains(tMs int64) bool {
	return w != nil && tMs >= w.StartMs && tMs < w.EndMs
}
