package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document is a research artifact owned by the ingestion pipeline. The core
// reads it and backfills metadata; it never rewrites passage text.
type Document struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string     `gorm:"column:title;not null" json:"title"`
	Year          int        `gorm:"column:year" json:"year"`
	Venue         string     `gorm:"column:venue" json:"venue"`
	CitationCount int        `gorm:"column:citation_count" json:"citation_count"`
	Passages      []*Passage `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"passages,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Document) TableName() string { return "document" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Passage is one ordered chunk of a document. A passage without an
// embedding stays retrievable by ID but is invisible to similarity search.
type Passage struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"document_id"`
	Index        int            `gorm:"column:index;not null" json:"index"`
	SectionLabel string         `gorm:"column:section_label" json:"section_label"`
	PageRef      *int           `gorm:"column:page_ref" json:"page_ref,omitempty"`
	TokenCount   int            `gorm:"column:token_count" json:"token_count"`
	Text         string         `gorm:"column:text;not null" json:"text"`
	Embedding    datatypes.JSON `gorm:"type:jsonb;column:embedding" json:"embedding,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Passage) TableName() string { return "passage" }

func (p *Passage) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Passage) HasEmbedding() bool {
	return p != nil && len(UnmarshalVector(p.Embedding)) > 0
}
