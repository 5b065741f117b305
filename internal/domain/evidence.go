package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EvidenceLink associates a claim with a document or passage. Links are
// written by retrieval and never mutated; a re-run supersedes the whole set
// for the claim.
type EvidenceLink struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"claim_id"`
	DocumentID uuid.UUID  `gorm:"type:uuid;not null;index" json:"document_id"`
	PassageID  *uuid.UUID `gorm:"type:uuid" json:"passage_id,omitempty"`
	Score      float64    `gorm:"column:score;not null" json:"score"`
	TypeTag    string     `gorm:"column:type_tag" json:"type_tag,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (EvidenceLink) TableName() string { return "evidence_link" }

func (l *EvidenceLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ---- Evidence items ----
//
// The evidence bundle handed to synthesis carries items of distinct shapes:
// a scored passage, a document-level citation, or a free snippet from the
// generation side. Each variant enforces its own required fields at
// construction instead of one record with many optional columns.

type EvidenceKind string

const (
	EvidenceKindPassage  EvidenceKind = "passage"
	EvidenceKindDocument EvidenceKind = "document"
	EvidenceKindSnippet  EvidenceKind = "snippet"
)

type EvidenceItem interface {
	Kind() EvidenceKind
	SourceDocumentID() uuid.UUID
	RelevanceScore() float64
}

type PassageEvidence struct {
	DocumentID uuid.UUID `json:"document_id"`
	PassageID  uuid.UUID `json:"passage_id"`
	Section    string    `json:"section,omitempty"`
	Text       string    `json:"text"`
	Score      float64   `json:"score"`
}

func NewPassageEvidence(documentID, passageID uuid.UUID, section, text string, score float64) (*PassageEvidence, error) {
	if documentID == uuid.Nil {
		return nil, fmt.Errorf("passage evidence requires a document id")
	}
	if passageID == uuid.Nil {
		return nil, fmt.Errorf("passage evidence requires a passage id")
	}
	if text == "" {
		return nil, fmt.Errorf("passage evidence requires text")
	}
	return &PassageEvidence{DocumentID: documentID, PassageID: passageID, Section: section, Text: text, Score: ClampScore(score)}, nil
}

func (e *PassageEvidence) Kind() EvidenceKind          { return EvidenceKindPassage }
func (e *PassageEvidence) SourceDocumentID() uuid.UUID { return e.DocumentID }
func (e *PassageEvidence) RelevanceScore() float64     { return e.Score }

type DocumentEvidence struct {
	DocumentID uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	Year       int       `json:"year,omitempty"`
	Venue      string    `json:"venue,omitempty"`
	Score      float64   `json:"score"`
	TypeTag    string    `json:"type_tag,omitempty"`
}

func NewDocumentEvidence(documentID uuid.UUID, title string, year int, venue string, score float64, typeTag string) (*DocumentEvidence, error) {
	if documentID == uuid.Nil {
		return nil, fmt.Errorf("document evidence requires a document id")
	}
	if title == "" {
		return nil, fmt.Errorf("document evidence requires a title")
	}
	return &DocumentEvidence{DocumentID: documentID, Title: title, Year: year, Venue: venue, Score: ClampScore(score), TypeTag: typeTag}, nil
}

func (e *DocumentEvidence) Kind() EvidenceKind          { return EvidenceKindDocument }
func (e *DocumentEvidence) SourceDocumentID() uuid.UUID { return e.DocumentID }
func (e *DocumentEvidence) RelevanceScore() float64     { return e.Score }

// SnippetEvidence is unanchored supporting text. It never contributes to
// per-document deduplication, so it carries no document reference.
type SnippetEvidence struct {
	Text   string  `json:"text"`
	Origin string  `json:"origin"`
	Score  float64 `json:"score"`
}

func NewSnippetEvidence(text, origin string, score float64) (*SnippetEvidence, error) {
	if text == "" {
		return nil, fmt.Errorf("snippet evidence requires text")
	}
	if origin == "" {
		return nil, fmt.Errorf("snippet evidence requires an origin")
	}
	return &SnippetEvidence{Text: text, Origin: origin, Score: ClampScore(score)}, nil
}

func (e *SnippetEvidence) Kind() EvidenceKind          { return EvidenceKindSnippet }
func (e *SnippetEvidence) SourceDocumentID() uuid.UUID { return uuid.Nil }
func (e *SnippetEvidence) RelevanceScore() float64     { return e.Score }

// ClampScore folds malformed scores into [0,1]. The read path stays total:
// out-of-range input is clamped, not rejected.
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
