package services

import (
	"math"
	"strings"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

// Evidence-strength categories.
type EvidenceCategory string

const (
	CategoryPrimary     EvidenceCategory = "primary"
	CategoryReplication EvidenceCategory = "replication"
	CategoryCounter     EvidenceCategory = "counter"
)

type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "High"
	ConfidenceMedium  ConfidenceLevel = "Medium"
	ConfidenceLow     ConfidenceLevel = "Low"
	ConfidenceUnknown ConfidenceLevel = "Unknown"
)

const (
	primaryScoreThreshold = 0.7
	highConfidenceMean    = 0.7
	mediumConfidenceMean  = 0.4
)

// EvidenceCounts is always zero-filled so consumers never branch on
// missing keys.
type EvidenceCounts struct {
	Primary     int `json:"primary"`
	Replication int `json:"replication"`
	Counter     int `json:"counter"`
}

func (c EvidenceCounts) Total() int { return c.Primary + c.Replication + c.Counter }

type ClassifiedLink struct {
	Link     *domain.EvidenceLink `json:"link"`
	Category EvidenceCategory     `json:"category"`
}

type EvidenceSummary struct {
	Links               []ClassifiedLink `json:"links"`
	Counts              EvidenceCounts   `json:"evidence_counts"`
	ConfidenceLevel     ConfidenceLevel  `json:"confidence_level"`
	ConsensusPercentage int              `json:"consensus_percentage"`
	MeanScore           float64          `json:"mean_score"`
}

// ClassifyLink is total over malformed input: out-of-range scores are
// clamped, never rejected. The explicit tag wins over the score for the
// counter category.
func ClassifyLink(link *domain.EvidenceLink) EvidenceCategory {
	tag := strings.ToLower(link.TypeTag)
	if strings.Contains(tag, "counter") || strings.Contains(tag, "alternative") {
		return CategoryCounter
	}
	if domain.ClampScore(link.Score) >= primaryScoreThreshold || strings.Contains(tag, "primary") {
		return CategoryPrimary
	}
	return CategoryReplication
}

// SummarizeEvidence classifies an evidence-link set and derives aggregate
// confidence and consensus. It is a pure function of the set: cheap to
// recompute, so never cached on its own.
func SummarizeEvidence(log *logger.Logger, links []*domain.EvidenceLink) EvidenceSummary {
	summary := EvidenceSummary{
		Links:           make([]ClassifiedLink, 0, len(links)),
		ConfidenceLevel: ConfidenceUnknown,
	}
	if len(links) == 0 {
		return summary
	}

	var scoreSum float64
	for _, link := range links {
		if link == nil {
			continue
		}
		clamped := domain.ClampScore(link.Score)
		if clamped != link.Score && log != nil {
			log.Warn("Evidence link score outside [0,1], clamped", "link_id", link.ID, "score", link.Score)
		}
		cat := ClassifyLink(link)
		switch cat {
		case CategoryPrimary:
			summary.Counts.Primary++
		case CategoryCounter:
			summary.Counts.Counter++
		default:
			summary.Counts.Replication++
		}
		scoreSum += clamped
		summary.Links = append(summary.Links, ClassifiedLink{Link: link, Category: cat})
	}

	total := summary.Counts.Total()
	if total == 0 {
		return summary
	}
	summary.MeanScore = scoreSum / float64(total)
	switch {
	case summary.MeanScore >= highConfidenceMean:
		summary.ConfidenceLevel = ConfidenceHigh
	case summary.MeanScore >= mediumConfidenceMean:
		summary.ConfidenceLevel = ConfidenceMedium
	default:
		summary.ConfidenceLevel = ConfidenceLow
	}
	agreeing := summary.Counts.Primary + summary.Counts.Replication
	summary.ConsensusPercentage = int(math.Round(100 * float64(agreeing) / float64(total)))
	return summary
}
