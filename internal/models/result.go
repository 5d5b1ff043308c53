package models

import (
	"time"

	"gorm.io/datatypes"
)

// TierSource records where a result's interpretation text came from.
type TierSource string

const (
	TierFromRubric   TierSource = "rubric"
	TierFromDefault  TierSource = "default"
	TierFromFallback TierSource = "fallback" // rubric configured but no range matched
)

type Result struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	SessionID uint   `json:"session_id" gorm:"not null;uniqueIndex"`
	TestID    uint   `json:"test_id" gorm:"not null;index"`
	SubjectID string `json:"subject_id" gorm:"not null;size:255;index"`

	// Scoring
	TotalScore int `json:"total_score"`
	MaxScore   int `json:"max_score"`
	Percentage int `json:"percentage"`

	// Interpretation
	Level           string     `json:"level" gorm:"size:64"`
	Title           string     `json:"title" gorm:"size:200"`
	Interpretation  string     `json:"interpretation" gorm:"type:text"`
	Recommendations string     `json:"recommendations" gorm:"type:text"`
	TierSource      TierSource `json:"tier_source" gorm:"size:16"`
	FallbackUsed    bool       `json:"fallback_used"`

	// Optional enrichment from the narrative generator
	Narrative       datatypes.JSON `json:"narrative" gorm:"type:jsonb"`
	NeedsSpecialist bool           `json:"needs_specialist"`

	RecalculatedAt *time.Time `json:"recalculated_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Result) TableName() string {
	return "results"
}

// Narrative is the AI-written refinement attached to a result.
type Narrative struct {
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
	NeedsSpecialist bool     `json:"needs_specialist"`
}
