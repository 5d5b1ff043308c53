package models

import "time"

// InterpretationRange maps an inclusive percentage band of a test to its
// interpretation text.
type InterpretationRange struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	TestID          uint   `json:"test_id" gorm:"not null;index"`
	MinPercent      int    `json:"min_percent" gorm:"not null"`
	MaxPercent      int    `json:"max_percent" gorm:"not null"`
	Level           string `json:"level" gorm:"not null;size:64"`
	Title           string `json:"title" gorm:"size:200"`
	Description     string `json:"description" gorm:"type:text"`
	Recommendations string `json:"recommendations" gorm:"type:text"`
	SortOrder       int    `json:"sort_order" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InterpretationRange) TableName() string {
	return "interpretation_ranges"
}

func (r InterpretationRange) Contains(percentage int) bool {
	return percentage >= r.MinPercent && percentage <= r.MaxPercent
}
