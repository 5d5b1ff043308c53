package models

import "time"

type TestCategory string

const (
	CategoryEmotions    TestCategory = "EMOTIONS"
	CategoryAnxiety     TestCategory = "ANXIETY"
	CategoryAttention   TestCategory = "ATTENTION"
	CategoryBehavior    TestCategory = "BEHAVIOR"
	CategorySocial      TestCategory = "SOCIAL"
	CategorySelfEsteem  TestCategory = "SELF_ESTEEM"
	CategoryDevelopment TestCategory = "DEVELOPMENT"
)

// TestCategories lists every category a test may be filed under.
var TestCategories = []TestCategory{
	CategoryEmotions,
	CategoryAnxiety,
	CategoryAttention,
	CategoryBehavior,
	CategorySocial,
	CategorySelfEsteem,
	CategoryDevelopment,
}

func (c TestCategory) IsValid() bool {
	for _, known := range TestCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Test is a questionnaire administered to a child.
type Test struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"not null;size:200"`
	Description *string      `json:"description" gorm:"type:text"`
	Category    TestCategory `json:"category" gorm:"not null;size:32;index"`

	// Eligibility
	AgeMin    *int `json:"age_min"`
	AgeMax    *int `json:"age_max"`
	IsActive  bool `json:"is_active" gorm:"default:true;index"`
	IsPremium bool `json:"is_premium" gorm:"default:false"`
	Price     int  `json:"price" gorm:"default:0"` // minor currency units, informational only

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question            `json:"questions,omitempty" gorm:"foreignKey:TestID"`
	Rubric    []InterpretationRange `json:"rubric,omitempty" gorm:"foreignKey:TestID"`
}

func (Test) TableName() string {
	return "tests"
}

// AcceptsAge reports whether a subject of the given age falls inside the
// test's configured age range. Open bounds accept everything.
func (t *Test) AcceptsAge(age int) bool {
	if t.AgeMin != nil && age < *t.AgeMin {
		return false
	}
	if t.AgeMax != nil && age > *t.AgeMax {
		return false
	}
	return true
}
