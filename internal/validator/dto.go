package validator

import "github.com/SAP-F-2025/psytest-service/internal/models"

type StartSessionRequest struct {
	TestID     uint   `json:"test_id" validate:"required"`
	SubjectID  string `json:"subject_id" validate:"required,not_blank,max=255"`
	SubjectAge *int   `json:"subject_age" validate:"omitempty,min=1,max=18"`
}

// SubmitAnswerRequest carries either an option or free text. Which one is
// required depends on the question kind and is checked by the session service.
type SubmitAnswerRequest struct {
	QuestionID uint    `json:"question_id" validate:"required"`
	OptionID   *uint   `json:"option_id" validate:"omitempty,min=1"`
	FreeText   *string `json:"free_text" validate:"omitempty,max=10000"`
}

type ScreenTextRequest struct {
	Pairs []models.TextPair `json:"pairs" validate:"required,min=1,max=200,dive"`
}

type ScreenScoreRequest struct {
	Category   models.TestCategory `json:"category" validate:"required,test_category"`
	Percentage *int                `json:"percentage" validate:"required,percent_bound"`
}

type RubricRangeRequest struct {
	MinPercent      int    `json:"min_percent" validate:"percent_bound"`
	MaxPercent      int    `json:"max_percent" validate:"percent_bound,gtefield=MinPercent"`
	Level           string `json:"level" validate:"required,not_blank,max=64"`
	Title           string `json:"title" validate:"required,not_blank,max=200"`
	Description     string `json:"description" validate:"max=4000"`
	Recommendations string `json:"recommendations" validate:"max=4000"`
}

type ReplaceRubricRequest struct {
	Ranges []RubricRangeRequest `json:"ranges" validate:"required,min=1,max=20,dive"`
}

type ListSessionsQuery struct {
	SubjectID string               `form:"subject_id" json:"subject_id" validate:"omitempty,max=255"`
	TestID    uint                 `form:"test_id" json:"test_id"`
	Status    models.SessionStatus `form:"status" json:"status" validate:"omitempty,session_status"`
	Page      int                  `form:"page" json:"page" validate:"omitempty,min=1"`
	Size      int                  `form:"size" json:"size" validate:"omitempty,min=1,max=100"`
	SortBy    string               `form:"sort_by" json:"sort_by" validate:"omitempty,oneof=started_at completed_at created_at"`
	SortDir   string               `form:"sort_dir" json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

type ListTestsQuery struct {
	Category models.TestCategory `form:"category" json:"category" validate:"omitempty,test_category"`
	Age      *int                `form:"age" json:"age" validate:"omitempty,min=1,max=18"`
	Page     int                 `form:"page" json:"page" validate:"omitempty,min=1"`
	Size     int                 `form:"size" json:"size" validate:"omitempty,min=1,max=100"`
	SortBy   string              `form:"sort_by" json:"sort_by" validate:"omitempty,oneof=created_at title"`
	SortDir  string              `form:"sort_dir" json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}
