package models

import "time"

// OptionPayload is an answer option as shown to the subject. Scores are
// never part of it.
type OptionPayload struct {
	ID    uint   `json:"id"`
	Order int    `json:"order"`
	Text  string `json:"text"`
}

type QuestionPayload struct {
	ID         uint            `json:"id"`
	Order      int             `json:"order"`
	Index      int             `json:"index"`
	Kind       QuestionKind    `json:"kind"`
	Text       string          `json:"text"`
	IsRequired bool            `json:"is_required"`
	Options    []OptionPayload `json:"options"`
}

// NewQuestionPayload strips scoring data from a question.
func NewQuestionPayload(q *Question, index int) *QuestionPayload {
	payload := &QuestionPayload{
		ID:         q.ID,
		Order:      q.Order,
		Index:      index,
		Kind:       q.Kind,
		Text:       q.Text,
		IsRequired: q.IsRequired,
		Options:    make([]OptionPayload, 0, len(q.Options)),
	}
	for _, opt := range q.Options {
		payload.Options = append(payload.Options, OptionPayload{
			ID:    opt.ID,
			Order: opt.Order,
			Text:  opt.Text,
		})
	}
	return payload
}

type SessionView struct {
	SessionID       uint             `json:"session_id"`
	TestID          uint             `json:"test_id"`
	SubjectID       string           `json:"subject_id"`
	Status          SessionStatus    `json:"status"`
	TotalQuestions  int              `json:"total_questions"`
	CurrentIndex    int              `json:"current_index"`
	Progress        int              `json:"progress"`
	CurrentQuestion *QuestionPayload `json:"current_question"`
	CanComplete     bool             `json:"can_complete"`
	ResultID        *uint            `json:"result_id,omitempty"`
	StartedAt       time.Time        `json:"started_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
}

type AnswerOutcome struct {
	IsComplete   bool              `json:"is_complete"`
	ResultID     *uint             `json:"result_id,omitempty"`
	NextQuestion *QuestionPayload  `json:"next_question,omitempty"`
	CurrentIndex int               `json:"current_index"`
	Progress     int               `json:"progress"`
	Screening    *CrisisAssessment `json:"screening,omitempty"`
}

type CompletionOutcome struct {
	ResultID         uint              `json:"result_id"`
	AlreadyCompleted bool              `json:"already_completed"`
	Screening        *CrisisAssessment `json:"screening,omitempty"`
}

type PaginatedResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}
