package models

import (
	"sort"
	"time"
)

type QuestionKind string

const (
	KindSingleChoice QuestionKind = "single_choice"
	KindScale        QuestionKind = "scale"
	KindYesNo        QuestionKind = "yes_no"
	KindFreeText     QuestionKind = "free_text"
)

func (k QuestionKind) IsValid() bool {
	switch k {
	case KindSingleChoice, KindScale, KindYesNo, KindFreeText:
		return true
	}
	return false
}

func (k QuestionKind) IsFreeText() bool {
	return k == KindFreeText
}

type Question struct {
	ID         uint         `json:"id" gorm:"primaryKey"`
	TestID     uint         `json:"test_id" gorm:"not null;uniqueIndex:idx_question_test_order"`
	Order      int          `json:"order" gorm:"not null;uniqueIndex:idx_question_test_order"`
	Kind       QuestionKind `json:"kind" gorm:"not null;size:32"`
	Text       string       `json:"text" gorm:"type:text;not null"`
	IsRequired bool         `json:"is_required" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Options []AnswerOption `json:"options" gorm:"foreignKey:QuestionID"`
}

func (Question) TableName() string {
	return "questions"
}

// MaxScore is the best score attainable on the question. Free-text
// questions and questions without options are worth nothing.
func (q *Question) MaxScore() int {
	if q.Kind.IsFreeText() {
		return 0
	}
	max := 0
	for _, opt := range q.Options {
		if opt.Score > max {
			max = opt.Score
		}
	}
	return max
}

func (q *Question) FindOption(optionID uint) *AnswerOption {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i]
		}
	}
	return nil
}

// SortOptions orders options by display order, ID breaks ties.
func (q *Question) SortOptions() {
	sort.SliceStable(q.Options, func(i, j int) bool {
		if q.Options[i].Order == q.Options[j].Order {
			return q.Options[i].ID < q.Options[j].ID
		}
		return q.Options[i].Order < q.Options[j].Order
	})
}

type AnswerOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Order      int    `json:"order" gorm:"not null;default:0"`
	Text       string `json:"text" gorm:"type:text;not null"`
	Score      int    `json:"score" gorm:"not null;default:0;check:chk_option_score_non_negative,score >= 0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AnswerOption) TableName() string {
	return "answer_options"
}

// SortQuestions orders questions by their delivery order.
func SortQuestions(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})
}
