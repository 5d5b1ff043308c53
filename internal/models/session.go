package models

import (
	"strings"
	"time"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
)

type CompletionMode string

const (
	CompletionFinalAnswer CompletionMode = "final_answer"
	CompletionForced      CompletionMode = "forced"
)

// Session tracks one subject working through one test. At most one
// IN_PROGRESS session exists per (test, subject); the partial unique index
// idx_active_session is created by the migration in pkg.
type Session struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	TestID    uint   `json:"test_id" gorm:"not null;index"`
	SubjectID string `json:"subject_id" gorm:"not null;size:255;index"`
	OwnerID   string `json:"owner_id" gorm:"not null;size:255;index"`

	Status         SessionStatus   `json:"status" gorm:"not null;size:16;default:IN_PROGRESS;index"`
	CurrentIndex   int             `json:"current_index" gorm:"not null;default:0"`
	TotalQuestions int             `json:"total_questions" gorm:"not null;default:0"`
	CompletionMode *CompletionMode `json:"completion_mode" gorm:"size:16"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:SessionID"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) IsCompleted() bool {
	return s.Status == SessionCompleted
}

// Answer holds a subject's response to one question of a session.
// Either OptionID or FreeText is populated.
type Answer struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	SessionID  uint    `json:"session_id" gorm:"not null;uniqueIndex:idx_answer_session_question"`
	QuestionID uint    `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_session_question;index"`
	OptionID   *uint   `json:"option_id"`
	FreeText   *string `json:"free_text" gorm:"type:text"`

	AnsweredAt time.Time `json:"answered_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Answer) TableName() string {
	return "answers"
}

func (a *Answer) HasFreeText() bool {
	return a.FreeText != nil && strings.TrimSpace(*a.FreeText) != ""
}
