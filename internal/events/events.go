package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/psytest-service/internal/models"
)

const (
	EventSource  = "psytest-service"
	EventVersion = "1.0"
)

type EventType string

const (
	EventSessionCompleted     EventType = "session.completed"
	EventResultRecalculated   EventType = "result.recalculated"
	EventCrisisDetected       EventType = "crisis.detected"
	EventGuardianNotification EventType = "guardian.notification"
)

// Event is the envelope every message on the bus carries.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// ===== PAYLOADS =====

type SessionCompletedEvent struct {
	SessionID   uint                  `json:"session_id"`
	TestID      uint                  `json:"test_id"`
	SubjectID   string                `json:"subject_id"`
	OwnerID     string                `json:"owner_id"`
	ResultID    uint                  `json:"result_id"`
	Mode        models.CompletionMode `json:"mode"`
	TotalScore  int                   `json:"total_score"`
	MaxScore    int                   `json:"max_score"`
	Percentage  int                   `json:"percentage"`
	Level       string                `json:"level"`
	CompletedAt time.Time             `json:"completed_at"`
}

type ResultRecalculatedEvent struct {
	ResultID       uint      `json:"result_id"`
	SessionID      uint      `json:"session_id"`
	TestID         uint      `json:"test_id"`
	PreviousScore  int       `json:"previous_score"`
	PreviousLevel  string    `json:"previous_level"`
	TotalScore     int       `json:"total_score"`
	MaxScore       int       `json:"max_score"`
	Percentage     int       `json:"percentage"`
	Level          string    `json:"level"`
	RecalculatedAt time.Time `json:"recalculated_at"`
}

// CrisisDetectedEvent never carries answer text.
type CrisisDetectedEvent struct {
	SessionID               *uint                 `json:"session_id,omitempty"`
	QuestionID              *uint                 `json:"question_id,omitempty"`
	TestID                  *uint                 `json:"test_id,omitempty"`
	SubjectID               string                `json:"subject_id,omitempty"`
	OwnerID                 string                `json:"owner_id"`
	Trigger                 string                `json:"trigger"`
	Severity                models.RiskSeverity   `json:"severity"`
	Categories              []models.RiskCategory `json:"categories"`
	RequiresImmediateAction bool                  `json:"requires_immediate_action"`
	DetectedAt              time.Time             `json:"detected_at"`
}

type GuardianNotificationEvent struct {
	OwnerID         string                   `json:"owner_id"`
	SubjectID       string                   `json:"subject_id,omitempty"`
	SessionID       *uint                    `json:"session_id,omitempty"`
	Severity        models.RiskSeverity      `json:"severity"`
	Urgent          bool                     `json:"urgent"`
	Recommendations []string                 `json:"recommendations"`
	Resources       []models.SupportResource `json:"resources"`
}
