package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/psytest-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type TestFilters struct {
	Category   *models.TestCategory `json:"category"`
	ActiveOnly bool                 `json:"active_only"`
	Age        *int                 `json:"age"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
	SortBy     string               `json:"sort_by"`    // "created_at", "title"
	SortOrder  string               `json:"sort_order"` // "asc", "desc"
}

type SessionFilters struct {
	OwnerID   *string               `json:"owner_id"`
	SubjectID *string               `json:"subject_id"`
	TestID    *uint                 `json:"test_id"`
	Status    *models.SessionStatus `json:"status"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`    // "started_at", "completed_at", "created_at"
	SortOrder string                `json:"sort_order"` // "asc", "desc"
}

type ResultFilters struct {
	SubjectID *string    `json:"subject_id"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// ===== REPOSITORIES =====

// TestRepository reads the questionnaire catalog
type TestRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	List(ctx context.Context, tx *gorm.DB, filters TestFilters) ([]*models.Test, int64, error)
}

// SessionRepository stores session state. Writes that race are resolved by
// the database: creation against the active-session index, advancement and
// completion through conditional updates.
type SessionRepository interface {
	// CreateIfAbsent inserts session unless an IN_PROGRESS session already
	// exists for its (test, subject). It returns the stored active session
	// and whether this call created it.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, session *models.Session) (*models.Session, bool, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Session, error)
	GetActive(ctx context.Context, tx *gorm.DB, testID uint, subjectID string) (*models.Session, error)
	List(ctx context.Context, tx *gorm.DB, filters SessionFilters) ([]*models.Session, int64, error)

	// AdvanceIndex raises current_index to target only if the session is in
	// progress and its pointer is lower. It reports whether a row changed.
	AdvanceIndex(ctx context.Context, tx *gorm.DB, id uint, target int) (bool, error)

	// Complete moves an in-progress session to COMPLETED. It reports false
	// when another caller completed it first.
	Complete(ctx context.Context, tx *gorm.DB, id uint, finalIndex int, mode models.CompletionMode, at time.Time) (bool, error)
}

type AnswerRepository interface {
	// Upsert replaces the answer stored for (session, question) while the
	// session is in progress. It reports false, saving nothing, otherwise.
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) (bool, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]models.Answer, error)
}

type ResultRepository interface {
	// Create returns ErrConflict when the session already has a result
	Create(ctx context.Context, tx *gorm.DB, result *models.Result) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error)
	GetBySession(ctx context.Context, tx *gorm.DB, sessionID uint) (*models.Result, error)
	Update(ctx context.Context, tx *gorm.DB, result *models.Result) error
	ListByTest(ctx context.Context, tx *gorm.DB, testID uint, filters ResultFilters) ([]*models.Result, int64, error)
}

// RubricRepository manages the interpretation ranges of a test
type RubricRepository interface {
	// ListByTest returns ranges ordered by lower bound
	ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]models.InterpretationRange, error)
	// Replace swaps all ranges of a test in one transaction
	Replace(ctx context.Context, tx *gorm.DB, testID uint, ranges []models.InterpretationRange) error
}
