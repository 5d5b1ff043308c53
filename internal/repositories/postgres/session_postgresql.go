package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activeSessionConflict targets the partial unique index idx_active_session.
// The predicate is a literal so postgres can infer the index.
var activeSessionConflict = clause.OnConflict{
	Columns: []clause.Column{{Name: "test_id"}, {Name: "subject_id"}},
	TargetWhere: clause.Where{Exprs: []clause.Expression{
		clause.Expr{SQL: "status = 'IN_PROGRESS'"},
	}},
	DoNothing: true,
}

// createAttempts bounds the insert/re-read loop when the active session is
// completed between the two statements.
const createAttempts = 3

type SessionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (s *SessionPostgreSQL) CreateIfAbsent(ctx context.Context, tx *gorm.DB, session *models.Session) (*models.Session, bool, error) {
	db := s.getDB(tx)

	for i := 0; i < createAttempts; i++ {
		candidate := *session
		candidate.ID = 0
		result := db.WithContext(ctx).Clauses(activeSessionConflict).Create(&candidate)
		if result.Error != nil {
			return nil, false, fmt.Errorf("failed to create session: %w", result.Error)
		}
		if result.RowsAffected == 1 {
			*session = candidate
			return session, true, nil
		}

		existing, err := s.GetActive(ctx, tx, session.TestID, session.SubjectID)
		if err == nil {
			return existing, false, nil
		}
		if !repositories.IsNotFoundError(err) {
			return nil, false, err
		}
		// the conflicting session finished in between; try again
	}

	return nil, false, fmt.Errorf("%w: could not settle active session for test %d", repositories.ErrConflict, session.TestID)
}

func (s *SessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Session, error) {
	db := s.getDB(tx)
	var session models.Session
	if err := db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get session %d: %w", id, err)
	}
	return &session, nil
}

func (s *SessionPostgreSQL) GetActive(ctx context.Context, tx *gorm.DB, testID uint, subjectID string) (*models.Session, error) {
	db := s.getDB(tx)
	var session models.Session
	if err := db.WithContext(ctx).
		Where("test_id = ? AND subject_id = ? AND status = ?", testID, subjectID, models.SessionInProgress).
		First(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return &session, nil
}

func (s *SessionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SessionFilters) ([]*models.Session, int64, error) {
	db := s.getDB(tx)
	sessions := []*models.Session{}
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.Session{})
	query = s.helpers.ApplySessionFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	// then apply pagination and sorting
	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "started_at"
	}
	query = s.helpers.ApplyPaginationAndSort(query, sortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, total, nil
}

func (s *SessionPostgreSQL) AdvanceIndex(ctx context.Context, tx *gorm.DB, id uint, target int) (bool, error) {
	db := s.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND status = ? AND current_index < ? AND total_questions >= ?",
			id, models.SessionInProgress, target, target).
		Updates(map[string]interface{}{
			"current_index": target,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to advance session %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *SessionPostgreSQL) Complete(ctx context.Context, tx *gorm.DB, id uint, finalIndex int, mode models.CompletionMode, at time.Time) (bool, error) {
	db := s.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND status = ?", id, models.SessionInProgress).
		Updates(map[string]interface{}{
			"status":          models.SessionCompleted,
			"current_index":   gorm.Expr("GREATEST(current_index, ?)", finalIndex),
			"completion_mode": mode,
			"completed_at":    at,
			"updated_at":      at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete session %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (s *SessionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// AnswerPostgreSQL implements the AnswerRepository interface
type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (ar *AnswerPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) (bool, error) {
	if answer.AnsweredAt.IsZero() {
		answer.AnsweredAt = time.Now()
	}

	saved := false
	err := ar.getDB(tx).WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var ids []uint
		if err := lockInProgress(db, answer.SessionID).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to lock session %d: %w", answer.SessionID, err)
		}
		if len(ids) == 0 {
			return nil
		}

		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"option_id", "free_text", "answered_at", "updated_at"}),
		}).Create(answer).Error; err != nil {
			return fmt.Errorf("failed to save answer: %w", err)
		}
		saved = true
		return nil
	})
	return saved, err
}

// lockInProgress selects the session row FOR UPDATE while it is in progress.
// Complete updates the same row, so it waits for the answer to commit.
func lockInProgress(db *gorm.DB, sessionID uint) *gorm.DB {
	return db.Model(&models.Session{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ?", sessionID, models.SessionInProgress)
}

func (ar *AnswerPostgreSQL) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]models.Answer, error) {
	db := ar.getDB(tx)
	answers := []models.Answer{}
	if err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (ar *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}

// isDuplicate reports a unique violation translated by gorm
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
