package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SAP-F-2025/psytest-service/internal/events"
	"github.com/SAP-F-2025/psytest-service/internal/metrics"
	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/repositories"
	"github.com/SAP-F-2025/psytest-service/internal/validator"
)

type sessionService struct {
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	scoring      ScoringService
	screening    ScreeningService
	entitlements EntitlementChecker
	notifier     CrisisNotifier
	publisher    events.EventPublisher
	pageSize     pageLimits

	// narrative enrichment still running
	enrichWG sync.WaitGroup
}

func NewSessionService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	scoring ScoringService,
	screening ScreeningService,
	entitlements EntitlementChecker,
	notifier CrisisNotifier,
	publisher events.EventPublisher,
) SessionService {
	if publisher == nil {
		publisher = events.NoopEventPublisher{}
	}
	if notifier == nil {
		notifier = NewCrisisNotifier(publisher, logger)
	}
	return &sessionService{
		repo:         repo,
		logger:       logger,
		validator:    validator,
		scoring:      scoring,
		screening:    screening,
		entitlements: entitlements,
		notifier:     notifier,
		publisher:    publisher,
		pageSize:     defaultPageLimits,
	}
}

// ===== CORE SESSION OPERATIONS =====

func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest, actor Actor) (*models.SessionView, error) {
	s.logger.Info("Starting session",
		"test_id", req.TestID,
		"owner_id", actor.UserID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByID(ctx, nil, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	if err := s.checkEligibility(ctx, test, req, actor); err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().ListByTest(ctx, nil, test.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	session := &models.Session{
		TestID:         test.ID,
		SubjectID:      strings.TrimSpace(req.SubjectID),
		OwnerID:        actor.UserID,
		Status:         models.SessionInProgress,
		CurrentIndex:   0,
		TotalQuestions: len(questions),
		StartedAt:      time.Now(),
	}

	stored, created, err := s.repo.Session().CreateIfAbsent(ctx, nil, session)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	if !created {
		if err := checkAccess(actor, stored, "resume"); err != nil {
			return nil, err
		}
		s.logger.Info("Resuming existing session", "session_id", stored.ID)
		return buildView(stored, questions, nil), nil
	}

	metrics.RecordSessionStarted()
	s.logger.Info("Session started",
		"session_id", stored.ID,
		"test_id", test.ID,
		"total_questions", stored.TotalQuestions)

	return buildView(stored, questions, nil), nil
}

func (s *sessionService) GetStatus(ctx context.Context, sessionID uint, actor Actor) (*models.SessionView, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(actor, session, "view"); err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().ListByTest(ctx, nil, session.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	var resultID *uint
	if session.IsCompleted() {
		result, err := s.repo.Result().GetBySession(ctx, nil, session.ID)
		switch {
		case err == nil:
			resultID = &result.ID
		case !repositories.IsNotFoundError(err):
			return nil, fmt.Errorf("failed to get result: %w", err)
		}
	}

	return buildView(session, questions, resultID), nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, sessionID uint, req *SubmitAnswerRequest, actor Actor) (*models.AnswerOutcome, error) {
	s.logger.Debug("Submitting answer",
		"session_id", sessionID,
		"question_id", req.QuestionID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(actor, session, "answer"); err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, ErrSessionNotActive
	}

	questions, err := s.repo.Question().ListByTest(ctx, nil, session.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	index := questionIndex(questions, req.QuestionID)
	if index < 0 {
		return nil, ErrQuestionNotInTest
	}
	question := &questions[index]

	answer, err := buildAnswer(session.ID, question, req)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.Answer().Upsert(ctx, nil, answer)
	if err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}
	if !saved {
		// completed between the read above and the save
		return nil, ErrSessionNotActive
	}

	var screening *models.CrisisAssessment
	if answer.HasFreeText() {
		screening = s.screening.ScreenAnswer(question.Text, *answer.FreeText)
	}

	target := advanceTarget(index)
	if target >= session.TotalQuestions {
		completion, err := s.complete(ctx, session, session.TotalQuestions, models.CompletionFinalAnswer)
		if err != nil {
			return nil, err
		}
		outcome := &models.AnswerOutcome{
			IsComplete:   true,
			ResultID:     &completion.ResultID,
			CurrentIndex: session.TotalQuestions,
			Progress:     progress(session.TotalQuestions, session.TotalQuestions),
			Screening:    screening,
		}
		// the completion screen covers this answer, including its dispatch
		if completion.Screening != nil {
			outcome.Screening = completion.Screening
		} else {
			s.dispatchCrisis(ctx, session, &question.ID, TriggerAnswer, screening)
		}
		return outcome, nil
	}

	s.dispatchCrisis(ctx, session, &question.ID, TriggerAnswer, screening)

	if _, err := s.repo.Session().AdvanceIndex(ctx, nil, session.ID, target); err != nil {
		return nil, fmt.Errorf("failed to advance session: %w", err)
	}

	// re-read: a concurrent answer may have moved the pointer further
	current, err := s.getSession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if current.IsCompleted() {
		result, err := s.repo.Result().GetBySession(ctx, nil, current.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get result: %w", err)
		}
		return &models.AnswerOutcome{
			IsComplete:   true,
			ResultID:     &result.ID,
			CurrentIndex: current.CurrentIndex,
			Progress:     progress(current.CurrentIndex, current.TotalQuestions),
			Screening:    screening,
		}, nil
	}

	return &models.AnswerOutcome{
		IsComplete:   false,
		NextQuestion: questionAt(questions, current.CurrentIndex),
		CurrentIndex: current.CurrentIndex,
		Progress:     progress(current.CurrentIndex, current.TotalQuestions),
		Screening:    screening,
	}, nil
}

func (s *sessionService) Complete(ctx context.Context, sessionID uint, actor Actor) (*models.CompletionOutcome, error) {
	s.logger.Info("Completing session", "session_id", sessionID)

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(actor, session, "complete"); err != nil {
		return nil, err
	}

	if session.IsCompleted() {
		return s.existingCompletion(ctx, session.ID)
	}

	return s.complete(ctx, session, session.CurrentIndex, models.CompletionForced)
}

func (s *sessionService) List(ctx context.Context, query *ListSessionsQuery, actor Actor) (*models.PaginatedResponse, error) {
	if err := s.validator.Validate(query); err != nil {
		return nil, err
	}

	page, size := s.pageSize.normalize(query.Page, query.Size)
	filters := repositories.SessionFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    query.SortBy,
		SortOrder: query.SortDir,
	}
	if !actor.IsStaff() {
		filters.OwnerID = &actor.UserID
	}
	if query.SubjectID != "" {
		filters.SubjectID = &query.SubjectID
	}
	if query.TestID != 0 {
		filters.TestID = &query.TestID
	}
	if query.Status != "" {
		filters.Status = &query.Status
	}

	sessions, total, err := s.repo.Session().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return &models.PaginatedResponse{
		Items: sessions,
		Total: total,
		Page:  page,
		Size:  size,
	}, nil
}

// ===== COMPLETION =====

// errCompletionLost marks a completion another caller already performed
var errCompletionLost = errors.New("session completed concurrently")

// complete finishes the session and creates its result in one transaction.
// Of several racing callers exactly one wins the conditional update; the
// others return the winner's result.
func (s *sessionService) complete(ctx context.Context, session *models.Session, finalIndex int, mode models.CompletionMode) (*models.CompletionOutcome, error) {
	var (
		result *models.Result
		scored *ScoredSession
	)

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		now := time.Now()
		won, err := tx.Session().Complete(ctx, nil, session.ID, finalIndex, mode, now)
		if err != nil {
			return err
		}
		if !won {
			return errCompletionLost
		}

		session.Status = models.SessionCompleted
		session.CurrentIndex = max(session.CurrentIndex, finalIndex)
		session.CompletionMode = &mode
		session.CompletedAt = &now

		scored, err = s.scoring.ScoreSession(ctx, tx, session)
		if err != nil {
			return err
		}

		result = newResult(session, scored)
		if err := tx.Result().Create(ctx, nil, result); err != nil {
			if repositories.IsConflictError(err) {
				return errCompletionLost
			}
			return err
		}
		return nil
	})
	if errors.Is(err, errCompletionLost) {
		s.logger.Info("Session already completed by a concurrent request", "session_id", session.ID)
		return s.existingCompletion(ctx, session.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	metrics.RecordSessionCompleted(mode)
	s.logger.Info("Session completed",
		"session_id", session.ID,
		"result_id", result.ID,
		"mode", mode,
		"percentage", result.Percentage,
		"level", result.Level)

	s.publishCompleted(ctx, session, result, mode)
	screening := s.screening.ScreenCompletion(scored)
	s.dispatchCrisis(ctx, session, nil, TriggerCompletion, screening)
	s.enrichAsync(ctx, result, scored)

	return &models.CompletionOutcome{
		ResultID:  result.ID,
		Screening: screening,
	}, nil
}

// enrichAsync attaches the narrative after the caller has its result. It works
// on a copy and outlives the request context.
func (s *sessionService) enrichAsync(ctx context.Context, result *models.Result, scored *ScoredSession) {
	detached := *result
	s.enrichWG.Add(1)
	go func() {
		defer s.enrichWG.Done()
		s.scoring.Enrich(context.WithoutCancel(ctx), &detached, scored)
	}()
}

// waitForEnrichment blocks until background enrichment finishes or ctx ends
func (s *sessionService) waitForEnrichment(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.enrichWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *sessionService) existingCompletion(ctx context.Context, sessionID uint) (*models.CompletionOutcome, error) {
	result, err := s.repo.Result().GetBySession(ctx, nil, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &models.CompletionOutcome{
		ResultID:         result.ID,
		AlreadyCompleted: true,
	}, nil
}

func (s *sessionService) publishCompleted(ctx context.Context, session *models.Session, result *models.Result, mode models.CompletionMode) {
	completedAt := time.Now()
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}

	event := events.NewEvent(events.EventSessionCompleted, events.SessionCompletedEvent{
		SessionID:   session.ID,
		TestID:      session.TestID,
		SubjectID:   session.SubjectID,
		OwnerID:     session.OwnerID,
		ResultID:    result.ID,
		Mode:        mode,
		TotalScore:  result.TotalScore,
		MaxScore:    result.MaxScore,
		Percentage:  result.Percentage,
		Level:       result.Level,
		CompletedAt: completedAt,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish session completed event",
			"session_id", session.ID,
			"error", err)
	}
}

// dispatchCrisis hands a flagged assessment to the notifier. Failures are
// logged and never fail the calling operation.
func (s *sessionService) dispatchCrisis(ctx context.Context, session *models.Session, questionID *uint, trigger string, assessment *models.CrisisAssessment) {
	if !assessment.HasRisk() {
		return
	}
	cc := CrisisContext{
		SessionID:  &session.ID,
		QuestionID: questionID,
		TestID:     &session.TestID,
		SubjectID:  session.SubjectID,
		OwnerID:    session.OwnerID,
		Trigger:    trigger,
		Assessment: assessment,
	}
	if err := s.notifier.LogCrisisEvent(ctx, cc); err != nil {
		s.logger.Error("Failed to log crisis event", "session_id", session.ID, "error", err)
	}
	if err := s.notifier.NotifyGuardian(ctx, cc); err != nil {
		s.logger.Error("Failed to notify guardian", "session_id", session.ID, "error", err)
	}
}

func (s *sessionService) getSession(ctx context.Context, id uint) (*models.Session, error) {
	session, err := s.repo.Session().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (s *sessionService) checkEligibility(ctx context.Context, test *models.Test, req *StartSessionRequest, actor Actor) error {
	if !test.IsActive {
		return ErrTestInactive
	}

	if req.SubjectAge != nil && !test.AcceptsAge(*req.SubjectAge) {
		return NewBusinessRuleError("age_range", "subject age is outside the test's age range", map[string]interface{}{
			"subject_age": *req.SubjectAge,
			"age_min":     test.AgeMin,
			"age_max":     test.AgeMax,
		})
	}

	if test.IsPremium && actor.Role != models.RoleAdmin {
		if s.entitlements == nil {
			return ErrPaymentRequired
		}
		ok, err := s.entitlements.HasPaidAccess(ctx, actor.UserID, test.ID)
		if err != nil {
			return fmt.Errorf("failed to check entitlement: %w", err)
		}
		if !ok {
			return ErrPaymentRequired
		}
	}

	return nil
}
