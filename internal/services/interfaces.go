package services

import (
	"context"
	"io"

	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/repositories"
	"github.com/SAP-F-2025/psytest-service/internal/scoring"
	"github.com/SAP-F-2025/psytest-service/internal/validator"
)

// ===== REQUEST DTOs =====

type StartSessionRequest = validator.StartSessionRequest
type SubmitAnswerRequest = validator.SubmitAnswerRequest
type ListSessionsQuery = validator.ListSessionsQuery
type ListTestsQuery = validator.ListTestsQuery
type ScreenTextRequest = validator.ScreenTextRequest
type ScreenScoreRequest = validator.ScreenScoreRequest
type ReplaceRubricRequest = validator.ReplaceRubricRequest

// Actor is the authenticated caller
type Actor struct {
	UserID string
	Role   models.UserRole
}

// IsStaff reports whether the caller may act on other owners' sessions
func (a Actor) IsStaff() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RolePsychologist
}

// ===== RESPONSE DTOs =====

type TestSummary struct {
	*models.Test
	QuestionCount int64 `json:"question_count"`
}

// ScoredSession is a scoring outcome together with the data it was computed from
type ScoredSession struct {
	Test      *models.Test
	Questions []models.Question
	Answers   []models.Answer
	Outcome   scoring.Outcome
}

// ResultContext is what a narrative generator sees of a result
type ResultContext struct {
	TestTitle  string              `json:"test_title"`
	Category   models.TestCategory `json:"category"`
	TotalScore int                 `json:"total_score"`
	MaxScore   int                 `json:"max_score"`
	Percentage int                 `json:"percentage"`
	Level      string              `json:"level"`
	Answers    []models.TextPair   `json:"answers"`
}

// CrisisContext ties an assessment to where it was produced
type CrisisContext struct {
	SessionID  *uint
	QuestionID *uint
	TestID     *uint
	SubjectID  string
	OwnerID    string
	Trigger    string
	Assessment *models.CrisisAssessment
}

const (
	TriggerAnswer     = "answer"
	TriggerCompletion = "completion"
)

// ===== SERVICES =====

type SessionService interface {
	Start(ctx context.Context, req *StartSessionRequest, actor Actor) (*models.SessionView, error)
	GetStatus(ctx context.Context, sessionID uint, actor Actor) (*models.SessionView, error)
	SubmitAnswer(ctx context.Context, sessionID uint, req *SubmitAnswerRequest, actor Actor) (*models.AnswerOutcome, error)
	Complete(ctx context.Context, sessionID uint, actor Actor) (*models.CompletionOutcome, error)
	List(ctx context.Context, query *ListSessionsQuery, actor Actor) (*models.PaginatedResponse, error)
}

type ScoringService interface {
	// ScoreSession scores a session against the current answers, option
	// scores and rubric read through repo
	ScoreSession(ctx context.Context, repo repositories.Repository, session *models.Session) (*ScoredSession, error)
	// Enrich attaches a generated narrative to a stored result; failures are logged
	Enrich(ctx context.Context, result *models.Result, scored *ScoredSession)

	GetResult(ctx context.Context, resultID uint, actor Actor) (*models.Result, error)
	Recalculate(ctx context.Context, resultID uint, actor Actor) (*models.Result, error)
	ExportResults(ctx context.Context, testID uint, w io.Writer) error
}

type ScreeningService interface {
	ScreenText(ctx context.Context, req *ScreenTextRequest) (*models.CrisisAssessment, error)
	ScreenScore(ctx context.Context, req *ScreenScoreRequest) (*models.CrisisAssessment, error)
	ScreenAnswer(questionText, answerText string) *models.CrisisAssessment
	ScreenCompletion(scored *ScoredSession) *models.CrisisAssessment
}

type RubricService interface {
	Get(ctx context.Context, testID uint) ([]models.InterpretationRange, error)
	Replace(ctx context.Context, testID uint, req *ReplaceRubricRequest) ([]models.InterpretationRange, error)
	Import(ctx context.Context, testID uint, r io.Reader) ([]models.InterpretationRange, error)
}

type TestService interface {
	List(ctx context.Context, query *ListTestsQuery) (*models.PaginatedResponse, error)
	Get(ctx context.Context, testID uint) (*TestSummary, error)
}

// ===== CONSUMED INTERFACES =====

// CrisisScreener is implemented by crisis.Screener and crisis.Holder
type CrisisScreener interface {
	Analyze(pairs []models.TextPair) *models.CrisisAssessment
	AnalyzeScore(category models.TestCategory, percentage int) *models.CrisisAssessment
}

type EntitlementChecker interface {
	HasPaidAccess(ctx context.Context, ownerID string, testID uint) (bool, error)
}

type NarrativeGenerator interface {
	GenerateInterpretation(ctx context.Context, rc ResultContext) (*models.Narrative, error)
}

type CrisisNotifier interface {
	LogCrisisEvent(ctx context.Context, cc CrisisContext) error
	NotifyGuardian(ctx context.Context, cc CrisisContext) error
}

// ===== MANAGER =====

type ServiceManager interface {
	Session() SessionService
	Scoring() ScoringService
	Screening() ScreeningService
	Rubric() RubricService
	Catalog() TestService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
