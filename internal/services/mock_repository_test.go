package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/repositories"
)

// memStore is an in-memory Repository with the same conditional write
// semantics as the postgres one. One mutex guards the data; txMu serializes
// transactions the way row locks do.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	tests     map[uint]*models.Test
	questions map[uint][]models.Question
	rubrics   map[uint][]models.InterpretationRange
	sessions  map[uint]*models.Session
	answers   map[uint]map[uint]models.Answer
	results   map[uint]*models.Result
	users     map[string]*models.User

	nextID uint
}

func newMemStore() *memStore {
	return &memStore{
		tests:     make(map[uint]*models.Test),
		questions: make(map[uint][]models.Question),
		rubrics:   make(map[uint][]models.InterpretationRange),
		sessions:  make(map[uint]*models.Session),
		answers:   make(map[uint]map[uint]models.Answer),
		results:   make(map[uint]*models.Result),
		users:     make(map[string]*models.User),
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

// addTest stores a test whose questions carry the given option scores.
// A nil score list makes a free-text question.
func (m *memStore) addTest(test *models.Test, optionScores ...[]int) []models.Question {
	m.mu.Lock()
	defer m.mu.Unlock()

	if test.ID == 0 {
		test.ID = m.id()
	}
	m.tests[test.ID] = test

	var questions []models.Question
	for i, scores := range optionScores {
		q := models.Question{
			ID:         m.id(),
			TestID:     test.ID,
			Order:      i + 1,
			Kind:       models.KindSingleChoice,
			Text:       "question",
			IsRequired: true,
		}
		if scores == nil {
			q.Kind = models.KindFreeText
		}
		for j, score := range scores {
			q.Options = append(q.Options, models.AnswerOption{
				ID:         m.id(),
				QuestionID: q.ID,
				Order:      j,
				Text:       "option",
				Score:      score,
			})
		}
		questions = append(questions, q)
	}
	m.questions[test.ID] = questions
	return questions
}

func (m *memStore) setRubric(testID uint, ranges ...models.InterpretationRange) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range ranges {
		ranges[i].TestID = testID
	}
	m.rubrics[testID] = ranges
}

func (m *memStore) setOptionScore(testID, optionID uint, score int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for qi := range m.questions[testID] {
		for oi := range m.questions[testID][qi].Options {
			if m.questions[testID][qi].Options[oi].ID == optionID {
				m.questions[testID][qi].Options[oi].Score = score
			}
		}
	}
}

func (m *memStore) resultCount(sessionID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.results {
		if r.SessionID == sessionID {
			n++
		}
	}
	return n
}

func (m *memStore) Test() repositories.TestRepository         { return memTests{m} }
func (m *memStore) Question() repositories.QuestionRepository { return memQuestions{m} }
func (m *memStore) Rubric() repositories.RubricRepository     { return memRubrics{m} }
func (m *memStore) Session() repositories.SessionRepository   { return memSessions{m} }
func (m *memStore) Answer() repositories.AnswerRepository     { return memAnswers{m} }
func (m *memStore) Result() repositories.ResultRepository     { return memResults{m} }
func (m *memStore) User() repositories.UserRepository         { return memUsers{m} }

func (m *memStore) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}
func (m *memStore) Ping(ctx context.Context) error { return nil }
func (m *memStore) Close() error                   { return nil }

// ===== TESTS =====

type memTests struct{ m *memStore }

func (r memTests) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tests[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memTests) List(ctx context.Context, tx *gorm.DB, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Test
	for _, t := range r.m.tests {
		if filters.ActiveOnly && !t.IsActive {
			continue
		}
		if filters.Category != nil && t.Category != *filters.Category {
			continue
		}
		if filters.Age != nil && !t.AcceptsAge(*filters.Age) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filters.Offset, filters.Limit), int64(len(out)), nil
}

// ===== QUESTIONS =====

type memQuestions struct{ m *memStore }

func (r memQuestions) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, qs := range r.m.questions {
		for _, q := range qs {
			if q.ID == id {
				return &q, nil
			}
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memQuestions) ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	src := r.m.questions[testID]
	out := make([]models.Question, len(src))
	for i, q := range src {
		q.Options = append([]models.AnswerOption(nil), q.Options...)
		out[i] = q
	}
	return out, nil
}

func (r memQuestions) CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.questions[testID])), nil
}

// ===== RUBRICS =====

type memRubrics struct{ m *memStore }

func (r memRubrics) ListByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]models.InterpretationRange, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return append([]models.InterpretationRange(nil), r.m.rubrics[testID]...), nil
}

func (r memRubrics) Replace(ctx context.Context, tx *gorm.DB, testID uint, ranges []models.InterpretationRange) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.rubrics[testID] = append([]models.InterpretationRange(nil), ranges...)
	return nil
}

// ===== SESSIONS =====

type memSessions struct{ m *memStore }

func (r memSessions) CreateIfAbsent(ctx context.Context, tx *gorm.DB, session *models.Session) (*models.Session, bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.sessions {
		if s.TestID == session.TestID && s.SubjectID == session.SubjectID && s.Status == models.SessionInProgress {
			cp := *s
			return &cp, false, nil
		}
	}
	session.ID = r.m.id()
	stored := *session
	r.m.sessions[session.ID] = &stored
	cp := stored
	return &cp, true, nil
}

func (r memSessions) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r memSessions) GetActive(ctx context.Context, tx *gorm.DB, testID uint, subjectID string) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.sessions {
		if s.TestID == testID && s.SubjectID == subjectID && s.Status == models.SessionInProgress {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memSessions) List(ctx context.Context, tx *gorm.DB, filters repositories.SessionFilters) ([]*models.Session, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Session
	for _, s := range r.m.sessions {
		if filters.OwnerID != nil && s.OwnerID != *filters.OwnerID {
			continue
		}
		if filters.SubjectID != nil && s.SubjectID != *filters.SubjectID {
			continue
		}
		if filters.TestID != nil && s.TestID != *filters.TestID {
			continue
		}
		if filters.Status != nil && s.Status != *filters.Status {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filters.Offset, filters.Limit), int64(len(out)), nil
}

func (r memSessions) AdvanceIndex(ctx context.Context, tx *gorm.DB, id uint, target int) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok || s.Status != models.SessionInProgress || s.CurrentIndex >= target || target > s.TotalQuestions {
		return false, nil
	}
	s.CurrentIndex = target
	return true, nil
}

func (r memSessions) Complete(ctx context.Context, tx *gorm.DB, id uint, finalIndex int, mode models.CompletionMode, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok || s.Status != models.SessionInProgress {
		return false, nil
	}
	s.Status = models.SessionCompleted
	s.CurrentIndex = max(s.CurrentIndex, finalIndex)
	s.CompletionMode = &mode
	s.CompletedAt = &at
	return true, nil
}

// ===== ANSWERS =====

type memAnswers struct{ m *memStore }

var _ repositories.AnswerRepository = memAnswers{}

func (r memAnswers) Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.sessions[answer.SessionID]; !ok || s.Status != models.SessionInProgress {
		return false, nil
	}
	bySession, ok := r.m.answers[answer.SessionID]
	if !ok {
		bySession = make(map[uint]models.Answer)
		r.m.answers[answer.SessionID] = bySession
	}
	if prev, ok := bySession[answer.QuestionID]; ok {
		answer.ID = prev.ID
	} else {
		answer.ID = r.m.id()
	}
	bySession[answer.QuestionID] = *answer
	return true, nil
}

func (r memAnswers) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]models.Answer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Answer
	for _, a := range r.m.answers[sessionID] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

// ===== RESULTS =====

type memResults struct{ m *memStore }

func (r memResults) Create(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.results {
		if existing.SessionID == result.SessionID {
			return repositories.ErrConflict
		}
	}
	result.ID = r.m.id()
	result.CreatedAt = time.Now()
	stored := *result
	r.m.results[result.ID] = &stored
	return nil
}

func (r memResults) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	res, ok := r.m.results[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (r memResults) GetBySession(ctx context.Context, tx *gorm.DB, sessionID uint) (*models.Result, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, res := range r.m.results {
		if res.SessionID == sessionID {
			cp := *res
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memResults) Update(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.results[result.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *result
	r.m.results[result.ID] = &stored
	return nil
}

func (r memResults) ListByTest(ctx context.Context, tx *gorm.DB, testID uint, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Result
	for _, res := range r.m.results {
		if res.TestID != testID {
			continue
		}
		cp := *res
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filters.Offset, filters.Limit), int64(len(out)), nil
}

// ===== USERS =====

type memUsers struct{ m *memStore }

func (r memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (r memUsers) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, err := r.GetByID(ctx, id); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memUsers) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := r.GetByID(ctx, id)
	return err == nil, nil
}

func (r memUsers) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return false, nil
	}
	return u.Role == role, nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
