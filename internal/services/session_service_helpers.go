package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/SAP-F-2025/psytest-service/internal/models"
	"github.com/SAP-F-2025/psytest-service/internal/scoring"
)

type pageLimits struct {
	defaultSize int
	maxSize     int
}

var defaultPageLimits = pageLimits{defaultSize: 20, maxSize: 100}

func (p pageLimits) normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = p.defaultSize
	}
	if size > p.maxSize {
		size = p.maxSize
	}
	return page, size
}

func checkAccess(actor Actor, session *models.Session, action string) error {
	if actor.IsStaff() || session.OwnerID == actor.UserID {
		return nil
	}
	return NewPermissionError(actor.UserID, session.ID, "session", action, "not the session owner")
}

func buildView(session *models.Session, questions []models.Question, resultID *uint) *models.SessionView {
	view := &models.SessionView{
		SessionID:      session.ID,
		TestID:         session.TestID,
		SubjectID:      session.SubjectID,
		Status:         session.Status,
		TotalQuestions: session.TotalQuestions,
		CurrentIndex:   session.CurrentIndex,
		Progress:       progress(session.CurrentIndex, session.TotalQuestions),
		CanComplete:    session.Status == models.SessionInProgress && session.CurrentIndex >= session.TotalQuestions,
		ResultID:       resultID,
		StartedAt:      session.StartedAt,
		CompletedAt:    session.CompletedAt,
	}
	if session.Status == models.SessionInProgress {
		view.CurrentQuestion = questionAt(questions, session.CurrentIndex)
	}
	return view
}

func progress(current, total int) int {
	return scoring.Percentage(current, total)
}

func questionAt(questions []models.Question, index int) *models.QuestionPayload {
	if index < 0 || index >= len(questions) {
		return nil
	}
	return models.NewQuestionPayload(&questions[index], index)
}

func questionIndex(questions []models.Question, questionID uint) int {
	for i := range questions {
		if questions[i].ID == questionID {
			return i
		}
	}
	return -1
}

// advanceTarget is the pointer value after answering the question at index.
// Answering an earlier question again never moves the pointer back.
func advanceTarget(index int) int {
	return index + 1
}

func buildAnswer(sessionID uint, question *models.Question, req *SubmitAnswerRequest) (*models.Answer, error) {
	answer := &models.Answer{
		SessionID:  sessionID,
		QuestionID: question.ID,
		AnsweredAt: time.Now(),
	}

	if question.Kind.IsFreeText() {
		text := ""
		if req.FreeText != nil {
			text = strings.TrimSpace(*req.FreeText)
		}
		if text == "" && question.IsRequired {
			return nil, fmt.Errorf("%w: free_text is required", ErrInvalidAnswerPayload)
		}
		answer.FreeText = &text
		return answer, nil
	}

	if req.OptionID == nil {
		if question.IsRequired {
			return nil, fmt.Errorf("%w: option_id is required", ErrInvalidAnswerPayload)
		}
		return answer, nil
	}
	if question.FindOption(*req.OptionID) == nil {
		return nil, ErrOptionNotInQuestion
	}
	answer.OptionID = req.OptionID
	return answer, nil
}

func newResult(session *models.Session, scored *ScoredSession) *models.Result {
	result := &models.Result{
		SessionID: session.ID,
		TestID:    session.TestID,
		SubjectID: session.SubjectID,
	}
	scored.Outcome.ApplyTo(result)
	return result
}

// textPairs collects what the subject wrote or picked, in question order
func textPairs(questions []models.Question, answers []models.Answer) []models.TextPair {
	byQuestion := make(map[uint]*models.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	pairs := make([]models.TextPair, 0, len(answers))
	for i := range questions {
		q := &questions[i]
		a, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		switch {
		case a.HasFreeText():
			pairs = append(pairs, models.TextPair{QuestionText: q.Text, AnswerText: *a.FreeText})
		case a.OptionID != nil:
			if opt := q.FindOption(*a.OptionID); opt != nil {
				pairs = append(pairs, models.TextPair{QuestionText: q.Text, AnswerText: opt.Text})
			}
		}
	}
	return pairs
}
