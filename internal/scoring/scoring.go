// Package scoring turns a session's answers into a score and an
// interpretation tier. Everything here is pure and safe for concurrent use.
package scoring

import (
	"math"

	"github.com/SAP-F-2025/psytest-service/internal/models"
)

// Outcome is the numeric and narrative result of scoring one session.
type Outcome struct {
	TotalScore int               `json:"total_score"`
	MaxScore   int               `json:"max_score"`
	Percentage int               `json:"percentage"`
	Tier       Tier              `json:"tier"`
	Source     models.TierSource `json:"source"`
}

func (o Outcome) FallbackUsed() bool {
	return o.Source == models.TierFromFallback
}

// Score computes total and maximum score over every question of the test.
// Unanswered questions still add their best option score to the maximum.
func Score(questions []models.Question, answers []models.Answer, rubric []models.InterpretationRange) Outcome {
	byQuestion := make(map[uint]*models.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	var total, max int
	for i := range questions {
		q := &questions[i]
		max += q.MaxScore()

		answer, ok := byQuestion[q.ID]
		if !ok || answer.OptionID == nil || q.Kind.IsFreeText() {
			continue
		}
		if opt := q.FindOption(*answer.OptionID); opt != nil {
			total += opt.Score
		}
	}

	pct := Percentage(total, max)
	tier, source := SelectTier(pct, rubric)

	return Outcome{
		TotalScore: total,
		MaxScore:   max,
		Percentage: pct,
		Tier:       tier,
		Source:     source,
	}
}

// Percentage returns round(total/max*100), or 0 when nothing is attainable.
func Percentage(total, max int) int {
	if max <= 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(max) * 100))
}

// ApplyTo copies the outcome onto a result row, replacing earlier values.
func (o Outcome) ApplyTo(result *models.Result) {
	result.TotalScore = o.TotalScore
	result.MaxScore = o.MaxScore
	result.Percentage = o.Percentage
	result.Level = o.Tier.Level
	result.Title = o.Tier.Title
	result.Interpretation = o.Tier.Interpretation
	result.Recommendations = o.Tier.Recommendations
	result.TierSource = o.Source
	result.FallbackUsed = o.FallbackUsed()
}
