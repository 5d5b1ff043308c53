package models

type RiskSeverity string

const (
	SeverityNone     RiskSeverity = "NONE"
	SeverityLow      RiskSeverity = "LOW"
	SeverityMedium   RiskSeverity = "MEDIUM"
	SeverityHigh     RiskSeverity = "HIGH"
	SeverityCritical RiskSeverity = "CRITICAL"
)

// Rank orders severities NONE < LOW < MEDIUM < HIGH < CRITICAL.
// Unknown values rank below NONE.
func (s RiskSeverity) Rank() int {
	switch s {
	case SeverityNone:
		return 0
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return -1
}

func (s RiskSeverity) IsValid() bool {
	return s.Rank() >= 0
}

func MaxSeverity(a, b RiskSeverity) RiskSeverity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

type RiskCategory string

const (
	RiskSuicide           RiskCategory = "SUICIDE_RISK"
	RiskSelfHarm          RiskCategory = "SELF_HARM"
	RiskAbuse             RiskCategory = "ABUSE"
	RiskSevereDepression  RiskCategory = "SEVERE_DEPRESSION"
	RiskAnxiety           RiskCategory = "ANXIETY"
	RiskEmotionalDistress RiskCategory = "EMOTIONAL_DISTRESS"
)

type CrisisIndicator struct {
	Category          RiskCategory `json:"category"`
	Severity          RiskSeverity `json:"severity"`
	Description       string       `json:"description"`
	RecommendedAction string       `json:"recommended_action"`
	Matches           int          `json:"matches,omitempty"`
}

type SupportResource struct {
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	Description string `json:"description"`
}

type CrisisAssessment struct {
	Severity                RiskSeverity      `json:"severity"`
	Indicators              []CrisisIndicator `json:"indicators"`
	RequiresImmediateAction bool              `json:"requires_immediate_action"`
	Recommendations         []string          `json:"recommendations"`
	Resources               []SupportResource `json:"resources"`
}

func (a *CrisisAssessment) HasRisk() bool {
	return a != nil && len(a.Indicators) > 0
}

// Categories returns the indicator categories in detection order.
func (a *CrisisAssessment) Categories() []RiskCategory {
	if a == nil {
		return nil
	}
	out := make([]RiskCategory, 0, len(a.Indicators))
	for _, ind := range a.Indicators {
		out = append(out, ind.Category)
	}
	return out
}

// TextPair is one (question, answer) couple fed to the text screener.
type TextPair struct {
	QuestionText string `json:"question_text" validate:"max=4000"`
	AnswerText   string `json:"answer_text" validate:"max=10000"`
}
