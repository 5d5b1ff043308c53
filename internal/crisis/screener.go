// Package crisis screens answer text and aggregate scores for signs of
// psychological crisis. A Screener is immutable once built.
package crisis

import (
	"strings"

	"github.com/SAP-F-2025/psytest-service/internal/models"
)

type compiledCategory struct {
	cfg      CategoryConfig
	keywords []string
}

type Screener struct {
	version    string
	categories []compiledCategory
	scoreRules map[models.TestCategory][]ScoreRule
}

// NewScreener validates cfg and prepares it for matching. A nil cfg
// selects DefaultKeywordConfig.
func NewScreener(cfg *KeywordConfig) (*Screener, error) {
	if cfg == nil {
		cfg = DefaultKeywordConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Screener{
		version:    cfg.Version,
		categories: make([]compiledCategory, 0, len(cfg.Categories)),
		scoreRules: make(map[models.TestCategory][]ScoreRule),
	}
	for _, cat := range cfg.Categories {
		compiled := compiledCategory{cfg: cat, keywords: make([]string, 0, len(cat.Keywords))}
		for _, kw := range cat.Keywords {
			compiled.keywords = append(compiled.keywords, normalize(kw))
		}
		s.categories = append(s.categories, compiled)
	}
	for _, rule := range cfg.ScoreRules {
		s.scoreRules[rule.TestCategory] = append(s.scoreRules[rule.TestCategory], rule)
	}
	return s, nil
}

// MustNewScreener panics on an invalid config. Intended for built-in defaults.
func MustNewScreener(cfg *KeywordConfig) *Screener {
	s, err := NewScreener(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Screener) Version() string {
	return s.version
}

// Analyze scans the joined question and answer texts. Each category counts
// every occurrence of every one of its keywords.
func (s *Screener) Analyze(pairs []models.TextPair) *models.CrisisAssessment {
	var b strings.Builder
	for _, p := range pairs {
		b.WriteString(p.QuestionText)
		b.WriteByte(' ')
		b.WriteString(p.AnswerText)
		b.WriteByte('\n')
	}
	corpus := normalize(b.String())

	var indicators []models.CrisisIndicator
	if corpus != "" {
		for _, cat := range s.categories {
			matches := 0
			for _, kw := range cat.keywords {
				matches += strings.Count(corpus, kw)
			}
			if matches == 0 {
				continue
			}
			severity := cat.cfg.severityFor(matches)
			if severity == models.SeverityNone {
				continue
			}
			indicators = append(indicators, models.CrisisIndicator{
				Category:          cat.cfg.Category,
				Severity:          severity,
				Description:       cat.cfg.Description,
				RecommendedAction: cat.cfg.RecommendedAction,
				Matches:           matches,
			})
		}
	}
	return assess(indicators)
}

// AnalyzeScore applies the low-score rules configured for a test category.
func (s *Screener) AnalyzeScore(category models.TestCategory, percentage int) *models.CrisisAssessment {
	var indicators []models.CrisisIndicator
	for _, rule := range s.scoreRules[category] {
		if percentage < rule.Below {
			indicators = append(indicators, models.CrisisIndicator{
				Category:          rule.Risk,
				Severity:          rule.Severity,
				Description:       rule.Description,
				RecommendedAction: rule.RecommendedAction,
			})
		}
	}
	return assess(indicators)
}

// Merge combines several assessments into one, recomputing the overall
// severity and the response texts. Nil inputs are skipped.
func Merge(assessments ...*models.CrisisAssessment) *models.CrisisAssessment {
	var indicators []models.CrisisIndicator
	for _, a := range assessments {
		if a == nil {
			continue
		}
		indicators = append(indicators, a.Indicators...)
	}
	return assess(indicators)
}

func assess(indicators []models.CrisisIndicator) *models.CrisisAssessment {
	if indicators == nil {
		indicators = []models.CrisisIndicator{}
	}

	overall := models.SeverityNone
	critical := false
	for _, ind := range indicators {
		overall = models.MaxSeverity(overall, ind.Severity)
		if ind.Severity == models.SeverityCritical {
			critical = true
		}
	}
	if len(indicators) > 0 && overall.Rank() < models.SeverityMedium.Rank() {
		overall = models.SeverityLow
	}

	recs, resources := responseFor(overall)
	return &models.CrisisAssessment{
		Severity:                overall,
		Indicators:              indicators,
		RequiresImmediateAction: critical,
		Recommendations:         recs,
		Resources:               resources,
	}
}
