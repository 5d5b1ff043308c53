package crisis

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SAP-F-2025/psytest-service/internal/models"
)

// Threshold raises a category to Severity once the match count reaches MinMatches.
type Threshold struct {
	MinMatches int                 `yaml:"min_matches"`
	Severity   models.RiskSeverity `yaml:"severity"`
}

// CategoryConfig is one keyword scan.
type CategoryConfig struct {
	Category          models.RiskCategory `yaml:"category"`
	Description       string              `yaml:"description"`
	RecommendedAction string              `yaml:"recommended_action"`
	Keywords          []string            `yaml:"keywords"`
	Thresholds        []Threshold         `yaml:"thresholds"`
}

// ScoreRule flags a low aggregate percentage for one test category.
type ScoreRule struct {
	TestCategory      models.TestCategory `yaml:"test_category"`
	Below             int                 `yaml:"below"`
	Risk              models.RiskCategory `yaml:"risk"`
	Severity          models.RiskSeverity `yaml:"severity"`
	Description       string              `yaml:"description"`
	RecommendedAction string              `yaml:"recommended_action"`
}

type KeywordConfig struct {
	Version    string           `yaml:"version"`
	Categories []CategoryConfig `yaml:"categories"`
	ScoreRules []ScoreRule      `yaml:"score_rules"`
}

var ErrEmptyKeywordConfig = errors.New("keyword config has no categories")

// LoadKeywordsFile reads and validates a YAML keyword config.
func LoadKeywordsFile(path string) (*KeywordConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyword file: %w", err)
	}
	defer f.Close()

	cfg := &KeywordConfig{}
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode keyword file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid keyword file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configs the screener could not apply deterministically.
func (c *KeywordConfig) Validate() error {
	if c == nil || len(c.Categories) == 0 {
		return ErrEmptyKeywordConfig
	}

	seen := make(map[models.RiskCategory]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Category == "" {
			return errors.New("category name is required")
		}
		if seen[cat.Category] {
			return fmt.Errorf("category %s is declared twice", cat.Category)
		}
		seen[cat.Category] = true

		if len(cat.Keywords) == 0 {
			return fmt.Errorf("category %s has no keywords", cat.Category)
		}
		if len(cat.Thresholds) == 0 {
			return fmt.Errorf("category %s has no thresholds", cat.Category)
		}
		for _, th := range cat.Thresholds {
			if th.MinMatches < 1 {
				return fmt.Errorf("category %s: min_matches must be at least 1", cat.Category)
			}
			if !th.Severity.IsValid() || th.Severity == models.SeverityNone {
				return fmt.Errorf("category %s: invalid severity %q", cat.Category, th.Severity)
			}
		}
		if err := checkKeywordOverlap(cat); err != nil {
			return err
		}
	}

	for i, rule := range c.ScoreRules {
		if !rule.TestCategory.IsValid() {
			return fmt.Errorf("score rule %d: unknown test category %q", i, rule.TestCategory)
		}
		if rule.Below < 1 || rule.Below > 100 {
			return fmt.Errorf("score rule %d: below must be within 1..100", i)
		}
		if rule.Risk == "" {
			return fmt.Errorf("score rule %d: risk category is required", i)
		}
		if !rule.Severity.IsValid() || rule.Severity == models.SeverityNone {
			return fmt.Errorf("score rule %d: invalid severity %q", i, rule.Severity)
		}
	}
	return nil
}

// checkKeywordOverlap fails when one keyword contains another of the same
// category, since a single phrase would then be counted twice.
func checkKeywordOverlap(cat CategoryConfig) error {
	normalized := make([]string, 0, len(cat.Keywords))
	for _, kw := range cat.Keywords {
		n := normalize(kw)
		if n == "" {
			return fmt.Errorf("category %s has a blank keyword", cat.Category)
		}
		normalized = append(normalized, n)
	}
	for i := range normalized {
		for j := range normalized {
			if i != j && strings.Contains(normalized[i], normalized[j]) {
				return fmt.Errorf("category %s: keyword %q overlaps %q", cat.Category, cat.Keywords[i], cat.Keywords[j])
			}
		}
	}
	return nil
}

// severityFor returns the severity of the highest threshold reached, or NONE.
func (cat CategoryConfig) severityFor(matches int) models.RiskSeverity {
	thresholds := make([]Threshold, len(cat.Thresholds))
	copy(thresholds, cat.Thresholds)
	sort.Slice(thresholds, func(i, j int) bool {
		return thresholds[i].MinMatches > thresholds[j].MinMatches
	})
	for _, th := range thresholds {
		if matches >= th.MinMatches {
			return th.Severity
		}
	}
	return models.SeverityNone
}

// normalize lower-cases text and folds "ё" into "е".
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "ё", "е")
}

// DefaultKeywordConfig is used when no keyword file is configured.
func DefaultKeywordConfig() *KeywordConfig {
	return &KeywordConfig{
		Version: "builtin",
		Categories: []CategoryConfig{
			{
				Category:          models.RiskSuicide,
				Description:       "Высказывания о нежелании жить или о самоубийстве",
				RecommendedAction: "Немедленно обратитесь к специалисту и не оставляйте ребенка одного",
				Keywords: []string{
					"не хочу жить",
					"жить не хочется",
					"хочу умереть",
					"покончить с собой",
					"убить себя",
					"самоубийств",
					"суицид",
					"лучше бы меня не было",
				},
				Thresholds: []Threshold{
					{MinMatches: 1, Severity: models.SeverityHigh},
					{MinMatches: 2, Severity: models.SeverityCritical},
				},
			},
			{
				Category:          models.RiskSelfHarm,
				Description:       "Признаки самоповреждения",
				RecommendedAction: "Срочно проконсультируйтесь с детским психологом или психиатром",
				Keywords: []string{
					"режу себя",
					"порезы",
					"причиняю себе боль",
					"делаю себе больно",
					"селфхарм",
				},
				Thresholds: []Threshold{
					{MinMatches: 1, Severity: models.SeverityHigh},
				},
			},
			{
				Category:          models.RiskAbuse,
				Description:       "Признаки насилия или жестокого обращения",
				RecommendedAction: "Обеспечьте безопасность ребенка и обратитесь в службу защиты детей",
				Keywords: []string{
					"меня бьют",
					"бьет меня",
					"избивает",
					"насилие",
					"домогается",
					"трогает меня",
				},
				Thresholds: []Threshold{
					{MinMatches: 1, Severity: models.SeverityCritical},
				},
			},
			{
				Category:          models.RiskSevereDepression,
				Description:       "Признаки выраженного подавленного состояния",
				RecommendedAction: "Рекомендуется консультация психолога в ближайшее время",
				Keywords: []string{
					"ничего не радует",
					"постоянно грустно",
					"никому не нужен",
					"никому не нужна",
					"все бессмысленно",
					"нет сил",
					"хочется плакать",
				},
				Thresholds: []Threshold{
					{MinMatches: 2, Severity: models.SeverityMedium},
				},
			},
		},
		ScoreRules: []ScoreRule{
			{
				TestCategory:      models.CategoryAnxiety,
				Below:             30,
				Risk:              models.RiskAnxiety,
				Severity:          models.SeverityMedium,
				Description:       "Низкий результат по шкале тревожности",
				RecommendedAction: "Обсудите результат с психологом",
			},
			{
				TestCategory:      models.CategoryEmotions,
				Below:             30,
				Risk:              models.RiskEmotionalDistress,
				Severity:          models.SeverityMedium,
				Description:       "Низкий результат по эмоциональной сфере",
				RecommendedAction: "Уделите внимание эмоциональному состоянию ребенка, при необходимости обратитесь к психологу",
			},
		},
	}
}
