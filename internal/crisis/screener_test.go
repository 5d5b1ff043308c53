package crisis

import (
	"reflect"
	"strings"
	"testing"

	"github.com/SAP-F-2025/psytest-service/internal/models"
)

const neutralQuestion = "Расскажи, как ты себя чувствуешь последнее время?"

func newDefaultScreener(t *testing.T) *Screener {
	t.Helper()
	s, err := NewScreener(nil)
	if err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
	return s
}

func TestAnalyze_SingleSuicidePhraseIsHigh(t *testing.T) {
	s := newDefaultScreener(t)

	got := s.Analyze([]models.TextPair{
		{QuestionText: neutralQuestion, AnswerText: "Иногда я не хочу жить"},
	})

	if len(got.Indicators) != 1 {
		t.Fatalf("expected 1 indicator, got %d: %+v", len(got.Indicators), got.Indicators)
	}
	ind := got.Indicators[0]
	if ind.Category != models.RiskSuicide || ind.Severity != models.SeverityHigh {
		t.Errorf("expected SUICIDE_RISK/HIGH, got %s/%s", ind.Category, ind.Severity)
	}
	if got.Severity != models.SeverityHigh {
		t.Errorf("expected overall HIGH, got %s", got.Severity)
	}
	if got.RequiresImmediateAction {
		t.Errorf("a single match must not require immediate action")
	}
	if len(got.Resources) == 0 || len(got.Recommendations) == 0 {
		t.Errorf("HIGH assessment should carry resources and recommendations")
	}
}

func TestAnalyze_RepeatedSuicidePhraseIsCritical(t *testing.T) {
	s := newDefaultScreener(t)

	got := s.Analyze([]models.TextPair{
		{QuestionText: neutralQuestion, AnswerText: "Не хочу жить"},
		{QuestionText: "Что тебя беспокоит?", AnswerText: "я правда не хочу жить"},
	})

	if len(got.Indicators) != 1 {
		t.Fatalf("expected 1 indicator, got %+v", got.Indicators)
	}
	if got.Indicators[0].Matches != 2 {
		t.Errorf("expected 2 matches, got %d", got.Indicators[0].Matches)
	}
	if got.Severity != models.SeverityCritical {
		t.Errorf("expected CRITICAL, got %s", got.Severity)
	}
	if !got.RequiresImmediateAction {
		t.Errorf("CRITICAL must require immediate action")
	}
}

func TestAnalyze_AbuseIsCriticalWithYoFolding(t *testing.T) {
	s := newDefaultScreener(t)

	got := s.Analyze([]models.TextPair{
		{QuestionText: neutralQuestion, AnswerText: "Он БЬЁТ МЕНЯ когда злится"},
	})

	if got.Severity != models.SeverityCritical {
		t.Fatalf("expected CRITICAL, got %s", got.Severity)
	}
	if cats := got.Categories(); len(cats) != 1 || cats[0] != models.RiskAbuse {
		t.Errorf("expected only ABUSE, got %v", cats)
	}
}

func TestAnalyze_DepressionNeedsTwoMatches(t *testing.T) {
	s := newDefaultScreener(t)

	once := s.Analyze([]models.TextPair{
		{QuestionText: neutralQuestion, AnswerText: "ничего не радует"},
	})
	if once.HasRisk() {
		t.Errorf("one depression phrase should not raise an indicator, got %+v", once.Indicators)
	}
	if once.Severity != models.SeverityNone {
		t.Errorf("expected NONE, got %s", once.Severity)
	}

	twice := s.Analyze([]models.TextPair{
		{QuestionText: neutralQuestion, AnswerText: "ничего не радует, постоянно грустно"},
	})
	if twice.Severity != models.SeverityMedium {
		t.Errorf("expected MEDIUM, got %s", twice.Severity)
	}
}

func TestAnalyze_SeveralCategoriesTakeMaxSeverity(t *testing.T) {
	s := newDefaultScreener(t)

	got := s.Analyze([]models.TextPair{
		{QuestionText: neutralQuestion, AnswerText: "режу себя и хочу умереть, меня бьют"},
	})

	if len(got.Indicators) != 3 {
		t.Fatalf("expected 3 indicators, got %v", got.Categories())
	}
	if got.Severity != models.SeverityCritical {
		t.Errorf("expected CRITICAL, got %s", got.Severity)
	}
}

func TestAnalyze_CleanText(t *testing.T) {
	s := newDefaultScreener(t)

	tests := []struct {
		name  string
		pairs []models.TextPair
	}{
		{"nil input", nil},
		{"empty strings", []models.TextPair{{}}},
		{"neutral answer", []models.TextPair{{QuestionText: neutralQuestion, AnswerText: "Всё хорошо, гуляли с друзьями"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Analyze(tt.pairs)
			if got.Severity != models.SeverityNone || got.HasRisk() || got.RequiresImmediateAction {
				t.Errorf("expected a clean assessment, got %+v", got)
			}
			if got.Indicators == nil || got.Recommendations == nil || got.Resources == nil {
				t.Errorf("clean assessment should use empty slices, not nil")
			}
		})
	}
}

func TestAnalyze_LowWhenOnlyMinorIndicators(t *testing.T) {
	cfg := &KeywordConfig{
		Version: "test",
		Categories: []CategoryConfig{
			{
				Category:   models.RiskEmotionalDistress,
				Keywords:   []string{"скучно"},
				Thresholds: []Threshold{{MinMatches: 1, Severity: models.SeverityLow}},
			},
		},
	}
	s, err := NewScreener(cfg)
	if err != nil {
		t.Fatalf("NewScreener: %v", err)
	}

	got := s.Analyze([]models.TextPair{{AnswerText: "мне скучно"}})

	if got.Severity != models.SeverityLow {
		t.Errorf("expected LOW, got %s", got.Severity)
	}
	if len(got.Recommendations) != 0 {
		t.Errorf("LOW carries no recommendations, got %v", got.Recommendations)
	}
}

func TestAnalyze_IsPure(t *testing.T) {
	s := newDefaultScreener(t)
	pairs := []models.TextPair{
		{QuestionText: neutralQuestion, AnswerText: "не хочу жить, нет сил, ничего не радует"},
	}

	first := s.Analyze(pairs)
	first.Recommendations[0] = "mutated"
	first.Resources[0].Name = "mutated"
	second := s.Analyze(pairs)
	third := s.Analyze(pairs)

	if !reflect.DeepEqual(second, third) {
		t.Errorf("identical input produced different assessments:\n%+v\n%+v", second, third)
	}
	if second.Recommendations[0] == "mutated" || second.Resources[0].Name == "mutated" {
		t.Errorf("mutating a returned assessment leaked into later results")
	}
}

func TestAnalyzeScore(t *testing.T) {
	s := newDefaultScreener(t)

	tests := []struct {
		name       string
		category   models.TestCategory
		percentage int
		want       models.RiskCategory
	}{
		{"anxiety below threshold", models.CategoryAnxiety, 29, models.RiskAnxiety},
		{"anxiety at threshold", models.CategoryAnxiety, 30, ""},
		{"emotions low", models.CategoryEmotions, 0, models.RiskEmotionalDistress},
		{"emotions fine", models.CategoryEmotions, 75, ""},
		{"no rule for behavior", models.CategoryBehavior, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.AnalyzeScore(tt.category, tt.percentage)
			if tt.want == "" {
				if got.HasRisk() {
					t.Errorf("expected no indicators, got %v", got.Categories())
				}
				return
			}
			if len(got.Indicators) != 1 || got.Indicators[0].Category != tt.want {
				t.Fatalf("expected %s, got %v", tt.want, got.Categories())
			}
			if got.Severity != models.SeverityMedium {
				t.Errorf("expected MEDIUM, got %s", got.Severity)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	s := newDefaultScreener(t)

	text := s.Analyze([]models.TextPair{{QuestionText: neutralQuestion, AnswerText: "хочу умереть"}})
	score := s.AnalyzeScore(models.CategoryAnxiety, 10)

	merged := Merge(text, nil, score)

	if len(merged.Indicators) != 2 {
		t.Fatalf("expected 2 indicators, got %v", merged.Categories())
	}
	if merged.Severity != models.SeverityHigh {
		t.Errorf("expected HIGH, got %s", merged.Severity)
	}
	if empty := Merge(); empty.Severity != models.SeverityNone {
		t.Errorf("merging nothing should be NONE, got %s", empty.Severity)
	}
}

func TestKeywordConfig_Validate(t *testing.T) {
	valid := func() *KeywordConfig { return DefaultKeywordConfig() }

	tests := []struct {
		name    string
		mutate  func(c *KeywordConfig)
		wantErr string
	}{
		{"defaults", func(c *KeywordConfig) {}, ""},
		{"no categories", func(c *KeywordConfig) { c.Categories = nil }, "no categories"},
		{"unknown test category", func(c *KeywordConfig) { c.ScoreRules[1].TestCategory = "EMOTIONAL" }, "unknown test category"},
		{"overlapping keywords", func(c *KeywordConfig) {
			c.Categories[0].Keywords = append(c.Categories[0].Keywords, "жить")
		}, "overlaps"},
		{"blank keyword", func(c *KeywordConfig) { c.Categories[1].Keywords = []string{"  "} }, "blank keyword"},
		{"duplicate category", func(c *KeywordConfig) { c.Categories[1].Category = c.Categories[0].Category }, "declared twice"},
		{"zero threshold", func(c *KeywordConfig) { c.Categories[0].Thresholds[0].MinMatches = 0 }, "min_matches"},
		{"none severity", func(c *KeywordConfig) { c.Categories[2].Thresholds[0].Severity = models.SeverityNone }, "invalid severity"},
		{"rule bound", func(c *KeywordConfig) { c.ScoreRules[0].Below = 101 }, "below"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadKeywordsFile_ShippedConfig(t *testing.T) {
	cfg, err := LoadKeywordsFile("../../configs/crisis_keywords.yaml")
	if err != nil {
		t.Fatalf("shipped keyword file failed to load: %v", err)
	}
	if len(cfg.Categories) != len(DefaultKeywordConfig().Categories) {
		t.Errorf("shipped file has %d categories, defaults have %d", len(cfg.Categories), len(DefaultKeywordConfig().Categories))
	}

	s, err := NewScreener(cfg)
	if err != nil {
		t.Fatalf("NewScreener: %v", err)
	}
	got := s.Analyze([]models.TextPair{{AnswerText: "он бьет меня"}})
	if got.Severity != models.SeverityCritical {
		t.Errorf("expected CRITICAL from the shipped file, got %s", got.Severity)
	}
}

func BenchmarkAnalyze(b *testing.B) {
	s := MustNewScreener(nil)
	pairs := make([]models.TextPair, 0, 20)
	for i := 0; i < 20; i++ {
		pairs = append(pairs, models.TextPair{
			QuestionText: neutralQuestion,
			AnswerText:   "Обычный день, ходил в школу, потом играл с друзьями во дворе",
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Analyze(pairs)
	}
}
