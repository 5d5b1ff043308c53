package scoring

import (
	"sort"

	"github.com/SAP-F-2025/psytest-service/internal/models"
)

// Tier is the interpretation attached to a percentage.
type Tier struct {
	Level           string `json:"level"`
	Title           string `json:"title"`
	Interpretation  string `json:"interpretation"`
	Recommendations string `json:"recommendations"`
}

const (
	LevelExcellent = "excellent"
	LevelGood      = "good"
	LevelAverage   = "average"
	LevelAttention = "attention"
)

type defaultTier struct {
	minPercent int
	tier       Tier
}

// defaultTiers is ordered from the highest threshold down.
var defaultTiers = []defaultTier{
	{
		minPercent: 80,
		tier: Tier{
			Level:           LevelExcellent,
			Title:           "Отличный результат",
			Interpretation:  "Показатели ребенка находятся на оптимальном уровне.",
			Recommendations: "Продолжайте поддерживать ребенка и сохранять привычный режим.",
		},
	},
	{
		minPercent: 60,
		tier: Tier{
			Level:           LevelGood,
			Title:           "Хороший результат",
			Interpretation:  "Показатели ребенка в пределах нормы.",
			Recommendations: "Обращайте внимание на отдельные трудности и обсуждайте их с ребенком.",
		},
	},
	{
		minPercent: 40,
		tier: Tier{
			Level:           LevelAverage,
			Title:           "Средний результат",
			Interpretation:  "Есть области, которым стоит уделить внимание.",
			Recommendations: "Понаблюдайте за ребенком и при необходимости проконсультируйтесь с психологом.",
		},
	},
	{
		minPercent: 0,
		tier: Tier{
			Level:           LevelAttention,
			Title:           "Требуется внимание",
			Interpretation:  "Результат указывает на выраженные трудности.",
			Recommendations: "Рекомендуется консультация детского психолога.",
		},
	},
}

// DefaultTier returns the built-in tier for a percentage.
func DefaultTier(percentage int) Tier {
	for _, dt := range defaultTiers {
		if percentage >= dt.minPercent {
			return dt.tier
		}
	}
	return defaultTiers[len(defaultTiers)-1].tier
}

// SelectTier picks the first configured range, scanned by ascending lower
// bound, that contains the percentage. Without a rubric the built-in tiers
// apply. A rubric with a gap never fails: it yields the top built-in tier
// and reports TierFromFallback.
func SelectTier(percentage int, rubric []models.InterpretationRange) (Tier, models.TierSource) {
	if len(rubric) == 0 {
		return DefaultTier(percentage), models.TierFromDefault
	}

	ranges := make([]models.InterpretationRange, len(rubric))
	copy(ranges, rubric)
	sort.SliceStable(ranges, func(i, j int) bool {
		if ranges[i].MinPercent == ranges[j].MinPercent {
			return ranges[i].SortOrder < ranges[j].SortOrder
		}
		return ranges[i].MinPercent < ranges[j].MinPercent
	})

	for _, r := range ranges {
		if r.Contains(percentage) {
			return Tier{
				Level:           r.Level,
				Title:           r.Title,
				Interpretation:  r.Description,
				Recommendations: r.Recommendations,
			}, models.TierFromRubric
		}
	}

	return defaultTiers[0].tier, models.TierFromFallback
}
