package crisis

import "github.com/SAP-F-2025/psytest-service/internal/models"

type response struct {
	recommendations []string
	resources       []models.SupportResource
}

var (
	helpline = models.SupportResource{
		Name:        "Детский телефон доверия",
		Contact:     "8-800-2000-122",
		Description: "Бесплатно и анонимно, круглосуточно",
	}
	emergency = models.SupportResource{
		Name:        "Служба экстренной помощи",
		Contact:     "112",
		Description: "При угрозе жизни и здоровью",
	}
	psychologist = models.SupportResource{
		Name:        "Консультация детского психолога",
		Contact:     "Запись через личный кабинет",
		Description: "Очная или онлайн-консультация со специалистом",
	}
)

var responses = map[models.RiskSeverity]response{
	models.SeverityCritical: {
		recommendations: []string{
			"Не оставляйте ребенка одного",
			"Немедленно обратитесь за профессиональной помощью",
			"Позвоните на детский телефон доверия или в экстренную службу",
		},
		resources: []models.SupportResource{emergency, helpline, psychologist},
	},
	models.SeverityHigh: {
		recommendations: []string{
			"Обратитесь к детскому психологу в ближайшие дни",
			"Поговорите с ребенком спокойно и без осуждения",
		},
		resources: []models.SupportResource{helpline, psychologist},
	},
	models.SeverityMedium: {
		recommendations: []string{
			"Понаблюдайте за состоянием ребенка",
			"Рассмотрите консультацию психолога",
		},
		resources: []models.SupportResource{psychologist},
	},
}

// responseFor returns fresh copies so callers may modify the slices.
func responseFor(severity models.RiskSeverity) ([]string, []models.SupportResource) {
	r, ok := responses[severity]
	if !ok {
		return []string{}, []models.SupportResource{}
	}
	recs := make([]string, len(r.recommendations))
	copy(recs, r.recommendations)
	res := make([]models.SupportResource, len(r.resources))
	copy(res, r.resources)
	return recs, res
}
