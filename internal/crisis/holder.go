package crisis

import (
	"sync/atomic"

	"github.com/SAP-F-2025/psytest-service/internal/models"
)

// Holder publishes the active Screener. Readers never block a reload.
type Holder struct {
	current atomic.Pointer[Screener]
}

func NewHolder(s *Screener) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

func (h *Holder) Load() *Screener {
	return h.current.Load()
}

func (h *Holder) Store(s *Screener) {
	if s != nil {
		h.current.Store(s)
	}
}

func (h *Holder) Analyze(pairs []models.TextPair) *models.CrisisAssessment {
	return h.Load().Analyze(pairs)
}

func (h *Holder) AnalyzeScore(category models.TestCategory, percentage int) *models.CrisisAssessment {
	return h.Load().AnalyzeScore(category, percentage)
}
