package services

import (
	"context"

	"github.com/SAP-F-2025/psytest-service/internal/models"
)

// NoopNarrativeGenerator is used when no AI backend is configured
type NoopNarrativeGenerator struct{}

func (NoopNarrativeGenerator) GenerateInterpretation(ctx context.Context, rc ResultContext) (*models.Narrative, error) {
	return nil, ErrNarrativeUnavailable
}
