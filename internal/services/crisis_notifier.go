package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/psytest-service/internal/events"
	"github.com/SAP-F-2025/psytest-service/internal/metrics"
	"github.com/SAP-F-2025/psytest-service/internal/models"
)

// crisisNotifier turns assessments into events for the alerting and
// messaging consumers. Answer text never leaves this service.
type crisisNotifier struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewCrisisNotifier(publisher events.EventPublisher, logger *slog.Logger) CrisisNotifier {
	if publisher == nil {
		publisher = events.NoopEventPublisher{}
	}
	return &crisisNotifier{
		eventPublisher: publisher,
		logger:         logger,
	}
}

func (n *crisisNotifier) LogCrisisEvent(ctx context.Context, cc CrisisContext) error {
	if !cc.Assessment.HasRisk() {
		return nil
	}

	metrics.RecordCrisis(cc.Assessment)
	n.logger.Warn("Crisis indicators detected",
		"owner_id", cc.OwnerID,
		"session_id", cc.SessionID,
		"trigger", cc.Trigger,
		"severity", cc.Assessment.Severity,
		"categories", cc.Assessment.Categories())

	event := events.NewEvent(events.EventCrisisDetected, events.CrisisDetectedEvent{
		SessionID:               cc.SessionID,
		QuestionID:              cc.QuestionID,
		TestID:                  cc.TestID,
		SubjectID:               cc.SubjectID,
		OwnerID:                 cc.OwnerID,
		Trigger:                 cc.Trigger,
		Severity:                cc.Assessment.Severity,
		Categories:              cc.Assessment.Categories(),
		RequiresImmediateAction: cc.Assessment.RequiresImmediateAction,
		DetectedAt:              time.Now(),
	})
	if err := n.eventPublisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish crisis event: %w", err)
	}
	return nil
}

func (n *crisisNotifier) NotifyGuardian(ctx context.Context, cc CrisisContext) error {
	if !ShouldNotifyGuardian(cc.Assessment) {
		return nil
	}

	event := events.NewEvent(events.EventGuardianNotification, events.GuardianNotificationEvent{
		OwnerID:         cc.OwnerID,
		SubjectID:       cc.SubjectID,
		SessionID:       cc.SessionID,
		Severity:        cc.Assessment.Severity,
		Urgent:          cc.Assessment.RequiresImmediateAction,
		Recommendations: cc.Assessment.Recommendations,
		Resources:       cc.Assessment.Resources,
	})
	if err := n.eventPublisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish guardian notification: %w", err)
	}

	n.logger.Info("Guardian notification queued",
		"owner_id", cc.OwnerID,
		"severity", cc.Assessment.Severity)
	return nil
}

// ShouldNotifyGuardian reports whether an assessment is serious enough to
// reach the owner outside the app.
func ShouldNotifyGuardian(a *models.CrisisAssessment) bool {
	return a.HasRisk() && a.Severity.Rank() >= models.SeverityHigh.Rank()
}
