// Package events handles event emission for validation run lifecycle changes
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/kafka"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Validation run event types.
const (
	EventTypeRunStarted   = "validation.run.started"
	EventTypeRunCompleted = "validation.run.completed"
)

// Emitter publishes validation run events. Event emission is best effort: a
// publish failure is logged and never fails the run it describes.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitRunStarted emits a validation.run.started event and returns the run id
// used to correlate the completion event.
func (e *Emitter) EmitRunStarted(ctx context.Context, templateID, sourceOrgID, targetOrgID string) string {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunStarted")
	defer span.End()

	runID := uuid.New().String()
	event := &kafka.ValidationEvent{
		EventType:   EventTypeRunStarted,
		RunID:       runID,
		TemplateID:  templateID,
		SourceOrgID: sourceOrgID,
		TargetOrgID: targetOrgID,
	}

	if err := e.producer.PublishValidationEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit validation.run.started event")
	}
	return runID
}

// EmitRunCompleted emits a validation.run.completed event carrying the run's
// summary and duration.
func (e *Emitter) EmitRunCompleted(ctx context.Context, runID, templateID, sourceOrgID, targetOrgID string, result *models.ValidationResult, duration time.Duration) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	payload := map[string]any{
		"schema_version":   SchemaVersion,
		"is_valid":         result.IsValid,
		"summary":          result.Summary,
		"duration_seconds": duration.Seconds(),
	}
	data, _ := json.Marshal(payload)

	event := &kafka.ValidationEvent{
		EventType:   EventTypeRunCompleted,
		RunID:       runID,
		TemplateID:  templateID,
		SourceOrgID: sourceOrgID,
		TargetOrgID: targetOrgID,
		Data:        data,
	}

	if err := e.producer.PublishValidationEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit validation.run.completed event")
	}
}
