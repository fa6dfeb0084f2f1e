package events

import (
	"context"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
	"github.com/bitaqa/bitaqa-backend/pkg/logger"
	"github.com/bitaqa/bitaqa-backend/pkg/messaging"
)

// ScanEventPublisher publishes scan lifecycle events. A nil publisher is
// valid and drops everything, so the service wires one only when RabbitMQ
// is enabled.
type ScanEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewScanEventPublisher creates a new scan event publisher
func NewScanEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*ScanEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeScanEvents, "ocr-service", log)
	if err != nil {
		return nil, err
	}

	return &ScanEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishScanCompleted publishes the outcome of a finished scan. Only
// outcome metadata goes on the wire; extracted holder data never does.
func (p *ScanEventPublisher) PublishScanCompleted(ctx context.Context, jobID string, rec domain.ResultRecord, durationMs int64) {
	if p == nil {
		return
	}

	data := messaging.ScanCompletedEvent{
		JobID:      jobID,
		ErrorCode:  rec.Error,
		IDPresent:  rec.ID != "",
		DurationMs: durationMs,
	}

	if err := p.publisher.Publish(ctx, messaging.EventScanCompleted, data); err != nil {
		p.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to publish scan completed event")
	}
}

// PublishScanFailed publishes a scan that could not run at all
func (p *ScanEventPublisher) PublishScanFailed(ctx context.Context, jobID, reason string) {
	if p == nil {
		return
	}

	data := messaging.ScanFailedEvent{JobID: jobID, Reason: reason}

	if err := p.publisher.Publish(ctx, messaging.EventScanFailed, data); err != nil {
		p.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to publish scan failed event")
	}
}
