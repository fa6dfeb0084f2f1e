package service

import (
	"context"
	"time"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/events"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/pipeline"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/repository"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/storage"
	"github.com/bitaqa/bitaqa-backend/pkg/logger"
	"github.com/bitaqa/bitaqa-backend/pkg/messaging"
)

// Service orchestrates card scans: run the pipeline, track the job, fan
// out to the optional audit, archive and event sinks. The sinks are all
// nil-tolerant so deployments can run with nothing but the pipeline.
type Service struct {
	pipeline  *pipeline.Pipeline
	store     *storage.ScanStore
	archive   *storage.Archive
	audit     *repository.AuditRepository
	publisher *events.ScanEventPublisher
	log       *logger.Logger
}

// NewService creates a new scan service. archive, audit and publisher may
// be nil.
func NewService(
	pl *pipeline.Pipeline,
	store *storage.ScanStore,
	archive *storage.Archive,
	audit *repository.AuditRepository,
	publisher *events.ScanEventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		pipeline:  pl,
		store:     store,
		archive:   archive,
		audit:     audit,
		publisher: publisher,
		log:       log,
	}
}

// ScanSync runs the pipeline inline and returns the record. The image
// bytes are zeroed before returning; card photos never outlive the scan.
func (s *Service) ScanSync(ctx context.Context, imageData []byte) (domain.ResultRecord, error) {
	jobID := storage.GenerateJobID()
	rec, info, err := s.pipeline.Scan(ctx, imageData)
	storage.ZeroBytes(imageData)

	if err != nil {
		s.publisher.PublishScanFailed(ctx, jobID, err.Error())
		s.recordOutcome(jobID, rec, info)
		return rec, err
	}

	s.publisher.PublishScanCompleted(ctx, jobID, rec, info.DurationMs)
	s.recordOutcome(jobID, rec, info)
	return rec, nil
}

// StartScan creates a scan job and processes the image asynchronously.
// Returns the job immediately so the caller can poll for the result.
func (s *Service) StartScan(ctx context.Context, imageData []byte) *domain.ScanJob {
	jobID := storage.GenerateJobID()

	job := &domain.ScanJob{
		JobID:     jobID,
		Status:    domain.StatusProcessing,
		CreatedAt: time.Now(),
	}
	s.store.StoreJob(job)

	// Detach from the request context so cancellation doesn't kill the
	// scan, but keep the correlation ID for event tracing.
	bgCtx := messaging.WithCorrelationID(context.Background(), messaging.CorrelationID(ctx))

	go s.processAsync(bgCtx, jobID, imageData)

	return s.store.GetJob(jobID)
}

// processAsync runs one scan in a background goroutine.
func (s *Service) processAsync(ctx context.Context, jobID string, imageData []byte) {
	log := s.log.WithJobID(jobID)

	rec, info, err := s.pipeline.Scan(ctx, imageData)

	// Zero image data immediately after recognition; only the extracted
	// record lives on.
	storage.ZeroBytes(imageData)

	if err != nil {
		s.store.UpdateJob(jobID, func(j *domain.ScanJob) {
			j.Status = domain.StatusFailed
			j.Message = err.Error()
			j.Result = &rec
		})
		s.publisher.PublishScanFailed(ctx, jobID, err.Error())
		s.recordOutcome(jobID, rec, info)
		log.Error().Err(err).Msg("scan failed")
		return
	}

	s.store.UpdateJob(jobID, func(j *domain.ScanJob) {
		j.Status = domain.StatusCompleted
		j.Result = &rec
	})

	s.publisher.PublishScanCompleted(ctx, jobID, rec, info.DurationMs)
	s.recordOutcome(jobID, rec, info)

	log.Info().
		Int("error_code", rec.Error).
		Int64("duration_ms", info.DurationMs).
		Msg("scan completed")
}

// GetJob retrieves a scan job by ID
func (s *Service) GetJob(jobID string) *domain.ScanJob {
	return s.store.GetJob(jobID)
}

// ScanStats aggregates audit outcomes recorded after since. Returns nil
// without error when the audit store is disabled.
func (s *Service) ScanStats(ctx context.Context, since time.Time) (*repository.Stats, error) {
	if s.audit == nil {
		return nil, nil
	}
	return s.audit.StatsSince(ctx, since)
}

// recordOutcome writes the optional archive line and audit row. Both are
// best-effort; a sink outage never fails a scan.
func (s *Service) recordOutcome(jobID string, rec domain.ResultRecord, info pipeline.Info) {
	if err := s.archive.Store(jobID, rec); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("failed to archive scan record")
	}

	if s.audit == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		entry := &domain.ScanAuditEntry{
			JobID:      jobID,
			ErrorCode:  rec.Error,
			IDPresent:  rec.ID != "",
			EngineA:    info.EngineOK[domain.EngineTesseract],
			EngineB:    info.EngineOK[domain.EngineEasyOCR],
			DurationMs: info.DurationMs,
		}
		if err := s.audit.Create(ctx, entry); err != nil {
			s.log.Error().Err(err).Str("job_id", jobID).Msg("failed to write scan audit row")
		}
	}()
}
