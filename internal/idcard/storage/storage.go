package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
)

// ScanStore provides in-memory storage for scan jobs.
// Card images are processed in RAM only and zeroed after use.
// Jobs are automatically cleaned up after a TTL.
type ScanStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.ScanJob
	ttl  time.Duration
}

// NewScanStore creates a new in-memory scan store with the given TTL
func NewScanStore(ttl time.Duration) *ScanStore {
	s := &ScanStore{
		jobs: make(map[string]*domain.ScanJob),
		ttl:  ttl,
	}
	go s.cleanupLoop()
	return s
}

// GenerateJobID creates a random job ID
func GenerateJobID() string {
	return uuid.New().String()
}

// StoreJob stores a scan job
func (s *ScanStore) StoreJob(job *domain.ScanJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = job
}

// GetJob retrieves a scan job by ID; a copy is returned so readers never
// race the worker goroutine's updates.
func (s *ScanStore) GetJob(jobID string) *domain.ScanJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// UpdateJob updates an existing scan job
func (s *ScanStore) UpdateJob(jobID string, update func(*domain.ScanJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		update(job)
	}
}

// DeleteJob removes a job from storage
func (s *ScanStore) DeleteJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
}

// ZeroBytes overwrites a byte slice with zeros for secure deletion.
// This prevents card image data from lingering in memory.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// cleanupLoop periodically removes expired jobs
func (s *ScanStore) cleanupLoop() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for range ticker.C {
		s.cleanup()
	}
}

func (s *ScanStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.ttl)
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}
