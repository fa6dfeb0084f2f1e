package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
)

// Archive appends finished scan records to date-partitioned JSON files on
// disk. It is write-only from the service's point of view; downstream
// batch jobs pick the files up. A nil Archive (empty dir) disables it.
type Archive struct {
	dir string
}

// NewArchive creates an archive rooted at dir, creating it if needed.
// An empty dir returns nil, which every method tolerates.
func NewArchive(dir string) (*Archive, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("archive: create dir: %w", err)
	}
	return &Archive{dir: dir}, nil
}

type archiveLine struct {
	JobID     string              `json:"job_id"`
	ScannedAt time.Time           `json:"scanned_at"`
	Record    domain.ResultRecord `json:"record"`
}

// Store appends one record to the current day's file, one JSON object per
// line. Only the extracted record is written, never image bytes.
func (a *Archive) Store(jobID string, rec domain.ResultRecord) error {
	if a == nil {
		return nil
	}

	now := time.Now().UTC()
	path := filepath.Join(a.dir, "scans-"+now.Format("2006-01-02")+".jsonl")

	data, err := json.Marshal(archiveLine{JobID: jobID, ScannedAt: now, Record: rec})
	if err != nil {
		return fmt.Errorf("archive: marshal: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("archive: write: %w", err)
	}
	return nil
}
