package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
	"github.com/bitaqa/bitaqa-backend/pkg/database"
)

// AuditRepository persists scan outcomes for the optional audit table.
// Only outcome metadata is stored: no image bytes and no extracted holder
// data ever reach the database.
type AuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create records one finished scan
func (r *AuditRepository) Create(ctx context.Context, entry *domain.ScanAuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO scan_audit (id, job_id, error_code, id_present, engine_a_ok, engine_b_ok, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		entry.ID,
		entry.JobID,
		entry.ErrorCode,
		entry.IDPresent,
		entry.EngineA,
		entry.EngineB,
		entry.DurationMs,
	).Scan(&entry.CreatedAt)
}

// Stats summarizes scan outcomes since a point in time
type Stats struct {
	Total     int64 `db:"total" json:"total"`
	Clean     int64 `db:"clean" json:"clean"`
	IDPresent int64 `db:"id_present" json:"id_present"`
}

// StatsSince aggregates outcomes for scans recorded after since
func (r *AuditRepository) StatsSince(ctx context.Context, since time.Time) (*Stats, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE error_code = 0) AS clean,
		       COUNT(*) FILTER (WHERE id_present) AS id_present
		FROM scan_audit
		WHERE created_at >= $1
	`

	var stats Stats
	if err := r.db.GetContext(ctx, &stats, query, since); err != nil {
		return nil, err
	}
	return &stats, nil
}
