package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
	"github.com/bitaqa/bitaqa-backend/pkg/database"
	"github.com/bitaqa/bitaqa-backend/pkg/logger"
	"github.com/bitaqa/bitaqa-backend/pkg/testutil"
)

func newRepo(t *testing.T) (*AuditRepository, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("ocr-service-test", "development")
	return NewAuditRepository(database.FromSQLX(mockDB.DB, log)), mockDB
}

func TestAuditRepository_Create(t *testing.T) {
	repo, mockDB := newRepo(t)

	now := time.Now()
	mockDB.ExpectQuery("INSERT INTO scan_audit").
		WithArgs(sqlmock.AnyArg(), "job-1", domain.ErrAddressMissing, true, true, false, int64(1250)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	entry := &domain.ScanAuditEntry{
		JobID:      "job-1",
		ErrorCode:  domain.ErrAddressMissing,
		IDPresent:  true,
		EngineA:    true,
		EngineB:    false,
		DurationMs: 1250,
	}
	require.NoError(t, repo.Create(context.Background(), entry))

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, now, entry.CreatedAt)
	mockDB.ExpectationsWereMet(t)
}

func TestAuditRepository_Create_KeepsProvidedID(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.ExpectQuery("INSERT INTO scan_audit").
		WithArgs("fixed-id", "job-2", 0, false, true, true, int64(800)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	entry := &domain.ScanAuditEntry{
		ID:         "fixed-id",
		JobID:      "job-2",
		EngineA:    true,
		EngineB:    true,
		DurationMs: 800,
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.Equal(t, "fixed-id", entry.ID)
	mockDB.ExpectationsWereMet(t)
}

func TestAuditRepository_StatsSince(t *testing.T) {
	repo, mockDB := newRepo(t)

	since := time.Now().Add(-24 * time.Hour)
	mockDB.ExpectQuery("SELECT COUNT(*)").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"total", "clean", "id_present"}).AddRow(42, 30, 38))

	stats, err := repo.StatsSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.Total)
	assert.Equal(t, int64(30), stats.Clean)
	assert.Equal(t, int64(38), stats.IDPresent)
	mockDB.ExpectationsWereMet(t)
}
