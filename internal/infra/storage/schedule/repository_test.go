package schedule

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

func configRow(id int64, subjectID interface{}, startHour int) *sqlmock.Rows {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(columns).AddRow(id, "provider-1", subjectID, startHour, 19, 1, 0, 0, 30, now, now)
}

func TestRepository_GetWithHierarchy_PrefersSubject(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner_id = $1 AND subject_id = $2")).
		WithArgs("provider-1", "svc-1").
		WillReturnRows(configRow(7, "svc-1", 9))

	cfg, err := repo.GetWithHierarchy(context.Background(), "provider-1", ptr.Ptr("svc-1"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.ID)
	assert.True(t, cfg.IsSubjectSpecific())
	assert.Equal(t, domain.Window{StartHour: 9, EndHour: 19}, cfg.Window())
	assert.Equal(t, 30*time.Minute, cfg.CompletionExpiry())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetWithHierarchy_FallsBackToOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner_id = $1 AND subject_id = $2")).
		WithArgs("provider-1", "svc-1").
		WillReturnRows(sqlmock.NewRows(columns))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner_id = $1 AND subject_id IS NULL")).
		WithArgs("provider-1").
		WillReturnRows(configRow(1, nil, 8))

	cfg, err := repo.GetWithHierarchy(context.Background(), "provider-1", ptr.Ptr("svc-1"))
	require.NoError(t, err)
	assert.True(t, cfg.IsOwnerWide())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetWithHierarchy_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("subject_id IS NULL")).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err = repo.GetWithHierarchy(context.Background(), "provider-1", nil)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestRepository_CreateAndUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO schedule_configs")).
		WithArgs("provider-1", nil, 9, 18, 2, 30, 60, 120).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(3), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE schedule_configs SET")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}))

	cfg := &domain.ScheduleConfig{
		OwnerID:                 "provider-1",
		StartHour:               9,
		EndHour:                 18,
		MaxConcurrentBookings:   2,
		AdvanceBookingDays:      30,
		MinBookingNoticeMinutes: 60,
		CompletionExpiryMinutes: 120,
	}
	created, err := repo.Create(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)

	_, err = repo.Update(context.Background(), 99, cfg)
	assert.ErrorIs(t, err, ErrConfigNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
