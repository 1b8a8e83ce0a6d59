package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

type fakeRepo struct {
	configs []*domain.ScheduleConfig
	nextID  int64
	err     error
}

func key(subjectID *string) string {
	if subjectID == nil {
		return ""
	}
	return *subjectID
}

func (r *fakeRepo) find(ownerID string, subjectID *string) *domain.ScheduleConfig {
	for _, c := range r.configs {
		if c.OwnerID == ownerID && key(c.SubjectID) == key(subjectID) && (c.SubjectID == nil) == (subjectID == nil) {
			return c
		}
	}
	return nil
}

func (r *fakeRepo) Create(_ context.Context, cfg *domain.ScheduleConfig) (*domain.ScheduleConfig, error) {
	r.nextID++
	c := *cfg
	c.ID = r.nextID
	r.configs = append(r.configs, &c)
	return &c, nil
}

func (r *fakeRepo) GetByOwnerAndSubject(_ context.Context, ownerID string, subjectID *string) (*domain.ScheduleConfig, error) {
	if r.err != nil {
		return nil, r.err
	}
	if c := r.find(ownerID, subjectID); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, scheduleRepo.ErrConfigNotFound
}

func (r *fakeRepo) GetWithHierarchy(ctx context.Context, ownerID string, subjectID *string) (*domain.ScheduleConfig, error) {
	if subjectID != nil {
		if c, err := r.GetByOwnerAndSubject(ctx, ownerID, subjectID); err == nil {
			return c, nil
		}
	}
	return r.GetByOwnerAndSubject(ctx, ownerID, nil)
}

func (r *fakeRepo) GetAllByOwner(_ context.Context, ownerID string) ([]*domain.ScheduleConfig, error) {
	var out []*domain.ScheduleConfig
	for _, c := range r.configs {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, cfg *domain.ScheduleConfig) (*domain.ScheduleConfig, error) {
	for i, c := range r.configs {
		if c.ID == id {
			cp := *cfg
			r.configs[i] = &cp
			return &cp, nil
		}
	}
	return nil, scheduleRepo.ErrConfigNotFound
}

var (
	owner    = domain.Actor{UserID: "provider-1", Role: domain.RoleProvider}
	stranger = domain.Actor{UserID: "provider-2", Role: domain.RoleProvider}
	client   = domain.Actor{UserID: "provider-1", Role: domain.RoleClient}
)

func TestService_Resolve_FallsBackToDefaults(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, logger.NewNop())

	cfg, err := svc.Resolve(context.Background(), "provider-1", ptr.Ptr("svc-1"))
	require.NoError(t, err)
	assert.Equal(t, "provider-1", cfg.OwnerID)
	assert.Equal(t, domain.DefaultStartHour, cfg.StartHour)
	assert.Equal(t, domain.DefaultEndHour, cfg.EndHour)
	assert.Nil(t, cfg.SubjectID)
}

func TestService_Resolve_RepositoryError(t *testing.T) {
	svc := NewService(&fakeRepo{err: errors.New("db down")}, nil, logger.NewNop())

	_, err := svc.Resolve(context.Background(), "provider-1", nil)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestService_UpsertThenResolveHierarchy(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil, logger.NewNop())
	ctx := context.Background()

	resp, err := svc.Upsert(ctx, owner, "provider-1", &models.UpsertConfigRequest{StartHour: ptr.Ptr(9), EndHour: ptr.Ptr(17)})
	require.NoError(t, err)
	assert.Equal(t, models.LevelOwner, resp.Level)
	assert.Equal(t, 9, resp.StartHour)
	assert.Equal(t, domain.DefaultMaxConcurrentBookings, resp.MaxConcurrentBookings)

	_, err = svc.Upsert(ctx, owner, "provider-1", &models.UpsertConfigRequest{SubjectID: ptr.Ptr("svc-1"), EndHour: ptr.Ptr(12)})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "provider-1", ptr.Ptr("svc-1"))
	require.NoError(t, err)
	assert.Equal(t, models.LevelSubject, got.Level)
	assert.Equal(t, 12, got.EndHour)

	got, err = svc.Get(ctx, "provider-1", ptr.Ptr("svc-2"))
	require.NoError(t, err)
	assert.Equal(t, models.LevelOwner, got.Level)
	assert.Equal(t, 17, got.EndHour)

	resp, err = svc.Upsert(ctx, owner, "provider-1", &models.UpsertConfigRequest{MaxConcurrentBookings: ptr.Ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, 9, resp.StartHour)
	assert.Equal(t, 3, resp.MaxConcurrentBookings)
	assert.Len(t, repo.configs, 2)
}

func TestService_Upsert_Validation(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, logger.NewNop())
	ctx := context.Background()

	_, err := svc.Upsert(ctx, owner, "provider-1", &models.UpsertConfigRequest{StartHour: ptr.Ptr(19), EndHour: ptr.Ptr(8)})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)

	_, err = svc.Upsert(ctx, owner, "provider-1", &models.UpsertConfigRequest{EndHour: ptr.Ptr(24)})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)

	_, err = svc.Upsert(ctx, owner, "provider-1", &models.UpsertConfigRequest{MaxConcurrentBookings: ptr.Ptr(0)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestService_AccessControl(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, logger.NewNop())
	ctx := context.Background()

	_, err := svc.Upsert(ctx, stranger, "provider-1", &models.UpsertConfigRequest{})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = svc.Upsert(ctx, client, "provider-1", &models.UpsertConfigRequest{})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = svc.ListByOwner(ctx, stranger, "provider-1")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	list, err := svc.ListByOwner(ctx, domain.Actor{UserID: "root", Role: domain.RoleAdmin}, "provider-1")
	require.NoError(t, err)
	assert.Empty(t, list.Configs)
}

func TestService_CustomDefaults(t *testing.T) {
	defaults := domain.DefaultScheduleConfig("")
	defaults.StartHour = 10
	svc := NewService(&fakeRepo{}, defaults, logger.NewNop())

	got, err := svc.Get(context.Background(), "provider-9", nil)
	require.NoError(t, err)
	assert.Equal(t, models.LevelDefault, got.Level)
	assert.Equal(t, 10, got.StartHour)
	assert.Equal(t, "provider-9", got.OwnerID)
}
