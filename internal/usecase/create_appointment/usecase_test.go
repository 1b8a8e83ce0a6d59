package create_appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/catalog"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var now = time.Date(2025, 3, 1, 12, 10, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeRepo struct {
	existing []*domain.Appointment
	created  []*domain.Appointment
	filters  []domain.AppointmentFilter
	queryErr error
}

func (r *fakeRepo) Create(_ context.Context, appt *domain.Appointment) (*domain.Appointment, error) {
	c := appt.Clone()
	c.Version = 1
	r.created = append(r.created, &c)
	return &c, nil
}

func (r *fakeRepo) Query(_ context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	r.filters = append(r.filters, filter)
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	return r.existing, nil
}

type fakeSchedule struct{ cfg *domain.ScheduleConfig }

func (f fakeSchedule) Resolve(_ context.Context, ownerID string, _ *string) (*domain.ScheduleConfig, error) {
	if f.cfg != nil {
		return f.cfg, nil
	}
	return domain.DefaultScheduleConfig(ownerID), nil
}

type fakeCatalog struct {
	subjects map[string]*catalog.Subject
	err      error
}

func (c fakeCatalog) GetSubject(_ context.Context, kind domain.SubjectKind, id string) (*catalog.Subject, error) {
	if c.err != nil {
		return nil, c.err
	}
	s, ok := c.subjects[id]
	if !ok || s.Kind != kind {
		return nil, catalog.ErrSubjectNotFound
	}
	return s, nil
}

type fakeInvalidator struct{ dates []time.Time }

func (f *fakeInvalidator) Invalidate(_ context.Context, _ string, dates ...time.Time) error {
	f.dates = append(f.dates, dates...)
	return nil
}

type inlineTx struct{ calls int }

func (t *inlineTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

func newCatalog() fakeCatalog {
	return fakeCatalog{subjects: map[string]*catalog.Subject{
		"svc-1": {ID: "svc-1", Kind: domain.SubjectService, OwnerID: "provider-1", PriceCents: 5000, DurationMinutes: 60, Active: true},
		"lst-1": {ID: "lst-1", Kind: domain.SubjectListing, OwnerID: "seller-1", PriceCents: 12000, Active: true},
		"svc-off": {ID: "svc-off", Kind: domain.SubjectService, OwnerID: "provider-1", Active: false},
	}}
}

func newUseCase(repo *fakeRepo, cfg *domain.ScheduleConfig) (*UseCase, *fakeInvalidator, *inlineTx) {
	inv := &fakeInvalidator{}
	tx := &inlineTx{}
	uc := NewUseCase(repo, fakeSchedule{cfg: cfg}, newCatalog(), inv, tx, time.UTC, logger.NewNop())
	uc.timeProvider = fixedClock{t: now}
	uc.newID = func() string { return "appt-1" }
	return uc, inv, tx
}

var client = domain.Actor{UserID: "client-1", Role: domain.RoleClient}

func scheduledService(date time.Time, slot string) *Request {
	return &Request{
		Actor:            client,
		SubjectKind:      domain.SubjectService,
		SubjectID:        "svc-1",
		InterventionType: domain.InterventionScheduled,
		Date:             date,
		StartTime:        types.TimeString(slot),
	}
}

func TestExecute_ScheduledService(t *testing.T) {
	repo := &fakeRepo{}
	uc, inv, tx := newUseCase(repo, nil)

	resp, err := uc.Execute(context.Background(), scheduledService(now.AddDate(0, 0, 1), "10:30"))
	require.NoError(t, err)

	assert.Equal(t, "appt-1", resp.ID)
	assert.Equal(t, "2025-03-02", resp.Date)
	assert.Equal(t, "10:30", resp.StartTime)
	assert.Equal(t, 60, resp.DurationMinutes)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "provider-1", resp.ProviderID)
	assert.Equal(t, int64(5000), resp.BasePriceCents)
	assert.Nil(t, resp.PriceCents)

	assert.Equal(t, 1, tx.calls)
	require.Len(t, repo.filters, 1)
	assert.Equal(t, []domain.Status{domain.StatusAwaitingDecision, domain.StatusConfirmed}, repo.filters[0].Statuses)
	require.Len(t, inv.dates, 1)
	assert.Equal(t, time.Date(2025, 3, 2, 10, 30, 0, 0, time.UTC), inv.dates[0])
}

func TestExecute_Validation(t *testing.T) {
	uc, _, _ := newUseCase(&fakeRepo{}, nil)
	ctx := context.Background()
	tomorrow := now.AddDate(0, 0, 1)

	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr error
	}{
		{"provider cannot book", func(r *Request) { r.Actor = domain.Actor{UserID: "p", Role: domain.RoleProvider} }, domain.ErrAccessDenied},
		{"unknown kind", func(r *Request) { r.SubjectKind = "vehicle" }, domain.ErrInvalidInput},
		{"missing subject", func(r *Request) { r.SubjectID = " " }, domain.ErrInvalidInput},
		{"unknown intervention", func(r *Request) { r.InterventionType = "LATER" }, domain.ErrInvalidInput},
		{"departure on service", func(r *Request) { r.DepartureDate = &tomorrow }, domain.ErrInvalidInput},
		{"missing date", func(r *Request) { r.Date = time.Time{} }, domain.ErrInvalidInput},
		{"missing time", func(r *Request) { r.StartTime = "" }, domain.ErrInvalidInput},
		{"bad time", func(r *Request) { r.StartTime = "25:00" }, domain.ErrInvalidInput},
		{"off grid", func(r *Request) { r.StartTime = "10:15" }, ErrInvalidTimeSlot},
		{"outside window", func(r *Request) { r.StartTime = "19:30" }, ErrInvalidTimeSlot},
		{"past date", func(r *Request) { r.Date = now.AddDate(0, 0, -1) }, ErrInvalidDate},
		{"today past slot", func(r *Request) { r.Date = now; r.StartTime = "09:00" }, ErrTooLateToBook},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := scheduledService(tomorrow, "10:00")
			tt.mutate(req)
			_, err := uc.Execute(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExecute_AdvanceBookingLimit(t *testing.T) {
	cfg := domain.DefaultScheduleConfig("provider-1")
	cfg.AdvanceBookingDays = 7
	uc, _, _ := newUseCase(&fakeRepo{}, cfg)

	_, err := uc.Execute(context.Background(), scheduledService(now.AddDate(0, 0, 8), "10:00"))
	assert.ErrorIs(t, err, ErrDateTooFarInFuture)

	_, err = uc.Execute(context.Background(), scheduledService(now.AddDate(0, 0, 7), "10:00"))
	assert.NoError(t, err)
}

func TestExecute_SubjectErrors(t *testing.T) {
	uc, _, _ := newUseCase(&fakeRepo{}, nil)
	ctx := context.Background()

	req := scheduledService(now.AddDate(0, 0, 1), "10:00")
	req.SubjectID = "missing"
	_, err := uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrSubjectNotFound)

	req.SubjectID = "svc-off"
	_, err = uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrSubjectUnavailable)

	uc.catalogClient = fakeCatalog{err: errors.New("timeout")}
	_, err = uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestExecute_CapacityHalfOpen(t *testing.T) {
	start := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	repo := &fakeRepo{existing: []*domain.Appointment{
		{ID: "a", Subject: domain.Subject{Kind: domain.SubjectService, ID: "svc-1"}, ScheduledAt: start, DurationMinutes: 60, Status: domain.StatusConfirmed},
	}}
	uc, _, _ := newUseCase(repo, nil)
	ctx := context.Background()

	_, err := uc.Execute(ctx, scheduledService(start, "10:30"))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	_, err = uc.Execute(ctx, scheduledService(start, "11:00"))
	assert.NoError(t, err)

	cfg := domain.DefaultScheduleConfig("provider-1")
	cfg.MaxConcurrentBookings = 2
	uc.scheduleRes = fakeSchedule{cfg: cfg}
	_, err = uc.Execute(ctx, scheduledService(start, "10:30"))
	assert.NoError(t, err)
}

func TestExecute_QueryError(t *testing.T) {
	uc, inv, _ := newUseCase(&fakeRepo{queryErr: errors.New("db down")}, nil)

	_, err := uc.Execute(context.Background(), scheduledService(now.AddDate(0, 0, 1), "10:00"))
	assert.ErrorIs(t, err, ErrInternal)
	assert.Empty(t, inv.dates)
}

func TestExecute_UrgentService(t *testing.T) {
	repo := &fakeRepo{}
	uc, _, _ := newUseCase(repo, nil)

	// 12:10 + 60 минут = 13:10, ближайший слот не раньше - 13:30
	resp, err := uc.Execute(context.Background(), &Request{
		Actor:            client,
		SubjectKind:      domain.SubjectService,
		SubjectID:        "svc-1",
		InterventionType: domain.InterventionUrgent,
		Date:             now.AddDate(0, 0, 5),
		StartTime:        "08:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", resp.Date)
	assert.Equal(t, "13:30", resp.StartTime)
	assert.Equal(t, "URGENT", resp.InterventionType)
}

func TestExecute_UrgentRollsOverToTomorrow(t *testing.T) {
	uc, _, _ := newUseCase(&fakeRepo{}, nil)
	uc.timeProvider = fixedClock{t: time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)}

	resp, err := uc.Execute(context.Background(), &Request{
		Actor:            client,
		SubjectKind:      domain.SubjectService,
		SubjectID:        "svc-1",
		InterventionType: domain.InterventionUrgent,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", resp.Date)
	assert.Equal(t, "08:00", resp.StartTime)
}

func TestExecute_ListingStay(t *testing.T) {
	repo := &fakeRepo{}
	uc, _, _ := newUseCase(repo, nil)
	entry := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	departure := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)

	resp, err := uc.Execute(context.Background(), &Request{
		Actor:            client,
		SubjectKind:      domain.SubjectListing,
		SubjectID:        "lst-1",
		InterventionType: domain.InterventionScheduled,
		Date:             entry,
		DepartureDate:    &departure,
		Notes:            ptr.Ptr("late arrival"),
	})
	require.NoError(t, err)

	assert.Equal(t, "REQUESTED", resp.Status)
	assert.Equal(t, "08:00", resp.StartTime)
	require.NotNil(t, resp.Nights)
	assert.Equal(t, 3, *resp.Nights)
	assert.Equal(t, 3*domain.MinutesPerNight, resp.DurationMinutes)
	require.NotNil(t, resp.TotalPriceCents)
	assert.Equal(t, int64(36000), *resp.TotalPriceCents)
	assert.Equal(t, "2025-03-13", *resp.DepartureDate)

	require.Len(t, repo.filters, 1)
	assert.Nil(t, repo.filters[0].From)
}

func TestExecute_ListingDefaultsToOneNight(t *testing.T) {
	uc, _, _ := newUseCase(&fakeRepo{}, nil)

	resp, err := uc.Execute(context.Background(), &Request{
		Actor:            client,
		SubjectKind:      domain.SubjectListing,
		SubjectID:        "lst-1",
		InterventionType: domain.InterventionScheduled,
		Date:             time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime:        "15:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", *resp.DepartureDate)
	assert.Equal(t, 1, *resp.Nights)
}

func TestExecute_ListingDepartureBeforeEntry(t *testing.T) {
	uc, _, _ := newUseCase(&fakeRepo{}, nil)
	departure := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	_, err := uc.Execute(context.Background(), &Request{
		Actor:            client,
		SubjectKind:      domain.SubjectListing,
		SubjectID:        "lst-1",
		InterventionType: domain.InterventionScheduled,
		Date:             time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		DepartureDate:    &departure,
	})
	assert.ErrorIs(t, err, domain.ErrOrdering)
}

func TestExecute_UrgentListingAdvancesDeparture(t *testing.T) {
	uc, _, _ := newUseCase(&fakeRepo{}, nil)
	uc.timeProvider = fixedClock{t: time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)}
	departure := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	resp, err := uc.Execute(context.Background(), &Request{
		Actor:            client,
		SubjectKind:      domain.SubjectListing,
		SubjectID:        "lst-1",
		InterventionType: domain.InterventionUrgent,
		DepartureDate:    &departure,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", resp.Date)
	assert.Equal(t, "2025-03-02", *resp.DepartureDate)
	assert.Equal(t, 1, *resp.Nights)
}
