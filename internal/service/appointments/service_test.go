package appointments

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeRepo struct {
	items   map[string]*domain.Appointment
	order   []string
	saveErr error
	saved   int
	queries []domain.AppointmentFilter
	pages   int
}

func newFakeRepo(appts ...domain.Appointment) *fakeRepo {
	r := &fakeRepo{items: make(map[string]*domain.Appointment)}
	for i := range appts {
		a := appts[i].Clone()
		r.items[a.ID] = &a
		r.order = append(r.order, a.ID)
	}
	return r
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Appointment, error) {
	a, ok := r.items[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	c := a.Clone()
	return &c, nil
}

func (r *fakeRepo) Save(_ context.Context, appt *domain.Appointment, expected domain.Status) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	cur, ok := r.items[appt.ID]
	if !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}
	if cur.Version != appt.Version || cur.Status != expected {
		return appointmentRepo.ErrVersionConflict
	}
	appt.Version++
	c := appt.Clone()
	r.items[appt.ID] = &c
	r.saved++
	return nil
}

func (r *fakeRepo) Query(_ context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	r.queries = append(r.queries, filter)
	var out []*domain.Appointment
	for _, id := range r.order {
		a := r.items[id]
		if filter.OwnerID != nil && a.ProviderID != *filter.OwnerID {
			continue
		}
		if filter.ClientID != nil && a.ClientID != *filter.ClientID {
			continue
		}
		c := a.Clone()
		out = append(out, &c)
	}
	return out, nil
}

// ListPendingCompletions повторяет порядок и пагинацию SQL-запроса:
// (completion_requested_at, id) по возрастанию, строго после курсора, не больше limit.
func (r *fakeRepo) ListPendingCompletions(_ context.Context, before time.Time, after *domain.CompletionCursor, limit uint64) ([]*domain.Appointment, error) {
	r.pages++
	var out []*domain.Appointment
	for _, a := range r.items {
		if !a.CompletionPending || a.CompletionRequestedAt == nil || a.CompletionRequestedAt.After(before) {
			continue
		}
		if after != nil && !cursorLess(*after, *domain.CursorAfter(a)) {
			continue
		}
		c := a.Clone()
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return cursorLess(*domain.CursorAfter(out[i]), *domain.CursorAfter(out[j]))
	})
	if limit > 0 && uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cursorLess(a, b domain.CompletionCursor) bool {
	if !a.RequestedAt.Equal(b.RequestedAt) {
		return a.RequestedAt.Before(b.RequestedAt)
	}
	return a.ID < b.ID
}

type fakeSchedule struct {
	cfg     *domain.ScheduleConfig
	byOwner map[string]*domain.ScheduleConfig
}

func (f fakeSchedule) Resolve(_ context.Context, ownerID string, _ *string) (*domain.ScheduleConfig, error) {
	if cfg, ok := f.byOwner[ownerID]; ok {
		return cfg, nil
	}
	if f.cfg != nil {
		return f.cfg, nil
	}
	return domain.DefaultScheduleConfig(ownerID), nil
}

type fakeCache struct {
	index       calendar.Index
	sets        int
	invalidated []time.Time
}

func (c *fakeCache) Get(context.Context, string, time.Time) (calendar.Index, bool, error) {
	if c.index == nil {
		return nil, false, nil
	}
	return c.index, true, nil
}

func (c *fakeCache) Set(_ context.Context, _ string, _ time.Time, idx calendar.Index) error {
	c.sets++
	c.index = idx
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, _ string, dates ...time.Time) error {
	c.invalidated = append(c.invalidated, dates...)
	return nil
}

type fakePublisher struct {
	events []domain.StatusChangedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev domain.StatusChangedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type fakeRecorder struct{ outcomes []string }

func (r *fakeRecorder) ObserveTransition(target, outcome string) {
	r.outcomes = append(r.outcomes, target+":"+outcome)
}

type fixture struct {
	svc       *Service
	repo      *fakeRepo
	cache     *fakeCache
	publisher *fakePublisher
	recorder  *fakeRecorder
}

func newFixture(appts ...domain.Appointment) *fixture {
	return newFixtureIn(time.UTC, appts...)
}

func newFixtureIn(loc *time.Location, appts ...domain.Appointment) *fixture {
	f := &fixture{
		repo:      newFakeRepo(appts...),
		cache:     &fakeCache{},
		publisher: &fakePublisher{},
		recorder:  &fakeRecorder{},
	}
	f.svc = NewService(f.repo, fakeSchedule{}, f.cache, f.publisher, f.recorder, loc, logger.NewNop())
	f.svc.timeProvider = fixedClock{t: now.In(loc)}
	return f
}

func appointment(id string, status domain.Status) domain.Appointment {
	return domain.Appointment{
		ID:               id,
		Subject:          domain.Subject{Kind: domain.SubjectService, ID: "svc-1"},
		ClientID:         "client-1",
		ProviderID:       "provider-1",
		ScheduledAt:      time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC),
		DurationMinutes:  30,
		InterventionType: domain.InterventionScheduled,
		BasePriceCents:   5000,
		Status:           status,
		Version:          1,
	}
}

var (
	client   = domain.Actor{UserID: "client-1", Role: domain.RoleClient}
	provider = domain.Actor{UserID: "provider-1", Role: domain.RoleProvider}
	stranger = domain.Actor{UserID: "provider-2", Role: domain.RoleSeller}
	admin    = domain.Actor{UserID: "root", Role: domain.RoleAdmin}
)

func TestService_GetByID(t *testing.T) {
	f := newFixture(appointment("a-1", domain.StatusAwaitingDecision))

	resp, err := f.svc.GetByID(context.Background(), client, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "10:00", resp.StartTime)

	_, err = f.svc.GetByID(context.Background(), stranger, "a-1")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.svc.GetByID(context.Background(), admin, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Transition_Confirm(t *testing.T) {
	f := newFixture(appointment("a-1", domain.StatusAwaitingDecision))

	resp, err := f.svc.Transition(context.Background(), provider, "a-1", &models.TransitionRequest{Target: "CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.Equal(t, int64(2), resp.Version)

	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0]
	assert.Equal(t, domain.ExternalPending, ev.From)
	assert.Equal(t, domain.ExternalConfirmed, ev.To)
	assert.Equal(t, "provider-1", ev.ActorID)

	assert.Len(t, f.cache.invalidated, 1)
	assert.Equal(t, []string{"confirmed:changed"}, f.recorder.outcomes)
}

func TestService_Transition_RepeatIsNoop(t *testing.T) {
	f := newFixture(appointment("a-1", domain.StatusConfirmed))

	resp, err := f.svc.Transition(context.Background(), provider, "a-1", &models.TransitionRequest{Target: "CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.Equal(t, 0, f.repo.saved)
	assert.Empty(t, f.publisher.events)
	assert.Equal(t, []string{"confirmed:noop"}, f.recorder.outcomes)
}

func TestService_Transition_Illegal(t *testing.T) {
	f := newFixture(appointment("a-1", domain.StatusRejected))

	_, err := f.svc.Transition(context.Background(), provider, "a-1", &models.TransitionRequest{Target: "CONFIRMED"})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.False(t, domain.IsRetryable(err))
	assert.Equal(t, 0, f.repo.saved)
	assert.Equal(t, domain.StatusRejected, f.repo.items["a-1"].Status)
	assert.Equal(t, []string{"confirmed:illegal"}, f.recorder.outcomes)
}

func TestService_Transition_ClientCancelMapsToRejected(t *testing.T) {
	f := newFixture(appointment("a-1", domain.StatusAwaitingDecision))

	resp, err := f.svc.Transition(context.Background(), client, "a-1", &models.TransitionRequest{Target: "REJECTED"})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", resp.Status)

	_, err = f.svc.Transition(context.Background(), client, "a-1", &models.TransitionRequest{Target: "CONFIRMED"})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestService_Transition_InvalidTarget(t *testing.T) {
	f := newFixture(appointment("a-1", domain.StatusAwaitingDecision))

	_, err := f.svc.Transition(context.Background(), provider, "a-1", &models.TransitionRequest{Target: "ARCHIVED"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestService_Transition_Conflict(t *testing.T) {
	f := newFixture(appointment("a-1", domain.StatusAwaitingDecision))
	f.repo.saveErr = appointmentRepo.ErrVersionConflict

	_, err := f.svc.Transition(context.Background(), provider, "a-1", &models.TransitionRequest{Target: "CONFIRMED"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, domain.IsRetryable(err))
	assert.Empty(t, f.publisher.events)
	assert.Equal(t, []string{"confirmed:conflict"}, f.recorder.outcomes)
}

func TestService_Transition_PublishFailureKeepsCommit(t *testing.T) {
	f := newFixture(appointment("a-1", domain.StatusAwaitingDecision))
	f.publisher.err = errors.New("broker down")

	resp, err := f.svc.Transition(context.Background(), provider, "a-1", &models.TransitionRequest{Target: "CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.Equal(t, domain.StatusConfirmed, f.repo.items["a-1"].Status)
}

func TestService_TwoPhaseCompletion(t *testing.T) {
	f := newFixture(appointment("a-1", domain.StatusConfirmed))
	ctx := context.Background()

	_, err := f.svc.SubmitAmount(ctx, provider, "a-1", "5000")
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	resp, err := f.svc.RequestCompletion(ctx, provider, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.True(t, resp.CompletionPending)

	_, err = f.svc.SubmitAmount(ctx, provider, "a-1", "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.True(t, f.repo.items["a-1"].CompletionPending)

	resp, err = f.svc.SubmitAmount(ctx, provider, "a-1", "5000")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", resp.Status)
	require.NotNil(t, resp.PriceCents)
	assert.Equal(t, int64(5000), *resp.PriceCents)

	saved := f.repo.saved
	_, err = f.svc.SubmitAmount(ctx, provider, "a-1", "5000")
	require.NoError(t, err)
	assert.Equal(t, saved, f.repo.saved)
}

func TestService_Complete(t *testing.T) {
	f := newFixture(appointment("a-1", domain.StatusConfirmed))

	resp, err := f.svc.Complete(context.Background(), provider, "a-1", "7500")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", resp.Status)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.ExternalConfirmed, f.publisher.events[0].From)
	assert.Equal(t, domain.ExternalCompleted, f.publisher.events[0].To)
}

func TestService_AttachRating(t *testing.T) {
	completed := appointment("a-1", domain.StatusCompleted)
	price := int64(5000)
	completed.PriceCents = &price
	f := newFixture(completed, appointment("a-2", domain.StatusConfirmed))
	ctx := context.Background()

	resp, err := f.svc.AttachRating(ctx, client, "a-1", &models.RatingRequest{Score: 5})
	require.NoError(t, err)
	require.NotNil(t, resp.Rating)
	assert.Equal(t, 5, resp.Rating.Score)
	assert.Equal(t, "COMPLETED", resp.Status)

	_, err = f.svc.AttachRating(ctx, client, "a-1", &models.RatingRequest{Score: 3})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	_, err = f.svc.AttachRating(ctx, client, "a-2", &models.RatingRequest{Score: 4})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	_, err = f.svc.AttachRating(ctx, client, "a-1", &models.RatingRequest{Score: 9})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestService_List_ScopesToActor(t *testing.T) {
	foreign := appointment("a-2", domain.StatusAwaitingDecision)
	foreign.ClientID = "client-2"
	foreign.ProviderID = "provider-2"
	f := newFixture(appointment("a-1", domain.StatusAwaitingDecision), foreign)
	ctx := context.Background()

	resp, err := f.svc.List(ctx, client, &models.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, "a-1", resp.Appointments[0].ID)

	resp, err = f.svc.List(ctx, stranger, &models.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, "a-2", resp.Appointments[0].ID)

	other := "provider-1"
	_, err = f.svc.List(ctx, stranger, &models.ListRequest{OwnerID: &other})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	resp, err = f.svc.List(ctx, admin, &models.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Appointments, 2)

	_, err = f.svc.List(ctx, admin, &models.ListRequest{Statuses: []string{"bogus"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestService_Calendar_BuildsAndCaches(t *testing.T) {
	second := appointment("a-2", domain.StatusConfirmed)
	second.ScheduledAt = time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	f := newFixture(appointment("a-1", domain.StatusAwaitingDecision), second)
	month := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	resp, err := f.svc.Calendar(context.Background(), provider, "provider-1", month, true)
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, "2025-03", resp.Month)
	require.Len(t, resp.Days, 1)
	assert.Equal(t, "2025-2-5", resp.Days[0].Key)
	assert.Equal(t, "2025-03-05", resp.Days[0].Date)
	require.Len(t, resp.Days[0].Appointments, 2)
	assert.Equal(t, "a-2", resp.Days[0].Appointments[0].ID)
	assert.Equal(t, 1, f.cache.sets)

	require.Len(t, f.repo.queries, 1)
	q := f.repo.queries[0]
	assert.Equal(t, month, *q.From)
	assert.Equal(t, month.AddDate(0, 1, 0), *q.To)

	resp, err = f.svc.Calendar(context.Background(), provider, "provider-1", month, false)
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Len(t, f.repo.queries, 1)
	require.Len(t, resp.Days[0].Appointments, 2)
	assert.Equal(t, "a-1", resp.Days[0].Appointments[0].ID, "cached index keeps storage order")

	resp, err = f.svc.Calendar(context.Background(), provider, "provider-1", month, true)
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, "a-2", resp.Days[0].Appointments[0].ID)
}

func TestService_Calendar_InvalidatesMonthInScheduleZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	appt := appointment("a-1", domain.StatusAwaitingDecision)
	appt.ScheduledAt = time.Date(2025, 4, 1, 2, 0, 0, 0, time.UTC)
	f := newFixtureIn(loc, appt)

	resp, err := f.svc.Calendar(context.Background(), provider, "provider-1", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	assert.Equal(t, "2025-03", resp.Month)
	require.Len(t, resp.Days, 1)
	assert.Equal(t, "2025-03-31", resp.Days[0].Date)

	_, err = f.svc.Transition(context.Background(), provider, "a-1", &models.TransitionRequest{Target: "CONFIRMED"})
	require.NoError(t, err)

	require.Len(t, f.cache.invalidated, 1)
	assert.Equal(t, "2025-03", f.cache.invalidated[0].Format(domain.MonthFormat))
}

func TestService_Calendar_UsesPreAggregatedIndexVerbatim(t *testing.T) {
	f := newFixture(appointment("a-1", domain.StatusAwaitingDecision))
	f.cache.index = calendar.Index{"2025-2-9": {appointment("cached", domain.StatusConfirmed)}}

	resp, err := f.svc.Calendar(context.Background(), admin, "provider-1", now, false)
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	require.Len(t, resp.Days, 1)
	assert.Equal(t, "cached", resp.Days[0].Appointments[0].ID)
	assert.Empty(t, f.repo.queries)
}

func TestService_Calendar_AccessDenied(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Calendar(context.Background(), client, "provider-1", now, false)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.svc.Calendar(context.Background(), stranger, "provider-1", now, false)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestService_ExpireStaleCompletions(t *testing.T) {
	stale := appointment("stale", domain.StatusConfirmed)
	stale.CompletionPending = true
	requested := now.Add(-2 * time.Hour)
	stale.CompletionRequestedAt = &requested

	fresh := appointment("fresh", domain.StatusConfirmed)
	fresh.CompletionPending = true
	recent := now.Add(-10 * time.Minute)
	fresh.CompletionRequestedAt = &recent

	f := newFixture(stale, fresh)
	cfg := domain.DefaultScheduleConfig("provider-1")
	cfg.CompletionExpiryMinutes = 60
	f.svc.scheduleRes = fakeSchedule{cfg: cfg}

	n, err := f.svc.ExpireStaleCompletions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.False(t, f.repo.items["stale"].CompletionPending)
	assert.Equal(t, domain.StatusConfirmed, f.repo.items["stale"].Status)
	assert.True(t, f.repo.items["fresh"].CompletionPending)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.SystemActor.UserID, f.publisher.events[0].ActorID)
}

func TestService_ExpireStaleCompletions_DisabledByDefault(t *testing.T) {
	stale := appointment("stale", domain.StatusConfirmed)
	stale.CompletionPending = true
	requested := now.Add(-48 * time.Hour)
	stale.CompletionRequestedAt = &requested
	f := newFixture(stale)

	n, err := f.svc.ExpireStaleCompletions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, f.repo.items["stale"].CompletionPending)
}

func TestService_ExpireStaleCompletions_PagesPastDisabledOwners(t *testing.T) {
	older := now.Add(-48 * time.Hour)
	blocked := appointment("blocked", domain.StatusConfirmed)
	blocked.ProviderID = "provider-2"
	blocked.CompletionPending = true
	blocked.CompletionRequestedAt = &older

	stale := appointment("stale", domain.StatusConfirmed)
	stale.CompletionPending = true
	requested := now.Add(-time.Hour)
	stale.CompletionRequestedAt = &requested

	f := newFixture(blocked, stale)
	expiring := domain.DefaultScheduleConfig("provider-1")
	expiring.CompletionExpiryMinutes = 10
	f.svc.scheduleRes = fakeSchedule{byOwner: map[string]*domain.ScheduleConfig{"provider-1": expiring}}
	f.svc.sweepBatch = 1

	n, err := f.svc.ExpireStaleCompletions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, f.repo.items["stale"].CompletionPending)
	assert.True(t, f.repo.items["blocked"].CompletionPending)
	assert.Equal(t, 3, f.repo.pages)
}
