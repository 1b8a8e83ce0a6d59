package get_available_slots

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type fakeUseCase struct {
	got        *getAvailableSlots.Request
	err        error
	urgentErr  error
	urgentSeen bool
}

func (f *fakeUseCase) PreviewUrgent(_ context.Context, kind domain.SubjectKind, subjectID string) (*getAvailableSlots.UrgentPreview, error) {
	f.urgentSeen = true
	if f.urgentErr != nil {
		return nil, f.urgentErr
	}
	return &getAvailableSlots.UrgentPreview{
		SubjectKind: kind,
		SubjectID:   subjectID,
		Date:        time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		StartTime:   "08:00",
		ScheduledAt: time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC),
		RolledOver:  true,
	}, nil
}

func (f *fakeUseCase) Execute(_ context.Context, req *getAvailableSlots.Request) (*getAvailableSlots.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &getAvailableSlots.Response{
		Date:        req.Date,
		SubjectKind: req.SubjectKind,
		SubjectID:   req.SubjectID,
		Slots:       []getAvailableSlots.Slot{{StartTime: "08:00", DurationMinutes: 30, AvailableSpots: 1, TotalSpots: 1}},
	}, nil
}

func do(uc *fakeUseCase, query string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/subjects/service/svc-1/available-slots"+query, nil)
	r = mux.SetURLVars(r, map[string]string{"kind": "service", "id": "svc-1"})
	w := httptest.NewRecorder()
	NewHandler(uc, logger.NewNop()).Handle(w, r)
	return w
}

func TestHandle_OK(t *testing.T) {
	uc := &fakeUseCase{}
	w := do(uc, "?date=2025-03-02")
	require.Equal(t, http.StatusOK, w.Code)

	var resp AvailableSlotsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "2025-03-02", resp.Date)
	assert.Equal(t, "service", resp.SubjectKind)
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, "08:00", resp.Slots[0].StartTime)
	assert.Equal(t, domain.SubjectService, uc.got.SubjectKind)
	assert.Nil(t, resp.Urgent)
	assert.False(t, uc.urgentSeen)
}

func TestHandle_WithUrgentSlot(t *testing.T) {
	uc := &fakeUseCase{}
	w := do(uc, "?date=2025-03-02&urgent=true")
	require.Equal(t, http.StatusOK, w.Code)

	var resp AvailableSlotsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.Urgent)
	assert.Equal(t, "2025-03-03", resp.Urgent.Date)
	assert.Equal(t, "08:00", resp.Urgent.StartTime)
	assert.Equal(t, "2025-03-03T08:00:00Z", resp.Urgent.ScheduledAt)
	assert.True(t, resp.Urgent.RolledOver)

	failing := &fakeUseCase{urgentErr: getAvailableSlots.ErrInternal}
	assert.Equal(t, http.StatusInternalServerError, do(failing, "?date=2025-03-02&urgent=true").Code)
}

func TestHandle_Errors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, do(&fakeUseCase{}, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(&fakeUseCase{}, "?date=tomorrow").Code)
	assert.Equal(t, http.StatusNotFound, do(&fakeUseCase{err: getAvailableSlots.ErrSubjectNotFound}, "?date=2025-03-02").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(&fakeUseCase{err: getAvailableSlots.ErrInvalidDate}, "?date=2025-03-02").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(&fakeUseCase{err: domain.ErrInvalidWindow}, "?date=2025-03-02").Code)
	assert.Equal(t, http.StatusInternalServerError, do(&fakeUseCase{err: getAvailableSlots.ErrInternal}, "?date=2025-03-02").Code)
}
