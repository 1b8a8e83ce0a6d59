package create_appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type fakeUseCase struct {
	got *createAppointment.Request
	err error
}

func (f *fakeUseCase) Execute(_ context.Context, req *createAppointment.Request) (*models.AppointmentResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.AppointmentResponse{ID: "appt-1", Status: "PENDING"}, nil
}

var client = domain.Actor{UserID: "client-1", Role: domain.RoleClient}

func do(h *Handler, actor *domain.Actor, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	if actor != nil {
		r = r.WithContext(middleware.WithActor(r.Context(), *actor))
	}
	w := httptest.NewRecorder()
	h.Handle(w, r)
	return w
}

func TestHandle_Created(t *testing.T) {
	uc := &fakeUseCase{}
	h := NewHandler(uc, logger.NewNop())

	w := do(h, &client, `{"subjectKind":"SERVICE","subjectId":"svc-1","date":"2025-03-02","startTime":"10:30"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.AppointmentResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "appt-1", resp.ID)

	require.NotNil(t, uc.got)
	assert.Equal(t, client, uc.got.Actor)
	assert.Equal(t, domain.SubjectService, uc.got.SubjectKind)
	assert.Equal(t, domain.InterventionScheduled, uc.got.InterventionType)
	assert.Equal(t, "10:30", uc.got.StartTime.String())
}

func TestHandle_UrgentIgnoresDateAndTime(t *testing.T) {
	uc := &fakeUseCase{}
	h := NewHandler(uc, logger.NewNop())

	w := do(h, &client, `{"subjectKind":"service","subjectId":"svc-1","interventionType":"urgent","date":"garbage","startTime":"99:99"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, uc.got.Date.IsZero())
	assert.True(t, uc.got.StartTime.IsZero())
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		actor      *domain.Actor
		body       string
		ucErr      error
		wantStatus int
	}{
		{"no actor", nil, `{}`, nil, http.StatusUnauthorized},
		{"bad json", &client, `{`, nil, http.StatusBadRequest},
		{"bad date", &client, `{"subjectKind":"service","subjectId":"s","date":"02.03.2025"}`, nil, http.StatusBadRequest},
		{"bad time", &client, `{"subjectKind":"service","subjectId":"s","date":"2025-03-02","startTime":"ten"}`, nil, http.StatusBadRequest},
		{"slot taken", &client, `{}`, createAppointment.ErrSlotNotAvailable, http.StatusConflict},
		{"subject missing", &client, `{}`, createAppointment.ErrSubjectNotFound, http.StatusNotFound},
		{"off grid", &client, `{}`, fmt.Errorf("%w: 10:15", createAppointment.ErrInvalidTimeSlot), http.StatusUnprocessableEntity},
		{"too late", &client, `{}`, createAppointment.ErrTooLateToBook, http.StatusUnprocessableEntity},
		{"ordering", &client, `{}`, domain.ErrOrdering, http.StatusUnprocessableEntity},
		{"window", &client, `{}`, domain.ErrInvalidWindow, http.StatusUnprocessableEntity},
		{"not a client", &client, `{}`, domain.ErrAccessDenied, http.StatusForbidden},
		{"internal", &client, `{}`, createAppointment.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeUseCase{err: tt.ucErr}, logger.NewNop())
			w := do(h, tt.actor, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
