package complete_appointment

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
)

const (
	msgUnauthorized         = "пользователь не определен"
	msgInvalidAppointmentID = "некорректный ID записи"
	msgInvalidRequestBody   = "некорректное тело запроса"
)

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments/{id}/complete
// Обе фазы завершения одним вызовом
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	var req AmountRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments/{id}/complete - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Complete(r.Context(), actor, id, string(req.Amount))
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("POST /appointments/{id}/complete - Rejected: id=%s, amount=%q, user_id=%s, error=%v", id, req.Amount, actor.UserID, err)
			return
		}
		h.logger.Error("POST /appointments/{id}/complete - Failed: id=%s, error=%v", id, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /appointments/{id}/complete - Appointment completed: id=%s, user_id=%s", id, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
