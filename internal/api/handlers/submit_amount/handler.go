package submit_amount

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

// Handle PUT /api/v1/appointments/{id}/completion
// Вторая фаза завершения: сумма фиксируется вместе со статусом COMPLETED
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
		h.logger.Warn("PUT /appointments/{id}/completion - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.SubmitAmount(r.Context(), actor, id, string(req.Amount))
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("PUT /appointments/{id}/completion - Rejected: id=%s, amount=%q, user_id=%s, error=%v", id, req.Amount, actor.UserID, err)
			return
		}
		h.logger.Error("PUT /appointments/{id}/completion - Failed: id=%s, error=%v", id, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("PUT /appointments/{id}/completion - Amount submitted: id=%s, user_id=%s", id, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
