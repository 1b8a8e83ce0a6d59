package list_schedule_configs

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
)

const (
	msgUnauthorized   = "пользователь не определен"
	msgInvalidOwnerID = "некорректный ID владельца"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/owners/{ownerId}/schedule-configs
// Все сохраненные уровни конфигурации владельца (владелец и администратор)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	ownerID := strings.TrimSpace(mux.Vars(r)["ownerId"])
	if ownerID == "" {
		handlers.RespondBadRequest(w, msgInvalidOwnerID)
		return
	}

	result, err := h.service.ListByOwner(r.Context(), actor, ownerID)
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("GET /owners/{id}/schedule-configs - Rejected: owner_id=%s, user_id=%s, error=%v", ownerID, actor.UserID, err)
			return
		}
		h.logger.Error("GET /owners/{id}/schedule-configs - Failed: owner_id=%s, error=%v", ownerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /owners/{id}/schedule-configs - Configs retrieved: owner_id=%s, count=%d", ownerID, len(result.Configs))
	handlers.RespondJSON(w, http.StatusOK, result)
}
