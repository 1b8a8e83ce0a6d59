package get_schedule_config

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

const (
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

// Handle GET /api/v1/owners/{ownerId}/schedule-config
// Query params: subjectId (опционально)
// Публичный endpoint - без авторизации, при отсутствии конфигурации возвращаются значения по умолчанию
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ownerID := strings.TrimSpace(mux.Vars(r)["ownerId"])
	if ownerID == "" {
		handlers.RespondBadRequest(w, msgInvalidOwnerID)
		return
	}

	var subjectID *string
	if raw := strings.TrimSpace(r.URL.Query().Get("subjectId")); raw != "" {
		subjectID = &raw
	}

	result, err := h.service.Get(r.Context(), ownerID, subjectID)
	if err != nil {
		h.logger.Error("GET /owners/{id}/schedule-config - Failed to get config: owner_id=%s, error=%v", ownerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /owners/{id}/schedule-config - Config retrieved: owner_id=%s, level=%s", ownerID, result.Level)
	handlers.RespondJSON(w, http.StatusOK, result)
}
