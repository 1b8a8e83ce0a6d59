package update_schedule_config

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

const (
	msgUnauthorized       = "пользователь не определен"
	msgInvalidOwnerID     = "некорректный ID владельца"
	msgInvalidRequestBody = "некорректное тело запроса"
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

// Handle PUT /api/v1/owners/{ownerId}/schedule-config
// Частичное обновление: меняются только переданные поля, subjectId выбирает уровень
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

	var req models.UpsertConfigRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /owners/{id}/schedule-config - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Upsert(r.Context(), actor, ownerID, &req)
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("PUT /owners/{id}/schedule-config - Rejected: owner_id=%s, user_id=%s, error=%v", ownerID, actor.UserID, err)
			return
		}
		h.logger.Error("PUT /owners/{id}/schedule-config - Failed to save config: owner_id=%s, error=%v", ownerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("PUT /owners/{id}/schedule-config - Config saved: owner_id=%s, id=%d, level=%s", ownerID, result.ID, result.Level)
	handlers.RespondJSON(w, http.StatusOK, result)
}
