package get_owner_calendar

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	msgUnauthorized   = "пользователь не определен"
	msgInvalidOwnerID = "некорректный ID владельца"
	msgInvalidMonth   = "некорректный месяц, ожидается YYYY-MM"
	msgInvalidSorted  = "некорректное значение sorted"
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

// Handle GET /api/v1/owners/{ownerId}/calendar
// Query params: month (YYYY-MM, по умолчанию текущий), sorted (bool, сортировка записей дня по времени)
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

	month := time.Now()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.Parse(domain.MonthFormat, raw)
		if err != nil {
			h.logger.Warn("GET /owners/{id}/calendar - Invalid month %q: %v", raw, err)
			handlers.RespondBadRequest(w, msgInvalidMonth)
			return
		}
		month = parsed
	}

	sorted := false
	if raw := r.URL.Query().Get("sorted"); raw != "" {
		var err error
		if sorted, err = strconv.ParseBool(raw); err != nil {
			handlers.RespondBadRequest(w, msgInvalidSorted)
			return
		}
	}

	result, err := h.service.Calendar(r.Context(), actor, ownerID, month, sorted)
	if err != nil {
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("GET /owners/{id}/calendar - Rejected: owner_id=%s, user_id=%s, error=%v", ownerID, actor.UserID, err)
			return
		}
		h.logger.Error("GET /owners/{id}/calendar - Failed to build calendar: owner_id=%s, error=%v", ownerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /owners/{id}/calendar - Calendar retrieved: owner_id=%s, month=%s, days=%d, cached=%t",
		ownerID, result.Month, len(result.Days), result.Cached)
	handlers.RespondJSON(w, http.StatusOK, result)
}
