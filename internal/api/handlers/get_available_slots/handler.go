package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

const (
	msgMissingDate     = "дата обязательна"
	msgInvalidDate     = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgSubjectNotFound = "услуга или объявление не найдены"
	msgDateInPast      = "дата в прошлом"
	msgDateTooFar      = "дата слишком далеко в будущем"
)

type Handler struct {
	useCase SlotsUseCase
	logger  Logger
}

func NewHandler(useCase SlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/subjects/{kind}/{id}/available-slots
// Query params: date (required, YYYY-MM-DD), urgent (optional, true - добавить ближайший срочный слот)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, subjectID := vars["kind"], vars["id"]

	// Извлекаем date из query параметров
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /subjects/{kind}/{id}/available-slots - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	useCaseReq, err := ToUseCaseRequest(kind, subjectID, dateStr)
	if err != nil {
		h.logger.Warn("GET /subjects/{kind}/{id}/available-slots - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		h.respondError(w, kind, subjectID, err)
		return
	}

	response := FromUseCaseResponse(result)

	// Срочный слот по запросу
	if r.URL.Query().Get("urgent") == "true" {
		preview, err := h.useCase.PreviewUrgent(r.Context(), useCaseReq.SubjectKind, subjectID)
		if err != nil {
			h.respondError(w, kind, subjectID, err)
			return
		}
		response.Urgent = FromUrgentPreview(preview)
	}

	h.logger.Info("GET /subjects/{kind}/{id}/available-slots - Slots retrieved successfully: %s/%s, date=%s, slots_count=%d",
		kind, subjectID, response.Date, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, response)
}

func (h *Handler) respondError(w http.ResponseWriter, kind, subjectID string, err error) {
	switch {
	case errors.Is(err, getAvailableSlots.ErrSubjectNotFound):
		h.logger.Warn("GET /subjects/{kind}/{id}/available-slots - Subject not found: %s/%s", kind, subjectID)
		handlers.RespondNotFound(w, msgSubjectNotFound)

	case errors.Is(err, getAvailableSlots.ErrInvalidDate):
		handlers.RespondUnprocessable(w, msgDateInPast)

	case errors.Is(err, getAvailableSlots.ErrDateTooFarInFuture):
		handlers.RespondUnprocessable(w, msgDateTooFar)

	default:
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("GET /subjects/{kind}/{id}/available-slots - Rejected: %s/%s, error=%v", kind, subjectID, err)
			return
		}
		h.logger.Error("GET /subjects/{kind}/{id}/available-slots - Failed to get slots: %s/%s, error=%v",
			kind, subjectID, err)
		handlers.RespondInternalError(w)
	}
}
