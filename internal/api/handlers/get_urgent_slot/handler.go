package get_urgent_slot

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

const (
	msgSubjectNotFound = "услуга или объявление не найдены"
)

type Handler struct {
	useCase UrgentPreviewUseCase
	logger  Logger
}

func NewHandler(useCase UrgentPreviewUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/subjects/{kind}/{id}/urgent-slot
// Слот, который получит срочная заявка, если создать ее сейчас
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := domain.SubjectKind(strings.ToLower(vars["kind"]))
	subjectID := vars["id"]

	result, err := h.useCase.PreviewUrgent(r.Context(), kind, subjectID)
	if err != nil {
		if errors.Is(err, getAvailableSlots.ErrSubjectNotFound) {
			handlers.RespondNotFound(w, msgSubjectNotFound)
			return
		}
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("GET /subjects/{kind}/{id}/urgent-slot - Rejected: %s/%s, error=%v", kind, subjectID, err)
			return
		}
		h.logger.Error("GET /subjects/{kind}/{id}/urgent-slot - Failed: %s/%s, error=%v", kind, subjectID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /subjects/{kind}/{id}/urgent-slot - %s/%s resolves to %s %s",
		kind, subjectID, result.Date.Format(domain.DateFormat), result.StartTime)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
