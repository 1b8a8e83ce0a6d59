package create_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
)

const (
	msgUnauthorized       = "пользователь не определен"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidTime        = "некорректный формат времени начала, ожидается HH:MM"
	msgInvalidDeparture   = "некорректный формат даты выезда, ожидается YYYY-MM-DD"
	msgSlotNotAvailable   = "выбранный временной слот недоступен"
	msgSubjectNotFound    = "услуга или объявление не найдены"
	msgSubjectUnavailable = "услуга или объявление недоступны для записи"
	msgInvalidBookingDate = "некорректная дата записи"
	msgDateTooFar         = "дата записи слишком далеко в будущем"
	msgInvalidTimeSlot    = "время не совпадает с сеткой слотов"
	msgTooLateToBook      = "слишком поздно для записи на этот слот"
)

type Handler struct {
	useCase CreateAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase CreateAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req CreateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Конвертируем HTTP запрос в модель use case (с парсингом даты и времени)
	useCaseReq, err := req.ToUseCaseRequest(actor)
	if err != nil {
		h.logger.Warn("POST /appointments - Failed to parse request: %v", err)
		switch {
		case errors.Is(err, errInvalidTime):
			handlers.RespondBadRequest(w, msgInvalidTime)
		case errors.Is(err, errInvalidDeparture):
			handlers.RespondBadRequest(w, msgInvalidDeparture)
		default:
			handlers.RespondBadRequest(w, msgInvalidDate)
		}
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createAppointment.ErrSlotNotAvailable):
			h.logger.Warn("POST /appointments - Slot not available: user_id=%s, subject=%s", actor.UserID, req.SubjectID)
			handlers.RespondConflict(w, msgSlotNotAvailable, false)

		case errors.Is(err, createAppointment.ErrSubjectNotFound):
			h.logger.Warn("POST /appointments - Subject not found: subject=%s/%s", req.SubjectKind, req.SubjectID)
			handlers.RespondNotFound(w, msgSubjectNotFound)

		case errors.Is(err, createAppointment.ErrSubjectUnavailable):
			h.logger.Warn("POST /appointments - Subject unavailable: subject=%s/%s", req.SubjectKind, req.SubjectID)
			handlers.RespondUnprocessable(w, msgSubjectUnavailable)

		case errors.Is(err, createAppointment.ErrInvalidDate):
			h.logger.Warn("POST /appointments - Invalid date: user_id=%s, date=%s", actor.UserID, req.Date)
			handlers.RespondUnprocessable(w, msgInvalidBookingDate)

		case errors.Is(err, createAppointment.ErrDateTooFarInFuture):
			h.logger.Warn("POST /appointments - Date too far in future: user_id=%s, date=%s", actor.UserID, req.Date)
			handlers.RespondUnprocessable(w, msgDateTooFar)

		case errors.Is(err, createAppointment.ErrInvalidTimeSlot):
			h.logger.Warn("POST /appointments - Invalid time slot: user_id=%s, time=%s", actor.UserID, req.StartTime)
			handlers.RespondUnprocessable(w, msgInvalidTimeSlot)

		case errors.Is(err, createAppointment.ErrTooLateToBook):
			h.logger.Warn("POST /appointments - Too late to book: user_id=%s, time=%s", actor.UserID, req.StartTime)
			handlers.RespondUnprocessable(w, msgTooLateToBook)

		default:
			if handlers.RespondDomainError(w, err) {
				h.logger.Warn("POST /appointments - Rejected: user_id=%s, error=%v", actor.UserID, err)
				return
			}
			h.logger.Error("POST /appointments - Failed to create appointment: user_id=%s, subject=%s, error=%v",
				actor.UserID, req.SubjectID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments - Appointment created successfully: id=%s, user_id=%s, subject=%s",
		result.ID, actor.UserID, req.SubjectID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
