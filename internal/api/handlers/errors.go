package handlers

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	msgValidation        = "некорректные данные: "
	msgIllegalTransition = "переход статуса недопустим"
	msgConflict          = "запись была изменена параллельно, перечитайте и повторите"
	msgNotFound          = "запись не найдена"
	msgAccessDenied      = "доступ запрещен"
)

// RespondDomainError отображает доменные ошибки в HTTP статусы
// Возвращает false, если ошибка не доменная и ее нужно обработать вызывающему
//
// 422 - ошибки валидации, 409 - недопустимый переход и конфликт версий
// (retryable только для конфликта), 404 - не найдено, 403 - нет доступа
func RespondDomainError(w http.ResponseWriter, err error) bool {
	switch {
	case domain.IsValidation(err):
		RespondUnprocessable(w, msgValidation+err.Error())
	case errors.Is(err, domain.ErrIllegalTransition):
		RespondConflict(w, msgIllegalTransition, false)
	case domain.IsRetryable(err):
		RespondConflict(w, msgConflict, true)
	case errors.Is(err, domain.ErrNotFound):
		RespondNotFound(w, msgNotFound)
	case errors.Is(err, domain.ErrAccessDenied):
		RespondForbidden(w, msgAccessDenied)
	default:
		return false
	}
	return true
}
