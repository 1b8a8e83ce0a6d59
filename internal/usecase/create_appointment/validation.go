package create_appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	// Записи создает только клиент
	if !req.Actor.Role.IsRequester() || req.Actor.UserID == "" {
		return fmt.Errorf("%w: only clients can request appointments", domain.ErrAccessDenied)
	}

	if !req.SubjectKind.Valid() {
		return fmt.Errorf("%w: unknown subject kind %q", domain.ErrInvalidInput, req.SubjectKind)
	}

	if strings.TrimSpace(req.SubjectID) == "" {
		return fmt.Errorf("%w: subjectId is required", domain.ErrInvalidInput)
	}

	if !req.InterventionType.Valid() {
		return fmt.Errorf("%w: unknown intervention type %q", domain.ErrInvalidInput, req.InterventionType)
	}

	if req.DepartureDate != nil && req.SubjectKind != domain.SubjectListing {
		return fmt.Errorf("%w: departureDate is only allowed for listings", domain.ErrInvalidInput)
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must be at most %d characters", domain.ErrInvalidInput, domain.MaxNotesLength)
	}

	// Для срочной заявки дата и время вычисляются системой
	if req.IsUrgent() {
		return nil
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}

	// Для объявления время заезда необязательно
	if req.StartTime.IsZero() {
		if req.SubjectKind == domain.SubjectService {
			return fmt.Errorf("%w: startTime is required", domain.ErrInvalidInput)
		}
		return nil
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", domain.ErrInvalidInput, err)
	}

	return nil
}

// validateDate проверяет, что дата подходит для записи
func validateDate(date time.Time, now time.Time, advanceBookingDays int) error {
	// Проверяем, что дата не в прошлом
	if domain.DateOnly(date).Before(domain.DateOnly(now)) {
		return ErrInvalidDate
	}

	// Если advanceBookingDays = 0, нет ограничений на дату
	if advanceBookingDays == 0 {
		return nil
	}

	maxDate := domain.DateOnly(now).AddDate(0, 0, advanceBookingDays)
	if domain.DateOnly(date).After(maxDate) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, advanceBookingDays)
	}

	return nil
}

// validateNotice проверяет, что запись не нарушает minBookingNoticeMinutes
func validateNotice(start time.Time, now time.Time, minBookingNoticeMinutes int) error {
	earliest := now.Add(time.Duration(minBookingNoticeMinutes) * time.Minute)
	if start.Before(earliest) {
		return fmt.Errorf("%w: must book at least %d minutes in advance", ErrTooLateToBook, minBookingNoticeMinutes)
	}
	return nil
}

// inLocation переносит календарную дату в часовой пояс loc
func inLocation(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
