package get_available_slots

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// validateSubject валидирует ссылку на субъект
func validateSubject(kind domain.SubjectKind, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown subject kind %q", domain.ErrInvalidInput, kind)
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: subjectId is required", domain.ErrInvalidInput)
	}
	return nil
}

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if err := validateSubject(req.SubjectKind, req.SubjectID); err != nil {
		return err
	}

	// Проверяем, что дата не является нулевой
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}

	return nil
}

// validateDate проверяет, что дата подходит для записи
func validateDate(requestDate time.Time, now time.Time, advanceBookingDays int) error {
	// Проверяем, что дата не в прошлом
	if domain.DateOnly(requestDate).Before(domain.DateOnly(now)) {
		return ErrInvalidDate
	}

	// Если advanceBookingDays = 0, нет ограничений на дату
	if advanceBookingDays == 0 {
		return nil
	}

	maxDate := domain.DateOnly(now).AddDate(0, 0, advanceBookingDays)
	if domain.DateOnly(requestDate).After(maxDate) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, advanceBookingDays)
	}

	return nil
}

// filterByNotice оставляет слоты, начинающиеся не раньше now + minBookingNoticeMinutes
// Для будущих дат возвращает слоты без изменений
func filterByNotice(slots []types.TimeString, day time.Time, now time.Time, minBookingNoticeMinutes int) []types.TimeString {
	earliest := now.Add(time.Duration(minBookingNoticeMinutes) * time.Minute)

	out := make([]types.TimeString, 0, len(slots))
	for _, slot := range slots {
		if !slot.On(day).Before(earliest) {
			out = append(out, slot)
		}
	}
	return out
}

// inLocation переносит календарную дату в часовой пояс loc
func inLocation(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
