package domain

import "errors"

var (
	// ErrInvalidWindow возвращается при некорректном окне работы (startHour >= endHour, отрицательные часы)
	ErrInvalidWindow = errors.New("invalid operating window")

	// ErrInvalidClock возвращается, когда текущее время не удалось определить
	ErrInvalidClock = errors.New("invalid clock value")

	// ErrOrdering возвращается, когда дата выезда раньше даты заезда
	ErrOrdering = errors.New("departure date is before entry date")

	// ErrInvalidAmount возвращается при нечисловой или отрицательной сумме завершения
	ErrInvalidAmount = errors.New("invalid completion amount")

	// ErrIllegalTransition возвращается при переходе вне таблицы переходов (не повторять)
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrNotFound возвращается, когда запись не найдена
	ErrNotFound = errors.New("appointment not found")

	// ErrConflict возвращается при потере оптимистичной блокировки (можно перечитать и повторить)
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrAccessDenied возвращается, когда актор не имеет прав на запись
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")
)

// IsRetryable reports whether reloading and retrying may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation reports whether err is a user-correctable validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidWindow) ||
		errors.Is(err, ErrInvalidClock) ||
		errors.Is(err, ErrOrdering) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidInput)
}
