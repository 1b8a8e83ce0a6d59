package domain

// Default schedule configuration values
const (
	DefaultStartHour               = 8
	DefaultEndHour                 = 19
	DefaultMaxConcurrentBookings   = 1
	DefaultAdvanceBookingDays      = 0  // 0 = unlimited
	DefaultMinBookingNoticeMinutes = 0  // срочные заявки сами добавляют час
	DefaultCompletionExpiryMinutes = 0  // 0 = подтверждение суммы не истекает
	DefaultServiceDurationMinutes  = 30 // если каталог не указал длительность
)

// Slot grid constants
const (
	SlotCadenceMinutes = 30
	UrgentLeadMinutes  = 60
	MinutesPerNight    = 24 * 60
)

// Business validation constants
const (
	MinHour                    = 0
	MaxHour                    = 23
	MinConcurrentBookings      = 1
	MaxConcurrentBookings      = 100
	MinAdvanceBookingDays      = 0
	MaxAdvanceBookingDays      = 365 // 1 year
	MinBookingNoticeMinutes    = 0
	MaxBookingNoticeMinutes    = 10080 // 1 week
	MaxCompletionExpiryMinutes = 43200 // 30 days
	MaxNotesLength             = 500
	MinRatingScore             = 1
	MaxRatingScore             = 5
	MaxRatingCommentLength     = 1000
)

// Time format constants
const (
	TimeFormat  = "15:04"      // HH:MM
	DateFormat  = "2006-01-02" // YYYY-MM-DD
	MonthFormat = "2006-01"    // YYYY-MM
)

// InactiveStatuses статусы, из которых переходов больше нет
// Используется для фильтрации при подсчёте занятости слотов
var InactiveStatuses = []Status{
	StatusRejected,
	StatusCancelled,
}

// ActiveStatuses статусы, занимающие слот в календаре
var ActiveStatuses = []Status{
	StatusAwaitingDecision,
	StatusConfirmed,
	StatusCompleted,
}
