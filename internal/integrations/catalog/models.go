package catalog

import "github.com/m04kA/SMC-AppointmentService/internal/domain"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Subject модель услуги или объявления из каталога
type Subject struct {
	ID              string             `json:"id"`
	Kind            domain.SubjectKind `json:"-"`
	OwnerID         string             `json:"owner_id"`
	Name            string             `json:"name"`
	PriceCents      int64              `json:"price_cents"` // для объявлений - цена за ночь
	DurationMinutes int                `json:"duration_minutes"`
	Active          bool               `json:"active"`
}

// Duration возвращает длительность услуги, либо значение по умолчанию
func (s *Subject) Duration() int {
	if s.DurationMinutes > 0 {
		return s.DurationMinutes
	}
	return domain.DefaultServiceDurationMinutes
}
