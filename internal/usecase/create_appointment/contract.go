package create_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/catalog"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, appt *domain.Appointment) (*domain.Appointment, error)
	Query(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error)
}

// ScheduleResolver возвращает действующую конфигурацию расписания
type ScheduleResolver interface {
	Resolve(ctx context.Context, ownerID string, subjectID *string) (*domain.ScheduleConfig, error)
}

// CatalogClient интерфейс клиента каталога услуг и объявлений
type CatalogClient interface {
	GetSubject(ctx context.Context, kind domain.SubjectKind, id string) (*catalog.Subject, error)
}

// CalendarInvalidator сбрасывает кэш календаря владельца
type CalendarInvalidator interface {
	Invalidate(ctx context.Context, ownerID string, dates ...time.Time) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// IDGenerator выдает идентификаторы новых записей
type IDGenerator func() string

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct {
	Location *time.Location
}

// Now возвращает текущее время в часовом поясе расписания
func (p *RealTimeProvider) Now() time.Time {
	if p.Location == nil {
		return time.Now()
	}
	return time.Now().In(p.Location)
}
