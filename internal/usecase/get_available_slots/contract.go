package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/catalog"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	// Query получает записи по фильтру (субъект, период, статусы)
	Query(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error)
}

// ScheduleResolver возвращает действующую конфигурацию расписания с учетом иерархии
type ScheduleResolver interface {
	Resolve(ctx context.Context, ownerID string, subjectID *string) (*domain.ScheduleConfig, error)
}

// CatalogClient интерфейс клиента каталога услуг и объявлений
type CatalogClient interface {
	GetSubject(ctx context.Context, kind domain.SubjectKind, id string) (*catalog.Subject, error)
}

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
