package appointments

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	Save(ctx context.Context, appt *domain.Appointment, expectedStatus domain.Status) error
	Query(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error)
	ListPendingCompletions(ctx context.Context, requestedBefore time.Time, after *domain.CompletionCursor, limit uint64) ([]*domain.Appointment, error)
}

// ScheduleResolver возвращает действующую конфигурацию расписания
type ScheduleResolver interface {
	Resolve(ctx context.Context, ownerID string, subjectID *string) (*domain.ScheduleConfig, error)
}

// CalendarCache кэш месячных индексов календаря
type CalendarCache interface {
	Get(ctx context.Context, ownerID string, month time.Time) (calendar.Index, bool, error)
	Set(ctx context.Context, ownerID string, month time.Time, idx calendar.Index) error
	Invalidate(ctx context.Context, ownerID string, dates ...time.Time) error
}

// EventPublisher публикует события смены статуса
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.StatusChangedEvent) error
}

// TransitionRecorder считает попытки переходов
type TransitionRecorder interface {
	ObserveTransition(target, outcome string)
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
