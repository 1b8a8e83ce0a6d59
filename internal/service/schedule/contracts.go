package schedule

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ConfigRepository интерфейс репозитория конфигурации расписания
type ConfigRepository interface {
	Create(ctx context.Context, cfg *domain.ScheduleConfig) (*domain.ScheduleConfig, error)
	GetByOwnerAndSubject(ctx context.Context, ownerID string, subjectID *string) (*domain.ScheduleConfig, error)
	GetWithHierarchy(ctx context.Context, ownerID string, subjectID *string) (*domain.ScheduleConfig, error)
	GetAllByOwner(ctx context.Context, ownerID string) ([]*domain.ScheduleConfig, error)
	Update(ctx context.Context, id int64, cfg *domain.ScheduleConfig) (*domain.ScheduleConfig, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
