package quote_stay

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/catalog"
)

// CatalogClient интерфейс клиента каталога (цена объявления за ночь)
type CatalogClient interface {
	GetSubject(ctx context.Context, kind domain.SubjectKind, id string) (*catalog.Subject, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
