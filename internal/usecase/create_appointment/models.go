package create_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на создание записи
type Request struct {
	Actor            domain.Actor            // кто создает запись
	SubjectKind      domain.SubjectKind      // service или listing
	SubjectID        string                  // ID услуги или объявления
	InterventionType domain.InterventionType // URGENT или SCHEDULED
	Date             time.Time               // дата (для listing - заезд); игнорируется для URGENT
	StartTime        types.TimeString        // время слота; игнорируется для URGENT
	DepartureDate    *time.Time              // дата выезда, только для listing
	Notes            *string                 // заметки (опционально)
}

// IsUrgent возвращает true для срочной заявки
func (r *Request) IsUrgent() bool {
	return r.InterventionType == domain.InterventionUrgent
}
