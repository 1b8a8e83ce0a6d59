package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	SubjectKind domain.SubjectKind // service или listing
	SubjectID   string             // ID услуги или объявления
	Date        time.Time          // Дата для получения слотов (без времени)
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date        time.Time          // Дата, на которую запрашивались слоты
	SubjectKind domain.SubjectKind // вид субъекта
	SubjectID   string             // ID субъекта
	Slots       []Slot             // Список слотов окна
}

// Slot модель временного слота
type Slot struct {
	StartTime       types.TimeString // Время начала слота (например, "10:00")
	DurationMinutes int              // Длительность записи в минутах
	AvailableSpots  int              // Количество свободных мест
	TotalSpots      int              // Общее количество мест
	State           domain.SlotState // FREE, PARTIAL или FULL
}

// UrgentPreview слот, который получит срочная заявка, созданная сейчас
type UrgentPreview struct {
	SubjectKind domain.SubjectKind
	SubjectID   string
	Date        time.Time
	StartTime   types.TimeString
	ScheduledAt time.Time
	RolledOver  bool // слот перенесен на следующий день
}

func fromAvailable(slots []domain.AvailableSlot) []Slot {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		out[i] = Slot{
			StartTime:       s.StartTime,
			DurationMinutes: s.DurationMinutes,
			AvailableSpots:  s.AvailableSpots,
			TotalSpots:      s.TotalSpots,
			State:           s.State(),
		}
	}
	return out
}
