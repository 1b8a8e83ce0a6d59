package get_available_slots

import (
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date        string          `json:"date"`
	SubjectKind string          `json:"subjectKind"`
	SubjectID   string          `json:"subjectId"`
	Slots       []AvailableSlot `json:"slots"`
	Urgent      *UrgentSlot     `json:"urgent,omitempty"`
}

// UrgentSlot ближайший слот для срочного вмешательства
type UrgentSlot struct {
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	ScheduledAt string `json:"scheduledAt"`
	RolledOver  bool   `json:"rolledOver"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	StartTime       string `json:"startTime"`
	DurationMinutes int    `json:"durationMinutes"`
	AvailableSpots  int    `json:"availableSpots"`
	TotalSpots      int    `json:"totalSpots"`
	State           string `json:"state"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			StartTime:       slot.StartTime.String(),
			DurationMinutes: slot.DurationMinutes,
			AvailableSpots:  slot.AvailableSpots,
			TotalSpots:      slot.TotalSpots,
			State:           string(slot.State),
		}
	}

	return &AvailableSlotsResponse{
		Date:        resp.Date.Format(domain.DateFormat),
		SubjectKind: string(resp.SubjectKind),
		SubjectID:   resp.SubjectID,
		Slots:       slots,
	}
}

// FromUrgentPreview конвертирует предпросмотр срочного слота
func FromUrgentPreview(p *getAvailableSlots.UrgentPreview) *UrgentSlot {
	return &UrgentSlot{
		Date:        p.Date.Format(domain.DateFormat),
		StartTime:   p.StartTime.String(),
		ScheduledAt: p.ScheduledAt.Format(time.RFC3339),
		RolledOver:  p.RolledOver,
	}
}

// ToUseCaseRequest создает запрос use case из параметров пути и query
func ToUseCaseRequest(kind, subjectID, dateStr string) (*getAvailableSlots.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		SubjectKind: domain.SubjectKind(strings.ToLower(kind)),
		SubjectID:   subjectID,
		Date:        date,
	}, nil
}
