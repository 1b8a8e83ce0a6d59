package get_urgent_slot

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

// UrgentSlotResponse HTTP response model
type UrgentSlotResponse struct {
	SubjectKind string `json:"subjectKind"`
	SubjectID   string `json:"subjectId"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	ScheduledAt string `json:"scheduledAt"`
	RolledOver  bool   `json:"rolledOver"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(p *getAvailableSlots.UrgentPreview) *UrgentSlotResponse {
	return &UrgentSlotResponse{
		SubjectKind: string(p.SubjectKind),
		SubjectID:   p.SubjectID,
		Date:        p.Date.Format(domain.DateFormat),
		StartTime:   p.StartTime.String(),
		ScheduledAt: p.ScheduledAt.Format(time.RFC3339),
		RolledOver:  p.RolledOver,
	}
}
