package get_urgent_slot

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
)

type UrgentPreviewUseCase interface {
	PreviewUrgent(ctx context.Context, kind domain.SubjectKind, subjectID string) (*getAvailableSlots.UrgentPreview, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
