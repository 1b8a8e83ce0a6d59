package domain

import "github.com/m04kA/SMC-AppointmentService/pkg/types"

// SlotState classifies a grid slot by the capacity left on it.
type SlotState string

const (
	SlotFree    SlotState = "FREE"
	SlotPartial SlotState = "PARTIAL"
	SlotFull    SlotState = "FULL"
)

// AvailableSlot is one position of the slot grid for a given day together
// with the number of active appointments that overlap it.
type AvailableSlot struct {
	StartTime       types.TimeString
	DurationMinutes int
	AvailableSpots  int
	TotalSpots      int
}

// Taken is the number of spots held by overlapping appointments.
func (s AvailableSlot) Taken() int {
	return s.TotalSpots - s.AvailableSpots
}

func (s AvailableSlot) State() SlotState {
	switch {
	case s.AvailableSpots <= 0:
		return SlotFull
	case s.Taken() > 0:
		return SlotPartial
	default:
		return SlotFree
	}
}
