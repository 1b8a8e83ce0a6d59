package scheduling

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// CountOverlapping counts live appointments whose interval intersects
// [start, start+durationMinutes). Intervals are half-open, so an
// appointment ending exactly at start does not overlap.
func CountOverlapping(start time.Time, durationMinutes int, appts []*domain.Appointment) int {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	count := 0
	for _, a := range appts {
		if a.Status.IsTerminal() {
			continue
		}
		aEnd := a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
		if a.ScheduledAt.Before(end) && aEnd.After(start) {
			count++
		}
	}
	return count
}

// Availability builds the occupancy of each slot of day.
func Availability(day time.Time, slots []types.TimeString, durationMinutes, capacity int, appts []*domain.Appointment) []domain.AvailableSlot {
	out := make([]domain.AvailableSlot, len(slots))
	for i, slot := range slots {
		free := capacity - CountOverlapping(slot.On(day), durationMinutes, appts)
		if free < 0 {
			free = 0
		}
		out[i] = domain.AvailableSlot{
			StartTime:       slot,
			DurationMinutes: durationMinutes,
			AvailableSpots:  free,
			TotalSpots:      capacity,
		}
	}
	return out
}
