package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

func booked(hour, minute, duration int, status domain.Status) *domain.Appointment {
	return &domain.Appointment{
		ScheduledAt:     time.Date(2025, 3, 1, hour, minute, 0, 0, time.UTC),
		DurationMinutes: duration,
		Status:          status,
	}
}

func TestCountOverlapping_HalfOpen(t *testing.T) {
	slot := time.Date(2025, 3, 1, 11, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		appt *domain.Appointment
		want int
	}{
		{"partial overlap", booked(11, 20, 20, domain.StatusConfirmed), 1},
		{"ends at slot start", booked(11, 0, 30, domain.StatusConfirmed), 0},
		{"starts at slot end", booked(12, 0, 30, domain.StatusAwaitingDecision), 0},
		{"covers slot", booked(11, 0, 90, domain.StatusAwaitingDecision), 1},
		{"rejected is free", booked(11, 30, 30, domain.StatusRejected), 0},
		{"cancelled is free", booked(11, 30, 30, domain.StatusCancelled), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CountOverlapping(slot, 30, []*domain.Appointment{tc.appt}))
		})
	}
}

func TestAvailability(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	slots := []types.TimeString{"10:00", "10:30", "11:00"}
	appts := []*domain.Appointment{
		booked(10, 0, 30, domain.StatusConfirmed),
		booked(10, 0, 60, domain.StatusAwaitingDecision),
		booked(10, 30, 30, domain.StatusConfirmed),
	}

	got := Availability(day, slots, 30, 2, appts)

	assert.Equal(t, 0, got[0].AvailableSpots)
	assert.Equal(t, domain.SlotFull, got[0].State())
	assert.Equal(t, 0, got[1].AvailableSpots)
	assert.Equal(t, 2, got[2].AvailableSpots)
	assert.Equal(t, domain.SlotFree, got[2].State())
	assert.Equal(t, 2, got[2].TotalSpots)

	got = Availability(day, slots, 30, 3, appts)
	assert.Equal(t, domain.SlotPartial, got[0].State())
	assert.Equal(t, 2, got[0].Taken())
}
