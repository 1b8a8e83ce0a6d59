package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// UrgentSlot is the system-assigned date and slot of an urgent request.
type UrgentSlot struct {
	Date time.Time // полночь, в локации now
	Slot types.TimeString
}

// ScheduledAt combines the date and the slot.
func (u UrgentSlot) ScheduledAt() time.Time {
	return u.Slot.On(u.Date)
}

// ResolveUrgentSlot picks the slot for an urgent request made at now.
//
// The target is now+60 minutes. A target strictly after the window's end
// rolls over to tomorrow's opening slot. Otherwise the first slot at or
// after the target is chosen (not the nearest one); when the target falls
// between the last slot and day end the last slot is used.
func ResolveUrgentSlot(now time.Time, w domain.Window) (UrgentSlot, error) {
	if now.IsZero() {
		return UrgentSlot{}, fmt.Errorf("%w: current time is not set", domain.ErrInvalidClock)
	}

	slots, err := WindowSlots(w)
	if err != nil {
		return UrgentSlot{}, err
	}

	today := domain.DateOnly(now)
	target := types.MinutesOf(now) + domain.UrgentLeadMinutes

	if target > w.DayEndMinutes() {
		return UrgentSlot{Date: today.AddDate(0, 0, 1), Slot: slots[0]}, nil
	}

	for _, slot := range slots {
		if slot.Minutes() >= target {
			return UrgentSlot{Date: today, Slot: slot}, nil
		}
	}
	return UrgentSlot{Date: today, Slot: slots[len(slots)-1]}, nil
}

// ParseClock parses an RFC3339 clock value. An unparsable value is an
// environment error, never silently replaced by midnight.
func ParseClock(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty clock value", domain.ErrInvalidClock)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", domain.ErrInvalidClock, err)
	}
	return t, nil
}
