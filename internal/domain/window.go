package domain

import "fmt"

// Window is a daily operating window in whole hours, both ends inclusive
// on the slot grid (08..19 yields 08:00 through 19:00).
type Window struct {
	StartHour int
	EndHour   int
}

// Validate rejects empty, inverted and out-of-day windows.
func (w Window) Validate() error {
	if w.StartHour < MinHour || w.EndHour < MinHour {
		return fmt.Errorf("%w: hours must not be negative (%d-%d)", ErrInvalidWindow, w.StartHour, w.EndHour)
	}
	if w.StartHour >= w.EndHour {
		return fmt.Errorf("%w: start hour %d must be before end hour %d", ErrInvalidWindow, w.StartHour, w.EndHour)
	}
	if w.EndHour > MaxHour {
		return fmt.Errorf("%w: end hour %d is past %d", ErrInvalidWindow, w.EndHour, MaxHour)
	}
	return nil
}

// StartMinutes is the opening time in minutes since midnight.
func (w Window) StartMinutes() int {
	return w.StartHour * 60
}

// DayEndMinutes is the closing time in minutes since midnight.
func (w Window) DayEndMinutes() int {
	return w.EndHour * 60
}
