// Package scheduling holds the pure time arithmetic of booking: the slot
// grid, urgent slot resolution and stay validation. Nothing here does I/O.
package scheduling

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// GenerateSlots returns HH:00 and HH:30 for every hour in [startHour, endHour)
// followed by endHour:00. Each call builds a fresh slice.
func GenerateSlots(startHour, endHour int) ([]types.TimeString, error) {
	return WindowSlots(domain.Window{StartHour: startHour, EndHour: endHour})
}

// WindowSlots is GenerateSlots for a Window.
func WindowSlots(w domain.Window) ([]types.TimeString, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	slots := make([]types.TimeString, 0, (w.EndHour-w.StartHour)*2+1)
	for m := w.StartMinutes(); m < w.DayEndMinutes(); m += domain.SlotCadenceMinutes {
		slot, err := types.FromMinutes(m)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	// Граница окна входит в сетку: 19:00 есть, 19:30 нет
	last, err := types.FromMinutes(w.DayEndMinutes())
	if err != nil {
		return nil, err
	}
	return append(slots, last), nil
}

// IsOnGrid reports whether slot belongs to the window's grid.
func IsOnGrid(w domain.Window, slot types.TimeString) bool {
	m := slot.Minutes()
	if m < 0 || w.Validate() != nil {
		return false
	}
	if m < w.StartMinutes() || m > w.DayEndMinutes() {
		return false
	}
	return (m-w.StartMinutes())%domain.SlotCadenceMinutes == 0
}
