package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Stay is a validated multi-night booking.
type Stay struct {
	Entry     time.Time
	Departure time.Time
	Nights    int
}

// TotalPrice is the flat per-night price of the stay.
func (s Stay) TotalPrice(nightlyRateCents int64) int64 {
	return TotalPrice(nightlyRateCents, s.Nights)
}

// ValidateStay returns the number of nights between entry and departure.
// A same-day stay counts as one night.
func ValidateStay(entry, departure time.Time) (int, error) {
	if entry.IsZero() || departure.IsZero() {
		return 0, fmt.Errorf("%w: entry and departure dates are required", domain.ErrInvalidInput)
	}
	if departure.Before(entry) {
		return 0, fmt.Errorf("%w: departure %s is before entry %s",
			domain.ErrOrdering, departure.Format(domain.DateFormat), entry.Format(domain.DateFormat))
	}
	return domain.NightsBetween(entry, departure), nil
}

// ParseStay parses YYYY-MM-DD dates in loc and validates them.
func ParseStay(entryRaw, departureRaw string, loc *time.Location) (Stay, error) {
	if loc == nil {
		loc = time.UTC
	}
	entry, err := time.ParseInLocation(domain.DateFormat, strings.TrimSpace(entryRaw), loc)
	if err != nil {
		return Stay{}, fmt.Errorf("%w: invalid entry date: %v", domain.ErrInvalidInput, err)
	}
	departure, err := time.ParseInLocation(domain.DateFormat, strings.TrimSpace(departureRaw), loc)
	if err != nil {
		return Stay{}, fmt.Errorf("%w: invalid departure date: %v", domain.ErrInvalidInput, err)
	}

	nights, err := ValidateStay(entry, departure)
	if err != nil {
		return Stay{}, err
	}
	return Stay{Entry: entry, Departure: departure, Nights: nights}, nil
}

// TotalPrice multiplies the nightly rate by the number of nights.
// No proration and no currency conversion.
func TotalPrice(nightlyRateCents int64, nights int) int64 {
	return nightlyRateCents * int64(nights)
}

// AdjustDeparture advances departure to entry when entry has moved past it,
// so a departure-before-entry pair is never kept. Departure is never moved back.
func AdjustDeparture(entry, departure time.Time) (time.Time, bool) {
	if entry.After(departure) {
		return entry, true
	}
	return departure, false
}
