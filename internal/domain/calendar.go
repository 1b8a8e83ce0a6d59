package domain

import (
	"fmt"
	"time"
)

// CalendarDayKey groups appointments by day as "year-month-day" with a
// zero-based month (March 1st 2025 is "2025-2-1"). It is always derived
// from ScheduledAt and never stored as a source of truth.
type CalendarDayKey string

// DayKeyOf projects t onto its calendar day key.
func DayKeyOf(t time.Time) CalendarDayKey {
	return NewDayKey(t.Year(), t.Month(), t.Day())
}

// NewDayKey builds a key from a calendar date.
func NewDayKey(year int, month time.Month, day int) CalendarDayKey {
	return CalendarDayKey(fmt.Sprintf("%d-%d-%d", year, int(month)-1, day))
}

// StatusChangedEvent is emitted after a committed status change.
type StatusChangedEvent struct {
	AppointmentID string         `json:"appointmentId"`
	SubjectKind   SubjectKind    `json:"subjectKind"`
	SubjectID     string         `json:"subjectId"`
	ClientID      string         `json:"clientId"`
	ProviderID    string         `json:"providerId"`
	From          ExternalStatus `json:"from"`
	To            ExternalStatus `json:"to"`
	// CompletionPending is true when phase one of completion was recorded.
	CompletionPending bool      `json:"completionPending"`
	PriceCents        *int64    `json:"priceCents,omitempty"`
	ActorID           string    `json:"actorId"`
	ActorRole         Role      `json:"actorRole"`
	OccurredAt        time.Time `json:"occurredAt"`
}
