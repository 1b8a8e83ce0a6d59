package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Status is the internal lifecycle state of an appointment.
// Awaiting decision replaces the PENDING/REQUESTED pair; the external
// vocabulary is restored by ExternalStatusOf using the subject kind.
type Status string

const (
	StatusAwaitingDecision Status = "awaiting_decision"
	StatusConfirmed        Status = "confirmed"
	StatusCompleted        Status = "completed"
	StatusRejected         Status = "rejected"
	StatusCancelled        Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAwaitingDecision, StatusConfirmed, StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for states without outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// SubjectKind tells which kind of bookable entity an appointment targets.
type SubjectKind string

const (
	SubjectService SubjectKind = "service"
	SubjectListing SubjectKind = "listing"
)

// Valid reports whether k is a known subject kind.
func (k SubjectKind) Valid() bool {
	return k == SubjectService || k == SubjectListing
}

// InterventionType distinguishes urgent, system-scheduled requests from user-chosen slots.
type InterventionType string

const (
	InterventionUrgent    InterventionType = "URGENT"
	InterventionScheduled InterventionType = "SCHEDULED"
)

// Valid reports whether t is a known intervention type.
func (t InterventionType) Valid() bool {
	return t == InterventionUrgent || t == InterventionScheduled
}

// Subject references exactly one Service or Listing.
type Subject struct {
	Kind SubjectKind
	ID   string
}

// Rating is the client's post-completion feedback.
type Rating struct {
	Score   int
	Comment *string
}

// Validate checks the score range.
func (r Rating) Validate() error {
	if r.Score < MinRatingScore || r.Score > MaxRatingScore {
		return fmt.Errorf("%w: rating score must be between %d and %d", ErrInvalidInput, MinRatingScore, MaxRatingScore)
	}
	if r.Comment != nil && len(*r.Comment) > MaxRatingCommentLength {
		return fmt.Errorf("%w: rating comment is too long", ErrInvalidInput)
	}
	return nil
}

// Appointment represents a booking of a service slot or a listing stay.
type Appointment struct {
	ID         string
	Subject    Subject
	ClientID   string
	ProviderID string // владелец субъекта (provider/seller)

	ScheduledAt     time.Time // дата + время начала
	DurationMinutes int
	DepartureDate   *time.Time // только для listing

	InterventionType InterventionType

	BasePriceCents int64  // цена субъекта (для listing - цена за ночь)
	PriceCents     *int64 // фактическая сумма, заполняется только при COMPLETED

	Notes  *string
	Rating *Rating

	Status                Status
	CompletionPending     bool
	CompletionRequestedAt *time.Time

	// Version is the optimistic concurrency token, bumped on every save.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (a Appointment) Clone() Appointment {
	c := a
	if a.DepartureDate != nil {
		d := *a.DepartureDate
		c.DepartureDate = &d
	}
	if a.PriceCents != nil {
		p := *a.PriceCents
		c.PriceCents = &p
	}
	if a.Notes != nil {
		n := *a.Notes
		c.Notes = &n
	}
	if a.Rating != nil {
		r := *a.Rating
		if a.Rating.Comment != nil {
			cm := *a.Rating.Comment
			r.Comment = &cm
		}
		c.Rating = &r
	}
	if a.CompletionRequestedAt != nil {
		t := *a.CompletionRequestedAt
		c.CompletionRequestedAt = &t
	}
	return c
}

// StartTime returns the wall-clock start slot.
func (a *Appointment) StartTime() types.TimeString {
	return types.NewTimeString(a.ScheduledAt)
}

// Date returns the scheduled calendar date at midnight.
func (a *Appointment) Date() time.Time {
	return DateOnly(a.ScheduledAt)
}

// ExternalStatus returns the status in the public vocabulary.
func (a *Appointment) ExternalStatus() ExternalStatus {
	return ExternalStatusOf(a.Status, a.Subject.Kind)
}

// IsActive returns true while the appointment can still change status.
func (a *Appointment) IsActive() bool {
	return !a.Status.IsTerminal() && a.Status != StatusCompleted
}

// IsStay returns true for listing appointments with a departure date.
func (a *Appointment) IsStay() bool {
	return a.Subject.Kind == SubjectListing && a.DepartureDate != nil
}

// Nights returns the number of booked nights for a stay, 0 otherwise.
func (a *Appointment) Nights() int {
	if !a.IsStay() {
		return 0
	}
	return NightsBetween(a.Date(), DateOnly(*a.DepartureDate))
}

// Validate checks the structural invariants of the record.
func (a *Appointment) Validate() error {
	if !a.Subject.Kind.Valid() || a.Subject.ID == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if a.ClientID == "" {
		return fmt.Errorf("%w: client is required", ErrInvalidInput)
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("%w: scheduledAt is required", ErrInvalidInput)
	}
	if !a.InterventionType.Valid() {
		return fmt.Errorf("%w: unknown intervention type %q", ErrInvalidInput, a.InterventionType)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, a.Status)
	}
	if a.DepartureDate != nil {
		if a.Subject.Kind != SubjectListing {
			return fmt.Errorf("%w: departureDate is only allowed for listings", ErrInvalidInput)
		}
		if DateOnly(*a.DepartureDate).Before(a.Date()) {
			return ErrOrdering
		}
	}
	if (a.PriceCents != nil) != (a.Status == StatusCompleted) {
		return fmt.Errorf("%w: priceCents must be set exactly when completed", ErrInvalidInput)
	}
	if a.CompletionPending && a.Status != StatusConfirmed {
		return fmt.Errorf("%w: completion can only be pending on a confirmed appointment", ErrInvalidInput)
	}
	return nil
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NightsBetween returns max(1, ceil(departure - entry in days)).
// Wall clocks are compared in UTC so a DST shift does not add a night.
func NightsBetween(entry, departure time.Time) int {
	days := wallClockUTC(departure).Sub(wallClockUTC(entry)).Hours() / 24
	nights := int(math.Ceil(days))
	if nights < 1 {
		return 1
	}
	return nights
}

func wallClockUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// AppointmentFilter selects appointments for list and calendar queries.
type AppointmentFilter struct {
	OwnerID         *string    // provider/seller (опционально)
	ClientID        *string    // клиент (опционально)
	SubjectID       *string    // конкретный субъект (опционально)
	From            *time.Time // начало периода, включительно
	To              *time.Time // конец периода, не включительно
	Statuses        []Status   // фильтр по статусам (опционально)
	IncludeInactive bool       // включать ли rejected/cancelled
}

// CompletionCursor points past the last pending completion returned by a page.
type CompletionCursor struct {
	RequestedAt time.Time
	ID          string
}

// CursorAfter returns the cursor positioned on a, or nil when a has no
// completion request.
func CursorAfter(a *Appointment) *CompletionCursor {
	if a == nil || a.CompletionRequestedAt == nil {
		return nil
	}
	return &CompletionCursor{RequestedAt: *a.CompletionRequestedAt, ID: a.ID}
}
