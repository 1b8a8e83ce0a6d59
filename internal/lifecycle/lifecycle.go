package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Outcome is the result of a lifecycle operation.
type Outcome struct {
	Appointment domain.Appointment
	From        domain.Status
	To          domain.Status
	// Changed is false when the request was already applied and nothing was written.
	Changed bool
}

// Event builds the status change notification for a changed outcome.
func (o Outcome) Event(actor domain.Actor, at time.Time) domain.StatusChangedEvent {
	a := o.Appointment
	return domain.StatusChangedEvent{
		AppointmentID:     a.ID,
		SubjectKind:       a.Subject.Kind,
		SubjectID:         a.Subject.ID,
		ClientID:          a.ClientID,
		ProviderID:        a.ProviderID,
		From:              domain.ExternalStatusOf(o.From, a.Subject.Kind),
		To:                domain.ExternalStatusOf(o.To, a.Subject.Kind),
		CompletionPending: a.CompletionPending,
		PriceCents:        a.PriceCents,
		ActorID:           actor.UserID,
		ActorRole:         actor.Role,
		OccurredAt:        at,
	}
}

func unchanged(a domain.Appointment) Outcome {
	return Outcome{Appointment: a, From: a.Status, To: a.Status}
}

func changed(before domain.Status, a domain.Appointment) Outcome {
	return Outcome{Appointment: a, From: before, To: a.Status, Changed: true}
}

func illegal(a domain.Appointment, actor domain.Actor, target string) error {
	return fmt.Errorf("%w: %s cannot move appointment %s from %s to %s",
		domain.ErrIllegalTransition, actor.Role, a.ID, a.ExternalStatus(), target)
}

// Transition moves the appointment to target. A COMPLETED target only
// opens the completion (phase one); the status changes when the amount is
// submitted. Re-applying a transition that already holds is a no-op.
func Transition(a domain.Appointment, actor domain.Actor, target domain.Status, now time.Time) (Outcome, error) {
	if target == domain.StatusCompleted {
		return RequestCompletion(a, actor, now)
	}
	if !target.Valid() {
		return Outcome{}, fmt.Errorf("%w: unknown target status %q", domain.ErrInvalidInput, target)
	}

	if a.Status == target && mayReach(actor.Role, target) {
		return unchanged(a), nil
	}
	if !ValidTransition(actor.Role, a.Status, target) {
		return Outcome{}, illegal(a, actor, string(domain.ExternalStatusOf(target, a.Subject.Kind)))
	}

	next := a.Clone()
	before := next.Status
	next.Status = target
	next.CompletionPending = false
	next.CompletionRequestedAt = nil
	next.UpdatedAt = now
	return changed(before, next), nil
}

// RequestCompletion is phase one of completion: staff mark a confirmed
// appointment as awaiting its realized amount. Status stays confirmed.
func RequestCompletion(a domain.Appointment, actor domain.Actor, now time.Time) (Outcome, error) {
	if partyOf(actor.Role) == partyStaff {
		if a.Status == domain.StatusCompleted || (a.Status == domain.StatusConfirmed && a.CompletionPending) {
			return unchanged(a), nil
		}
	}
	if !ValidTransition(actor.Role, a.Status, domain.StatusCompleted) {
		return Outcome{}, illegal(a, actor, string(domain.ExternalCompleted))
	}

	next := a.Clone()
	requestedAt := now
	next.CompletionPending = true
	next.CompletionRequestedAt = &requestedAt
	next.UpdatedAt = now
	return changed(a.Status, next), nil
}

// SubmitAmount is phase two of completion: it sets status COMPLETED and
// priceCents together. The amount is validated before anything else, so a
// malformed amount never touches the record. Submitting the amount already
// recorded is a no-op; a different amount is rejected.
func SubmitAmount(a domain.Appointment, actor domain.Actor, rawAmount string, now time.Time) (Outcome, error) {
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return Outcome{}, err
	}

	if partyOf(actor.Role) != partyStaff {
		return Outcome{}, illegal(a, actor, string(domain.ExternalCompleted))
	}
	if a.Status == domain.StatusCompleted {
		if a.PriceCents != nil && *a.PriceCents == amount {
			return unchanged(a), nil
		}
		return Outcome{}, fmt.Errorf("%w: appointment %s is already completed with a different amount",
			domain.ErrIllegalTransition, a.ID)
	}
	if a.Status != domain.StatusConfirmed || !a.CompletionPending {
		return Outcome{}, fmt.Errorf("%w: completion of appointment %s was not requested",
			domain.ErrIllegalTransition, a.ID)
	}

	next := a.Clone()
	next.Status = domain.StatusCompleted
	next.PriceCents = &amount
	next.CompletionPending = false
	next.CompletionRequestedAt = nil
	next.UpdatedAt = now
	return changed(a.Status, next), nil
}

// Complete runs both completion phases in one call.
func Complete(a domain.Appointment, actor domain.Actor, rawAmount string, now time.Time) (Outcome, error) {
	if _, err := ParseAmount(rawAmount); err != nil {
		return Outcome{}, err
	}

	requested, err := RequestCompletion(a, actor, now)
	if err != nil {
		return Outcome{}, err
	}
	out, err := SubmitAmount(requested.Appointment, actor, rawAmount, now)
	if err != nil {
		return Outcome{}, err
	}
	out.From = a.Status
	out.Changed = out.Changed || requested.Changed
	return out, nil
}

// AttachRating stores the client's feedback on a completed appointment.
// The status is left as is.
func AttachRating(a domain.Appointment, actor domain.Actor, rating domain.Rating, now time.Time) (Outcome, error) {
	if err := rating.Validate(); err != nil {
		return Outcome{}, err
	}
	if partyOf(actor.Role) != partyRequester || a.ClientID != actor.UserID {
		return Outcome{}, fmt.Errorf("%w: only the client can rate appointment %s", domain.ErrIllegalTransition, a.ID)
	}
	if a.Status != domain.StatusCompleted {
		return Outcome{}, fmt.Errorf("%w: appointment %s is %s, only completed appointments can be rated",
			domain.ErrIllegalTransition, a.ID, a.ExternalStatus())
	}

	if a.Rating != nil {
		if sameRating(*a.Rating, rating) {
			return unchanged(a), nil
		}
		return Outcome{}, fmt.Errorf("%w: appointment %s is already rated", domain.ErrIllegalTransition, a.ID)
	}

	next := a.Clone()
	r := rating
	if rating.Comment != nil {
		c := *rating.Comment
		r.Comment = &c
	}
	next.Rating = &r
	next.UpdatedAt = now
	return changed(a.Status, next), nil
}

func sameRating(x, y domain.Rating) bool {
	if x.Score != y.Score {
		return false
	}
	if x.Comment == nil || y.Comment == nil {
		return x.Comment == nil && y.Comment == nil
	}
	return *x.Comment == *y.Comment
}

// CompletionExpired reports whether a pending completion is older than
// expiry. A zero or negative expiry disables the policy.
func CompletionExpired(a domain.Appointment, now time.Time, expiry time.Duration) bool {
	if expiry <= 0 || a.Status != domain.StatusConfirmed || !a.CompletionPending {
		return false
	}
	if a.CompletionRequestedAt == nil {
		return true
	}
	return !now.Before(a.CompletionRequestedAt.Add(expiry))
}

// ExpireCompletion drops a stale pending completion, leaving the appointment
// confirmed. It does nothing when the completion has not expired. Callers
// decide when to run it.
func ExpireCompletion(a domain.Appointment, now time.Time, expiry time.Duration) Outcome {
	if !CompletionExpired(a, now, expiry) {
		return unchanged(a)
	}

	next := a.Clone()
	next.CompletionPending = false
	next.CompletionRequestedAt = nil
	next.UpdatedAt = now
	return changed(a.Status, next)
}

// ParseAmount parses a completion amount in integer cents.
func ParseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: amount is required", domain.ErrInvalidAmount)
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number of cents", domain.ErrInvalidAmount, raw)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: amount must not be negative", domain.ErrInvalidAmount)
	}
	return amount, nil
}
