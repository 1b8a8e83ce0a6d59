package domain

import (
	"fmt"
	"strings"
)

// ExternalStatus is the status vocabulary exposed to clients and collaborators.
type ExternalStatus string

const (
	ExternalPending   ExternalStatus = "PENDING"
	ExternalRequested ExternalStatus = "REQUESTED"
	ExternalConfirmed ExternalStatus = "CONFIRMED"
	ExternalCompleted ExternalStatus = "COMPLETED"
	ExternalRejected  ExternalStatus = "REJECTED"
	ExternalCancelled ExternalStatus = "CANCELLED"
)

// ExternalStatusOf maps an internal status to the public vocabulary.
// Services await decision as PENDING, listings as REQUESTED.
func ExternalStatusOf(s Status, kind SubjectKind) ExternalStatus {
	switch s {
	case StatusAwaitingDecision:
		if kind == SubjectListing {
			return ExternalRequested
		}
		return ExternalPending
	case StatusConfirmed:
		return ExternalConfirmed
	case StatusCompleted:
		return ExternalCompleted
	case StatusRejected:
		return ExternalRejected
	case StatusCancelled:
		return ExternalCancelled
	default:
		return ExternalStatus(strings.ToUpper(string(s)))
	}
}

// ParseStatus accepts both the public vocabulary and internal names.
func ParseStatus(raw string) (Status, error) {
	switch ExternalStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case ExternalPending, ExternalRequested, "AWAITING_DECISION":
		return StatusAwaitingDecision, nil
	case ExternalConfirmed:
		return StatusConfirmed, nil
	case ExternalCompleted:
		return StatusCompleted, nil
	case ExternalRejected:
		return StatusRejected, nil
	case ExternalCancelled:
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, raw)
}
