// Package lifecycle is the appointment state machine. Every operation takes
// the appointment by value, the acting party explicitly and the current
// time, and returns a new copy; the input is never mutated, so a failed
// call leaves the caller's record exactly as it was.
package lifecycle

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type party int

const (
	partyNone party = iota
	partyRequester
	partyStaff
)

func partyOf(role domain.Role) party {
	switch {
	case role.IsRequester():
		return partyRequester
	case role.IsStaff():
		return partyStaff
	}
	return partyNone
}

// transitionTable lists the targets each party may move an appointment to
// from a given status. Completed, rejected and cancelled have no entries.
var transitionTable = map[domain.Status]map[party][]domain.Status{
	domain.StatusAwaitingDecision: {
		partyRequester: {domain.StatusRejected},
		partyStaff:     {domain.StatusConfirmed, domain.StatusRejected},
	},
	domain.StatusConfirmed: {
		partyRequester: {domain.StatusRejected},
		partyStaff:     {domain.StatusCompleted, domain.StatusRejected},
	},
}

// ValidTransition reports whether role may move an appointment from one status to another.
func ValidTransition(role domain.Role, from, to domain.Status) bool {
	for _, allowed := range transitionTable[from][partyOf(role)] {
		if allowed == to {
			return true
		}
	}
	return false
}

// mayReach reports whether role can produce target from any status. It
// decides whether a repeated request is a retry or a foreign rule violation.
func mayReach(role domain.Role, target domain.Status) bool {
	p := partyOf(role)
	for _, byParty := range transitionTable {
		for _, allowed := range byParty[p] {
			if allowed == target {
				return true
			}
		}
	}
	return false
}
