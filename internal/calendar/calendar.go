// Package calendar groups appointments by calendar day for month views.
package calendar

import (
	"sort"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Index maps a day to its appointments. Days without appointments are absent.
type Index map[domain.CalendarDayKey][]domain.Appointment

// Day returns the appointments of key, or an empty slice.
func (idx Index) Day(key domain.CalendarDayKey) []domain.Appointment {
	if appts, ok := idx[key]; ok {
		return appts
	}
	return []domain.Appointment{}
}

// Len returns the number of appointments across all days.
func (idx Index) Len() int {
	n := 0
	for _, appts := range idx {
		n += len(appts)
	}
	return n
}

type options struct {
	timeSorted bool
}

// Option configures GroupByDay.
type Option func(*options)

// WithTimeSorted orders every bucket by scheduled time instead of input order.
func WithTimeSorted() Option {
	return func(o *options) {
		o.timeSorted = true
	}
}

// GroupByDay buckets appointments by the day of their ScheduledAt.
//
// A non-nil pre index is returned as is and appts are ignored. Otherwise
// buckets keep input order unless WithTimeSorted is given.
func GroupByDay(appts []domain.Appointment, pre Index, opts ...Option) Index {
	if pre != nil {
		return pre
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	idx := make(Index)
	for _, a := range appts {
		key := domain.DayKeyOf(a.ScheduledAt)
		idx[key] = append(idx[key], a)
	}

	if o.timeSorted {
		for _, bucket := range idx {
			sortByTime(bucket)
		}
	}
	return idx
}

// TimeSorted returns a copy of idx with every bucket ordered by scheduled
// time. idx itself is left untouched.
func (idx Index) TimeSorted() Index {
	out := make(Index, len(idx))
	for key, bucket := range idx {
		sorted := make([]domain.Appointment, len(bucket))
		copy(sorted, bucket)
		sortByTime(sorted)
		out[key] = sorted
	}
	return out
}

func sortByTime(bucket []domain.Appointment) {
	sort.SliceStable(bucket, func(i, j int) bool {
		return bucket[i].ScheduledAt.Before(bucket[j].ScheduledAt)
	})
}
