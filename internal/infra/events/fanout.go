// Package events delivers appointment status changes to the collaborators
// that render or act on them.
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

// TypeStatusChanged is the event type of domain.StatusChangedEvent.
const TypeStatusChanged = "appointment.status_changed"

// Publisher delivers a status change to one destination.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, ev domain.StatusChangedEvent) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Fanout hands every event to all publishers. A failing publisher does not
// stop the others.
type Fanout struct {
	publishers []Publisher
	log        Logger
	metrics    *metrics.Metrics
}

// NewFanout creates a fanout over publishers. Nil publishers are skipped.
func NewFanout(log Logger, m *metrics.Metrics, publishers ...Publisher) *Fanout {
	active := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			active = append(active, p)
		}
	}
	return &Fanout{publishers: active, log: log, metrics: m}
}

// Publish returns the joined errors of the publishers that failed.
func (f *Fanout) Publish(ctx context.Context, ev domain.StatusChangedEvent) error {
	var errs []error
	for _, p := range f.publishers {
		err := p.Publish(ctx, ev)
		f.metrics.ObservePublish(p.Name(), err)
		if err != nil {
			f.log.Error("Publish: %s failed for appointment id=%s: %v", p.Name(), ev.AppointmentID, err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
