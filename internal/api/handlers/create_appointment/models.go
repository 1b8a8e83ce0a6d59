package create_appointment

import (
	"errors"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var (
	errInvalidDate      = errors.New("invalid date")
	errInvalidTime      = errors.New("invalid time")
	errInvalidDeparture = errors.New("invalid departure date")
)

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	SubjectKind      string  `json:"subjectKind"`      // "service" или "listing"
	SubjectID        string  `json:"subjectId"`        // ID услуги или объявления
	InterventionType string  `json:"interventionType"` // "URGENT" или "SCHEDULED", по умолчанию SCHEDULED
	Date             string  `json:"date,omitempty"`   // "2025-10-15", для listing - дата заезда
	StartTime        string  `json:"startTime,omitempty"`
	DepartureDate    *string `json:"departureDate,omitempty"`
	Notes            *string `json:"notes,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateAppointmentRequest) ToUseCaseRequest(actor domain.Actor) (*createAppointment.Request, error) {
	req := &createAppointment.Request{
		Actor:            actor,
		SubjectKind:      domain.SubjectKind(strings.ToLower(strings.TrimSpace(r.SubjectKind))),
		SubjectID:        strings.TrimSpace(r.SubjectID),
		InterventionType: domain.InterventionType(strings.ToUpper(strings.TrimSpace(r.InterventionType))),
		Notes:            r.Notes,
	}
	if req.InterventionType == "" {
		req.InterventionType = domain.InterventionScheduled
	}

	// Для срочной заявки дата и время вычисляются системой, переданные значения игнорируются
	if req.InterventionType != domain.InterventionUrgent {
		if r.Date != "" {
			date, err := time.Parse(domain.DateFormat, r.Date)
			if err != nil {
				return nil, errInvalidDate
			}
			req.Date = date
		}
		if r.StartTime != "" {
			startTime, err := types.NewTimeStringFromString(r.StartTime)
			if err != nil {
				return nil, errInvalidTime
			}
			req.StartTime = startTime
		}
	}

	if r.DepartureDate != nil {
		departure, err := time.Parse(domain.DateFormat, *r.DepartureDate)
		if err != nil {
			return nil, errInvalidDeparture
		}
		req.DepartureDate = &departure
	}

	return req, nil
}
