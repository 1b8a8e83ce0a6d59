package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/scheduling"
)

// Request модели

// ListRequest запрос на получение списка записей
type ListRequest struct {
	OwnerID         *string    `json:"ownerId,omitempty"`
	ClientID        *string    `json:"clientId,omitempty"`
	SubjectID       *string    `json:"subjectId,omitempty"`
	From            *time.Time `json:"from,omitempty"`     // начало периода, включительно
	To              *time.Time `json:"to,omitempty"`       // конец периода, не включительно
	Statuses        []string   `json:"statuses,omitempty"` // PENDING, CONFIRMED, ...
	IncludeInactive bool       `json:"includeInactive,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListRequest) ToDomainFilter() (domain.AppointmentFilter, error) {
	filter := domain.AppointmentFilter{
		OwnerID:         r.OwnerID,
		ClientID:        r.ClientID,
		SubjectID:       r.SubjectID,
		From:            r.From,
		To:              r.To,
		IncludeInactive: r.IncludeInactive,
	}

	if r.From != nil && r.To != nil && !r.From.Before(*r.To) {
		return filter, fmt.Errorf("%w: from must be before to", domain.ErrInvalidInput)
	}

	for _, raw := range r.Statuses {
		s, err := domain.ParseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Statuses = append(filter.Statuses, s)
	}
	return filter, nil
}

// TransitionRequest запрос на смену статуса
type TransitionRequest struct {
	Target string `json:"target"`
}

// RatingRequest отзыв клиента
type RatingRequest struct {
	Score   int     `json:"score"`
	Comment *string `json:"comment,omitempty"`
}

// ToDomain конвертирует запрос в domain.Rating
func (r *RatingRequest) ToDomain() domain.Rating {
	return domain.Rating{Score: r.Score, Comment: r.Comment}
}

// Response модели

// RatingResponse отзыв в ответе
type RatingResponse struct {
	Score   int     `json:"score"`
	Comment *string `json:"comment,omitempty"`
}

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	ID               string  `json:"id"`
	SubjectKind      string  `json:"subjectKind"`
	SubjectID        string  `json:"subjectId"`
	ClientID         string  `json:"clientId"`
	ProviderID       string  `json:"providerId"`
	Date             string  `json:"date"`      // "2025-03-01"
	StartTime        string  `json:"startTime"` // "10:00"
	DurationMinutes  int     `json:"durationMinutes"`
	DepartureDate    *string `json:"departureDate,omitempty"`
	Nights           *int    `json:"nights,omitempty"`
	InterventionType string  `json:"interventionType"`
	BasePriceCents   int64   `json:"basePriceCents"`
	TotalPriceCents  *int64  `json:"totalPriceCents,omitempty"` // стоимость проживания
	PriceCents       *int64  `json:"priceCents,omitempty"`      // фактическая сумма
	Notes            *string `json:"notes,omitempty"`
	Status           string  `json:"status"`

	CompletionPending     bool       `json:"completionPending"`
	CompletionRequestedAt *time.Time `json:"completionRequestedAt,omitempty"`

	Rating *RatingResponse `json:"rating,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppointmentListResponse ответ со списком записей
type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

// CalendarDay записи одного дня
type CalendarDay struct {
	Key          string                `json:"key"`  // "2025-2-1", месяц с нуля
	Date         string                `json:"date"` // "2025-03-01"
	Appointments []AppointmentResponse `json:"appointments"`
}

// CalendarResponse месячный календарь владельца
type CalendarResponse struct {
	OwnerID string        `json:"ownerId"`
	Month   string        `json:"month"` // "2025-03"
	Cached  bool          `json:"cached"`
	Days    []CalendarDay `json:"days"`
}

// Методы конвертации

// FromDomainAppointment конвертирует domain модель в DTO
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &AppointmentResponse{
		ID:                    a.ID,
		SubjectKind:           string(a.Subject.Kind),
		SubjectID:             a.Subject.ID,
		ClientID:              a.ClientID,
		ProviderID:            a.ProviderID,
		Date:                  a.ScheduledAt.Format(domain.DateFormat),
		StartTime:             a.StartTime().String(),
		DurationMinutes:       a.DurationMinutes,
		InterventionType:      string(a.InterventionType),
		BasePriceCents:        a.BasePriceCents,
		PriceCents:            a.PriceCents,
		Notes:                 a.Notes,
		Status:                string(a.ExternalStatus()),
		CompletionPending:     a.CompletionPending,
		CompletionRequestedAt: a.CompletionRequestedAt,
		Version:               a.Version,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}

	if a.IsStay() {
		departure := a.DepartureDate.Format(domain.DateFormat)
		nights := a.Nights()
		total := scheduling.TotalPrice(a.BasePriceCents, nights)
		resp.DepartureDate = &departure
		resp.Nights = &nights
		resp.TotalPriceCents = &total
	}

	if a.Rating != nil {
		resp.Rating = &RatingResponse{Score: a.Rating.Score, Comment: a.Rating.Comment}
	}

	return resp
}

// FromDomainAppointmentList конвертирует список domain моделей в DTO
func FromDomainAppointmentList(appts []*domain.Appointment) *AppointmentListResponse {
	resp := &AppointmentListResponse{
		Appointments: make([]AppointmentResponse, 0, len(appts)),
	}
	for _, a := range appts {
		if r := FromDomainAppointment(a); r != nil {
			resp.Appointments = append(resp.Appointments, *r)
		}
	}
	return resp
}

// FromCalendarIndex конвертирует индекс в ответ; дни идут по возрастанию даты
func FromCalendarIndex(ownerID string, month time.Time, idx calendar.Index, cached bool) *CalendarResponse {
	resp := &CalendarResponse{
		OwnerID: ownerID,
		Month:   month.Format(domain.MonthFormat),
		Cached:  cached,
		Days:    make([]CalendarDay, 0, len(idx)),
	}

	for key, appts := range idx {
		day := CalendarDay{
			Key:          string(key),
			Appointments: make([]AppointmentResponse, 0, len(appts)),
		}
		for i := range appts {
			day.Appointments = append(day.Appointments, *FromDomainAppointment(&appts[i]))
		}
		if len(appts) > 0 {
			day.Date = appts[0].ScheduledAt.Format(domain.DateFormat)
		} else {
			day.Date = dateFromKey(key)
		}
		resp.Days = append(resp.Days, day)
	}

	sort.Slice(resp.Days, func(i, j int) bool {
		return resp.Days[i].Date < resp.Days[j].Date
	})
	return resp
}

// dateFromKey восстанавливает дату из ключа с месяцем от нуля
func dateFromKey(key domain.CalendarDayKey) string {
	var y, m, d int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(key)), "%d-%d-%d", &y, &m, &d); err != nil {
		return ""
	}
	return time.Date(y, time.Month(m+1), d, 0, 0, 0, 0, time.UTC).Format(domain.DateFormat)
}
