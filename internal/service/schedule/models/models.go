package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Уровни, с которых взята конфигурация
const (
	LevelSubject = "subject"
	LevelOwner   = "owner"
	LevelDefault = "default"
)

// Request модели

// UpsertConfigRequest запрос на создание или обновление конфигурации
// Все поля опциональны - обновляются только переданные значения
type UpsertConfigRequest struct {
	SubjectID               *string `json:"subjectId,omitempty"` // NULL = для всех субъектов владельца
	StartHour               *int    `json:"startHour,omitempty"`
	EndHour                 *int    `json:"endHour,omitempty"`
	MaxConcurrentBookings   *int    `json:"maxConcurrentBookings,omitempty"`
	AdvanceBookingDays      *int    `json:"advanceBookingDays,omitempty"`
	MinBookingNoticeMinutes *int    `json:"minBookingNoticeMinutes,omitempty"`
	CompletionExpiryMinutes *int    `json:"completionExpiryMinutes,omitempty"`
}

// ApplyToConfig применяет обновления к существующей конфигурации
// Обновляются только непустые (not nil) поля из request
func (r *UpsertConfigRequest) ApplyToConfig(cfg *domain.ScheduleConfig) {
	if r.StartHour != nil {
		cfg.StartHour = *r.StartHour
	}
	if r.EndHour != nil {
		cfg.EndHour = *r.EndHour
	}
	if r.MaxConcurrentBookings != nil {
		cfg.MaxConcurrentBookings = *r.MaxConcurrentBookings
	}
	if r.AdvanceBookingDays != nil {
		cfg.AdvanceBookingDays = *r.AdvanceBookingDays
	}
	if r.MinBookingNoticeMinutes != nil {
		cfg.MinBookingNoticeMinutes = *r.MinBookingNoticeMinutes
	}
	if r.CompletionExpiryMinutes != nil {
		cfg.CompletionExpiryMinutes = *r.CompletionExpiryMinutes
	}
}

// Response модели

// ConfigResponse ответ с данными конфигурации расписания
type ConfigResponse struct {
	ID                      int64      `json:"id,omitempty"`
	OwnerID                 string     `json:"ownerId"`
	SubjectID               *string    `json:"subjectId,omitempty"`
	Level                   string     `json:"level"`
	StartHour               int        `json:"startHour"`
	EndHour                 int        `json:"endHour"`
	MaxConcurrentBookings   int        `json:"maxConcurrentBookings"`
	AdvanceBookingDays      int        `json:"advanceBookingDays"`
	MinBookingNoticeMinutes int        `json:"minBookingNoticeMinutes"`
	CompletionExpiryMinutes int        `json:"completionExpiryMinutes"`
	CreatedAt               *time.Time `json:"createdAt,omitempty"`
	UpdatedAt               *time.Time `json:"updatedAt,omitempty"`
}

// ConfigListResponse ответ со списком конфигураций
type ConfigListResponse struct {
	Configs []ConfigResponse `json:"configs"`
}

// Методы конвертации

// FromDomainConfig конвертирует domain модель в DTO
func FromDomainConfig(c *domain.ScheduleConfig) *ConfigResponse {
	if c == nil {
		return nil
	}

	resp := &ConfigResponse{
		ID:                      c.ID,
		OwnerID:                 c.OwnerID,
		SubjectID:               c.SubjectID,
		Level:                   LevelOf(c),
		StartHour:               c.StartHour,
		EndHour:                 c.EndHour,
		MaxConcurrentBookings:   c.MaxConcurrentBookings,
		AdvanceBookingDays:      c.AdvanceBookingDays,
		MinBookingNoticeMinutes: c.MinBookingNoticeMinutes,
		CompletionExpiryMinutes: c.CompletionExpiryMinutes,
	}
	if !c.CreatedAt.IsZero() {
		createdAt, updatedAt := c.CreatedAt, c.UpdatedAt
		resp.CreatedAt = &createdAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

// FromDomainConfigList конвертирует список domain моделей в DTO
func FromDomainConfigList(configs []*domain.ScheduleConfig) *ConfigListResponse {
	resp := &ConfigListResponse{
		Configs: make([]ConfigResponse, 0, len(configs)),
	}
	for _, c := range configs {
		if r := FromDomainConfig(c); r != nil {
			resp.Configs = append(resp.Configs, *r)
		}
	}
	return resp
}

// LevelOf возвращает уровень иерархии конфигурации
func LevelOf(c *domain.ScheduleConfig) string {
	switch {
	case c.ID == 0:
		return LevelDefault
	case c.IsSubjectSpecific():
		return LevelSubject
	default:
		return LevelOwner
	}
}
