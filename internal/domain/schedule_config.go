package domain

import (
	"fmt"
	"time"
)

// ScheduleConfig is the booking configuration of a provider.
// Supports hierarchical configuration:
// 1. Specific subject (owner_id, subject_id)
// 2. Owner-wide (owner_id, NULL)
// 3. Built-in defaults
type ScheduleConfig struct {
	ID                      int64
	OwnerID                 string
	SubjectID               *string // NULL = config for all subjects of the owner
	StartHour               int
	EndHour                 int
	MaxConcurrentBookings   int
	AdvanceBookingDays      int // 0 = unlimited
	MinBookingNoticeMinutes int
	CompletionExpiryMinutes int // 0 = pending completion never expires
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// DefaultScheduleConfig returns the configuration used when nothing is stored.
func DefaultScheduleConfig(ownerID string) *ScheduleConfig {
	return &ScheduleConfig{
		OwnerID:                 ownerID,
		StartHour:               DefaultStartHour,
		EndHour:                 DefaultEndHour,
		MaxConcurrentBookings:   DefaultMaxConcurrentBookings,
		AdvanceBookingDays:      DefaultAdvanceBookingDays,
		MinBookingNoticeMinutes: DefaultMinBookingNoticeMinutes,
		CompletionExpiryMinutes: DefaultCompletionExpiryMinutes,
	}
}

// Window returns the operating window of the configuration.
func (c *ScheduleConfig) Window() Window {
	return Window{StartHour: c.StartHour, EndHour: c.EndHour}
}

// IsOwnerWide returns true if this configuration applies to every subject of the owner
func (c *ScheduleConfig) IsOwnerWide() bool {
	return c.SubjectID == nil
}

// IsSubjectSpecific returns true if this configuration is for a single subject
func (c *ScheduleConfig) IsSubjectSpecific() bool {
	return c.SubjectID != nil
}

// HasAdvanceBookingLimit returns true if there's a limit on how far in advance bookings can be made
func (c *ScheduleConfig) HasAdvanceBookingLimit() bool {
	return c.AdvanceBookingDays > 0
}

// HasCompletionExpiry returns true if a pending completion reverts after a while
func (c *ScheduleConfig) HasCompletionExpiry() bool {
	return c.CompletionExpiryMinutes > 0
}

// CompletionExpiry returns the completion window as a duration.
func (c *ScheduleConfig) CompletionExpiry() time.Duration {
	return time.Duration(c.CompletionExpiryMinutes) * time.Minute
}

// Validate checks the value ranges.
func (c *ScheduleConfig) Validate() error {
	if err := c.Window().Validate(); err != nil {
		return err
	}
	if c.MaxConcurrentBookings < MinConcurrentBookings || c.MaxConcurrentBookings > MaxConcurrentBookings {
		return fmt.Errorf("%w: maxConcurrentBookings must be between %d and %d",
			ErrInvalidInput, MinConcurrentBookings, MaxConcurrentBookings)
	}
	if c.AdvanceBookingDays < MinAdvanceBookingDays || c.AdvanceBookingDays > MaxAdvanceBookingDays {
		return fmt.Errorf("%w: advanceBookingDays must be between %d and %d",
			ErrInvalidInput, MinAdvanceBookingDays, MaxAdvanceBookingDays)
	}
	if c.MinBookingNoticeMinutes < MinBookingNoticeMinutes || c.MinBookingNoticeMinutes > MaxBookingNoticeMinutes {
		return fmt.Errorf("%w: minBookingNoticeMinutes must be between %d and %d",
			ErrInvalidInput, MinBookingNoticeMinutes, MaxBookingNoticeMinutes)
	}
	if c.CompletionExpiryMinutes < 0 || c.CompletionExpiryMinutes > MaxCompletionExpiryMinutes {
		return fmt.Errorf("%w: completionExpiryMinutes must be between 0 and %d",
			ErrInvalidInput, MaxCompletionExpiryMinutes)
	}
	return nil
}
