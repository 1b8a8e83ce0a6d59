package create_appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	catalogClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/catalog"
	"github.com/m04kA/SMC-AppointmentService/internal/scheduling"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// UseCase use case для создания записи
type UseCase struct {
	appointmentRepo AppointmentRepository
	scheduleRes     ScheduleResolver
	catalogClient   CatalogClient
	calendar        CalendarInvalidator
	txManager       TransactionManager
	timeProvider    TimeProvider
	newID           IDGenerator
	logger          Logger
}

// NewUseCase создает новый экземпляр use case.
// calendar может быть nil, loc - часовой пояс расписания (nil = локальный).
func NewUseCase(
	appointmentRepo AppointmentRepository,
	scheduleRes ScheduleResolver,
	catalogClient CatalogClient,
	calendar CalendarInvalidator,
	txManager TransactionManager,
	loc *time.Location,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointmentRepo: appointmentRepo,
		scheduleRes:     scheduleRes,
		catalogClient:   catalogClient,
		calendar:        calendar,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{Location: loc},
		newID:           uuid.NewString,
		logger:          logger,
	}
}

// Execute выполняет use case создания записи
// Использует сериализуемую транзакцию для предотвращения гонки за слот
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*models.AppointmentResponse, error) {
	uc.logger.Info("CreateAppointment: user=%s, subject=%s/%s, type=%s, date=%s, time=%s",
		req.Actor.UserID, req.SubjectKind, req.SubjectID, req.InterventionType,
		req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()
	if now.IsZero() {
		return nil, fmt.Errorf("%w: current time is not set", domain.ErrInvalidClock)
	}

	// 3. Получаем субъект из каталога
	subject, err := uc.catalogClient.GetSubject(ctx, req.SubjectKind, req.SubjectID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrSubjectNotFound) {
			uc.logger.Warn("CreateAppointment: subject %s/%s not found", req.SubjectKind, req.SubjectID)
			return nil, ErrSubjectNotFound
		}
		uc.logger.Error("CreateAppointment: failed to get subject %s/%s: %v", req.SubjectKind, req.SubjectID, err)
		return nil, fmt.Errorf("%w: failed to get subject: %v", ErrInternal, err)
	}
	if !subject.Active {
		uc.logger.Warn("CreateAppointment: subject %s/%s is not active", req.SubjectKind, req.SubjectID)
		return nil, ErrSubjectUnavailable
	}

	var result *domain.Appointment

	// 4. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 4.1. Получаем конфигурацию расписания с учетом иерархии
		cfg, err := uc.scheduleRes.Resolve(txCtx, subject.OwnerID, &subject.ID)
		if err != nil {
			uc.logger.Error("CreateAppointment: failed to get schedule config: %v", err)
			return fmt.Errorf("%w: failed to get schedule config: %v", ErrInternal, err)
		}

		// 4.2. Определяем время начала (срочная заявка - вычисляется системой)
		start, err := uc.resolveStart(req, cfg, now)
		if err != nil {
			uc.logger.Warn("CreateAppointment: cannot place appointment: %v", err)
			return err
		}

		// 4.3. Собираем запись
		appt := &domain.Appointment{
			ID:               uc.newID(),
			Subject:          domain.Subject{Kind: req.SubjectKind, ID: subject.ID},
			ClientID:         req.Actor.UserID,
			ProviderID:       subject.OwnerID,
			ScheduledAt:      start,
			DurationMinutes:  subject.Duration(),
			InterventionType: req.InterventionType,
			BasePriceCents:   subject.PriceCents,
			Notes:            req.Notes,
			Status:           domain.StatusAwaitingDecision,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if req.SubjectKind == domain.SubjectListing {
			if err := uc.applyStay(appt, req); err != nil {
				uc.logger.Warn("CreateAppointment: invalid stay: %v", err)
				return err
			}
		}
		if err := appt.Validate(); err != nil {
			uc.logger.Warn("CreateAppointment: invalid appointment: %v", err)
			return err
		}

		// 4.4. Проверяем занятость с блокировкой (FOR UPDATE)
		if err := uc.checkCapacity(txCtx, appt, cfg.MaxConcurrentBookings); err != nil {
			return err
		}

		// 4.5. Сохраняем запись
		created, err := uc.appointmentRepo.Create(txCtx, appt)
		if err != nil {
			uc.logger.Error("CreateAppointment: failed to create appointment: %v", err)
			return fmt.Errorf("%w: failed to create appointment: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	// 5. Сбрасываем кэш календаря владельца
	if uc.calendar != nil {
		if err := uc.calendar.Invalidate(ctx, result.ProviderID, result.ScheduledAt); err != nil {
			uc.logger.Warn("CreateAppointment: failed to invalidate calendar for owner=%s: %v", result.ProviderID, err)
		}
	}

	uc.logger.Info("CreateAppointment: successfully created appointment id=%s at %s",
		result.ID, result.ScheduledAt.Format(time.RFC3339))
	return models.FromDomainAppointment(result), nil
}

// resolveStart вычисляет время начала записи.
// Срочная заявка получает слот целиком или ошибку, без частичного заполнения.
func (uc *UseCase) resolveStart(req *Request, cfg *domain.ScheduleConfig, now time.Time) (time.Time, error) {
	window := cfg.Window()

	if req.IsUrgent() {
		urgent, err := scheduling.ResolveUrgentSlot(now, window)
		if err != nil {
			return time.Time{}, err
		}
		uc.logger.Info("CreateAppointment: urgent slot resolved to %s %s",
			urgent.Date.Format(domain.DateFormat), urgent.Slot)
		return urgent.ScheduledAt(), nil
	}

	date := inLocation(req.Date, now.Location())
	if err := validateDate(date, now, cfg.AdvanceBookingDays); err != nil {
		return time.Time{}, err
	}

	slot := req.StartTime
	if slot.IsZero() {
		// Заезд без указанного времени - с открытия
		slots, err := scheduling.WindowSlots(window)
		if err != nil {
			return time.Time{}, err
		}
		slot = slots[0]
	}
	if !scheduling.IsOnGrid(window, slot) {
		return time.Time{}, fmt.Errorf("%w: %s is not on the %d-minute grid %02d:00-%02d:00",
			ErrInvalidTimeSlot, slot, domain.SlotCadenceMinutes, window.StartHour, window.EndHour)
	}

	start := slot.On(date)
	if err := validateNotice(start, now, cfg.MinBookingNoticeMinutes); err != nil {
		return time.Time{}, err
	}
	return start, nil
}

// applyStay заполняет дату выезда и длительность проживания
func (uc *UseCase) applyStay(appt *domain.Appointment, req *Request) error {
	entry := domain.DateOnly(appt.ScheduledAt)

	departure := entry.AddDate(0, 0, 1)
	if req.DepartureDate != nil {
		departure = inLocation(*req.DepartureDate, entry.Location())
	}

	// Срочная заявка могла сдвинуть заезд позже выезда
	if req.IsUrgent() {
		var advanced bool
		departure, advanced = scheduling.AdjustDeparture(entry, departure)
		if advanced {
			uc.logger.Info("CreateAppointment: departure advanced to %s after urgent entry", departure.Format(domain.DateFormat))
		}
	}

	nights, err := scheduling.ValidateStay(entry, departure)
	if err != nil {
		return err
	}

	appt.DepartureDate = &departure
	appt.DurationMinutes = nights * domain.MinutesPerNight
	return nil
}

// checkCapacity проверяет, что на интервал записи есть свободное место
func (uc *UseCase) checkCapacity(ctx context.Context, appt *domain.Appointment, capacity int) error {
	end := appt.ScheduledAt.Add(time.Duration(appt.DurationMinutes) * time.Minute)
	filter := domain.AppointmentFilter{
		SubjectID: &appt.Subject.ID,
		To:        &end,
		Statuses:  []domain.Status{domain.StatusAwaitingDecision, domain.StatusConfirmed},
	}
	// Услуги не длятся дольше суток, достаточно одного дня
	if appt.Subject.Kind == domain.SubjectService {
		from := domain.DateOnly(appt.ScheduledAt).AddDate(0, 0, -1)
		filter.From = &from
	}

	existing, err := uc.appointmentRepo.Query(ctx, filter)
	if err != nil {
		uc.logger.Error("CreateAppointment: failed to get appointments: %v", err)
		return fmt.Errorf("%w: failed to get appointments: %v", ErrInternal, err)
	}

	taken := scheduling.CountOverlapping(appt.ScheduledAt, appt.DurationMinutes, existing)
	if taken >= capacity {
		uc.logger.Warn("CreateAppointment: slot not available, %d/%d spots taken", taken, capacity)
		return ErrSlotNotAvailable
	}

	uc.logger.Info("CreateAppointment: slot available, %d/%d spots taken", taken, capacity)
	return nil
}
