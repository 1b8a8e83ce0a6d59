package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	catalogClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/catalog"
	"github.com/m04kA/SMC-AppointmentService/internal/scheduling"
)

// UseCase use case для получения доступных слотов для записи
type UseCase struct {
	appointmentRepo AppointmentRepository
	scheduleRes     ScheduleResolver
	catalogClient   CatalogClient
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	scheduleRes ScheduleResolver,
	catalogClient CatalogClient,
	loc *time.Location,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointmentRepo: appointmentRepo,
		scheduleRes:     scheduleRes,
		catalogClient:   catalogClient,
		timeProvider:    &RealTimeProvider{Location: loc},
		logger:          logger,
	}
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: subject=%s/%s, date=%s",
		req.SubjectKind, req.SubjectID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()
	day := inLocation(req.Date, now.Location())

	// 3-4. Получаем субъект и конфигурацию расписания
	subject, cfg, err := uc.loadSubject(ctx, req.SubjectKind, req.SubjectID)
	if err != nil {
		return nil, err
	}

	// 5. Валидация даты с учетом конфигурации
	if err := validateDate(day, now, cfg.AdvanceBookingDays); err != nil {
		uc.logger.Warn("GetAvailableSlots: date validation failed: %v", err)
		return nil, err
	}

	resp := &Response{
		Date:        day,
		SubjectKind: req.SubjectKind,
		SubjectID:   req.SubjectID,
		Slots:       []Slot{},
	}

	// 6. Генерируем сетку окна и отбрасываем слоты, на которые уже поздно записаться
	grid, err := scheduling.WindowSlots(cfg.Window())
	if err != nil {
		uc.logger.Error("GetAvailableSlots: invalid window in config: %v", err)
		return nil, fmt.Errorf("%w: failed to generate time slots: %v", ErrInternal, err)
	}
	grid = filterByNotice(grid, day, now, cfg.MinBookingNoticeMinutes)
	if len(grid) == 0 {
		uc.logger.Info("GetAvailableSlots: no bookable slots left on %s", day.Format(domain.DateFormat))
		return resp, nil
	}

	// 7. Получаем активные записи, которые могут пересечься с днем
	duration := subject.Duration()
	if req.SubjectKind == domain.SubjectListing {
		duration = domain.MinutesPerNight
	}
	to := day.AddDate(0, 0, 1).Add(time.Duration(duration) * time.Minute)
	filter := domain.AppointmentFilter{
		SubjectID: &subject.ID,
		To:        &to,
		Statuses:  []domain.Status{domain.StatusAwaitingDecision, domain.StatusConfirmed},
	}
	if req.SubjectKind == domain.SubjectService {
		from := day.AddDate(0, 0, -1)
		filter.From = &from
	}

	appts, err := uc.appointmentRepo.Query(ctx, filter)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get appointments: %v", err)
		return nil, fmt.Errorf("%w: failed to get appointments: %v", ErrInternal, err)
	}

	// 8. Вычисляем доступность для каждого слота
	resp.Slots = fromAvailable(scheduling.Availability(day, grid, duration, cfg.MaxConcurrentBookings, appts))

	uc.logger.Info("GetAvailableSlots: generated %d slots for subject=%s/%s, date=%s",
		len(resp.Slots), req.SubjectKind, req.SubjectID, day.Format(domain.DateFormat))
	return resp, nil
}

// PreviewUrgent показывает, какой слот получит срочная заявка, созданная сейчас
func (uc *UseCase) PreviewUrgent(ctx context.Context, kind domain.SubjectKind, subjectID string) (*UrgentPreview, error) {
	uc.logger.Info("PreviewUrgent: subject=%s/%s", kind, subjectID)

	if err := validateSubject(kind, subjectID); err != nil {
		uc.logger.Warn("PreviewUrgent: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	_, cfg, err := uc.loadSubject(ctx, kind, subjectID)
	if err != nil {
		return nil, err
	}

	urgent, err := scheduling.ResolveUrgentSlot(now, cfg.Window())
	if err != nil {
		uc.logger.Warn("PreviewUrgent: cannot resolve urgent slot: %v", err)
		return nil, err
	}

	return &UrgentPreview{
		SubjectKind: kind,
		SubjectID:   subjectID,
		Date:        urgent.Date,
		StartTime:   urgent.Slot,
		ScheduledAt: urgent.ScheduledAt(),
		RolledOver:  urgent.Date.After(domain.DateOnly(now)),
	}, nil
}

// loadSubject получает субъект из каталога и действующую конфигурацию его владельца
func (uc *UseCase) loadSubject(ctx context.Context, kind domain.SubjectKind, id string) (*catalogClient.Subject, *domain.ScheduleConfig, error) {
	subject, err := uc.catalogClient.GetSubject(ctx, kind, id)
	if err != nil {
		if errors.Is(err, catalogClient.ErrSubjectNotFound) {
			uc.logger.Warn("GetAvailableSlots: subject %s/%s not found", kind, id)
			return nil, nil, ErrSubjectNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get subject %s/%s: %v", kind, id, err)
		return nil, nil, fmt.Errorf("%w: failed to get subject: %v", ErrInternal, err)
	}

	cfg, err := uc.scheduleRes.Resolve(ctx, subject.OwnerID, &subject.ID)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get schedule config: %v", err)
		return nil, nil, fmt.Errorf("%w: failed to get schedule config: %v", ErrInternal, err)
	}
	return subject, cfg, nil
}
