package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/lifecycle"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// DefaultSweepBatch сколько записей с ожидающим завершением обрабатывается за один проход
const DefaultSweepBatch = 200

// Service сервис для работы с записями
type Service struct {
	appointmentRepo AppointmentRepository
	scheduleRes     ScheduleResolver
	cache           CalendarCache
	publisher       EventPublisher
	recorder        TransitionRecorder
	timeProvider    TimeProvider
	logger          Logger
	sweepBatch      uint64
}

// NewService создает новый экземпляр сервиса записей.
// cache, publisher и recorder могут быть nil, loc - часовой пояс расписания (nil = локальный).
func NewService(
	appointmentRepo AppointmentRepository,
	scheduleRes ScheduleResolver,
	cache CalendarCache,
	publisher EventPublisher,
	recorder TransitionRecorder,
	loc *time.Location,
	logger Logger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		scheduleRes:     scheduleRes,
		cache:           cache,
		publisher:       publisher,
		recorder:        recorder,
		timeProvider:    &RealTimeProvider{Location: loc},
		logger:          logger,
		sweepBatch:      DefaultSweepBatch,
	}
}

// GetByID получает запись по ID
// Клиент видит только свои записи, провайдер - записи своих субъектов
func (s *Service) GetByID(ctx context.Context, actor domain.Actor, id string) (*models.AppointmentResponse, error) {
	s.logger.Info("GetByID: fetching appointment id=%s for user=%s", id, actor.UserID)

	appt, err := s.load(ctx, "GetByID", actor, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("GetByID: successfully fetched appointment id=%s", id)
	return models.FromDomainAppointment(appt), nil
}

// List возвращает записи с фильтрацией
// Клиент получает только свои записи, провайдер - только записи своих субъектов
func (s *Service) List(ctx context.Context, actor domain.Actor, req *models.ListRequest) (*models.AppointmentListResponse, error) {
	s.logger.Info("List: fetching appointments for user=%s role=%s", actor.UserID, actor.Role)

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("List: invalid filter for user=%s: %v", actor.UserID, err)
		return nil, err
	}

	// Сужаем фильтр до записей, доступных актору
	switch {
	case actor.Role == domain.RoleAdmin:
	case actor.Role.IsStaff():
		if filter.OwnerID != nil && *filter.OwnerID != actor.UserID {
			s.logger.Warn("List: user=%s requested foreign owner=%s", actor.UserID, *filter.OwnerID)
			return nil, domain.ErrAccessDenied
		}
		filter.OwnerID = &actor.UserID
	case actor.Role.IsRequester():
		if filter.ClientID != nil && *filter.ClientID != actor.UserID {
			s.logger.Warn("List: user=%s requested foreign client=%s", actor.UserID, *filter.ClientID)
			return nil, domain.ErrAccessDenied
		}
		filter.ClientID = &actor.UserID
	default:
		return nil, domain.ErrAccessDenied
	}

	appts, err := s.appointmentRepo.Query(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error for user=%s: %v", actor.UserID, err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: successfully fetched %d appointments for user=%s", len(appts), actor.UserID)
	return models.FromDomainAppointmentList(appts), nil
}

// Calendar возвращает записи владельца за месяц, сгруппированные по дням.
// Готовый индекс из кэша отдается как есть; при промахе индекс строится
// из хранилища и кладется в кэш.
func (s *Service) Calendar(ctx context.Context, actor domain.Actor, ownerID string, month time.Time, sorted bool) (*models.CalendarResponse, error) {
	s.logger.Info("Calendar: owner=%s month=%s by user=%s", ownerID, month.Format(domain.MonthFormat), actor.UserID)

	if !canManageOwner(actor, ownerID) {
		s.logger.Warn("Calendar: access denied for user=%s to owner=%s", actor.UserID, ownerID)
		return nil, domain.ErrAccessDenied
	}

	// Дни считаются в часовом поясе расписания
	loc := s.location()
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0)

	// В кэше лежит индекс в порядке хранилища, сортировка применяется при выдаче
	view := func(idx calendar.Index) calendar.Index {
		if sorted {
			return idx.TimeSorted()
		}
		return idx
	}

	// 1. Пробуем готовый индекс
	if s.cache != nil {
		pre, ok, err := s.cache.Get(ctx, ownerID, from)
		if err != nil {
			s.logger.Warn("Calendar: cache lookup failed for owner=%s: %v", ownerID, err)
		} else if ok {
			s.logger.Info("Calendar: serving cached index for owner=%s (%d days)", ownerID, pre.Len())
			return models.FromCalendarIndex(ownerID, from, view(calendar.GroupByDay(nil, pre)), true), nil
		}
	}

	// 2. Строим индекс из хранилища
	stored, err := s.appointmentRepo.Query(ctx, domain.AppointmentFilter{
		OwnerID:         &ownerID,
		From:            &from,
		To:              &to,
		IncludeInactive: true,
	})
	if err != nil {
		s.logger.Error("Calendar: repository error for owner=%s: %v", ownerID, err)
		return nil, fmt.Errorf("%w: Calendar - repository error: %v", ErrInternal, err)
	}

	appts := make([]domain.Appointment, 0, len(stored))
	for _, a := range stored {
		appt := *a
		appt.ScheduledAt = appt.ScheduledAt.In(loc)
		appts = append(appts, appt)
	}
	idx := calendar.GroupByDay(appts, nil)

	// 3. Кэшируем
	if s.cache != nil {
		if err := s.cache.Set(ctx, ownerID, from, idx); err != nil {
			s.logger.Warn("Calendar: failed to cache index for owner=%s: %v", ownerID, err)
		}
	}

	s.logger.Info("Calendar: built index for owner=%s with %d appointments", ownerID, len(appts))
	return models.FromCalendarIndex(ownerID, from, view(idx), false), nil
}

// Transition переводит запись в целевой статус
// COMPLETED открывает завершение (первая фаза), сумма передается отдельно
func (s *Service) Transition(ctx context.Context, actor domain.Actor, id string, req *models.TransitionRequest) (*models.AppointmentResponse, error) {
	target, err := domain.ParseStatus(req.Target)
	if err != nil {
		s.logger.Warn("Transition: invalid target=%q for appointment id=%s", req.Target, id)
		return nil, err
	}

	return s.apply(ctx, "Transition", actor, id, string(target), func(a domain.Appointment, now time.Time) (lifecycle.Outcome, error) {
		return lifecycle.Transition(a, actor, target, now)
	})
}

// RequestCompletion первая фаза завершения
func (s *Service) RequestCompletion(ctx context.Context, actor domain.Actor, id string) (*models.AppointmentResponse, error) {
	return s.apply(ctx, "RequestCompletion", actor, id, "completion_requested", func(a domain.Appointment, now time.Time) (lifecycle.Outcome, error) {
		return lifecycle.RequestCompletion(a, actor, now)
	})
}

// SubmitAmount вторая фаза завершения: фиксирует сумму и статус COMPLETED
func (s *Service) SubmitAmount(ctx context.Context, actor domain.Actor, id, rawAmount string) (*models.AppointmentResponse, error) {
	return s.apply(ctx, "SubmitAmount", actor, id, string(domain.StatusCompleted), func(a domain.Appointment, now time.Time) (lifecycle.Outcome, error) {
		return lifecycle.SubmitAmount(a, actor, rawAmount, now)
	})
}

// Complete выполняет обе фазы завершения за один вызов
func (s *Service) Complete(ctx context.Context, actor domain.Actor, id, rawAmount string) (*models.AppointmentResponse, error) {
	return s.apply(ctx, "Complete", actor, id, string(domain.StatusCompleted), func(a domain.Appointment, now time.Time) (lifecycle.Outcome, error) {
		return lifecycle.Complete(a, actor, rawAmount, now)
	})
}

// AttachRating сохраняет отзыв клиента о завершенной записи
func (s *Service) AttachRating(ctx context.Context, actor domain.Actor, id string, req *models.RatingRequest) (*models.AppointmentResponse, error) {
	return s.apply(ctx, "AttachRating", actor, id, "rating", func(a domain.Appointment, now time.Time) (lifecycle.Outcome, error) {
		return lifecycle.AttachRating(a, actor, req.ToDomain(), now)
	})
}

// ExpireStaleCompletions снимает просроченные ожидания суммы.
// Срок берется из конфигурации расписания владельца; конфликт версий
// пропускает запись до следующего прохода. Ожидающие записи читаются
// страницами до конца, записи без срока не блокируют остальные.
func (s *Service) ExpireStaleCompletions(ctx context.Context) (int, error) {
	now := s.timeProvider.Now()
	s.logger.Info("ExpireStaleCompletions: sweeping at %s", now.Format(time.RFC3339))

	var cursor *domain.CompletionCursor
	expired, scanned := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return expired, err
		}

		page, err := s.appointmentRepo.ListPendingCompletions(ctx, now, cursor, s.sweepBatch)
		if err != nil {
			s.logger.Error("ExpireStaleCompletions: repository error: %v", err)
			return expired, fmt.Errorf("%w: ExpireStaleCompletions - repository error: %v", ErrInternal, err)
		}
		if len(page) == 0 {
			break
		}
		scanned += len(page)

		for _, appt := range page {
			ok, err := s.expireOne(ctx, appt, now)
			if err != nil {
				return expired, err
			}
			if ok {
				expired++
			}
		}

		next := domain.CursorAfter(page[len(page)-1])
		if next == nil || s.sweepBatch == 0 || uint64(len(page)) < s.sweepBatch {
			break
		}
		cursor = next
	}

	s.logger.Info("ExpireStaleCompletions: expired %d of %d pending completions", expired, scanned)
	return expired, nil
}

func (s *Service) expireOne(ctx context.Context, appt *domain.Appointment, now time.Time) (bool, error) {
	cfg, err := s.scheduleRes.Resolve(ctx, appt.ProviderID, &appt.Subject.ID)
	if err != nil {
		s.logger.Error("ExpireStaleCompletions: failed to resolve schedule for appointment id=%s: %v", appt.ID, err)
		return false, nil
	}

	out := lifecycle.ExpireCompletion(*appt, now, cfg.CompletionExpiry())
	if !out.Changed {
		return false, nil
	}

	if err := s.save(ctx, "ExpireStaleCompletions", appt.Status, &out.Appointment); err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("ExpireStaleCompletions: appointment id=%s changed concurrently, skipping", appt.ID)
			return false, nil
		}
		return false, err
	}

	s.afterSave(ctx, "ExpireStaleCompletions", out, domain.SystemActor, now)
	s.observe("completion_expired", "changed")
	return true, nil
}

// Вспомогательные методы

type mutation func(a domain.Appointment, now time.Time) (lifecycle.Outcome, error)

// apply загружает запись, проверяет доступ, применяет операцию жизненного
// цикла и сохраняет результат с проверкой версии
func (s *Service) apply(ctx context.Context, op string, actor domain.Actor, id, target string, fn mutation) (*models.AppointmentResponse, error) {
	s.logger.Info("%s: appointment id=%s target=%s by user=%s role=%s", op, id, target, actor.UserID, actor.Role)

	// 1. Загружаем запись и проверяем доступ
	appt, err := s.load(ctx, op, actor, id)
	if err != nil {
		return nil, err
	}

	// 2. Применяем переход к копии
	now := s.timeProvider.Now()
	out, err := fn(*appt, now)
	if err != nil {
		s.observe(target, outcomeOf(err))
		s.logger.Warn("%s: rejected for appointment id=%s: %v", op, id, err)
		return nil, err
	}
	if !out.Changed {
		s.observe(target, "noop")
		s.logger.Info("%s: appointment id=%s already in requested state", op, id)
		return models.FromDomainAppointment(&out.Appointment), nil
	}

	// 3. Сохраняем с проверкой версии и исходного статуса
	if err := s.save(ctx, op, appt.Status, &out.Appointment); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.observe(target, "conflict")
		}
		return nil, err
	}

	// 4. Кэш и события после фиксации
	s.afterSave(ctx, op, out, actor, now)
	s.observe(target, "changed")

	s.logger.Info("%s: appointment id=%s moved %s -> %s", op, id, out.From, out.To)
	return models.FromDomainAppointment(&out.Appointment), nil
}

func (s *Service) load(ctx context.Context, op string, actor domain.Actor, id string) (*domain.Appointment, error) {
	appt, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("%s: appointment id=%s not found", op, id)
			return nil, fmt.Errorf("%w: id=%s", domain.ErrNotFound, id)
		}
		s.logger.Error("%s: repository error for appointment id=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	if !actor.CanActOn(appt) {
		s.logger.Warn("%s: access denied for user=%s to appointment id=%s", op, actor.UserID, id)
		return nil, domain.ErrAccessDenied
	}
	return appt, nil
}

func (s *Service) save(ctx context.Context, op string, expected domain.Status, appt *domain.Appointment) error {
	err := s.appointmentRepo.Save(ctx, appt, expected)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, appointmentRepo.ErrVersionConflict):
		s.logger.Warn("%s: version conflict for appointment id=%s", op, appt.ID)
		return fmt.Errorf("%w: appointment %s was modified concurrently", domain.ErrConflict, appt.ID)
	case errors.Is(err, appointmentRepo.ErrAppointmentNotFound):
		s.logger.Warn("%s: appointment id=%s disappeared before save", op, appt.ID)
		return fmt.Errorf("%w: id=%s", domain.ErrNotFound, appt.ID)
	default:
		s.logger.Error("%s: failed to save appointment id=%s: %v", op, appt.ID, err)
		return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
}

// afterSave сбрасывает кэш календаря и публикует событие.
// Ошибки только логируются: переход уже зафиксирован.
func (s *Service) afterSave(ctx context.Context, op string, out lifecycle.Outcome, actor domain.Actor, now time.Time) {
	a := out.Appointment

	// Ключ месяца считается в том же поясе, что и в Calendar
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, a.ProviderID, a.ScheduledAt.In(s.location())); err != nil {
			s.logger.Warn("%s: failed to invalidate calendar for owner=%s: %v", op, a.ProviderID, err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, out.Event(actor, now)); err != nil {
			s.logger.Warn("%s: event for appointment id=%s was not fully delivered: %v", op, a.ID, err)
		}
	}
}

// location часовой пояс расписания
func (s *Service) location() *time.Location {
	return s.timeProvider.Now().Location()
}

func (s *Service) observe(target, outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveTransition(target, outcome)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrIllegalTransition):
		return "illegal"
	case domain.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}

// canManageOwner проверяет, что актор - сам владелец или администратор
func canManageOwner(actor domain.Actor, ownerID string) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return actor.Role.IsStaff() && actor.UserID == ownerID
}
