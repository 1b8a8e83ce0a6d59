package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule/models"
)

// Service сервис для работы с конфигурацией расписания
type Service struct {
	configRepo ConfigRepository
	defaults   domain.ScheduleConfig
	logger     Logger
}

// NewService создает новый экземпляр сервиса конфигурации.
// defaults используется, когда у владельца нет сохраненной конфигурации.
func NewService(configRepo ConfigRepository, defaults *domain.ScheduleConfig, logger Logger) *Service {
	if defaults == nil {
		defaults = domain.DefaultScheduleConfig("")
	}
	return &Service{
		configRepo: configRepo,
		defaults:   *defaults,
		logger:     logger,
	}
}

// Resolve возвращает действующую конфигурацию с учетом иерархии
// Приоритет: subject > owner > defaults
func (s *Service) Resolve(ctx context.Context, ownerID string, subjectID *string) (*domain.ScheduleConfig, error) {
	cfg, err := s.configRepo.GetWithHierarchy(ctx, ownerID, subjectID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrConfigNotFound) {
			return s.defaultFor(ownerID), nil
		}
		s.logger.Error("Resolve: repository error for owner=%s: %v", ownerID, err)
		return nil, fmt.Errorf("%w: Resolve - repository error: %v", ErrInternal, err)
	}
	return cfg, nil
}

// Get возвращает действующую конфигурацию
// Публичный метод - используется клиентами для построения расписания
func (s *Service) Get(ctx context.Context, ownerID string, subjectID *string) (*models.ConfigResponse, error) {
	s.logger.Info("Get: fetching schedule config for owner=%s, subject=%v", ownerID, subjectID)

	cfg, err := s.Resolve(ctx, ownerID, subjectID)
	if err != nil {
		return nil, err
	}

	resp := models.FromDomainConfig(cfg)
	s.logger.Info("Get: resolved config for owner=%s (level: %s)", ownerID, resp.Level)
	return resp, nil
}

// ListByOwner получает все сохраненные конфигурации владельца
// Доступно только владельцу и администратору
func (s *Service) ListByOwner(ctx context.Context, actor domain.Actor, ownerID string) (*models.ConfigListResponse, error) {
	s.logger.Info("ListByOwner: fetching configs for owner=%s by user=%s", ownerID, actor.UserID)

	if !canManage(actor, ownerID) {
		s.logger.Warn("ListByOwner: user=%s cannot manage owner=%s", actor.UserID, ownerID)
		return nil, domain.ErrAccessDenied
	}

	configs, err := s.configRepo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("ListByOwner: repository error for owner=%s: %v", ownerID, err)
		return nil, fmt.Errorf("%w: ListByOwner - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListByOwner: successfully fetched %d configs for owner=%s", len(configs), ownerID)
	return models.FromDomainConfigList(configs), nil
}

// Upsert создает конфигурацию уровня или обновляет существующую
// Доступно только владельцу и администратору
// Поддерживает частичное обновление - обновляются только указанные поля
func (s *Service) Upsert(ctx context.Context, actor domain.Actor, ownerID string, req *models.UpsertConfigRequest) (*models.ConfigResponse, error) {
	s.logger.Info("Upsert: schedule config for owner=%s, subject=%v by user=%s", ownerID, req.SubjectID, actor.UserID)

	// 1. Проверяем права доступа
	if !canManage(actor, ownerID) {
		s.logger.Warn("Upsert: user=%s cannot manage owner=%s", actor.UserID, ownerID)
		return nil, domain.ErrAccessDenied
	}

	// 2. Получаем конфигурацию этого уровня
	existing, err := s.configRepo.GetByOwnerAndSubject(ctx, ownerID, req.SubjectID)
	if err != nil && !errors.Is(err, scheduleRepo.ErrConfigNotFound) {
		s.logger.Error("Upsert: failed to check existing config: %v", err)
		return nil, fmt.Errorf("%w: failed to check existing config: %v", ErrInternal, err)
	}

	// 3. Применяем изменения к копии и валидируем
	var cfg domain.ScheduleConfig
	if existing != nil {
		cfg = *existing
	} else {
		cfg = *s.defaultFor(ownerID)
		cfg.SubjectID = req.SubjectID
	}
	req.ApplyToConfig(&cfg)

	if err := cfg.Validate(); err != nil {
		s.logger.Warn("Upsert: validation failed for owner=%s: %v", ownerID, err)
		return nil, err
	}

	// 4. Сохраняем
	var saved *domain.ScheduleConfig
	if existing != nil {
		saved, err = s.configRepo.Update(ctx, existing.ID, &cfg)
	} else {
		saved, err = s.configRepo.Create(ctx, &cfg)
	}
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrConfigNotFound) {
			s.logger.Warn("Upsert: config for owner=%s disappeared during update", ownerID)
			return nil, fmt.Errorf("%w: schedule config of owner %s", domain.ErrConflict, ownerID)
		}
		s.logger.Error("Upsert: repository error for owner=%s: %v", ownerID, err)
		return nil, fmt.Errorf("%w: Upsert - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Upsert: successfully saved config id=%d for owner=%s", saved.ID, ownerID)
	return models.FromDomainConfig(saved), nil
}

// Вспомогательные методы

func (s *Service) defaultFor(ownerID string) *domain.ScheduleConfig {
	cfg := s.defaults
	cfg.ID = 0
	cfg.OwnerID = ownerID
	cfg.SubjectID = nil
	return &cfg
}

// canManage проверяет, что актор - сам владелец или администратор
func canManage(actor domain.Actor, ownerID string) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return actor.Role.IsStaff() && actor.UserID == ownerID
}
