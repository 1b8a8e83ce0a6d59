package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

const table = "schedule_configs"

var columns = []string{
	"id",
	"owner_id",
	"subject_id",
	"start_hour",
	"end_hour",
	"max_concurrent_bookings",
	"advance_booking_days",
	"min_booking_notice_minutes",
	"completion_expiry_minutes",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с расписанием владельцев
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую конфигурацию расписания
func (r *Repository) Create(ctx context.Context, cfg *domain.ScheduleConfig) (*domain.ScheduleConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(columns[1:9]...).
		Values(
			cfg.OwnerID,
			cfg.SubjectID,
			cfg.StartHour,
			cfg.EndHour,
			cfg.MaxConcurrentBookings,
			cfg.AdvanceBookingDays,
			cfg.MinBookingNoticeMinutes,
			cfg.CompletionExpiryMinutes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&cfg.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	cfg.CreatedAt = createdAt.Time
	cfg.UpdatedAt = updatedAt.Time

	return cfg, nil
}

// GetByOwnerAndSubject получает конфигурацию ровно на указанном уровне:
// subjectID == nil - общая конфигурация владельца, иначе конфигурация субъекта
func (r *Repository) GetByOwnerAndSubject(ctx context.Context, ownerID string, subjectID *string) (*domain.ScheduleConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"owner_id": ownerID})

	// Фильтрация по subject_id (NULL или конкретное значение)
	if subjectID == nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"subject_id": nil})
	} else {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"subject_id": *subjectID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByOwnerAndSubject - build select query: %v", ErrBuildQuery, err)
	}

	cfg, err := scanConfig(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByOwnerAndSubject - scan config: %v", ErrScanRow, err)
	}

	return cfg, nil
}

// GetWithHierarchy получает конфигурацию с учетом иерархии приоритетов
// 1. Конфигурация конкретного субъекта (ownerID, subjectID)
// 2. Общая конфигурация владельца (ownerID, NULL)
//
// Если конфигурация не найдена ни на одном уровне, возвращает ErrConfigNotFound
func (r *Repository) GetWithHierarchy(ctx context.Context, ownerID string, subjectID *string) (*domain.ScheduleConfig, error) {
	// 1. Пробуем конфигурацию субъекта
	if subjectID != nil {
		cfg, err := r.GetByOwnerAndSubject(ctx, ownerID, subjectID)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, ErrConfigNotFound) {
			return nil, fmt.Errorf("%w: GetWithHierarchy - level 1 (subject): %v", ErrExecQuery, err)
		}
	}

	// 2. Пробуем общую конфигурацию владельца
	cfg, err := r.GetByOwnerAndSubject(ctx, ownerID, nil)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrConfigNotFound) {
		return nil, fmt.Errorf("%w: GetWithHierarchy - level 2 (owner): %v", ErrExecQuery, err)
	}

	return nil, ErrConfigNotFound
}

// GetAllByOwner получает все конфигурации владельца, общая первой
func (r *Repository) GetAllByOwner(ctx context.Context, ownerID string) ([]*domain.ScheduleConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("subject_id ASC NULLS FIRST").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetAllByOwner - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetAllByOwner - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	configs := make([]*domain.ScheduleConfig, 0)
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetAllByOwner - scan row: %v", ErrScanRow, err)
		}
		configs = append(configs, cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetAllByOwner - rows error: %v", ErrScanRow, err)
	}

	return configs, nil
}

// Update обновляет конфигурацию расписания
func (r *Repository) Update(ctx context.Context, id int64, cfg *domain.ScheduleConfig) (*domain.ScheduleConfig, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("start_hour", cfg.StartHour).
		Set("end_hour", cfg.EndHour).
		Set("max_concurrent_bookings", cfg.MaxConcurrentBookings).
		Set("advance_booking_days", cfg.AdvanceBookingDays).
		Set("min_booking_notice_minutes", cfg.MinBookingNoticeMinutes).
		Set("completion_expiry_minutes", cfg.CompletionExpiryMinutes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	cfg.ID = id
	cfg.CreatedAt = createdAt.Time
	cfg.UpdatedAt = updatedAt.Time

	return cfg, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConfig(row rowScanner) (*domain.ScheduleConfig, error) {
	var cfg domain.ScheduleConfig
	var subjectID sql.NullString
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&cfg.ID,
		&cfg.OwnerID,
		&subjectID,
		&cfg.StartHour,
		&cfg.EndHour,
		&cfg.MaxConcurrentBookings,
		&cfg.AdvanceBookingDays,
		&cfg.MinBookingNoticeMinutes,
		&cfg.CompletionExpiryMinutes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if subjectID.Valid {
		cfg.SubjectID = &subjectID.String
	}
	cfg.CreatedAt = createdAt.Time
	cfg.UpdatedAt = updatedAt.Time

	return &cfg, nil
}
