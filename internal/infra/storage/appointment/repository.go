package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

const table = "appointments"

var columns = []string{
	"id",
	"subject_kind",
	"subject_id",
	"client_id",
	"provider_id",
	"scheduled_at",
	"duration_minutes",
	"departure_date",
	"intervention_type",
	"base_price_cents",
	"price_cents",
	"notes",
	"rating_score",
	"rating_comment",
	"status",
	"completion_pending",
	"completion_requested_at",
	"version",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с записями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новую запись с версией 1
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, appt *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	ratingScore, ratingComment := ratingColumns(appt.Rating)
	appt.Version = 1

	query, args, err := psqlbuilder.Insert(table).
		Columns(columns[:18]...).
		Values(
			appt.ID,
			appt.Subject.Kind,
			appt.Subject.ID,
			appt.ClientID,
			appt.ProviderID,
			appt.ScheduledAt,
			appt.DurationMinutes,
			appt.DepartureDate,
			appt.InterventionType,
			appt.BasePriceCents,
			appt.PriceCents,
			appt.Notes,
			ratingScore,
			ratingComment,
			appt.Status,
			appt.CompletionPending,
			appt.CompletionRequestedAt,
			appt.Version,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	appt.CreatedAt = createdAt.Time
	appt.UpdatedAt = updatedAt.Time

	return appt, nil
}

// GetByID получает запись по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	appt, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %v", ErrScanRow, err)
	}

	return appt, nil
}

// Save сохраняет изменения записи через compare-and-set:
// строка обновляется, только если версия и статус совпадают с ожидаемыми.
// При успехе версия увеличивается на 1.
func (r *Repository) Save(ctx context.Context, appt *domain.Appointment, expectedStatus domain.Status) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	ratingScore, ratingComment := ratingColumns(appt.Rating)

	query, args, err := psqlbuilder.Update(table).
		Set("status", appt.Status).
		Set("scheduled_at", appt.ScheduledAt).
		Set("departure_date", appt.DepartureDate).
		Set("price_cents", appt.PriceCents).
		Set("notes", appt.Notes).
		Set("rating_score", ratingScore).
		Set("rating_comment", ratingComment).
		Set("completion_pending", appt.CompletionPending).
		Set("completion_requested_at", appt.CompletionRequestedAt).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{
			"id":      appt.ID,
			"version": appt.Version,
			"status":  expectedStatus,
		}).
		Suffix("RETURNING version, updated_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Save - build update query: %v", ErrBuildQuery, err)
	}

	var version int64
	var updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&version, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Различаем удалённую запись и проигранную гонку
		exists, existsErr := r.exists(ctx, appt.ID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return ErrAppointmentNotFound
		}
		return fmt.Errorf("%w: Save - id=%s version=%d status=%s", ErrVersionConflict, appt.ID, appt.Version, expectedStatus)
	}
	if err != nil {
		return fmt.Errorf("%w: Save - execute update: %v", ErrExecQuery, err)
	}

	appt.Version = version
	appt.UpdatedAt = updatedAt.Time

	return nil
}

// Query получает записи с фильтрацией
// Поддерживает фильтрацию по:
// - Владельцу, клиенту, субъекту - опционально
// - Периоду [From, To) по scheduled_at - опционально
// - Статусам (Statuses) - опционально
// - Включению неактивных записей (IncludeInactive)
//
// Внутри транзакции при фильтре по субъекту строки блокируются (FOR UPDATE),
// чтобы параллельное создание не заняло тот же слот.
func (r *Repository) Query(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).From(table)

	if filter.OwnerID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"provider_id": *filter.OwnerID})
	}
	if filter.ClientID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.SubjectID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"subject_id": *filter.SubjectID})
	}

	// Фильтрация по периоду
	if filter.From != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"scheduled_at": *filter.From})
	}
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"scheduled_at": *filter.To})
	}

	// Фильтрация по статусу
	if len(filter.Statuses) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(filter.Statuses)})
	} else if !filter.IncludeInactive {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": statusStrings(domain.InactiveStatuses)})
	}

	selectBuilder = selectBuilder.OrderBy("scheduled_at ASC", "created_at ASC")

	if dbmetrics.IsInTransaction(ctx) && filter.SubjectID != nil {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Query - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: Query - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

// ListPendingCompletions получает подтверждённые записи, ожидающие сумму
// завершения с момента не позже requestedBefore. Используется фоновой очисткой.
// Страницы упорядочены по (completion_requested_at, id); after - позиция,
// после которой начинается следующая страница (nil = с начала).
func (r *Repository) ListPendingCompletions(ctx context.Context, requestedBefore time.Time, after *domain.CompletionCursor, limit uint64) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{
			"status":             domain.StatusConfirmed,
			"completion_pending": true,
		}).
		Where(squirrel.LtOrEq{"completion_requested_at": requestedBefore}).
		OrderBy("completion_requested_at ASC", "id ASC")

	if after != nil {
		selectBuilder = selectBuilder.Where(
			squirrel.Expr("(completion_requested_at, id) > (?, ?)", after.RequestedAt, after.ID),
		)
	}

	if limit > 0 {
		selectBuilder = selectBuilder.Limit(limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingCompletions - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingCompletions - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanAppointments(rows)
}

func (r *Repository) exists(ctx context.Context, id string) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("1").
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: exists - build select query: %v", ErrBuildQuery, err)
	}

	var one int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: exists - execute query: %v", ErrExecQuery, err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAppointment сканирует одну строку в запись
func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var appt domain.Appointment
	var (
		departureDate         sql.NullTime
		priceCents            sql.NullInt64
		notes                 sql.NullString
		ratingScore           sql.NullInt64
		ratingComment         sql.NullString
		completionRequestedAt sql.NullTime
		createdAt, updatedAt  sql.NullTime
	)

	err := row.Scan(
		&appt.ID,
		&appt.Subject.Kind,
		&appt.Subject.ID,
		&appt.ClientID,
		&appt.ProviderID,
		&appt.ScheduledAt,
		&appt.DurationMinutes,
		&departureDate,
		&appt.InterventionType,
		&appt.BasePriceCents,
		&priceCents,
		&notes,
		&ratingScore,
		&ratingComment,
		&appt.Status,
		&appt.CompletionPending,
		&completionRequestedAt,
		&appt.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if departureDate.Valid {
		appt.DepartureDate = &departureDate.Time
	}
	if priceCents.Valid {
		appt.PriceCents = &priceCents.Int64
	}
	if notes.Valid {
		appt.Notes = &notes.String
	}
	if ratingScore.Valid {
		appt.Rating = &domain.Rating{Score: int(ratingScore.Int64)}
		if ratingComment.Valid {
			appt.Rating.Comment = &ratingComment.String
		}
	}
	if completionRequestedAt.Valid {
		appt.CompletionRequestedAt = &completionRequestedAt.Time
	}
	appt.CreatedAt = createdAt.Time
	appt.UpdatedAt = updatedAt.Time

	return &appt, nil
}

// scanAppointments сканирует результаты запроса в слайс записей
func scanAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	appts := make([]*domain.Appointment, 0)

	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanAppointments - scan row: %v", ErrScanRow, err)
		}
		appts = append(appts, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanAppointments - rows error: %v", ErrScanRow, err)
	}

	return appts, nil
}

func ratingColumns(r *domain.Rating) (*int, *string) {
	if r == nil {
		return nil, nil
	}
	score := r.Score
	return &score, r.Comment
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
