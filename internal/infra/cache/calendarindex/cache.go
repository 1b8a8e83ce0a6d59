// Package calendarindex stores pre-aggregated month calendars of an owner
// in Redis. A cached index is served verbatim by the calendar aggregator.
package calendarindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-AppointmentService/internal/calendar"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

const keyPrefix = "calendar"

var (
	// ErrCache возвращается при ошибках работы с Redis
	ErrCache = errors.New("calendarindex: cache error")

	// ErrDecode возвращается, когда сохранённый индекс не удалось разобрать
	ErrDecode = errors.New("calendarindex: failed to decode index")
)

// Cache кэш месячных индексов календаря
type Cache struct {
	rdb     redis.Cmdable
	ttl     time.Duration
	metrics *metrics.Metrics
}

// New создает кэш. ttl <= 0 означает хранение без срока.
func New(rdb redis.Cmdable, ttl time.Duration, m *metrics.Metrics) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, metrics: m}
}

// Key returns the Redis key of the owner's month.
func Key(ownerID string, month time.Time) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, ownerID, month.Format(domain.MonthFormat))
}

// Get возвращает индекс месяца; ok=false при промахе
func (c *Cache) Get(ctx context.Context, ownerID string, month time.Time) (calendar.Index, bool, error) {
	raw, err := c.rdb.Get(ctx, Key(ownerID, month)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.ObserveCache(false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: Get - owner=%s: %v", ErrCache, ownerID, err)
	}

	var idx calendar.Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, false, fmt.Errorf("%w: owner=%s: %v", ErrDecode, ownerID, err)
	}
	if idx == nil {
		idx = calendar.Index{}
	}

	c.metrics.ObserveCache(true)
	return idx, true, nil
}

// Set сохраняет индекс месяца
func (c *Cache) Set(ctx context.Context, ownerID string, month time.Time, idx calendar.Index) error {
	raw, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("%w: Set - encode: %v", ErrCache, err)
	}
	if err := c.rdb.Set(ctx, Key(ownerID, month), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: Set - owner=%s: %v", ErrCache, ownerID, err)
	}
	return nil
}

// Invalidate удаляет индексы месяцев, в которые попадают переданные даты
func (c *Cache) Invalidate(ctx context.Context, ownerID string, dates ...time.Time) error {
	if len(dates) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dates))
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		key := Key(ownerID, d)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: Invalidate - owner=%s: %v", ErrCache, ownerID, err)
	}
	return nil
}
