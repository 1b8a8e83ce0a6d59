package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Переменные окружения, переопределяющие значения из файла
const (
	envDBPassword    = "DB_PASSWORD"
	envRedisPassword = "REDIS_PASSWORD"
	envKafkaBrokers  = "KAFKA_BROKERS"
	envCatalogURL    = "CATALOG_SERVICE_URL"
)

// ErrInvalidConfig возвращается, если конфигурация не прошла проверку
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	Kafka     KafkaConfig     `toml:"kafka"`
	Catalog   CatalogConfig   `toml:"catalog_service"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Schedule  ScheduleConfig  `toml:"schedule"`
}

// ServerConfig таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
	// AllowedOrigins origin'ы браузеров для WebSocket; пусто - только same-origin
	AllowedOrigins []string `toml:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig кэш календаря владельца
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	TTL      int    `toml:"ttl"` // секунды
}

// KafkaConfig публикация событий смены статуса
type KafkaConfig struct {
	Enabled bool   `toml:"enabled"`
	Brokers string `toml:"brokers"` // через запятую
	Topic   string `toml:"topic"`
}

type CatalogConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// TelemetryConfig пустой endpoint отключает трассировку
type TelemetryConfig struct {
	Endpoint string `toml:"endpoint"`
	Insecure bool   `toml:"insecure"`
}

// RateLimitConfig лимит запросов на IP; rps <= 0 отключает ограничение
type RateLimitConfig struct {
	RPS   float64 `toml:"rps"`
	Burst int     `toml:"burst"`
	TTL   int     `toml:"ttl"` // секунды
}

// SchedulerConfig периодическая отмена просроченных завершений
type SchedulerConfig struct {
	Enabled bool   `toml:"enabled"`
	Spec    string `toml:"spec"` // cron выражение, например "@every 1m"
}

// ScheduleConfig часовой пояс и значения расписания по умолчанию
type ScheduleConfig struct {
	Timezone                string `toml:"timezone"`
	StartHour               *int   `toml:"start_hour"`
	EndHour                 *int   `toml:"end_hour"`
	MaxConcurrentBookings   *int   `toml:"max_concurrent_bookings"`
	AdvanceBookingDays      *int   `toml:"advance_booking_days"`
	MinBookingNoticeMinutes *int   `toml:"min_booking_notice_minutes"`
	CompletionExpiryMinutes *int   `toml:"completion_expiry_minutes"`
}

// Location часовой пояс расписания, по умолчанию UTC
func (c ScheduleConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Defaults конфигурация расписания, применяемая когда у владельца нет своей
func (c ScheduleConfig) Defaults() *domain.ScheduleConfig {
	d := domain.DefaultScheduleConfig("")
	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&d.StartHour, c.StartHour)
	set(&d.EndHour, c.EndHour)
	set(&d.MaxConcurrentBookings, c.MaxConcurrentBookings)
	set(&d.AdvanceBookingDays, c.AdvanceBookingDays)
	set(&d.MinBookingNoticeMinutes, c.MinBookingNoticeMinutes)
	set(&d.CompletionExpiryMinutes, c.CompletionExpiryMinutes)
	return d
}

// Load читает конфигурацию из TOML файла и применяет переменные окружения
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Redis:   RedisConfig{TTL: 300},
		Kafka:   KafkaConfig{Topic: "appointment-status"},
		Catalog: CatalogConfig{Timeout: 5},
		Logs:    LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "appointmentservice",
		},
		RateLimit: RateLimitConfig{Burst: 20, TTL: 600},
		Scheduler: SchedulerConfig{Enabled: true, Spec: "@every 1m"},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envDBPassword); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv(envRedisPassword); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv(envKafkaBrokers); v != "" {
		c.Kafka.Brokers = v
	}
	if v := os.Getenv(envCatalogURL); v != "" {
		c.Catalog.URL = v
	}
}

func (c *Config) validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port %d", ErrInvalidConfig, c.Server.HTTPPort)
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("%w: database.host and database.dbname are required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Catalog.URL) == "" {
		return fmt.Errorf("%w: catalog_service.url is required", ErrInvalidConfig)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required when redis is enabled", ErrInvalidConfig)
	}
	if c.Kafka.Enabled && (strings.TrimSpace(c.Kafka.Brokers) == "" || c.Kafka.Topic == "") {
		return fmt.Errorf("%w: kafka.brokers and kafka.topic are required when kafka is enabled", ErrInvalidConfig)
	}
	if c.Scheduler.Enabled && c.Scheduler.Spec == "" {
		return fmt.Errorf("%w: scheduler.spec is required when scheduler is enabled", ErrInvalidConfig)
	}
	if _, err := c.Schedule.Location(); err != nil {
		return err
	}
	if err := c.Schedule.Defaults().Window().Validate(); err != nil {
		return fmt.Errorf("%w: schedule: %v", ErrInvalidConfig, err)
	}
	return nil
}
