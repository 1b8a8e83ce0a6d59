package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	attachRatingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/attach_rating"
	completeAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/complete_appointment"
	createAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_appointment"
	getAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_appointment"
	getAvailableSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_available_slots"
	getOwnerCalendarHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_owner_calendar"
	getScheduleConfigHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_schedule_config"
	getUrgentSlotHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_urgent_slot"
	listAppointmentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_appointments"
	listScheduleConfigsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_schedule_configs"
	quoteStayHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/quote_stay"
	requestCompletionHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/request_completion"
	submitAmountHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/submit_amount"
	transitionAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/transition_appointment"
	updateScheduleConfigHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_schedule_config"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/cache/calendarindex"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events/kafka"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events/ws"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	catalogClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/catalog"
	appointmentsService "github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	scheduleService "github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
	createAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
	getAvailableSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	quoteStayUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/quote_stay"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/telemetry"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from config.toml")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	loc, err := cfg.Schedule.Location()
	if err != nil {
		log.Fatal("Invalid schedule timezone: %v", err)
	}

	// Трассировка (no-op без endpoint)
	shutdownTracing := telemetry.Setup(ctx, cfg.Metrics.ServiceName, cfg.Telemetry.Endpoint, cfg.Telemetry.Insecure, log)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Без метрик обёртка только пробрасывает вызовы
	wrappedDB := dbmetrics.Wrap(db, nil)
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")
	}

	// Репозитории и менеджер транзакций
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	scheduleRepository := scheduleRepo.NewRepository(wrappedDB)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Клиент каталога услуг и объявлений
	catalog := catalogClient.NewClient(
		cfg.Catalog.URL,
		time.Duration(cfg.Catalog.Timeout)*time.Second,
		log,
	)
	log.Info("Catalog client initialized (url=%s, timeout=%ds)", cfg.Catalog.URL, cfg.Catalog.Timeout)

	// Кэш календаря в Redis (опционально)
	var calendarCache appointmentsService.CalendarCache
	var calendarInvalidator createAppointmentUC.CalendarInvalidator
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("Redis is unavailable, calendar cache disabled: %v", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			cache := calendarindex.New(rdb, time.Duration(cfg.Redis.TTL)*time.Second, metricsCollector)
			calendarCache = cache
			calendarInvalidator = cache
			log.Info("Calendar cache enabled (addr=%s, ttl=%ds)", cfg.Redis.Addr, cfg.Redis.TTL)
		}
	}

	// События смены статуса: WebSocket подписчики и Kafka
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	publishers := []events.Publisher{hub}
	var kafkaPublisher *kafka.Publisher
	if cfg.Kafka.Enabled {
		kafkaPublisher = kafka.NewPublisher(kafka.SplitBrokers(cfg.Kafka.Brokers), cfg.Kafka.Topic)
		if kafkaPublisher != nil {
			publishers = append(publishers, kafkaPublisher)
			log.Info("Kafka publisher enabled (brokers=%s, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
		}
	}
	fanout := events.NewFanout(log, metricsCollector, publishers...)

	// Инициализируем сервисы
	scheduleSvc := scheduleService.NewService(scheduleRepository, cfg.Schedule.Defaults(), log)
	appointmentSvc := appointmentsService.NewService(
		appointmentRepository,
		scheduleSvc,
		calendarCache,
		fanout,
		metricsCollector,
		loc,
		log,
	)

	// Инициализируем use cases
	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		appointmentRepository,
		scheduleSvc,
		catalog,
		calendarInvalidator,
		txMgr,
		loc,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		appointmentRepository,
		scheduleSvc,
		catalog,
		loc,
		log,
	)
	quoteStayUseCase := quoteStayUC.NewUseCase(catalog, loc, log)

	// Инициализируем handlers
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getUrgentSlot := getUrgentSlotHandler.NewHandler(getAvailableSlotsUseCase, log)
	quoteStay := quoteStayHandler.NewHandler(quoteStayUseCase, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentSvc, log)
	listAppointments := listAppointmentsHandler.NewHandler(appointmentSvc, log)
	transitionAppointment := transitionAppointmentHandler.NewHandler(appointmentSvc, log)
	requestCompletion := requestCompletionHandler.NewHandler(appointmentSvc, log)
	submitAmount := submitAmountHandler.NewHandler(appointmentSvc, log)
	completeAppointment := completeAppointmentHandler.NewHandler(appointmentSvc, log)
	attachRating := attachRatingHandler.NewHandler(appointmentSvc, log)
	getOwnerCalendar := getOwnerCalendarHandler.NewHandler(appointmentSvc, log)
	getScheduleConfig := getScheduleConfigHandler.NewHandler(scheduleSvc, log)
	listScheduleConfigs := listScheduleConfigsHandler.NewHandler(scheduleSvc, log)
	updateScheduleConfig := updateScheduleConfigHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// Ограничение частоты запросов по IP
	if cfg.RateLimit.RPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst,
			time.Duration(cfg.RateLimit.TTL)*time.Second, log)
		r.Use(limiter.Middleware)
		log.Info("Rate limiting enabled (rps=%.1f, burst=%d)", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Доступные слоты и предпросмотр срочного слота
	api.HandleFunc("/subjects/{kind}/{id}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/subjects/{kind}/{id}/urgent-slot", getUrgentSlot.Handle).Methods(http.MethodGet)

	// Расчет стоимости проживания
	api.HandleFunc("/stays/quote", quoteStay.Handle).Methods(http.MethodGet)

	// Действующая конфигурация расписания владельца
	api.HandleFunc("/owners/{ownerId}/schedule-config", getScheduleConfig.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID и X-User-Role)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Записи ---
	protected.HandleFunc("/appointments", createAppointment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/appointments", listAppointments.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}", getAppointment.Handle).Methods(http.MethodGet)

	// Смена статуса
	protected.HandleFunc("/appointments/{id}/transitions", transitionAppointment.Handle).Methods(http.MethodPost)

	// Двухфазное завершение и завершение одним шагом
	protected.HandleFunc("/appointments/{id}/completion", requestCompletion.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/{id}/completion", submitAmount.Handle).Methods(http.MethodPut)
	protected.HandleFunc("/appointments/{id}/complete", completeAppointment.Handle).Methods(http.MethodPost)

	// Оценка завершенной записи
	protected.HandleFunc("/appointments/{id}/rating", attachRating.Handle).Methods(http.MethodPost)

	// --- Владелец ---
	protected.HandleFunc("/owners/{ownerId}/calendar", getOwnerCalendar.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/owners/{ownerId}/schedule-configs", listScheduleConfigs.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/owners/{ownerId}/schedule-config", updateScheduleConfig.Handle).Methods(http.MethodPut)

	// Поток событий смены статуса
	protected.HandleFunc("/events/ws", ws.Handler(hub, middleware.ActorFromRequest, cfg.Server.AllowedOrigins...)).Methods(http.MethodGet)

	// Периодически снимаем просроченные ожидания суммы
	var sweeper *cron.Cron
	if cfg.Scheduler.Enabled {
		sweeper = cron.New()
		_, err := sweeper.AddFunc(cfg.Scheduler.Spec, func() {
			expired, err := appointmentSvc.ExpireStaleCompletions(ctx)
			if err != nil {
				log.Error("Completion sweep failed: %v", err)
				return
			}
			if expired > 0 {
				log.Info("Completion sweep cleared %d expired completion requests", expired)
			}
		})
		if err != nil {
			log.Fatal("Invalid scheduler spec %q: %v", cfg.Scheduler.Spec, err)
		}
		sweeper.Start()
		log.Info("Completion sweep scheduled (%s)", cfg.Scheduler.Spec)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, cfg.Metrics.ServiceName),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Дожидаемся текущего прохода планировщика
	if sweeper != nil {
		<-sweeper.Stop().Done()
		log.Info("Completion sweep stopped")
	}

	// Останавливаем хаб и фоновые задачи
	stop()

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Error("Failed to close kafka publisher: %v", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("Failed to close redis client: %v", err)
		}
	}

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Failed to shutdown tracing: %v", err)
	}

	log.Info("Server stopped gracefully")
}
