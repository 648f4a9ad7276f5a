package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	cancelBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_booking"
	getAvailabilityHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_availability"
	getAvailableSlotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_booking"
	getResourceBookingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_resource_bookings"
	rescheduleBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/reschedule_booking"
	scheduleHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/schedule"
	updateBookingStatusHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_booking_status"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/config"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/broker"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/cache"
	availabilityRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/availability"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/memory"
	outboxRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/outbox"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/directory"
	availabilityService "github.com/m04kA/SMC-SchedulingService/internal/service/availability"
	bookingsService "github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	scheduleService "github.com/m04kA/SMC-SchedulingService/internal/service/schedule"
	"github.com/m04kA/SMC-SchedulingService/internal/service/timezone"
	createBookingUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
	rescheduleBookingUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/reschedule_booking"
	"github.com/m04kA/SMC-SchedulingService/internal/worker/outboxrelay"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/keylock"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

// Хранилища собираются из postgres или из памяти процесса, поэтому
// переменные типизированы объединением интерфейсов потребителей.

type bookingStore interface {
	createBookingUC.BookingRepository
	rescheduleBookingUC.BookingRepository
	getAvailableSlotsUC.BookingRepository
	bookingsService.BookingRepository
}

type availabilityStore interface {
	availabilityService.Repository
	scheduleService.Repository
}

type outboxStore interface {
	createBookingUC.OutboxRepository
	rescheduleBookingUC.OutboxRepository
	bookingsService.OutboxRepository
	outboxrelay.OutboxRepository
}

type txStore interface {
	createBookingUC.TransactionManager
	rescheduleBookingUC.TransactionManager
	bookingsService.TransactionManager
	scheduleService.TxManager
	outboxrelay.TxManager
}

type directoryClient interface {
	createBookingUC.Directory
	rescheduleBookingUC.Directory
	getAvailableSlotsUC.Directory
	availabilityService.Directory
	scheduleService.Directory
	timezone.Directory
}

type appMetrics interface {
	createBookingUC.Metrics
	rescheduleBookingUC.Metrics
	getAvailableSlotsUC.Metrics
	bookingsService.Metrics
	availabilityService.Metrics
	outboxrelay.Metrics
	middleware.HTTPMetrics
	LockWait(wait time.Duration, acquired bool)
}

type storage struct {
	bookings     bookingStore
	availability availabilityStore
	outbox       outboxStore
	tx           txStore
	ping         func(ctx context.Context) error
	close        func()
}

func main() {
	configPath := flag.String("config", "config.toml", "path to TOML config")
	flag.Parse()

	// Загружаем конфигурацию; без файла стартуем в памяти
	cfg, err := loadConfig(*configPath)
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

	log.Info("Starting SMC-SchedulingService...")
	log.Info("Configuration: storage=%s, directory=%s, redis=%t, kafka=%t",
		cfg.Storage.Driver, cfg.Directory.Mode, cfg.Redis.Enabled, cfg.Kafka.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем метрики (если включены)
	var collector *metrics.Metrics
	var appM appMetrics = metrics.Nop{}
	stopMetricsCh := make(chan struct{})
	if cfg.Metrics.Enabled {
		collector = metrics.New(cfg.Metrics.ServiceName)
		appM = collector
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище
	store, err := openStorage(cfg, collector, stopMetricsCh, log)
	if err != nil {
		log.Fatal("Failed to initialize storage: %v", err)
	}
	defer store.close()

	// Справочник ресурсов и услуг
	dir, err := openDirectory(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize directory: %v", err)
	}

	// Кеш окон доступности
	windowCache, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize cache: %v", err)
	}
	defer closeCache()

	timezones := timezone.NewResolver(dir, timezone.Policy{
		Gap:       timezone.GapPolicy(cfg.Timezone.GapPolicy),
		Ambiguity: timezone.AmbiguityPolicy(cfg.Timezone.AmbiguityPolicy),
	})
	locks := keylock.NewRegistry(cfg.Booking.LockTimeout(), keylock.WithObserver(appM.LockWait))

	// Инициализируем сервисы
	availabilitySvc := availabilityService.NewService(store.availability, dir, timezones, windowCache, appM, log, cfg.Booking.MaxRangeDays)
	scheduleSvc := scheduleService.NewService(store.availability, dir, availabilitySvc, locks, store.tx, log)
	bookingSvc := bookingsService.NewService(store.bookings, store.outbox, locks, store.tx, appM, log)

	// Инициализируем use cases
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		availabilitySvc,
		timezones,
		store.bookings,
		dir,
		appM,
		log,
		getAvailableSlotsUC.Config{
			DefaultGridMinutes: cfg.Booking.DefaultGridMinutes,
			MinNoticeMinutes:   cfg.Booking.MinNoticeMinutes,
		},
	)
	createBookingUseCase := createBookingUC.NewUseCase(
		store.bookings,
		store.outbox,
		dir,
		timezones,
		locks,
		store.tx,
		appM,
		log,
		createBookingUC.Config{
			InitialStatus:    domain.BookingStatus(cfg.Booking.InitialStatus),
			MinNoticeMinutes: cfg.Booking.MinNoticeMinutes,
		},
	)
	rescheduleBookingUseCase := rescheduleBookingUC.NewUseCase(
		store.bookings,
		store.outbox,
		dir,
		timezones,
		locks,
		store.tx,
		appM,
		log,
		rescheduleBookingUC.Config{MinNoticeMinutes: cfg.Booking.MinNoticeMinutes},
	)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getAvailability := getAvailabilityHandler.NewHandler(availabilitySvc, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	rescheduleBooking := rescheduleBookingHandler.NewHandler(rescheduleBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	getResourceBookings := getResourceBookingsHandler.NewHandler(bookingSvc, log)
	schedule := scheduleHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.Recovery(log))

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(appM))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.ping(r.Context()); err != nil {
			log.Warn("GET /health - Storage unavailable: %v", err)
			handlers.RespondError(w, http.StatusServiceUnavailable, handlers.CodeInternal, "storage unavailable")
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// API prefix, все маршруты требуют X-Tenant-ID
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Tenant)

	// --- Доступность ---
	api.HandleFunc("/resources/{resourceId}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/resources/{resourceId}/availability", getAvailability.Handle).Methods(http.MethodGet)

	// --- Расписание ---
	api.HandleFunc("/resources/{resourceId}/availability-rules", schedule.CreateRule).Methods(http.MethodPost)
	api.HandleFunc("/resources/{resourceId}/availability-rules", schedule.ListRules).Methods(http.MethodGet)
	api.HandleFunc("/resources/{resourceId}/availability-rules/{ruleId}", schedule.DeleteRule).Methods(http.MethodDelete)
	api.HandleFunc("/resources/{resourceId}/availability-exceptions", schedule.CreateException).Methods(http.MethodPost)
	api.HandleFunc("/resources/{resourceId}/availability-exceptions/{exceptionId}", schedule.DeleteException).Methods(http.MethodDelete)
	api.HandleFunc("/resources/{resourceId}/time-blocks", schedule.CreateTimeBlock).Methods(http.MethodPost)
	api.HandleFunc("/resources/{resourceId}/time-blocks", schedule.ListTimeBlocks).Methods(http.MethodGet)

	// --- Бронирования ---
	api.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/reschedule", rescheduleBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/resources/{resourceId}/bookings", getResourceBookings.Handle).Methods(http.MethodGet)

	// Релей outbox -> Kafka
	relayDone := make(chan struct{})
	if cfg.Kafka.Enabled {
		publisher, err := broker.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Outbox.Topic,
			time.Duration(cfg.Kafka.WriteTimeoutMs)*time.Millisecond)
		if err != nil {
			log.Fatal("Failed to initialize kafka publisher: %v", err)
		}
		defer publisher.Close()

		relay := outboxrelay.NewRelay(store.outbox, publisher, store.tx, appM, log, outboxrelay.Config{
			PollInterval: cfg.Outbox.PollInterval(),
			BatchSize:    cfg.Outbox.BatchSize,
		})
		go func() {
			defer close(relayDone)
			relay.Run(ctx)
		}()
		log.Info("Outbox relay started: topic=%s, brokers=%v", cfg.Outbox.Topic, cfg.Kafka.Brokers)
	} else {
		close(relayDone)
		log.Warn("Kafka disabled, outbox events stay unpublished")
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
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

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	select {
	case <-relayDone:
	case <-shutdownCtx.Done():
		log.Warn("Outbox relay did not stop before shutdown timeout")
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("Config %s not found, using in-memory defaults\n", path)
		return config.Default(), nil
	}
	return config.Load(path)
}

func openStorage(cfg *config.Config, collector *metrics.Metrics, stopMetrics <-chan struct{}, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		store := memory.New()
		log.Warn("Using in-memory storage, data is lost on restart")
		return &storage{
			bookings:     store.Bookings(),
			availability: store.Availability(),
			outbox:       store.Outbox(),
			tx:           store,
			ping:         func(context.Context) error { return nil },
			close:        func() {},
		}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	wrapped := dbmetrics.WrapWithDefault(db, collector, cfg.Metrics.ServiceName, stopMetrics)
	if collector != nil {
		log.Info("Database metrics collection started")
	}

	return &storage{
		bookings:     bookingRepo.NewRepository(wrapped),
		availability: availabilityRepo.NewRepository(wrapped),
		outbox:       outboxRepo.NewRepository(wrapped),
		tx:           txmanager.NewTransactionManager(wrapped),
		ping:         wrapped.PingContext,
		close: func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close database: %v", err)
			}
		},
	}, nil
}

func openDirectory(cfg *config.Config, log *logger.Logger) (directoryClient, error) {
	if cfg.Directory.Mode == config.DirectoryHTTP {
		log.Info("Directory client initialized (url=%s, timeout=%ds)", cfg.Directory.URL, cfg.Directory.Timeout)
		return directory.NewClient(cfg.Directory.URL, time.Duration(cfg.Directory.Timeout)*time.Second, log), nil
	}

	if cfg.Directory.SeedFile == "" {
		log.Warn("Static directory without seed file, no resources are known")
		return directory.NewStatic(), nil
	}
	static, err := directory.LoadStatic(cfg.Directory.SeedFile)
	if err != nil {
		return nil, err
	}
	log.Info("Static directory loaded from %s", cfg.Directory.SeedFile)
	return static, nil
}

func openCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (availabilityService.WindowCache, func(), error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemory(cfg.Redis.TTL()), func() {}, nil
	}

	rc, err := cache.NewRedis(ctx, cache.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.KeyPrefix,
		TTL:      cfg.Redis.TTL(),
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info("Redis window cache connected (addr=%s, ttl=%s)", cfg.Redis.Addr, cfg.Redis.TTL())
	return rc, func() {
		if err := rc.Close(); err != nil {
			log.Error("Failed to close redis: %v", err)
		}
	}, nil
}
