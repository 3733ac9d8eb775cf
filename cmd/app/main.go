package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/busbooking/api"
	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/auth"
	"github.com/Domenick1991/busbooking/internal/bootstrap"
	"github.com/Domenick1991/busbooking/internal/cache"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/lock"
	"github.com/Domenick1991/busbooking/internal/rabbitmq"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/Domenick1991/busbooking/internal/seatmap"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/ledger"
	"github.com/Domenick1991/busbooking/internal/service/trips"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("load .env", "error", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var (
		tripRepo    repository.TripRepository
		bookingRepo repository.BookingRepository
	)
	if cfg.UsesPostgres() {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := repository.Migrate(ctx, pool); err != nil {
			return err
		}
		tripRepo = repository.NewTripRepository(pool)
		bookingRepo = repository.NewBookingRepository(pool)
	} else {
		store := repository.NewMemoryStore()
		tripRepo, bookingRepo = store, store
		logger.Warn("using in-memory storage; bookings are lost on restart")
	}

	locker := lock.Locker(lock.NewKeyed())
	var tripCache trips.TripCache
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.TripsCacheDuration())
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			return err
		}
		tripCache = redisCache
		locker = lock.Chain{
			lock.NewKeyed(),
			lock.NewDistributed(redisCache, cfg.Booking.TripLockDuration(), cfg.Booking.TripLockWait()),
		}
	}

	producer, closeProducer, err := newProducer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeProducer()

	seats := seatmap.New(cfg.SeatMap)
	led := ledger.New(bookingRepo, seats, ledger.WithLocker(locker), ledger.WithLogger(logger))

	opts := []booking.BookingServiceOption{booking.WithLogger(logger)}
	if producer != nil {
		bookingTopic, notificationsTopic := cfg.Kafka.BookingEventsTopic, cfg.Kafka.NotificationsTopic
		if cfg.Events.Driver == "rabbitmq" {
			bookingTopic, notificationsTopic = cfg.RabbitMQ.BookingEventsQueue, cfg.RabbitMQ.NotificationsQueue
		}
		opts = append(opts, booking.WithProducer(producer, bookingTopic), booking.WithNotificationsTopic(notificationsTopic))
	}

	tripService := trips.NewTripService(tripRepo, tripCache, logger)
	if cfg.Storage.SeedFile != "" {
		seed, err := repository.LoadSeed(cfg.Storage.SeedFile)
		if err != nil {
			return err
		}
		n, err := tripService.Import(ctx, seed)
		if err != nil {
			return err
		}
		logger.Info("seeded trips", "count", n)
	}
	bookingService := booking.NewBookingService(tripRepo, bookingRepo, seats, led, opts...)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.RouterConfig{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Docs:           cfg.HTTP.Docs,
		RequestTimeout: cfg.Booking.RequestTimeout(),
	}, api.Dependencies{
		Trips:    tripService,
		Bookings: bookingService,
		Verifier: auth.NewManager(cfg.Auth),
		Logger:   logger,
	})

	return bootstrap.Run(ctx, cfg, router, logger)
}

func newProducer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (booking.Producer, func(), error) {
	switch cfg.Events.Driver {
	case "kafka":
		p := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		if err := p.CheckConnection(ctx); err != nil {
			logger.Warn("kafka not reachable at startup", "error", err)
		}
		return p, func() { _ = p.Close() }, nil
	case "rabbitmq":
		p := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, logger)
		return p, func() { _ = p.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
