package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/email"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/notify"
	"github.com/Domenick1991/busbooking/internal/rabbitmq"
	"github.com/Domenick1991/busbooking/internal/ticket"
	"github.com/joho/godotenv"
)

type consumer interface {
	Consume(ctx context.Context, handler func(context.Context, []byte) error) error
}

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
	logger := cfg.Log.NewLogger(os.Stderr).With("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var source consumer
	switch cfg.Events.Driver {
	case "kafka":
		c := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic,
			kafka.WithConsumerLogger(logger),
			kafka.WithDeadLetterTopic(cfg.Kafka.DeadLetterTopic),
		)
		defer c.Close()
		source = c
	case "rabbitmq":
		source = rabbitmq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.NotificationsQueue, logger,
			rabbitmq.WithDeadLetterQueue(cfg.RabbitMQ.DeadLetterQueue),
		)
	default:
		logger.Error("worker needs events.driver kafka or rabbitmq")
		os.Exit(1)
	}

	handler := notify.NewHandler(
		ticket.NewRenderer(cfg.Ticket.Brand),
		email.NewSender(cfg.Ticket.OutputDir, logger),
		logger,
	)

	logger.Info("worker started", "driver", cfg.Events.Driver)
	if err := source.Consume(ctx, handler.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
