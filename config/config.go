package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Events   EventsConfig   `yaml:"events"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	SeatMap  SeatMapConfig  `yaml:"seatmap"`
	Booking  BookingConfig  `yaml:"booking"`
	Ticket   TicketConfig   `yaml:"ticket"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	Docs           bool     `yaml:"docs"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GRPCConfig controls the health/reflection gRPC listener. Empty address disables it.
type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
	DeadLetterTopic    string   `yaml:"dead_letter_topic"`
}

type RabbitMQConfig struct {
	URL                string `yaml:"url"`
	BookingEventsQueue string `yaml:"booking_events_queue"`
	NotificationsQueue string `yaml:"notifications_queue"`
	DeadLetterQueue    string `yaml:"dead_letter_queue"`
}

// EventsConfig selects the broker booking events are published to:
// "kafka", "rabbitmq" or "" (disabled).
type EventsConfig struct {
	Driver string `yaml:"driver"`
}

// StorageConfig selects the ledger store: "postgres" (default) or "memory".
// SeedFile, when set, is a YAML list of trips upserted at startup.
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	SeedFile string `yaml:"seed_file"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
	TokenTTL  int    `yaml:"token_ttl_minutes"`
}

type SeatMapConfig struct {
	Decks                []string `yaml:"decks"`
	Rows                 int      `yaml:"rows"`
	Columns              int      `yaml:"columns"`
	DeriveFromTotalSeats bool     `yaml:"derive_from_total_seats"`
}

type BookingConfig struct {
	TripsCacheTTL     int `yaml:"trips_cache_ttl_seconds"`
	TripLockTTL       int `yaml:"trip_lock_ttl_seconds"`
	TripLockWaitMs    int `yaml:"trip_lock_wait_ms"`
	RequestTimeoutSec int `yaml:"request_timeout_seconds"`
}

func (b BookingConfig) TripsCacheDuration() time.Duration {
	return time.Duration(b.TripsCacheTTL) * time.Second
}

func (b BookingConfig) TripLockDuration() time.Duration {
	if b.TripLockTTL <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.TripLockTTL) * time.Second
}

func (b BookingConfig) TripLockWait() time.Duration {
	if b.TripLockWaitMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(b.TripLockWaitMs) * time.Millisecond
}

func (b BookingConfig) RequestTimeout() time.Duration {
	if b.RequestTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.RequestTimeoutSec) * time.Second
}

type TicketConfig struct {
	Brand     string `yaml:"brand"`
	OutputDir string `yaml:"output_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads a YAML file, expanding ${VAR} references from the
// environment before parsing.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "", "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Events.Driver {
	case "", "kafka", "rabbitmq":
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}
	if c.Events.Driver == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("events driver kafka requires kafka.brokers")
	}
	if c.Events.Driver == "rabbitmq" && c.RabbitMQ.URL == "" {
		return fmt.Errorf("events driver rabbitmq requires rabbitmq.url")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	return nil
}

func (c *Config) UsesPostgres() bool {
	return c.Storage.Driver == "" || c.Storage.Driver == "postgres"
}
