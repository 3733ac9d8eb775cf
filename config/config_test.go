package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_ExpandsEnv(t *testing.T) {
	t.Setenv("BUS_DB_PASSWORD", "s3cret")
	t.Setenv("BUS_JWT_SECRET", "signing-key")

	path := writeConfig(t, `
http:
  address: ":8080"
database:
  host: localhost
  port: 5432
  user: bus
  password: ${BUS_DB_PASSWORD}
  name: busbooking
  ssl_mode: disable
auth:
  jwt_secret: ${BUS_JWT_SECRET}
seatmap:
  derive_from_total_seats: true
booking:
  trips_cache_ttl_seconds: 30
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "signing-key", cfg.Auth.JWTSecret)
	assert.True(t, cfg.SeatMap.DeriveFromTotalSeats)
	assert.True(t, cfg.UsesPostgres())
	assert.Equal(t, 30*time.Second, cfg.Booking.TripsCacheDuration())
	assert.Equal(t, 10*time.Second, cfg.Booking.TripLockDuration())
	assert.Equal(t, 2*time.Second, cfg.Booking.TripLockWait())
	assert.Contains(t, cfg.Database.DSN(), "password=s3cret")
}

func TestLoadConfig_Validation(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		expectedErr string
	}{
		{
			name:        "missing secret",
			body:        "storage:\n  driver: memory\n",
			expectedErr: "jwt_secret",
		},
		{
			name:        "unknown storage",
			body:        "storage:\n  driver: firestore\nauth:\n  jwt_secret: x\n",
			expectedErr: "unknown storage driver",
		},
		{
			name:        "kafka without brokers",
			body:        "events:\n  driver: kafka\nauth:\n  jwt_secret: x\n",
			expectedErr: "kafka.brokers",
		},
		{
			name:        "rabbitmq without url",
			body:        "events:\n  driver: rabbitmq\nauth:\n  jwt_secret: x\n",
			expectedErr: "rabbitmq.url",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}
