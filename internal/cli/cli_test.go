package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/auth"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/seatmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "storage:\n  driver: memory\nauth:\n  jwt_secret: cli-secret\n  issuer: busbooking\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTokenCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := execute(t, "--config", cfgPath, "token", "--user", "op-1", "--name", "Green Line", "--role", "operator")
	require.NoError(t, err)

	m := auth.NewManager(config.AuthConfig{JWTSecret: "cli-secret", Issuer: "busbooking"})
	p, err := m.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{UserID: "op-1", Name: "Green Line", Role: domain.RoleOperator}, p)
}

func TestTokenCommandJSON(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := execute(t, "--config", cfgPath, "--format", "json", "token", "--user", "rider-1")
	require.NoError(t, err)

	var resp map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.NotEmpty(t, resp["token"])
	assert.NotEmpty(t, resp["expires_at"])
}

func TestTokenCommandErrors(t *testing.T) {
	cfgPath := writeTestConfig(t)

	_, err := execute(t, "--config", cfgPath, "token", "--user", "x", "--role", "admin")
	assert.ErrorContains(t, err, "invalid role")

	_, err = execute(t, "--config", cfgPath, "token")
	assert.Error(t, err)

	_, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "token", "--user", "x")
	assert.ErrorContains(t, err, "load config")
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "seats")
	assert.ErrorContains(t, err, "invalid format")
}

func TestSeatsCommand(t *testing.T) {
	out, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "seats")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "[lower]", lines[0])
	assert.Equal(t, "L1 L2 L3 L4 L5 L6", lines[1])
	assert.Equal(t, "[upper]", lines[4])
	assert.Equal(t, "U13 U14 U15 U16 U17 U18", lines[7])
}

func TestSeatsCommandJSON(t *testing.T) {
	out, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "--format", "json", "seats")
	require.NoError(t, err)

	var seats []domain.Seat
	require.NoError(t, json.Unmarshal([]byte(out), &seats))
	assert.Equal(t, seatmap.Default().Generate(36), seats)
}

func TestMigratePrint(t *testing.T) {
	out, err := execute(t, "migrate", "--print")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS bookings")
}
