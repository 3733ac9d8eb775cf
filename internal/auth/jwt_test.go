package auth

import (
	"testing"
	"time"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(config.AuthConfig{JWTSecret: "test-secret", Issuer: "busbooking", TokenTTL: 15})
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	m := newTestManager()
	p := domain.Principal{UserID: "op-1", Name: "Green Line", Role: domain.RoleOperator}

	raw, exp, err := m.Issue(p)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	got, err := m.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.True(t, got.IsOperator())
}

func TestVerify_Rejects(t *testing.T) {
	m := newTestManager()
	valid, _, err := m.Issue(domain.Principal{UserID: "rider-1", Role: domain.RoleRider})
	require.NoError(t, err)

	other := NewManager(config.AuthConfig{JWTSecret: "other-secret", Issuer: "busbooking"})
	wrongSecret, _, err := other.Issue(domain.Principal{UserID: "rider-1", Role: domain.RoleRider})
	require.NoError(t, err)

	foreign := NewManager(config.AuthConfig{JWTSecret: "test-secret", Issuer: "someone-else"})
	wrongIssuer, _, err := foreign.Issue(domain.Principal{UserID: "rider-1", Role: domain.RoleRider})
	require.NoError(t, err)

	expired := newTestManager()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredTok, _, err := expired.Issue(domain.Principal{UserID: "rider-1", Role: domain.RoleRider})
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "rider-1",
			Issuer:    "busbooking",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": wrongSecret,
		"wrong issuer": wrongIssuer,
		"expired":      expiredTok,
		"unknown role": badRole,
		"tampered":     valid + "x",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerify_DefaultsToRider(t *testing.T) {
	m := newTestManager()
	raw, _, err := m.Issue(domain.Principal{UserID: "rider-1", Name: "Asha"})
	require.NoError(t, err)

	got, err := m.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleRider, got.Role)
}

func TestIssue_EmptySubject(t *testing.T) {
	_, _, err := newTestManager().Issue(domain.Principal{})
	assert.Error(t, err)
}
