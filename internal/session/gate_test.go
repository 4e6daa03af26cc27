package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/logdesk/internal/auth"
	"github.com/charliek/logdesk/internal/constants"
	"github.com/charliek/logdesk/internal/domain"
)

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func newTestGate(t *testing.T) (*Gate, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	provider := auth.NewCredentialStore(map[string]string{
		"admin@example.com": "hunter2",
	})
	gate := NewGate(storage, provider, GateConfig{
		TTL: time.Hour,
		Now: func() time.Time { return testNow },
	})
	return gate, storage
}

func TestGate_CheckSession_FailsSoft(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "{{{"},
		{"json array", "[1,2,3]"},
		{"json string", `"admin@example.com"`},
		{"wrong types", `{"email": 42, "authenticated": "yes"}`},
		{"not authenticated", `{"email":"admin@example.com","authenticated":false}`},
		{"missing email", `{"authenticated":true}`},
		{"bad time", `{"email":"admin@example.com","authenticated":true,"loginTime":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, storage := newTestGate(t)
			require.NoError(t, storage.Set(ctx, constants.SessionKey, []byte(tt.raw)))

			assert.Nil(t, gate.CheckSession(ctx))
			assert.Equal(t, domain.ScreenLogin, gate.CurrentScreen(ctx))
		})
	}

	t.Run("absent", func(t *testing.T) {
		gate, _ := newTestGate(t)
		assert.Nil(t, gate.CheckSession(ctx))
	})
}

type failingStorage struct{}

func (failingStorage) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}
func (failingStorage) Set(context.Context, string, []byte) error { return errors.New("disk on fire") }
func (failingStorage) Delete(context.Context, string) error      { return errors.New("disk on fire") }

func TestGate_CheckSession_StorageError(t *testing.T) {
	gate := NewGate(failingStorage{}, auth.NewCredentialStore(nil), DefaultGateConfig())
	assert.Nil(t, gate.CheckSession(context.Background()))
}

func TestGate_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("case-insensitive trimmed email", func(t *testing.T) {
		gate, _ := newTestGate(t)

		s, err := gate.Login(ctx, "  ADMIN@Example.com ", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "admin@example.com", s.Email)
		assert.True(t, s.Authenticated)
		assert.Equal(t, testNow, s.LoginTime)

		stored := gate.CheckSession(ctx)
		require.NotNil(t, stored)
		assert.Equal(t, "admin@example.com", stored.Email)
		assert.Equal(t, domain.ScreenMain, gate.CurrentScreen(ctx))
	})

	t.Run("password must match exactly", func(t *testing.T) {
		for _, pw := range []string{"Hunter2", "hunter2 ", " hunter2", ""} {
			gate, _ := newTestGate(t)
			_, err := gate.Login(ctx, "admin@example.com", pw)
			assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "password %q", pw)
			assert.Equal(t, domain.ScreenLogin, gate.CurrentScreen(ctx))
		}
	})

	t.Run("failure leaves prior session untouched", func(t *testing.T) {
		gate, storage := newTestGate(t)
		_, err := gate.Login(ctx, "admin@example.com", "hunter2")
		require.NoError(t, err)
		before, _, _ := storage.Get(ctx, constants.SessionKey)

		_, err = gate.Login(ctx, "intruder@example.com", "guess")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

		after, _, _ := storage.Get(ctx, constants.SessionKey)
		assert.Equal(t, before, after)
		assert.Equal(t, domain.ScreenMain, gate.CurrentScreen(ctx))
	})

	t.Run("nil provider rejects everything", func(t *testing.T) {
		gate := NewGate(NewMemoryStorage(), nil, DefaultGateConfig())
		_, err := gate.Login(ctx, "admin@example.com", "hunter2")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("storage failure is reported", func(t *testing.T) {
		gate := NewGate(failingStorage{}, auth.NewCredentialStore(map[string]string{"a@b.c": "x"}), DefaultGateConfig())
		_, err := gate.Login(ctx, "a@b.c", "x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestGate_Logout(t *testing.T) {
	ctx := context.Background()
	gate, storage := newTestGate(t)

	_, err := gate.Login(ctx, "admin@example.com", "hunter2")
	require.NoError(t, err)

	require.NoError(t, gate.Logout(ctx))
	assert.Nil(t, gate.CheckSession(ctx))
	assert.Equal(t, 0, storage.Len())

	// Idempotent
	require.NoError(t, gate.Logout(ctx))
	assert.Equal(t, domain.ScreenLogin, gate.CurrentScreen(ctx))
}

func TestGate_TTL(t *testing.T) {
	ctx := context.Background()
	now := testNow
	gate := NewGate(NewMemoryStorage(), auth.NewCredentialStore(map[string]string{"a@b.c": "x"}), GateConfig{
		TTL: time.Hour,
		Now: func() time.Time { return now },
	})

	_, err := gate.Login(ctx, "a@b.c", "x")
	require.NoError(t, err)

	now = testNow.Add(59 * time.Minute)
	assert.NotNil(t, gate.CheckSession(ctx))

	now = testNow.Add(61 * time.Minute)
	assert.Nil(t, gate.CheckSession(ctx))
}

func TestGate_StateMachine(t *testing.T) {
	ctx := context.Background()
	gate, _ := newTestGate(t)

	steps := []struct {
		action string
		email  string
		pass   string
		want   domain.Screen
	}{
		{"login", "admin@example.com", "wrong", domain.ScreenLogin},
		{"login", "admin@example.com", "hunter2", domain.ScreenMain},
		{"logout", "", "", domain.ScreenLogin},
		{"logout", "", "", domain.ScreenLogin},
		{"login", "ADMIN@EXAMPLE.COM", "hunter2", domain.ScreenMain},
	}
	for i, step := range steps {
		switch step.action {
		case "login":
			_, _ = gate.Login(ctx, step.email, step.pass)
		case "logout":
			require.NoError(t, gate.Logout(ctx))
		}
		assert.Equal(t, step.want, gate.CurrentScreen(ctx), "step %d (%s)", i, step.action)
	}
}
