package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/settleup/internal/models"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]*models.User{}} }

func (m *memUsers) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return models.ErrConflict
	}
	m.users[u.Email] = u
	return nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[models.NormalizeEmail(email)]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, models.ErrNotFound
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(newMemUsers()).WithCost(bcrypt.MinCost)

	user, err := a.Register(ctx, "Alice@Example.com", "Alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	tests := []struct {
		name                   string
		email, name2, password string
		wantErr                error
	}{
		{"duplicate email", "alice@example.com", "A", "password1", models.ErrConflict},
		{"short password", "bob@example.com", "Bob", "short", models.ErrValidation},
		{"bad email", "not-an-email", "Bob", "password1", models.ErrValidation},
		{"missing name", "bob@example.com", "  ", "password1", models.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.email, tt.name2, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("login", func(t *testing.T) {
		got, err := a.Authenticate(ctx, "ALICE@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = a.Authenticate(ctx, "alice@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrUnauthenticated)

		_, err = a.Authenticate(ctx, "nobody@example.com", "correct-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "user-1", Email: "a@example.com"}

	token, err := m.Generate(user)
	require.NoError(t, err)

	session, err := m.Session("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, "a@example.com", session.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	t.Run("header errors", func(t *testing.T) {
		for header, want := range map[string]error{
			"":                 ErrMissingToken,
			"Basic abc":        ErrInvalidToken,
			"Bearer":           ErrInvalidToken,
			"Bearer not.a.jwt": ErrInvalidToken,
		} {
			_, err := m.Session(header)
			assert.ErrorIs(t, err, want, "header %q", header)
			assert.ErrorIs(t, err, ErrUnauthenticated, "header %q", header)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other-secret", time.Hour)
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewJWTManager("test-secret", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		old, err := past.Generate(user)
		require.NoError(t, err)
		_, err = m.Validate(old)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other signing method is rejected", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Validate(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestSessionContext(t *testing.T) {
	_, ok := SessionFrom(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), Session{UserID: "u1"})
	s, ok := SessionFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", s.UserID)
}
