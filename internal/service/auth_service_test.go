package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api"
)

func setupAuthService(t *testing.T) (*AuthService, *auth.JWTManager) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("service-test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	return NewAuthService(authenticator, store, jwtManager, quietLogger), jwtManager
}

func TestAuthService(t *testing.T) {
	svc, jwtManager := setupAuthService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, api.RegisterRequest{Email: "ana@example.com", Name: "Ana", Password: "long-enough"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	sess, err := jwtManager.Session("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.UserID)

	_, _, err = svc.Register(ctx, api.RegisterRequest{Email: "ana@example.com", Name: "Ana", Password: "long-enough"})
	assert.ErrorIs(t, err, models.ErrConflict)

	loggedIn, _, err := svc.Login(ctx, api.LoginRequest{Email: "ana@example.com", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, _, err = svc.Login(ctx, api.LoginRequest{Email: "ana@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, _, err = svc.Login(ctx, api.LoginRequest{Email: "ana@example.com"})
	assert.ErrorIs(t, err, models.ErrValidation)

	me, err := svc.Me(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.Name)

	_, err = svc.Me(ctx, auth.Session{UserID: "deleted"})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}
