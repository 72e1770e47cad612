package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklot/stocklot-backend/internal/auth/domain"
	"github.com/stocklot/stocklot-backend/internal/auth/jwt"
	"github.com/stocklot/stocklot-backend/internal/auth/service"
	"github.com/stocklot/stocklot-backend/internal/auth/store"
	"github.com/stocklot/stocklot-backend/pkg/config"
	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/logger"
)

func newAuthService(t *testing.T) (*service.AuthService, *jwt.Manager) {
	t.Helper()
	log := logger.New("auth-test", "test")

	users, err := store.NewCSV(t.TempDir(), log)
	require.NoError(t, err)

	manager := jwt.NewManager(&config.JWTConfig{
		Secret:       "test-secret",
		AccessExpiry: time.Hour,
		Issuer:       "stocklot-test",
	})

	return service.NewAuthService(users, manager, log), manager
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, manager := newAuthService(t)

	_, err := svc.CreateUser(ctx, "maria", "Maria Lopez", "s3cret-pw", domain.RoleOperator)
	require.NoError(t, err)

	res, err := svc.Login(ctx, "maria", "s3cret-pw")
	require.NoError(t, err)
	assert.Equal(t, "maria", res.User.Username)
	assert.Equal(t, "Bearer", res.Token.TokenType)

	claims, err := manager.Validate(res.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "maria", claims.Username)
	assert.Equal(t, "Maria Lopez", claims.Name)
	assert.Equal(t, "operator", claims.Role)
}

func TestLoginUsernameIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	_, err := svc.CreateUser(ctx, "maria", "Maria Lopez", "s3cret-pw", domain.RoleOperator)
	require.NoError(t, err)

	res, err := svc.Login(ctx, "MARIA", "s3cret-pw")
	require.NoError(t, err)
	assert.Equal(t, "maria", res.User.Username)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	_, err := svc.CreateUser(ctx, "maria", "Maria Lopez", "s3cret-pw", domain.RoleOperator)
	require.NoError(t, err)

	// Wrong password and unknown user look identical to the caller.
	_, err = svc.Login(ctx, "maria", "wrong")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))

	_, err = svc.Login(ctx, "nobody", "wrong")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	_, err := svc.CreateUser(ctx, "maria", "Maria Lopez", "pw", domain.RoleOperator)
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "Maria", "Maria Duplicate", "pw", domain.RoleOperator)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	_, err := svc.CreateUser(ctx, "maria", "Maria Lopez", "pw", domain.Role("superuser"))
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestEnsureDefaultAdminSeedsOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	require.NoError(t, svc.EnsureDefaultAdmin(ctx, "admin", "change-me"))

	res, err := svc.Login(ctx, "admin", "change-me")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)

	// A second call leaves the existing accounts alone.
	require.NoError(t, svc.EnsureDefaultAdmin(ctx, "admin", "other"))
	_, err = svc.Login(ctx, "admin", "change-me")
	require.NoError(t, err)
}

func TestTokenExpiry(t *testing.T) {
	manager := jwt.NewManager(&config.JWTConfig{
		Secret:       "test-secret",
		AccessExpiry: -time.Minute,
		Issuer:       "stocklot-test",
	})

	token, err := manager.Generate(&jwt.UserInfo{ID: "1", Username: "maria", Name: "Maria", Role: "operator"})
	require.NoError(t, err)

	_, err = manager.Validate(token.AccessToken)
	assert.True(t, errors.Is(err, errors.ErrTokenExpired))
}
