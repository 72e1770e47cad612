package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stocklot/stocklot-backend/internal/auth/domain"
	"github.com/stocklot/stocklot-backend/internal/auth/store"
	"github.com/stocklot/stocklot-backend/pkg/errors"
	"github.com/stocklot/stocklot-backend/pkg/logger"
	"github.com/stocklot/stocklot-backend/pkg/testutil"
)

func newUserStore(t *testing.T) (*store.CSV, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := store.NewCSV(dir, logger.New("store-test", "test"))
	require.NoError(t, err)
	return s, dir
}

func TestUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, dir := newUserStore(t)
	fixtures := testutil.NewFixtureFactory()

	u := fixtures.User(
		testutil.WithUsername("Maria"),
		testutil.WithRole(domain.RoleAdmin),
		testutil.WithPassword("s3cret-pass"),
	)
	require.NoError(t, s.Create(ctx, &u))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Lookup is case-insensitive.
	got, err := s.GetByUsername(ctx, "maria")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	// Users survive a reopen.
	reopened, err := store.NewCSV(dir, logger.New("store-test", "test"))
	require.NoError(t, err)
	got, err = reopened.GetByUsername(ctx, "MARIA")
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("s3cret-pass")))
}

func TestUserDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s, _ := newUserStore(t)
	fixtures := testutil.NewFixtureFactory()

	u := fixtures.User(testutil.WithUsername("pedro"))
	require.NoError(t, s.Create(ctx, &u))

	dup := fixtures.User(testutil.WithUsername("Pedro"))
	err := s.Create(ctx, &dup)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestUserUnknownUsername(t *testing.T) {
	ctx := context.Background()
	s, _ := newUserStore(t)

	_, err := s.GetByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
