package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"jawara/internal/store/memstore"
	"jawara/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService() *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(logger, memstore.New(), NewTokenIssuer("test-secret", time.Hour), bcrypt.MinCost)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	raw, err := issuer.Issue(&types.User{ID: "u1", Email: "a@example.com", Role: types.RoleKetuaRT})
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, types.RoleKetuaRT, claims.Role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	raw, err := NewTokenIssuer("one", time.Hour).Issue(&types.User{ID: "u1", Role: types.RoleWarga})
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, types.ErrInvalidToken)
}

func TestTokenExpires(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issued := time.Now()
	issuer.now = func() time.Time { return issued }

	raw, err := issuer.Issue(&types.User{ID: "u1", Role: types.RoleWarga})
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, types.ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	_, err := NewTokenIssuer("secret", time.Hour).Parse("not-a-token")
	assert.ErrorIs(t, err, types.ErrInvalidToken)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("rahasia", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "rahasia", hash)
	assert.True(t, CheckPassword("rahasia", hash))
	assert.False(t, CheckPassword("salah", hash))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{Nama: "Budi", Email: "Budi@Example.com", Password: "rahasia"})
	require.NoError(t, err)
	assert.Equal(t, types.RoleWarga, session.User.Role)
	assert.Equal(t, "budi@example.com", session.User.Email)
	assert.NotEmpty(t, session.Token)

	claims, err := svc.Authenticate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	login, err := svc.Login(ctx, "budi@example.com", "rahasia")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "budi@example.com", "salah")
	assert.Equal(t, types.KindUnauthorized, types.KindOf(err))
	_, err = svc.Login(ctx, "nobody@example.com", "rahasia")
	assert.Equal(t, types.KindUnauthorized, types.KindOf(err))

	profile, err := svc.Profile(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Budi", profile.Nama)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "x"})
	assert.Equal(t, types.KindValidation, types.KindOf(err))

	_, err = svc.Register(ctx, RegisterInput{Nama: "A", Email: "a@example.com", Password: "x", Role: "raja"})
	assert.Equal(t, types.KindValidation, types.KindOf(err))

	_, err = svc.Register(ctx, RegisterInput{Nama: "A", Email: "a@example.com", Password: "x", Role: "ketuaRW"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Nama: "B", Email: "a@example.com", Password: "y"})
	assert.Equal(t, types.KindConflict, types.KindOf(err))
}
