package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dhoini/publishing-platform/internal/auth"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthorService(env *testEnv) *AuthorService {
	return NewAuthorService(env.store, auth.NewBcryptHasher(bcrypt.MinCost),
		auth.NewJWTIssuer("secret", "test", time.Hour, env.clock), env.clock, logger.NewNop())
}

func TestAuthorService_RegisterCreatesBasicSubscription(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newAuthorService(env)

	author, err := svc.Register(ctx, "Ann", "Ann@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", author.Email)
	assert.Equal(t, domain.AuthorStatusActive, author.Status)
	assert.NotEqual(t, "password123", author.PasswordHash)

	subs := env.store.SubscriptionsByAuthor(author.ID)
	require.Len(t, subs, 1)
	assert.Equal(t, domain.TierBasic, subs[0].Tier)
	assert.Equal(t, domain.SubscriptionStatusActive, subs[0].Status)
	assert.Nil(t, subs[0].ValidTo)

	_, err = svc.Register(ctx, "Ann again", "ann@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestAuthorService_Login(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newAuthorService(env)

	registered, err := svc.Register(ctx, "Ann", "ann@example.com", "password123")
	require.NoError(t, err)

	result, err := svc.Login(ctx, "ANN@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, registered.ID, result.Author.ID)
	assert.Equal(t, env.clock.Now().Add(time.Hour), result.ExpiresAt)

	claims, err := (&auth.DefaultTokenValidator{Secret: []byte("secret"), Clock: env.clock}).Validate(result.Token)
	require.NoError(t, err)
	id, err := claims.AuthorID()
	require.NoError(t, err)
	assert.Equal(t, registered.ID, id)

	_, err = svc.Login(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthorService_LoginInactive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newAuthorService(env)

	hash, err := auth.NewBcryptHasher(bcrypt.MinCost).Hash("password123")
	require.NoError(t, err)
	require.NoError(t, env.store.Authors().Create(ctx, &domain.Author{
		Name: "Sam", Email: "sam@example.com", PasswordHash: hash,
		Status: domain.AuthorStatusInactive, Role: domain.RoleAuthor,
	}))

	_, err = svc.Login(ctx, "sam@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrAuthorInactive)
}
