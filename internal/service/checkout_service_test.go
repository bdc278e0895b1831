package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func activeSubscriptions(subs []domain.Subscription) []domain.Subscription {
	var out []domain.Subscription
	for _, s := range subs {
		if s.Status == domain.SubscriptionStatusActive {
			out = append(out, s)
		}
	}
	return out
}

func TestCheckout_BasicReplacesEffective(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	author := env.authorWithTier(t, "writer", domain.TierPremium)

	env.clock.Advance(time.Hour)
	result, err := env.subs.Checkout(ctx, author.ID, domain.TierBasic)
	require.NoError(t, err)
	assert.Equal(t, "active", result.Status)
	assert.Equal(t, domain.TierBasic, result.Tier)
	assert.Empty(t, result.ClientSecret)

	subs := env.store.SubscriptionsByAuthor(author.ID)
	require.Len(t, subs, 2)
	assert.Equal(t, domain.SubscriptionStatusExpired, subs[0].Status)
	assert.Equal(t, env.clock.Now(), subs[0].UpdatedAt)

	active := activeSubscriptions(subs)
	require.Len(t, active, 1)
	assert.Equal(t, result.SubscriptionID, active[0].ID)
	assert.Nil(t, active[0].ValidTo)

	assert.Equal(t, []int64{author.ID}, env.cache.ids())
	events := env.publisher.byTopic(kafka.TopicSubscriptionCheckout)
	require.Len(t, events, 1)
	assert.Equal(t, "1", events[0].Key)
	env.gateway.AssertNotCalled(t, "CreateSubscriptionIntent", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_PaidCreatesPendingWithoutTransaction(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	author := env.authorWithTier(t, "writer", domain.TierBasic)

	env.gateway.On("CreateSubscriptionIntent", mock.Anything,
		mock.MatchedBy(func(a *domain.Author) bool { return a.ID == author.ID }),
		mock.MatchedBy(func(p domain.Plan) bool { return p.Tier == domain.TierPremium && p.Price == 1000 && p.PriceRef == "price_premium" }),
	).Return(&domain.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil).Once()

	result, err := env.subs.Checkout(ctx, author.ID, domain.TierPremium)
	require.NoError(t, err)
	assert.Equal(t, "pending", result.Status)
	assert.Equal(t, "pi_1_secret", result.ClientSecret)

	pending, err := env.store.Subscriptions().FindByPaymentIntentID(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, result.SubscriptionID, pending.ID)
	assert.Equal(t, domain.SubscriptionStatusPending, pending.Status)
	assert.Nil(t, pending.ValidFrom)

	assert.Empty(t, env.transactions(t, author.ID))
	assert.Empty(t, activeSubscriptions(env.store.SubscriptionsByAuthor(author.ID)))

	events := env.publisher.byTopic(kafka.TopicSubscriptionCheckout)
	require.Len(t, events, 1)
	assert.Equal(t, "pi_1", events[0].Payload.(CheckoutEvent).PaymentIntentID)
}

func TestCheckout_GatewayFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	author := env.authorWithTier(t, "writer", domain.TierBasic)
	before := env.store.SubscriptionsByAuthor(author.ID)

	env.gateway.On("CreateSubscriptionIntent", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.NewExternalServiceError("stripe", "api_error", "boom", 500, nil)).Once()

	_, err := env.subs.Checkout(ctx, author.ID, domain.TierMedium)
	require.ErrorIs(t, err, domain.ErrExternalServiceUnavailable)

	assert.Equal(t, before, env.store.SubscriptionsByAuthor(author.ID))
	assert.Empty(t, env.publisher.events)
	assert.Empty(t, env.cache.ids())
}

func TestCheckout_Rejections(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.subs.Checkout(ctx, 1, domain.Tier("gold"))
	assert.ErrorIs(t, err, domain.ErrInvalidTier)

	_, err = env.subs.Checkout(ctx, 404, domain.TierBasic)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	inactive := &domain.Author{Name: "x", Email: "x@example.com", Status: domain.AuthorStatusSuspended, Role: domain.RoleAuthor}
	require.NoError(t, env.store.Authors().Create(ctx, inactive))
	_, err = env.subs.Checkout(ctx, inactive.ID, domain.TierBasic)
	assert.ErrorIs(t, err, domain.ErrAuthorInactive)
}

func TestCheckout_PublishFailureDoesNotFail(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("broker down")
	author := env.newAuthor(t, "writer")

	result, err := env.subs.Checkout(context.Background(), author.ID, domain.TierBasic)
	require.NoError(t, err)
	assert.Equal(t, "active", result.Status)
}

func TestCheckout_ConcurrentLeavesOneActive(t *testing.T) {
	env := newTestEnv(t)
	author := env.authorWithTier(t, "writer", domain.TierBasic)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.subs.Checkout(context.Background(), author.ID, domain.TierBasic)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	subs := env.store.SubscriptionsByAuthor(author.ID)
	assert.Len(t, subs, 11)
	assert.Len(t, activeSubscriptions(subs), 1)
}

func TestSubscriptionService_Current(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	author := env.authorWithTier(t, "writer", domain.TierMedium)

	current, err := env.subs.Current(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierMedium, current.Tier)

	env.clock.Advance(40 * 24 * time.Hour)
	_, err = env.subs.Current(ctx, author.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
