package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpireLapsedSubscriptions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	asOf := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	lapsedAuthor := env.newAuthor(t, "lapsed")
	otherAuthor := env.newAuthor(t, "other")

	mk := func(authorID int64, status domain.SubscriptionStatus, validTo *time.Time) *domain.Subscription {
		sub := &domain.Subscription{
			AuthorID: authorID, Tier: domain.TierMedium, Status: status,
			ValidTo: validTo, CreatedAt: created, UpdatedAt: created,
		}
		require.NoError(t, env.store.Subscriptions().Create(ctx, sub))
		return sub
	}
	at := func(t time.Time) *time.Time { return &t }

	lapsed := mk(lapsedAuthor.ID, domain.SubscriptionStatusActive, at(asOf.Add(-time.Second)))
	boundary := mk(otherAuthor.ID, domain.SubscriptionStatusActive, at(asOf))
	open := mk(otherAuthor.ID, domain.SubscriptionStatusActive, nil)
	cancelled := mk(otherAuthor.ID, domain.SubscriptionStatusCancelled, at(asOf.Add(-time.Hour)))
	pending := mk(otherAuthor.ID, domain.SubscriptionStatusPending, nil)

	count, err := env.expiry.ExpireLapsedSubscriptions(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	byID := map[int64]domain.Subscription{}
	for _, s := range append(env.store.SubscriptionsByAuthor(lapsedAuthor.ID), env.store.SubscriptionsByAuthor(otherAuthor.ID)...) {
		byID[s.ID] = s
	}
	assert.Equal(t, domain.SubscriptionStatusExpired, byID[lapsed.ID].Status)
	assert.Equal(t, asOf, byID[lapsed.ID].UpdatedAt)

	for _, untouched := range []*domain.Subscription{boundary, open, cancelled, pending} {
		got := byID[untouched.ID]
		assert.Equal(t, untouched.Status, got.Status, "subscription %d", untouched.ID)
		assert.Equal(t, created, got.UpdatedAt, "subscription %d", untouched.ID)
	}

	assert.Equal(t, []int64{lapsedAuthor.ID}, env.cache.ids())
	events := env.publisher.byTopic(kafka.TopicSubscriptionsExpired)
	require.Len(t, events, 1)
	summary := events[0].Payload.(SubscriptionsExpiredEvent)
	assert.Equal(t, []int64{lapsed.ID}, summary.SubscriptionIDs)

	again, err := env.expiry.ExpireLapsedSubscriptions(ctx, asOf)
	require.NoError(t, err)
	assert.Zero(t, again)
	assert.Len(t, env.publisher.byTopic(kafka.TopicSubscriptionsExpired), 1)
}
