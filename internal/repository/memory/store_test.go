package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newAuthor(t *testing.T, s *Store, email string) *domain.Author {
	t.Helper()
	a := &domain.Author{Name: email, Email: email, Status: domain.AuthorStatusActive, Role: domain.RoleAuthor}
	require.NoError(t, s.Authors().Create(context.Background(), a))
	return a
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore(logger.NewNop())
	author := newAuthor(t, s, "a@example.com")

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Subscriptions().Create(ctx, &domain.Subscription{
			AuthorID: author.ID, Tier: domain.TierBasic, Status: domain.SubscriptionStatusActive,
		}))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.SubscriptionsByAuthor(author.ID))
}

func TestWithinTx_Nested(t *testing.T) {
	ctx := context.Background()
	s := NewStore(logger.NewNop())
	author := newAuthor(t, s, "a@example.com")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		return s.WithinTx(ctx, func(ctx context.Context) error {
			return s.Authors().LockForUpdate(ctx, author.ID)
		})
	})
	assert.NoError(t, err)
}

func TestForUpdateRequiresTx(t *testing.T) {
	s := NewStore(logger.NewNop())
	_, err := s.Articles().GetByIDForUpdate(context.Background(), 1)
	assert.Error(t, err)
}

func TestSubscriptions_UniquePaymentIntent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(logger.NewNop())
	author := newAuthor(t, s, "a@example.com")
	ref := "pi_123"

	require.NoError(t, s.Subscriptions().Create(ctx, &domain.Subscription{AuthorID: author.ID, Tier: domain.TierMedium, Status: domain.SubscriptionStatusPending, PaymentIntentID: &ref}))
	err := s.Subscriptions().Create(ctx, &domain.Subscription{AuthorID: author.ID, Tier: domain.TierMedium, Status: domain.SubscriptionStatusPending, PaymentIntentID: &ref})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestSubscriptions_EffectivePicksHighestID(t *testing.T) {
	ctx := context.Background()
	s := NewStore(logger.NewNop())
	author := newAuthor(t, s, "a@example.com")

	first := &domain.Subscription{AuthorID: author.ID, Tier: domain.TierBasic, Status: domain.SubscriptionStatusActive}
	second := &domain.Subscription{AuthorID: author.ID, Tier: domain.TierPremium, Status: domain.SubscriptionStatusActive}
	require.NoError(t, s.Subscriptions().Create(ctx, first))
	require.NoError(t, s.Subscriptions().Create(ctx, second))

	sub, err := s.Subscriptions().FindEffectiveByAuthor(ctx, author.ID, now)
	require.NoError(t, err)
	assert.Equal(t, second.ID, sub.ID)
}

func TestTags_DeleteInUse(t *testing.T) {
	ctx := context.Background()
	s := NewStore(logger.NewNop())
	author := newAuthor(t, s, "a@example.com")

	tag := &domain.Tag{Name: "golang"}
	require.NoError(t, s.Tags().Create(ctx, tag))
	require.NoError(t, s.Articles().Create(ctx, &domain.Article{AuthorID: author.ID, Title: "t", Status: domain.ContentStatusDraft, TagIDs: []int64{tag.ID}}))

	assert.ErrorIs(t, s.Tags().Delete(ctx, tag.ID), domain.ErrTagInUse)

	missing, err := s.Tags().Missing(ctx, []int64{tag.ID, 99})
	require.NoError(t, err)
	assert.Equal(t, []int64{99}, missing)
}

func TestArticles_CountPublishedBetween(t *testing.T) {
	ctx := context.Background()
	s := NewStore(logger.NewNop())
	author := newAuthor(t, s, "a@example.com")

	inMonth := now.Add(-24 * time.Hour)
	lastMonth := time.Date(2026, time.February, 28, 23, 59, 0, 0, time.UTC)
	for _, ts := range []time.Time{inMonth, lastMonth} {
		ts := ts
		require.NoError(t, s.Articles().Create(ctx, &domain.Article{AuthorID: author.ID, Status: domain.ContentStatusPublished, PublishedAt: &ts}))
	}
	require.NoError(t, s.Articles().Create(ctx, &domain.Article{AuthorID: author.ID, Status: domain.ContentStatusDraft}))

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	n, err := s.Articles().CountPublishedBetween(ctx, author.ID, from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
