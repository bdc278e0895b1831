//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type testDB struct {
	pool  *pgxpool.Pool
	store *Store
}

func setupTestDB(t *testing.T) *testDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	log := logger.NewNop()
	require.NoError(t, Migrate(connStr, log))

	pool, err := NewConnection(ctx, connStr, PoolConfig{MaxConns: 10}, log)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewStore(pool, log)
	t.Cleanup(func() { _ = store.Close() })
	return &testDB{pool: pool, store: store}
}

func createAuthor(t *testing.T, s *Store, email string) *domain.Author {
	t.Helper()
	now := time.Now().UTC()
	a := &domain.Author{
		Name:         "Author " + email,
		Email:        email,
		PasswordHash: "hash",
		Status:       domain.AuthorStatusActive,
		Role:         domain.RoleAuthor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Authors().Create(context.Background(), a))
	return a
}

func createSubscription(t *testing.T, s *Store, authorID int64, tier domain.Tier, validTo *time.Time, intent *string) *domain.Subscription {
	t.Helper()
	now := time.Now().UTC()
	sub := &domain.Subscription{
		AuthorID:        authorID,
		Tier:            tier,
		Status:          domain.SubscriptionStatusActive,
		ValidFrom:       &now,
		ValidTo:         validTo,
		PaymentIntentID: intent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, s.Subscriptions().Create(context.Background(), sub))
	return sub
}

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("duplicate email is rejected", func(t *testing.T) {
		createAuthor(t, db.store, "dup@example.com")
		err := db.store.Authors().Create(ctx, &domain.Author{
			Name: "x", Email: "DUP@example.com", PasswordHash: "h",
			Status: domain.AuthorStatusActive, Role: domain.RoleAuthor,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		})
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	})

	t.Run("effective subscription is the newest active one", func(t *testing.T) {
		author := createAuthor(t, db.store, "effective@example.com")
		createSubscription(t, db.store, author.ID, domain.TierBasic, nil, nil)
		future := time.Now().UTC().Add(24 * time.Hour)
		intent := "pi_effective"
		premium := createSubscription(t, db.store, author.ID, domain.TierPremium, &future, &intent)

		got, err := db.store.Subscriptions().FindEffectiveByAuthor(ctx, author.ID, time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, premium.ID, got.ID)
		assert.Equal(t, domain.TierPremium, got.Tier)
	})

	t.Run("expire lapsed marks only past subscriptions", func(t *testing.T) {
		author := createAuthor(t, db.store, "lapsed@example.com")
		past := time.Now().UTC().Add(-time.Hour)
		lapsed := createSubscription(t, db.store, author.ID, domain.TierMedium, &past, nil)

		expired, err := db.store.Subscriptions().ExpireLapsed(ctx, time.Now().UTC())
		require.NoError(t, err)
		ids := make([]int64, 0, len(expired))
		for _, s := range expired {
			ids = append(ids, s.ID)
			assert.Equal(t, domain.SubscriptionStatusExpired, s.Status)
		}
		assert.Contains(t, ids, lapsed.ID)

		again, err := db.store.Subscriptions().ExpireLapsed(ctx, time.Now().UTC())
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("rolled back transaction leaves no rows", func(t *testing.T) {
		author := createAuthor(t, db.store, "rollback@example.com")
		boom := errors.New("boom")

		intent := "pi_rollback"
		err := db.store.WithinTx(ctx, func(ctx context.Context) error {
			if err := db.store.Authors().LockForUpdate(ctx, author.ID); err != nil {
				return err
			}
			now := time.Now().UTC()
			if err := db.store.Subscriptions().Create(ctx, &domain.Subscription{
				AuthorID: author.ID, Tier: domain.TierMedium, Status: domain.SubscriptionStatusPending,
				PaymentIntentID: &intent, CreatedAt: now, UpdatedAt: now,
			}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		_, err = db.store.Subscriptions().FindByPaymentIntentID(ctx, intent)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("lock for update requires a transaction", func(t *testing.T) {
		author := createAuthor(t, db.store, "lock@example.com")
		assert.Error(t, db.store.Authors().LockForUpdate(ctx, author.ID))
	})

	t.Run("articles list by priority and count published in window", func(t *testing.T) {
		plain := createAuthor(t, db.store, "plain@example.com")
		premium := createAuthor(t, db.store, "premium@example.com")
		createSubscription(t, db.store, premium.ID, domain.TierPremium, nil, nil)

		tag := &domain.Tag{Name: "go", CreatedAt: time.Now(), UpdatedAt: time.Now()}
		require.NoError(t, db.store.Tags().Create(ctx, tag))

		now := time.Now().UTC()
		mk := func(authorID int64, title string) *domain.Article {
			a := &domain.Article{
				AuthorID: authorID, Title: title, Body: "body", Status: domain.ContentStatusPublished,
				PublishedAt: &now, TagIDs: []int64{tag.ID}, CreatedAt: now, UpdatedAt: now,
			}
			require.NoError(t, db.store.Articles().Create(ctx, a))
			return a
		}
		plainArticle := mk(plain.ID, "listing plain")
		premiumArticle := mk(premium.ID, "listing premium")
		boosted := mk(plain.ID, "listing boosted")

		err := db.store.WithinTx(ctx, func(ctx context.Context) error {
			a, err := db.store.Articles().GetByIDForUpdate(ctx, boosted.ID)
			if err != nil {
				return err
			}
			a.MarkBoosted("pi_boost_listing", now)
			return db.store.Articles().Update(ctx, a)
		})
		require.NoError(t, err)

		listed, err := db.store.Articles().List(ctx, domain.ListingFilter{Title: "listing"}, now)
		require.NoError(t, err)
		require.Len(t, listed, 3)
		assert.Equal(t, boosted.ID, listed[0].ID)
		assert.Equal(t, domain.BoostedPriority, listed[0].Priority)
		assert.Equal(t, premiumArticle.ID, listed[1].ID)
		assert.Equal(t, plainArticle.ID, listed[2].ID)
		assert.Equal(t, 0, listed[2].Priority)
		assert.Equal(t, []int64{tag.ID}, listed[2].TagIDs)

		from := now.Add(-time.Minute)
		count, err := db.store.Articles().CountPublishedBetween(ctx, plain.ID, from, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		assert.ErrorIs(t, db.store.Tags().Delete(ctx, tag.ID), domain.ErrTagInUse)
		usage, err := db.store.Tags().UsageCount(ctx, tag.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, usage)

		missing, err := db.store.Tags().Missing(ctx, []int64{tag.ID, 999999})
		require.NoError(t, err)
		assert.Equal(t, []int64{999999}, missing)
	})

	t.Run("concurrent lock serializes writers", func(t *testing.T) {
		author := createAuthor(t, db.store, "serial@example.com")
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			inside  int
			maxSeen int
		)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = db.store.WithinTx(ctx, func(ctx context.Context) error {
					if err := db.store.Authors().LockForUpdate(ctx, author.ID); err != nil {
						return err
					}
					mu.Lock()
					inside++
					if inside > maxSeen {
						maxSeen = inside
					}
					mu.Unlock()
					time.Sleep(20 * time.Millisecond)
					mu.Lock()
					inside--
					mu.Unlock()
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxSeen)
	})

	t.Run("duplicate transaction payment id", func(t *testing.T) {
		author := createAuthor(t, db.store, "tx@example.com")
		tx := &domain.Transaction{
			AuthorID: author.ID, StripePaymentID: "pi_tx", Amount: 500,
			Status: domain.TransactionStatusCompleted, Metadata: map[string]string{"type": "boost"},
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, db.store.Transactions().Create(ctx, tx))
		dup := *tx
		assert.ErrorIs(t, db.store.Transactions().Create(ctx, &dup), domain.ErrDuplicate)

		got, err := db.store.Transactions().GetByStripePaymentID(ctx, "pi_tx")
		require.NoError(t, err)
		assert.Equal(t, "eur", got.Currency)
		assert.Equal(t, "boost", got.Metadata["type"])
	})
}
