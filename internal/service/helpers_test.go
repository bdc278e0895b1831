package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Dhoini/publishing-platform/internal/clock"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/metrics"
	"github.com/Dhoini/publishing-platform/internal/repository/memory"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var march10 = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateSubscriptionIntent(ctx context.Context, author *domain.Author, plan domain.Plan) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, author, plan)
	intent, _ := args.Get(0).(*domain.PaymentIntent)
	return intent, args.Error(1)
}

func (m *mockGateway) CreateBoostIntent(ctx context.Context, item *domain.Article, amount int64) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, item, amount)
	intent, _ := args.Get(0).(*domain.PaymentIntent)
	return intent, args.Error(1)
}

func (m *mockGateway) VerifySignature(payload []byte, signature string) error {
	return m.Called(payload, signature).Error(0)
}

func (m *mockGateway) ConstructEvent(payload []byte, signature string) (*domain.PaymentEvent, error) {
	args := m.Called(payload, signature)
	event, _ := args.Get(0).(*domain.PaymentEvent)
	return event, args.Error(1)
}

type publishedEvent struct {
	Topic   string
	Key     string
	Payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{Topic: topic, Key: key, Payload: payload})
	return nil
}

func (p *recordingPublisher) byTopic(topic string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated []int64
}

func (c *recordingCache) InvalidateAuthor(_ context.Context, authorID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, authorID)
	return nil
}

func (c *recordingCache) ids() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.invalidated...)
}

type testEnv struct {
	store     *memory.Store
	clock     *clock.Fixed
	gateway   *mockGateway
	publisher *recordingPublisher
	cache     *recordingCache
	catalog   domain.PlanCatalog

	guard    *PublishingGuard
	content  *ContentService
	subs     *SubscriptionService
	boosts   *BoostService
	webhooks *WebhookReconciler
	listing  *ListingService
	expiry   *ExpiryService
	tags     *TagService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNop()
	e := &testEnv{
		store:     memory.NewStore(log),
		clock:     clock.NewFixed(march10),
		gateway:   &mockGateway{},
		publisher: &recordingPublisher{},
		cache:     &recordingCache{},
		catalog:   domain.NewPlanCatalog(200, 1000, 500, "price_medium", "price_premium"),
	}
	m := metrics.Nop{}

	e.guard = NewPublishingGuard(e.store, m, log)
	e.content = NewContentService(e.store, e.guard, e.clock, log)
	e.subs = NewSubscriptionService(SubscriptionDeps{
		Store:     e.store,
		Gateway:   e.gateway,
		Catalog:   e.catalog,
		Publisher: e.publisher,
		Cache:     e.cache,
		Metrics:   m,
		Clock:     e.clock,
		Log:       log,
	})
	e.boosts = NewBoostService(e.store, e.gateway, e.catalog, m, log)
	e.webhooks = NewWebhookReconciler(WebhookDeps{
		Store:     e.store,
		Gateway:   e.gateway,
		Publisher: e.publisher,
		Cache:     e.cache,
		Metrics:   m,
		Clock:     e.clock,
		Log:       log,
	})
	e.listing = NewListingService(e.store, e.clock)
	e.expiry = NewExpiryService(e.store, e.publisher, e.cache, m, log)
	e.tags = NewTagService(e.store, e.clock, log)

	t.Cleanup(func() { e.gateway.AssertExpectations(t) })
	return e
}

// newAuthor создает активного автора без подписки
func (e *testEnv) newAuthor(t *testing.T, name string) *domain.Author {
	t.Helper()
	a := &domain.Author{
		Name:   name,
		Email:  fmt.Sprintf("%s@example.com", name),
		Status: domain.AuthorStatusActive,
		Role:   domain.RoleAuthor,
	}
	require.NoError(t, e.store.Authors().Create(context.Background(), a))
	return a
}

// subscribe добавляет активную подписку; платные действуют месяц от текущего времени
func (e *testEnv) subscribe(t *testing.T, authorID int64, tier domain.Tier) *domain.Subscription {
	t.Helper()
	now := e.clock.Now()
	sub := &domain.Subscription{AuthorID: authorID, Tier: tier, CreatedAt: now}
	if tier.IsPaid() {
		sub.Activate(now)
	} else {
		from := now
		sub.Status = domain.SubscriptionStatusActive
		sub.ValidFrom = &from
		sub.UpdatedAt = now
	}
	require.NoError(t, e.store.Subscriptions().Create(context.Background(), sub))
	return sub
}

func (e *testEnv) authorWithTier(t *testing.T, name string, tier domain.Tier) *domain.Author {
	t.Helper()
	a := e.newAuthor(t, name)
	e.subscribe(t, a.ID, tier)
	return a
}

func (e *testEnv) publish(t *testing.T, author *domain.Author, title string) (*domain.Article, error) {
	t.Helper()
	return e.content.Create(context.Background(), author.Actor(), domain.ArticleInput{
		Title:  title,
		Body:   "body",
		Status: domain.ContentStatusPublished,
	})
}

func (e *testEnv) mustPublish(t *testing.T, author *domain.Author, n int) []*domain.Article {
	t.Helper()
	out := make([]*domain.Article, 0, n)
	for i := 0; i < n; i++ {
		a, err := e.publish(t, author, fmt.Sprintf("post %d", i+1))
		require.NoError(t, err)
		out = append(out, a)
	}
	return out
}

func (e *testEnv) transactions(t *testing.T, authorID int64) []domain.Transaction {
	t.Helper()
	txs, err := e.store.Transactions().ListByAuthor(context.Background(), authorID)
	require.NoError(t, err)
	return txs
}
