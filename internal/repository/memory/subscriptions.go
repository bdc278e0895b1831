package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Dhoini/publishing-platform/internal/domain"
)

type subscriptionRepo struct {
	s *Store
}

func (r *subscriptionRepo) Create(_ context.Context, sub *domain.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.authors[sub.AuthorID]; !ok {
		return domain.NewNotFoundError("author", sub.AuthorID)
	}
	if sub.PaymentIntentID != nil {
		for _, existing := range r.s.data.subscriptions {
			if existing.PaymentIntentID != nil && *existing.PaymentIntentID == *sub.PaymentIntentID {
				return domain.NewDuplicateError("subscription", "stripe_payment_intent_id", *sub.PaymentIntentID)
			}
		}
	}

	r.s.data.subscriptionSeq++
	sub.ID = r.s.data.subscriptionSeq
	r.s.data.subscriptions[sub.ID] = *sub
	return nil
}

func (r *subscriptionRepo) Update(_ context.Context, sub *domain.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.subscriptions[sub.ID]; !ok {
		return domain.NewNotFoundError("subscription", sub.ID)
	}
	r.s.data.subscriptions[sub.ID] = *sub
	return nil
}

func (r *subscriptionRepo) FindEffectiveByAuthor(_ context.Context, authorID int64, now time.Time) (*domain.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sub, ok := r.s.effectiveLocked(authorID, now)
	if !ok {
		return nil, domain.NewNotFoundError("active subscription for author", authorID)
	}
	return &sub, nil
}

// effectiveLocked вызывается под r.s.mu
func (s *Store) effectiveLocked(authorID int64, now time.Time) (domain.Subscription, bool) {
	var (
		best  domain.Subscription
		found bool
	)
	for _, sub := range s.data.subscriptions {
		if sub.AuthorID != authorID || !sub.IsEffective(now) {
			continue
		}
		if !found || sub.ID > best.ID {
			best, found = sub, true
		}
	}
	return best, found
}

func (r *subscriptionRepo) FindByPaymentIntentID(_ context.Context, paymentIntentID string) (*domain.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, sub := range r.s.data.subscriptions {
		if sub.PaymentIntentID != nil && *sub.PaymentIntentID == paymentIntentID {
			found := sub
			return &found, nil
		}
	}
	return nil, domain.NewNotFoundError("subscription", paymentIntentID)
}

func (r *subscriptionRepo) FindByPaymentIntentIDForUpdate(ctx context.Context, paymentIntentID string) (*domain.Subscription, error) {
	if err := requireTx(ctx, "FindByPaymentIntentIDForUpdate"); err != nil {
		return nil, err
	}
	return r.FindByPaymentIntentID(ctx, paymentIntentID)
}

func (r *subscriptionRepo) ExpireLapsed(_ context.Context, asOf time.Time) ([]domain.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var expired []domain.Subscription
	for id, sub := range r.s.data.subscriptions {
		if !sub.IsLapsed(asOf) {
			continue
		}
		sub.Expire(asOf)
		r.s.data.subscriptions[id] = sub
		expired = append(expired, sub)
	}

	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	return expired, nil
}

// SubscriptionsByAuthor все подписки автора по возрастанию id; для тестов и отладки
func (s *Store) SubscriptionsByAuthor(authorID int64) []domain.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var subs []domain.Subscription
	for _, sub := range s.data.subscriptions {
		if sub.AuthorID == authorID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs
}
