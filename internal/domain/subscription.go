package domain

import (
	"time"

	"github.com/Dhoini/publishing-platform/internal/clock"
)

// SubscriptionStatus статус подписки
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// Subscription подписка автора на тариф
type Subscription struct {
	ID              int64              `json:"id" db:"id"`
	AuthorID        int64              `json:"author_id" db:"author_id"`
	Tier            Tier               `json:"plan" db:"plan"`
	Status          SubscriptionStatus `json:"status" db:"status"`
	ValidFrom       *time.Time         `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo         *time.Time         `json:"valid_to,omitempty" db:"valid_to"` // nil - бессрочно
	PaymentIntentID *string            `json:"payment_intent_id,omitempty" db:"stripe_payment_intent_id"`
	CreatedAt       time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" db:"updated_at"`
}

// IsEffective действует ли подписка в момент now
func (s *Subscription) IsEffective(now time.Time) bool {
	if s == nil || s.Status != SubscriptionStatusActive {
		return false
	}
	return s.ValidTo == nil || s.ValidTo.After(now)
}

// IsLapsed активная подписка, срок которой истек к моменту asOf
func (s *Subscription) IsLapsed(asOf time.Time) bool {
	return s.Status == SubscriptionStatusActive && s.ValidTo != nil && s.ValidTo.Before(asOf)
}

// Activate переводит подписку в активное состояние на один календарный месяц
func (s *Subscription) Activate(now time.Time) {
	from := now
	to := clock.AddMonth(now)
	s.Status = SubscriptionStatusActive
	s.ValidFrom = &from
	s.ValidTo = &to
	s.UpdatedAt = now
}

// Expire помечает подписку истекшей
func (s *Subscription) Expire(now time.Time) {
	s.Status = SubscriptionStatusExpired
	s.UpdatedAt = now
}

// CheckoutResult результат оформления подписки
type CheckoutResult struct {
	SubscriptionID int64  `json:"subscription_id"`
	Tier           Tier   `json:"plan"`
	Status         string `json:"status"`
	ClientSecret   string `json:"client_secret,omitempty"`
}
