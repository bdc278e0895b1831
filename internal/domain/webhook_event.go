package domain

import (
	"fmt"
	"strconv"
)

// PaymentEventType тип события платежного провайдера
type PaymentEventType string

const (
	EventPaymentIntentSucceeded PaymentEventType = "payment_intent.succeeded"
	EventPaymentIntentFailed    PaymentEventType = "payment_intent.payment_failed"
)

// Ключи метаданных платежного намерения
const (
	MetaAuthorID  = "author_id"
	MetaPlan      = "plan"
	MetaArticleID = "article_id"
	MetaType      = "type"

	MetaTypeBoost        = "boost"
	MetaTypeSubscription = "subscription"
)

// PaymentIntent платежное намерение
type PaymentIntent struct {
	ID            string
	ClientSecret  string
	Amount        int64
	Currency      string
	Metadata      Metadata
	PaymentMethod string
}

// PaymentEvent проверенное событие вебхука.
// Intent заполнен только для событий payment_intent.*
type PaymentEvent struct {
	ID     string
	Type   PaymentEventType
	Intent *PaymentIntent
}

// Metadata метаданные платежа; любое значение может отсутствовать
type Metadata map[string]string

// Lookup возвращает непустое значение по ключу
func (m Metadata) Lookup(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Int64 разбирает числовой идентификатор из метаданных
func (m Metadata) Int64(key string) (int64, error) {
	v, ok := m.Lookup(key)
	if !ok {
		return 0, fmt.Errorf("%w: metadata %q is missing", ErrInvalidInput, key)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: metadata %q is not an id: %v", ErrInvalidInput, key, err)
	}
	return id, nil
}

// Kind тип платежа; по умолчанию подписка
func (m Metadata) Kind() string {
	if v, ok := m.Lookup(MetaType); ok {
		return v
	}
	return MetaTypeSubscription
}
