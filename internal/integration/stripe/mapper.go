package stripe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Dhoini/publishing-platform/internal/domain"
	stripego "github.com/stripe/stripe-go/v78"
)

// toDomainIntent преобразует платежное намерение Stripe в доменную модель
func toDomainIntent(pi *stripego.PaymentIntent) *domain.PaymentIntent {
	intent := &domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     domain.Metadata(pi.Metadata),
	}
	if pi.PaymentMethod != nil {
		intent.PaymentMethod = pi.PaymentMethod.ID
	}
	if intent.Metadata == nil {
		intent.Metadata = domain.Metadata{}
	}
	return intent
}

// toDomainEvent разбирает событие. Объект данных читается только для payment_intent.*
func toDomainEvent(event stripego.Event) (*domain.PaymentEvent, error) {
	result := &domain.PaymentEvent{
		ID:   event.ID,
		Type: domain.PaymentEventType(event.Type),
	}
	if !strings.HasPrefix(string(event.Type), "payment_intent.") || event.Data == nil {
		return result, nil
	}

	var pi stripego.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: decode payment intent: %v", domain.ErrInvalidInput, err)
	}
	result.Intent = toDomainIntent(&pi)
	return result, nil
}
