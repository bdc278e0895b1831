package stripe

import (
	"context"
	"strconv"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	stripego "github.com/stripe/stripe-go/v78"
)

// CreateSubscriptionIntent создает платежное намерение для оплаты тарифа
func (g *Gateway) CreateSubscriptionIntent(ctx context.Context, author *domain.Author, plan domain.Plan) (*domain.PaymentIntent, error) {
	meta := map[string]string{
		domain.MetaAuthorID: strconv.FormatInt(author.ID, 10),
		domain.MetaPlan:     string(plan.Tier),
		domain.MetaType:     domain.MetaTypeSubscription,
	}
	if plan.PriceRef != "" {
		meta["price_ref"] = plan.PriceRef
	}

	g.log.Debugw("Creating Stripe subscription payment intent", "authorID", author.ID, "plan", plan.Tier, "amount", plan.Price)
	return g.createIntent(ctx, "CreateSubscriptionIntent", plan.Price, plan.Currency, meta,
		"Subscription "+string(plan.Tier)+" for author "+strconv.FormatInt(author.ID, 10))
}

// CreateBoostIntent создает платежное намерение для продвижения материала
func (g *Gateway) CreateBoostIntent(ctx context.Context, item *domain.Article, amount int64) (*domain.PaymentIntent, error) {
	meta := map[string]string{
		domain.MetaArticleID: strconv.FormatInt(item.ID, 10),
		domain.MetaAuthorID:  strconv.FormatInt(item.AuthorID, 10),
		domain.MetaType:      domain.MetaTypeBoost,
	}

	g.log.Debugw("Creating Stripe boost payment intent", "articleID", item.ID, "amount", amount)
	return g.createIntent(ctx, "CreateBoostIntent", amount, domain.DefaultCurrency, meta,
		"Boost for article "+strconv.FormatInt(item.ID, 10))
}

func (g *Gateway) createIntent(ctx context.Context, operation string, amount int64, currency string, meta map[string]string, description string) (*domain.PaymentIntent, error) {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	// один ключ на все повторы, чтобы Stripe не создал второе намерение
	idempotencyKey := uuid.NewString()

	call := func() (*stripego.PaymentIntent, error) {
		params := &stripego.PaymentIntentParams{
			Amount:      stripego.Int64(amount),
			Currency:    stripego.String(currency),
			Description: stripego.String(description),
			AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
				Enabled:        stripego.Bool(true),
				AllowRedirects: stripego.String(string(stripego.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever)),
			},
		}
		params.Context = ctx
		params.SetIdempotencyKey(idempotencyKey)
		for k, v := range meta {
			params.AddMetadata(k, v)
		}
		return g.api.PaymentIntents.New(params)
	}

	var pi *stripego.PaymentIntent
	operationFn := func() error {
		var err error
		pi, err = g.breaker.Execute(call)
		if err == nil {
			return nil
		}
		logStripeError(g.log, operation, err)
		if isRetryableStripeError(err) && ctx.Err() == nil {
			g.log.Warnw("Retryable Stripe error occurred, retrying", "operation", operation, "error", err)
			return err
		}
		return backoff.Permanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = g.maxElapsed
	if err := backoff.Retry(operationFn, backoff.WithContext(bo, ctx)); err != nil {
		return nil, toDomainError(operation, err)
	}

	g.log.Infow("Stripe payment intent created", "operation", operation, "paymentIntentID", pi.ID, "status", string(pi.Status))
	return toDomainIntent(pi), nil
}
