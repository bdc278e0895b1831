package stripe

import (
	"errors"
	"net/http"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/sony/gobreaker/v2"
	stripego "github.com/stripe/stripe-go/v78"
)

// logStripeError логирует детали ошибки Stripe
func logStripeError(log *logger.Logger, operation string, err error) {
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		log.Errorw("Stripe API error",
			"operation", operation,
			"type", string(stripeErr.Type),
			"code", string(stripeErr.Code),
			"param", stripeErr.Param,
			"message", stripeErr.Msg,
			"request_id", stripeErr.RequestID,
			"status_code", stripeErr.HTTPStatusCode,
		)
		return
	}
	log.Errorw("Non-Stripe error during Stripe operation",
		"operation", operation,
		"error", err,
	)
}

// isRetryableStripeError проверяет, стоит ли повторить запрос
func isRetryableStripeError(err error) bool {
	var stripeErr *stripego.Error
	if !errors.As(err, &stripeErr) {
		// сетевые ошибки до получения ответа
		return true
	}
	if stripeErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	return stripeErr.HTTPStatusCode >= 500 && stripeErr.HTTPStatusCode != http.StatusNotImplemented
}

// toDomainError сводит любую ошибку шлюза к ExternalServiceError
func toDomainError(operation string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.NewExternalServiceError(serviceName, "circuit_open", operation+": payment provider temporarily unavailable", http.StatusServiceUnavailable, err)
	}

	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		return domain.NewExternalServiceError(serviceName, string(stripeErr.Code), stripeErr.Msg, stripeErr.HTTPStatusCode, err)
	}
	return domain.NewExternalServiceError(serviceName, "request_failed", operation, 0, err)
}
