package stripe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGateway(Config{
		APIKey:           "sk_test_123",
		WebhookSecret:    testWebhookSecret,
		BaseURL:          srv.URL,
		MaxRetryElapsed:  3 * time.Second,
		BreakerFailures:  10,
		BreakerOpenDelay: time.Second,
	}, logger.NewNop())
	require.NoError(t, err)
	return g
}

func writeIntent(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":            "pi_123",
		"object":        "payment_intent",
		"amount":        1000,
		"currency":      r.Form.Get("currency"),
		"client_secret": "pi_123_secret_abc",
		"status":        "requires_payment_method",
		"metadata": map[string]string{
			"author_id": r.Form.Get("metadata[author_id]"),
			"plan":      r.Form.Get("metadata[plan]"),
			"type":      r.Form.Get("metadata[type]"),
		},
	})
}

func TestNewGateway_RequiresSecrets(t *testing.T) {
	_, err := NewGateway(Config{WebhookSecret: "x"}, logger.NewNop())
	assert.Error(t, err)
	_, err = NewGateway(Config{APIKey: "x"}, logger.NewNop())
	assert.Error(t, err)
}

func TestCreateSubscriptionIntent(t *testing.T) {
	var form map[string][]string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		form = r.Form
		writeIntent(w, r)
	})

	author := &domain.Author{ID: 42}
	plan := domain.Plan{Tier: domain.TierPremium, Price: 1000, Currency: "eur", PriceRef: "price_premium"}

	intent, err := g.CreateSubscriptionIntent(t.Context(), author, plan)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, "premium", intent.Metadata["plan"])

	assert.Equal(t, "1000", form["amount"][0])
	assert.Equal(t, "eur", form["currency"][0])
	assert.Equal(t, "42", form["metadata[author_id]"][0])
	assert.Equal(t, "subscription", form["metadata[type]"][0])
	assert.Equal(t, "true", form["automatic_payment_methods[enabled]"][0])
	assert.Equal(t, "never", form["automatic_payment_methods[allow_redirects]"][0])
}

func TestCreateBoostIntent_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	keys := make(chan string, 4)
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		keys <- r.Header.Get("Idempotency-Key")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
			return
		}
		writeIntent(w, r)
	})

	intent, err := g.CreateBoostIntent(t.Context(), &domain.Article{ID: 7, AuthorID: 3}, 500)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, int32(2), calls.Load())

	first, second := <-keys, <-keys
	assert.Equal(t, first, second)
}

func TestCreateIntent_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"parameter_invalid_integer","message":"bad amount"}}`))
	})

	_, err := g.CreateBoostIntent(t.Context(), &domain.Article{ID: 7, AuthorID: 3}, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExternalServiceUnavailable)

	var extErr *domain.ExternalServiceError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, http.StatusBadRequest, extErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func signedPayload(t *testing.T, body map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  testWebhookSecret,
	})
	return signed.Payload, signed.Header
}

func TestConstructEvent(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})

	payload, header := signedPayload(t, map[string]any{
		"id":          "evt_1",
		"object":      "event",
		"type":        "payment_intent.succeeded",
		"api_version": "2020-08-27",
		"data": map[string]any{
			"object": map[string]any{
				"id":             "pi_777",
				"object":         "payment_intent",
				"amount":         500,
				"currency":       "eur",
				"payment_method": "pm_card",
				"metadata":       map[string]string{"type": "boost", "article_id": "9"},
			},
		},
	})

	t.Run("valid signature", func(t *testing.T) {
		event, err := g.ConstructEvent(payload, header)
		require.NoError(t, err)
		assert.Equal(t, domain.EventPaymentIntentSucceeded, event.Type)
		require.NotNil(t, event.Intent)
		assert.Equal(t, "pi_777", event.Intent.ID)
		assert.Equal(t, int64(500), event.Intent.Amount)
		assert.Equal(t, "pm_card", event.Intent.PaymentMethod)
		assert.Equal(t, domain.MetaTypeBoost, event.Intent.Metadata.Kind())
		assert.NoError(t, g.VerifySignature(payload, header))
	})

	t.Run("tampered payload", func(t *testing.T) {
		tampered := append([]byte{}, payload...)
		tampered[len(tampered)-2] = ' '
		_, err := g.ConstructEvent(tampered, header)
		assert.ErrorIs(t, err, domain.ErrSignatureInvalid)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := g.ConstructEvent(payload, "")
		assert.ErrorIs(t, err, domain.ErrSignatureInvalid)
		assert.ErrorIs(t, g.VerifySignature(payload, ""), domain.ErrSignatureInvalid)
	})
}

func TestConstructEvent_NonIntentEvent(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})
	payload, header := signedPayload(t, map[string]any{
		"id":     "evt_2",
		"object": "event",
		"type":   "customer.created",
		"data":   map[string]any{"object": map[string]any{"id": "cus_1", "object": "customer"}},
	})

	event, err := g.ConstructEvent(payload, header)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentEventType("customer.created"), event.Type)
	assert.Nil(t, event.Intent)
}
