package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/Dhoini/publishing-platform/pkg/res"
	"github.com/gin-gonic/gin"
)

// MaxWebhookBodyBytes предел тела вебхука
const MaxWebhookBodyBytes = 64 << 10

// WebhookProcessor обработчик событий платежного провайдера
type WebhookProcessor interface {
	Handle(ctx context.Context, payload []byte, signature string) error
}

// WebhookHandler обработчик для вебхуков
type WebhookHandler struct {
	processor WebhookProcessor
	log       *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(processor WebhookProcessor, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{processor: processor, log: log}
}

// HandleStripeWebhook обрабатывает вебхуки от Stripe.
// 400 только при ошибке подписи или чтения тела, остальные исходы подтверждаются 200,
// чтобы провайдер не повторял доставку.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBodyBytes))
	if err != nil {
		h.log.Errorw("Failed to read webhook body", "error", err)
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Failed to read webhook body"}, http.StatusBadRequest)
		return
	}

	err = h.processor.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, domain.ErrSignatureInvalid) {
		h.log.Warnw("Rejected webhook with invalid signature", "error", err)
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Invalid signature"}, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Errorw("Webhook processing failed, acknowledged", "error", err)
	}
	res.JsonResponse(c.Writer, res.SuccessResponse{Success: true}, http.StatusOK)
}
