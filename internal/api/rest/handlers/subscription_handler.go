package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/Dhoini/publishing-platform/pkg/req"
	"github.com/Dhoini/publishing-platform/pkg/res"
	"github.com/gin-gonic/gin"
)

// SubscriptionService оформление и просмотр подписок
type SubscriptionService interface {
	Checkout(ctx context.Context, authorID int64, tier domain.Tier) (*domain.CheckoutResult, error)
	Current(ctx context.Context, authorID int64) (*domain.Subscription, error)
}

type checkoutRequest struct {
	Plan string `json:"plan" validate:"required,oneof=basic medium premium"`
}

// SubscriptionHandler обработчик для подписок
type SubscriptionHandler struct {
	subs SubscriptionService
	log  *logger.Logger
}

// NewSubscriptionHandler создает новый обработчик подписок
func NewSubscriptionHandler(subs SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs, log: log}
}

// Checkout POST /subscriptions/checkout
func (h *SubscriptionHandler) Checkout(c *gin.Context) {
	author, ok := currentActor(c, h.log)
	if !ok {
		return
	}
	body, err := req.HandleBody[checkoutRequest](c, h.log)
	if err != nil {
		return
	}

	result, err := h.subs.Checkout(c.Request.Context(), author.ID, domain.Tier(body.Plan))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, result, http.StatusCreated)
}

// Current GET /subscriptions/current
func (h *SubscriptionHandler) Current(c *gin.Context) {
	author, ok := currentActor(c, h.log)
	if !ok {
		return
	}

	sub, err := h.subs.Current(c.Request.Context(), author.ID)
	if errors.Is(err, domain.ErrNotFound) {
		res.JsonResponse(c.Writer, res.MessageResponse{Message: "No active subscription found"}, http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, sub, http.StatusOK)
}
