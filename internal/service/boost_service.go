package service

import (
	"context"
	"fmt"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/metrics"
	"github.com/Dhoini/publishing-platform/internal/repository"
	"github.com/Dhoini/publishing-platform/pkg/logger"
)

// BoostResult данные для оплаты продвижения на клиенте
type BoostResult struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// BoostService запуск платного продвижения материала
type BoostService struct {
	articles repository.ArticleRepository
	gateway  PaymentGateway
	price    int64
	metrics  metrics.PlatformMetrics
	log      *logger.Logger
}

// NewBoostService создает сервис продвижения
func NewBoostService(store repository.Store, gateway PaymentGateway, catalog domain.PlanCatalog, m metrics.PlatformMetrics, log *logger.Logger) *BoostService {
	return &BoostService{
		articles: store.Articles(),
		gateway:  gateway,
		price:    catalog.BoostPrice,
		metrics:  m,
		log:      log,
	}
}

// Boost создает платежное намерение на продвижение.
// Материал помечается продвинутым только после вебхука об оплате.
func (s *BoostService) Boost(ctx context.Context, actor domain.Actor, articleID int64) (*BoostResult, error) {
	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("boost article %d: %w", articleID, err)
	}
	if !domain.CanModifyArticle(actor, article) {
		return nil, domain.ErrForbidden
	}
	if article.IsBoosted() {
		return nil, domain.ErrAlreadyBoosted
	}

	intent, err := s.gateway.CreateBoostIntent(ctx, article, s.price)
	if err != nil {
		return nil, fmt.Errorf("boost article %d: %w", articleID, err)
	}

	s.metrics.IncBoostInitiated()
	s.log.Infow("Boost payment intent created", "articleID", articleID, "paymentIntentID", intent.ID)
	return &BoostResult{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}
