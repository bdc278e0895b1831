package service

import (
	"context"
	"fmt"

	"github.com/Dhoini/publishing-platform/internal/clock"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/repository"
)

// ListingService публичная выдача материалов
type ListingService struct {
	articles repository.ArticleRepository
	clock    clock.Clock
}

// NewListingService создает сервис выдачи
func NewListingService(store repository.Store, clk clock.Clock) *ListingService {
	return &ListingService{articles: store.Articles(), clock: clk}
}

// List материалы по убыванию приоритета, затем даты создания.
// Тариф автора определяется на момент запроса.
func (s *ListingService) List(ctx context.Context, filter domain.ListingFilter) ([]domain.ListedArticle, error) {
	items, err := s.articles.List(ctx, filter.Normalize(), s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return items, nil
}
