package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dhoini/publishing-platform/internal/clock"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/repository"
	"github.com/Dhoini/publishing-platform/pkg/logger"
)

// ContentService создание, изменение и удаление материалов
type ContentService struct {
	store repository.Store
	guard *PublishingGuard
	clock clock.Clock
	log   *logger.Logger
}

// NewContentService создает сервис материалов
func NewContentService(store repository.Store, guard *PublishingGuard, clk clock.Clock, log *logger.Logger) *ContentService {
	return &ContentService{store: store, guard: guard, clock: clk, log: log}
}

// Get возвращает материал по ID
func (s *ContentService) Get(ctx context.Context, id int64) (*domain.Article, error) {
	article, err := s.store.Articles().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article %d: %w", id, err)
	}
	return article, nil
}

// Create создает материал от имени actor.
// Публикация сразу при создании проходит проверку лимита.
func (s *ContentService) Create(ctx context.Context, actor domain.Actor, in domain.ArticleInput) (*domain.Article, error) {
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return nil, err
	}
	if err := s.checkTags(ctx, in.TagIDs); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	article := &domain.Article{
		AuthorID:  actor.AuthorID,
		Title:     strings.TrimSpace(in.Title),
		Body:      in.Body,
		Status:    status,
		TagIDs:    dedupeIDs(in.TagIDs),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context) error {
		if status == domain.ContentStatusPublished {
			// публикации одного автора сериализуются, чтобы не проскочить лимит параллельно
			if err := s.store.Authors().LockForUpdate(ctx, actor.AuthorID); err != nil {
				return err
			}
			if err := s.guard.CheckCanPublish(ctx, actor.AuthorID, now); err != nil {
				return err
			}
			publishedAt := now
			article.PublishedAt = &publishedAt
		}
		return s.store.Articles().Create(ctx, article)
	})
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	s.log.Infow("Article created", "articleID", article.ID, "authorID", article.AuthorID, "status", article.Status)
	return article, nil
}

// Update применяет частичное изменение материала.
// Лимит проверяется только при первом переходе в published; published_at
// выставляется один раз и дальше не меняется.
func (s *ContentService) Update(ctx context.Context, actor domain.Actor, id int64, patch domain.ArticlePatch) (*domain.Article, error) {
	var requested *domain.ContentStatus
	if patch.Status != nil {
		status, err := normalizeStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		requested = &status
	}
	if patch.TagIDs != nil {
		if err := s.checkTags(ctx, *patch.TagIDs); err != nil {
			return nil, err
		}
	}

	var updated *domain.Article
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.Articles().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanModifyArticle(actor, existing) {
			return domain.ErrForbidden
		}

		now := s.clock.Now()
		wasPublished := existing.IsPublished()
		becomingPublished := requested != nil && *requested == domain.ContentStatusPublished

		if !wasPublished && becomingPublished {
			if err := s.store.Authors().LockForUpdate(ctx, existing.AuthorID); err != nil {
				return err
			}
			if err := s.guard.CheckCanPublish(ctx, existing.AuthorID, now); err != nil {
				return err
			}
			if existing.PublishedAt == nil {
				publishedAt := now
				existing.PublishedAt = &publishedAt
			}
		}

		if patch.Title != nil {
			existing.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Body != nil {
			existing.Body = *patch.Body
		}
		if requested != nil {
			existing.Status = *requested
		}
		if patch.TagIDs != nil {
			existing.TagIDs = dedupeIDs(*patch.TagIDs)
		}
		existing.UpdatedAt = now

		if err := s.store.Articles().Update(ctx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update article %d: %w", id, err)
	}

	s.log.Infow("Article updated", "articleID", id, "status", updated.Status)
	return updated, nil
}

// Delete удаляет материал; доступно автору и администратору
func (s *ContentService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.Articles().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanModifyArticle(actor, existing) {
			return domain.ErrForbidden
		}
		return s.store.Articles().Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}

	s.log.Infow("Article deleted", "articleID", id, "actorID", actor.AuthorID)
	return nil
}

// checkTags все метки должны существовать
func (s *ContentService) checkTags(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	missing, err := s.store.Tags().Missing(ctx, dedupeIDs(ids))
	if err != nil {
		return fmt.Errorf("check tags: %w", err)
	}
	if len(missing) == 0 {
		return nil
	}

	var verrs domain.ValidationErrors
	for _, id := range missing {
		verrs.Add("tag_ids", "tag "+strconv.FormatInt(id, 10)+" does not exist")
	}
	return verrs
}

func normalizeStatus(status domain.ContentStatus) (domain.ContentStatus, error) {
	if status == "" {
		return domain.ContentStatusDraft, nil
	}
	return domain.ParseContentStatus(string(status))
}

func dedupeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
