package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Dhoini/publishing-platform/internal/domain"
)

type articleRepo struct {
	s *Store
}

func (r *articleRepo) Create(_ context.Context, article *domain.Article) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkRefsLocked(article); err != nil {
		return err
	}

	r.s.data.articleSeq++
	article.ID = r.s.data.articleSeq
	r.s.data.articles[article.ID] = cloneArticle(*article)
	return nil
}

func (r *articleRepo) Update(_ context.Context, article *domain.Article) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.articles[article.ID]; !ok {
		return domain.NewNotFoundError("article", article.ID)
	}
	if err := r.checkRefsLocked(article); err != nil {
		return err
	}
	r.s.data.articles[article.ID] = cloneArticle(*article)
	return nil
}

// checkRefsLocked повторяет внешние ключи и уникальные индексы таблицы articles
func (r *articleRepo) checkRefsLocked(article *domain.Article) error {
	if _, ok := r.s.data.authors[article.AuthorID]; !ok {
		return domain.NewNotFoundError("author", article.AuthorID)
	}
	for _, tagID := range article.TagIDs {
		if _, ok := r.s.data.tags[tagID]; !ok {
			return domain.NewNotFoundError("tag", tagID)
		}
	}
	if article.BoostPaymentIntentID != nil {
		for id, existing := range r.s.data.articles {
			if id != article.ID && existing.BoostPaymentIntentID != nil && *existing.BoostPaymentIntentID == *article.BoostPaymentIntentID {
				return domain.NewDuplicateError("article", "boost_transaction_id", *article.BoostPaymentIntentID)
			}
		}
	}
	return nil
}

func (r *articleRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.articles[id]; !ok {
		return domain.NewNotFoundError("article", id)
	}
	delete(r.s.data.articles, id)
	return nil
}

func (r *articleRepo) GetByID(_ context.Context, id int64) (*domain.Article, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	article, ok := r.s.data.articles[id]
	if !ok {
		return nil, domain.NewNotFoundError("article", id)
	}
	a := cloneArticle(article)
	return &a, nil
}

func (r *articleRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Article, error) {
	if err := requireTx(ctx, "GetByIDForUpdate"); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *articleRepo) CountPublishedBetween(_ context.Context, authorID int64, from, to time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, a := range r.s.data.articles {
		if a.AuthorID != authorID || a.Status != domain.ContentStatusPublished || a.PublishedAt == nil {
			continue
		}
		if !a.PublishedAt.Before(from) && a.PublishedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (r *articleRepo) List(_ context.Context, filter domain.ListingFilter, now time.Time) ([]domain.ListedArticle, error) {
	filter = filter.Normalize()

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	title := strings.ToLower(filter.Title)
	listed := make([]domain.ListedArticle, 0)
	for _, a := range r.s.data.articles {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.AuthorID != nil && a.AuthorID != *filter.AuthorID {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(a.Title), title) {
			continue
		}
		if filter.Boosted != nil && a.IsBoosted() != *filter.Boosted {
			continue
		}

		var tier *domain.Tier
		if sub, ok := r.s.effectiveLocked(a.AuthorID, now); ok {
			t := sub.Tier
			tier = &t
		}
		listed = append(listed, domain.ListedArticle{
			Article:    cloneArticle(a),
			AuthorName: r.s.data.authors[a.AuthorID].Name,
			Priority:   domain.ListingPriority(a.IsBoosted(), tier),
		})
	}

	sort.Slice(listed, func(i, j int) bool {
		a, b := listed[i], listed[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	if filter.Offset >= len(listed) {
		return []domain.ListedArticle{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(listed) {
		end = len(listed)
	}
	return listed[filter.Offset:end], nil
}
