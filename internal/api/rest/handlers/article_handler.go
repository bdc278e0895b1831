package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/service"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/Dhoini/publishing-platform/pkg/req"
	"github.com/Dhoini/publishing-platform/pkg/res"
	"github.com/gin-gonic/gin"
)

// ContentService операции над материалами
type ContentService interface {
	Get(ctx context.Context, id int64) (*domain.Article, error)
	Create(ctx context.Context, actor domain.Actor, in domain.ArticleInput) (*domain.Article, error)
	Update(ctx context.Context, actor domain.Actor, id int64, patch domain.ArticlePatch) (*domain.Article, error)
	Delete(ctx context.Context, actor domain.Actor, id int64) error
}

// ListingService публичная выдача
type ListingService interface {
	List(ctx context.Context, filter domain.ListingFilter) ([]domain.ListedArticle, error)
}

// BoostService продвижение материалов
type BoostService interface {
	Boost(ctx context.Context, actor domain.Actor, articleID int64) (*service.BoostResult, error)
}

type createArticleRequest struct {
	Title   string  `json:"title" validate:"required,min=10,max=255"`
	Content string  `json:"content" validate:"omitempty,min=200"`
	Status  string  `json:"status" validate:"required,oneof=draft published archived"`
	TagIDs  []int64 `json:"tag_ids" validate:"omitempty,dive,gt=0"`
}

type updateArticleRequest struct {
	Title   *string  `json:"title" validate:"omitempty,min=10,max=255"`
	Content *string  `json:"content" validate:"omitempty,min=200"`
	Status  *string  `json:"status" validate:"omitempty,oneof=draft published archived"`
	TagIDs  *[]int64 `json:"tag_ids" validate:"omitempty,dive,gt=0"`
}

// ListResponse страница выдачи
type ListResponse struct {
	Data []domain.ListedArticle `json:"data"`
	Meta ListMeta               `json:"meta"`
}

type ListMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// ArticleHandler обработчик материалов
type ArticleHandler struct {
	content ContentService
	listing ListingService
	boosts  BoostService
	log     *logger.Logger
}

// NewArticleHandler создает обработчик материалов
func NewArticleHandler(content ContentService, listing ListingService, boosts BoostService, log *logger.Logger) *ArticleHandler {
	return &ArticleHandler{content: content, listing: listing, boosts: boosts, log: log}
}

// List GET /articles
func (h *ArticleHandler) List(c *gin.Context) {
	filter, err := parseListingFilter(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	items, err := h.listing.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	filter = filter.Normalize()
	res.JsonResponse(c.Writer, ListResponse{
		Data: items,
		Meta: ListMeta{Limit: filter.Limit, Offset: filter.Offset, Count: len(items)},
	}, http.StatusOK)
}

// Show GET /articles/:id
func (h *ArticleHandler) Show(c *gin.Context) {
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}
	article, err := h.content.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, article, http.StatusOK)
}

// Create POST /articles
func (h *ArticleHandler) Create(c *gin.Context) {
	author, ok := currentActor(c, h.log)
	if !ok {
		return
	}
	body, err := req.HandleBody[createArticleRequest](c, h.log)
	if err != nil {
		return
	}

	article, err := h.content.Create(c.Request.Context(), author.Actor(), domain.ArticleInput{
		Title:  body.Title,
		Body:   body.Content,
		Status: domain.ContentStatus(body.Status),
		TagIDs: body.TagIDs,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, article, http.StatusCreated)
}

// Update PATCH/PUT /articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	author, ok := currentActor(c, h.log)
	if !ok {
		return
	}
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}
	body, err := req.HandleBody[updateArticleRequest](c, h.log)
	if err != nil {
		return
	}

	patch := domain.ArticlePatch{Title: body.Title, Body: body.Content, TagIDs: body.TagIDs}
	if body.Status != nil {
		status := domain.ContentStatus(*body.Status)
		patch.Status = &status
	}

	if _, err := h.content.Update(c.Request.Context(), author.Actor(), id, patch); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete DELETE /articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	author, ok := currentActor(c, h.log)
	if !ok {
		return
	}
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}
	if err := h.content.Delete(c.Request.Context(), author.Actor(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Boost POST /articles/:id/boost
func (h *ArticleHandler) Boost(c *gin.Context) {
	author, ok := currentActor(c, h.log)
	if !ok {
		return
	}
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}
	result, err := h.boosts.Boost(c.Request.Context(), author.Actor(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, result, http.StatusOK)
}

func parseListingFilter(c *gin.Context) (domain.ListingFilter, error) {
	var (
		filter domain.ListingFilter
		verrs  domain.ValidationErrors
	)

	if v := c.Query("status"); v != "" {
		status, err := domain.ParseContentStatus(v)
		if err != nil {
			verrs.Add("status", "must be one of: draft published archived")
		} else {
			filter.Status = &status
		}
	}
	if v := c.Query("author_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			verrs.Add("author_id", "must be an integer")
		} else {
			filter.AuthorID = &id
		}
	}
	if v := c.Query("boosted"); v != "" {
		boosted, err := strconv.ParseBool(v)
		if err != nil {
			verrs.Add("boosted", "must be a boolean")
		} else {
			filter.Boosted = &boosted
		}
	}
	filter.Title = c.Query("title")

	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := c.Query(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				verrs.Add(name, "must be a non-negative integer")
				continue
			}
			*dst = n
		}
	}

	if verrs.HasErrors() {
		return filter, verrs
	}
	return filter, nil
}
