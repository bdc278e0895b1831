package handlers

import (
	"context"
	"net/http"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/Dhoini/publishing-platform/pkg/req"
	"github.com/Dhoini/publishing-platform/pkg/res"
	"github.com/gin-gonic/gin"
)

// TagService управление метками
type TagService interface {
	List(ctx context.Context) ([]domain.Tag, error)
	Get(ctx context.Context, id int64) (*domain.Tag, error)
	Create(ctx context.Context, name string) (*domain.Tag, error)
	Update(ctx context.Context, actor domain.Actor, id int64, name string) error
	Delete(ctx context.Context, actor domain.Actor, id int64) error
}

type tagRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type TagHandler struct {
	tags TagService
	log  *logger.Logger
}

func NewTagHandler(tags TagService, log *logger.Logger) *TagHandler {
	return &TagHandler{tags: tags, log: log}
}

func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, gin.H{"data": tags}, http.StatusOK)
}

func (h *TagHandler) Show(c *gin.Context) {
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}
	tag, err := h.tags.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, tag, http.StatusOK)
}

func (h *TagHandler) Create(c *gin.Context) {
	if _, ok := currentActor(c, h.log); !ok {
		return
	}
	body, err := req.HandleBody[tagRequest](c, h.log)
	if err != nil {
		return
	}
	tag, err := h.tags.Create(c.Request.Context(), body.Name)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, tag, http.StatusCreated)
}

func (h *TagHandler) Update(c *gin.Context) {
	author, ok := currentActor(c, h.log)
	if !ok {
		return
	}
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}
	body, err := req.HandleBody[tagRequest](c, h.log)
	if err != nil {
		return
	}
	if err := h.tags.Update(c.Request.Context(), author.Actor(), id, body.Name); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TagHandler) Delete(c *gin.Context) {
	author, ok := currentActor(c, h.log)
	if !ok {
		return
	}
	id, ok := pathID(c, h.log)
	if !ok {
		return
	}
	if err := h.tags.Delete(c.Request.Context(), author.Actor(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
