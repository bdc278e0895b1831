package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/middleware"
	"github.com/Dhoini/publishing-platform/internal/service"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/Dhoini/publishing-platform/pkg/req"
	"github.com/Dhoini/publishing-platform/pkg/res"
	"github.com/gin-gonic/gin"
)

// AuthorService регистрация и вход
type AuthorService interface {
	Register(ctx context.Context, name, email, password string) (*domain.Author, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthHandler обработчик регистрации, входа и профиля
type AuthHandler struct {
	authors AuthorService
	log     *logger.Logger
}

// NewAuthHandler создает обработчик авторизации
func NewAuthHandler(authors AuthorService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{authors: authors, log: log}
}

// Register POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	body, err := req.HandleBody[registerRequest](c, h.log)
	if err != nil {
		return
	}

	author, err := h.authors.Register(c.Request.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, author, http.StatusCreated)
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	body, err := req.HandleBody[loginRequest](c, h.log)
	if err != nil {
		return
	}

	result, err := h.authors.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	res.JsonResponse(c.Writer, result, http.StatusOK)
}

// Me GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	author, ok := currentActor(c, h.log)
	if !ok {
		return
	}
	res.JsonResponse(c.Writer, author, http.StatusOK)
}

// currentActor актор запроса; false, если ответ уже отправлен
func currentActor(c *gin.Context, log *logger.Logger) (*domain.Author, bool) {
	author, ok := middleware.CurrentAuthor(c)
	if !ok {
		writeError(c, log, domain.ErrUnauthenticated)
		return nil, false
	}
	return author, true
}

// pathID разбирает :id; false, если ответ уже отправлен
func pathID(c *gin.Context, log *logger.Logger) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		log.Debugw("Invalid path id", "id", c.Param("id"))
		writeError(c, log, domain.ErrNotFound)
		return 0, false
	}
	return id, true
}
