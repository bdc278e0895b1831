package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Dhoini/publishing-platform/internal/auth"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/Dhoini/publishing-platform/pkg/res"

	"github.com/gin-gonic/gin"
)

// ContextKey тип для ключей контекста во избежание коллизий.
type ContextKey string

const (
	// ContextAuthorKey ключ для хранения аутентифицированного автора в контексте gin
	ContextAuthorKey ContextKey = "author"
	authHeaderPrefix            = "Bearer "
)

// AuthorLookup источник авторов для проверки статуса
type AuthorLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Author, error)
}

type JWTMiddleware struct {
	log       *logger.Logger
	validator auth.TokenValidator
	authors   AuthorLookup
}

func NewJWTMiddleware(log *logger.Logger, validator auth.TokenValidator, authors AuthorLookup) *JWTMiddleware {
	return &JWTMiddleware{
		log:       log,
		validator: validator,
		authors:   authors,
	}
}

// RequireAuth пропускает только запросы с валидным токеном активного автора.
// Роль берется из хранилища, а не из токена.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, authHeaderPrefix) {
			m.handleAuthError(c, "Missing authorization token")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, authHeaderPrefix)
		claims, err := m.validator.Validate(tokenString)
		if err != nil {
			m.handleAuthError(c, fmt.Sprintf("Token validation failed: %v", err))
			return
		}

		authorID, err := claims.AuthorID()
		if err != nil {
			m.handleAuthError(c, err.Error())
			return
		}

		author, err := m.authors.GetByID(c.Request.Context(), authorID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				m.handleAuthError(c, "Author not found")
				return
			}
			m.log.Errorw("Failed to load authenticated author", "authorID", authorID, "error", err)
			res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Internal server error"}, http.StatusInternalServerError)
			c.Abort()
			return
		}
		if !author.CanAct() {
			m.log.Infow("Inactive author rejected", "authorID", authorID, "status", author.Status)
			res.JsonResponse(c.Writer, res.ErrorResponse{
				Error:     "Account is not active",
				ErrorCode: http.StatusForbidden,
			}, http.StatusForbidden)
			c.Abort()
			return
		}

		c.Set(string(ContextAuthorKey), author)
		m.log.Debugw("Author authenticated", "authorID", authorID)
		c.Next()
	}
}

func (m *JWTMiddleware) handleAuthError(c *gin.Context, message string) {
	m.log.Warnw("HTTP authentication failed", "path", c.Request.URL.Path, "error", message)
	res.JsonResponse(c.Writer, res.ErrorResponse{
		Error:     message,
		ErrorCode: http.StatusUnauthorized,
	}, http.StatusUnauthorized)
	c.Abort()
}

// CurrentAuthor автор, установленный RequireAuth
func CurrentAuthor(c *gin.Context) (*domain.Author, bool) {
	v, ok := c.Get(string(ContextAuthorKey))
	if !ok {
		return nil, false
	}
	author, ok := v.(*domain.Author)
	return author, ok && author != nil
}
