package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dhoini/publishing-platform/internal/auth"
	"github.com/Dhoini/publishing-platform/internal/clock"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLimiter struct {
	allowed bool
	retry   time.Duration
	err     error
}

func (l staticLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return l.allowed, l.retry, l.err
}

type authorMap map[int64]*domain.Author

func (m authorMap) GetByID(_ context.Context, id int64) (*domain.Author, error) {
	if a, ok := m[id]; ok {
		return a, nil
	}
	return nil, domain.NewNotFoundError("author", id)
}

func serve(t *testing.T, handlers []gin.HandlerFunc, header string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", append(handlers, func(c *gin.Context) {
		if a, ok := CurrentAuthor(c); ok {
			c.String(http.StatusOK, a.Name)
			return
		}
		c.Status(http.StatusOK)
	})...)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	log := logger.NewNop()

	w := serve(t, []gin.HandlerFunc{RateLimit(staticLimiter{allowed: true}, "auth", log)}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, []gin.HandlerFunc{RateLimit(staticLimiter{retry: 1500 * time.Millisecond}, "auth", log)}, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	// недоступный лимитер не блокирует вход
	w = serve(t, []gin.HandlerFunc{RateLimit(staticLimiter{err: errors.New("redis down")}, "auth", log)}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))
	issuer := auth.NewJWTIssuer("secret", "test", time.Hour, clk)
	validator := &auth.DefaultTokenValidator{Secret: []byte("secret"), Issuer: "test", Clock: clk}

	active := &domain.Author{ID: 1, Name: "alice", Status: domain.AuthorStatusActive, Role: domain.RoleAuthor}
	banned := &domain.Author{ID: 2, Name: "bob", Status: domain.AuthorStatusSuspended, Role: domain.RoleAuthor}
	ghost := &domain.Author{ID: 3, Name: "ghost", Status: domain.AuthorStatusActive}
	mw := NewJWTMiddleware(logger.NewNop(), validator, authorMap{1: active, 2: banned})

	token := func(a *domain.Author) string {
		s, _, err := issuer.Issue(a)
		require.NoError(t, err)
		return "Bearer " + s
	}

	w := serve(t, []gin.HandlerFunc{mw.RequireAuth()}, token(active))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	w = serve(t, []gin.HandlerFunc{mw.RequireAuth()}, token(banned))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(t, []gin.HandlerFunc{mw.RequireAuth()}, token(ghost))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(t, []gin.HandlerFunc{mw.RequireAuth()}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired := token(active)
	clk.Advance(2 * time.Hour)
	w = serve(t, []gin.HandlerFunc{mw.RequireAuth()}, expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
