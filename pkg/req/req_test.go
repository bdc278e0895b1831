package req

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/Dhoini/publishing-platform/pkg/res"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func run(t *testing.T, body string) (*httptest.ResponseRecorder, *loginBody) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))

	parsed, _ := HandleBody[loginBody](c, logger.NewNop())
	return w, parsed
}

func TestHandleBody(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		_, parsed := run(t, `{"email":"a@example.com","password":"password1"}`)
		require.NotNil(t, parsed)
		assert.Equal(t, "a@example.com", parsed.Email)
	})

	t.Run("malformed json", func(t *testing.T) {
		w, parsed := run(t, `{"email":`)
		assert.Nil(t, parsed)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("validation errors use json names", func(t *testing.T) {
		w, parsed := run(t, `{"email":"nope","password":"short"}`)
		assert.Nil(t, parsed)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var body struct {
			Error   string       `json:"error"`
			Details []FieldError `json:"details"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Validation failed", body.Error)
		assert.ElementsMatch(t, []FieldError{
			{Field: "email", Message: "must be a valid email"},
			{Field: "password", Message: "must be at least 8 characters"},
		}, body.Details)
	})
}

func TestJsonResponse(t *testing.T) {
	w := httptest.NewRecorder()
	res.JsonResponse(w, res.SuccessResponse{Success: true}, http.StatusOK)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}
