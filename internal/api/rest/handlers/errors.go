package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/Dhoini/publishing-platform/pkg/res"
	"github.com/gin-gonic/gin"
)

// LimitExceededBody тело ответа при исчерпанном лимите публикаций
type LimitExceededBody struct {
	Message string           `json:"message"`
	Error   LimitErrorDetail `json:"error"`
}

type LimitErrorDetail struct {
	Code    string        `json:"code"`
	Details LimitCounters `json:"details"`
}

type LimitCounters struct {
	Plan         domain.Tier `json:"plan"`
	Limit        int         `json:"limit"`
	CurrentCount int         `json:"current_count"`
}

// writeError переводит доменную ошибку в HTTP-ответ
func writeError(c *gin.Context, log *logger.Logger, err error) {
	var limitErr *domain.LimitExceededError
	if errors.As(err, &limitErr) {
		res.JsonResponse(c.Writer, LimitExceededBody{
			Message: limitErr.Error(),
			Error: LimitErrorDetail{
				Code: "publishing_limit_exceeded",
				Details: LimitCounters{
					Plan:         limitErr.Tier,
					Limit:        limitErr.Limit,
					CurrentCount: limitErr.CurrentCount,
				},
			},
		}, http.StatusForbidden)
		return
	}

	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		res.JsonResponse(c.Writer, res.ErrorResponse{Error: "Validation failed", Details: []domain.ValidationError(verrs)}, http.StatusUnprocessableEntity)
		return
	}

	status, message := classify(err)
	_ = c.Error(err)
	res.JsonErrorResponse(c.Writer, res.ErrorResponse{Error: message}, status, log)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "This action is unauthorized"
	case errors.Is(err, domain.ErrAuthorInactive):
		return http.StatusForbidden, "Account is not active"
	case errors.Is(err, domain.ErrAlreadyBoosted):
		return http.StatusConflict, "Content item is already boosted"
	case errors.Is(err, domain.ErrTagInUse):
		return http.StatusConflict, "Tag is in use by articles"
	case errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict, "Resource already exists"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, domain.ErrInvalidTier), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrExternalServiceUnavailable):
		return http.StatusBadGateway, "Payment provider is unavailable"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthenticated"
	}
	return http.StatusInternalServerError, "Internal server error"
}
