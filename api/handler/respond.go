package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/instagrid/instagrid/models"
)

// asFeedError normalizes any error into a typed FeedError; unknown errors
// become INTERNAL_ERROR so the client never sees a raw Go error string
// without a code.
func asFeedError(err error) *models.FeedError {
	var fe *models.FeedError
	if errors.As(err, &fe) {
		return fe
	}
	return models.NewFeedError(models.ErrCodeInternal, "internal error", err)
}

// respondError writes the flat error shape used by the account, posts, and
// proxy endpoints.
func respondError(c *gin.Context, err error) {
	fe := asFeedError(err)
	c.JSON(mapErrorToStatus(fe), models.ErrorResponse{
		Error: fe.Message,
		Code:  fe.Code,
	})
}

// respondScrapeError writes the success/error envelope used by the scraping
// endpoints, which the widget consumes directly.
func respondScrapeError(c *gin.Context, err error) {
	fe := asFeedError(err)
	c.JSON(mapErrorToStatus(fe), models.ScrapeResponse{
		Success: false,
		Error:   fe.Message,
		Code:    fe.Code,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.FeedError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput, models.ErrCodeNoLinkedAccount, models.ErrCodeTokenUnavailable:
		return http.StatusBadRequest
	case models.ErrCodeAuthFailed, models.ErrCodeSessionExpired, models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case models.ErrCodeForbiddenHost:
		return http.StatusForbidden
	case models.ErrCodeAccountNotFound:
		return http.StatusNotFound
	case models.ErrCodeProfilePrivate:
		return http.StatusUnprocessableEntity
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeUpstream, models.ErrCodeExtractionExhausted:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
