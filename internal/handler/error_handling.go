package handler

import (
	"errors"
	"net/http"

	"storyweave-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIError — единый формат тела ошибки.
type APIError struct {
	Message string `json:"message"`
}

// handleServiceError переводит сентинельные ошибки сервисного слоя в
// HTTP статусы. Неизвестные ошибки не утекают наружу.
func handleServiceError(c *gin.Context, logger *zap.Logger, err error) {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrTokenInvalid),
		errors.Is(err, models.ErrTokenExpired),
		errors.Is(err, models.ErrTokenMalformed),
		errors.Is(err, models.ErrTokenRevoked):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Unauthorized"}
	case errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrNotOwner):
		statusCode = http.StatusForbidden
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrStoryNotFound),
		errors.Is(err, models.ErrNodeNotFound),
		errors.Is(err, models.ErrVersionNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrSameTypeConnection),
		errors.Is(err, models.ErrOptionAlreadyLinked),
		errors.Is(err, models.ErrDuplicateConnection),
		errors.Is(err, models.ErrRootIncomingEdge),
		errors.Is(err, models.ErrConnectionCycle),
		errors.Is(err, models.ErrNodeBeingEdited),
		errors.Is(err, models.ErrRootNodeDeletion),
		errors.Is(err, models.ErrDraftAlreadyPublished):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	default:
		logger.Error("Unhandled service error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}

	c.JSON(statusCode, apiErr)
}
