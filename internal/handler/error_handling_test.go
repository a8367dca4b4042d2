package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyweave-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"token expired", models.ErrTokenExpired, http.StatusUnauthorized},
		{"token revoked", models.ErrTokenRevoked, http.StatusUnauthorized},
		{"not owner", models.ErrNotOwner, http.StatusForbidden},
		{"forbidden", models.ErrForbidden, http.StatusForbidden},
		{"story not found", models.ErrStoryNotFound, http.StatusNotFound},
		{"node not found", models.ErrNodeNotFound, http.StatusNotFound},
		{"same type connection", models.ErrSameTypeConnection, http.StatusConflict},
		{"option already linked", models.ErrOptionAlreadyLinked, http.StatusConflict},
		{"duplicate connection", models.ErrDuplicateConnection, http.StatusConflict},
		{"root incoming edge", models.ErrRootIncomingEdge, http.StatusConflict},
		{"connection cycle", models.ErrConnectionCycle, http.StatusConflict},
		{"node being edited", models.ErrNodeBeingEdited, http.StatusConflict},
		{"root node deletion", models.ErrRootNodeDeletion, http.StatusConflict},
		{"draft already published", models.ErrDraftAlreadyPublished, http.StatusConflict},
		{"invalid input", models.ErrInvalidInput, http.StatusBadRequest},
		{"wrapped invalid input", fmt.Errorf("%w: details", models.ErrInvalidInput), http.StatusBadRequest},
		{"unknown error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			handleServiceError(c, zap.NewNop(), tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	t.Run("internal errors are not leaked", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		handleServiceError(c, zap.NewNop(), fmt.Errorf("ошибка подключения к базе: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}
