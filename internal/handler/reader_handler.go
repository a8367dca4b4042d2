package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) starStory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	if err := h.reader.StarStory(c.Request.Context(), userID, storyID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) unstarStory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	if err := h.reader.UnstarStory(c.Request.Context(), userID, storyID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) startReading(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	session, err := h.reader.StartReading(c.Request.Context(), userID, storyID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

type advanceReadingRequest struct {
	NodeID uuid.UUID `json:"nodeId" binding:"required"`
}

func (h *Handler) advanceReading(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	sessionID, ok := h.pathUUID(c, "sessionId")
	if !ok {
		return
	}
	var req advanceReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	session, err := h.reader.AdvanceReading(c.Request.Context(), userID, sessionID, req.NodeID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
