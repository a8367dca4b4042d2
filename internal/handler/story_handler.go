package handler

import (
	"io"
	"net/http"

	"storyweave-server/internal/models"

	"github.com/gin-gonic/gin"
)

// Обложки больше 5 МБ не принимаем.
const maxCoverSize = 5 << 20

func (h *Handler) createStory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req models.CreateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	story, err := h.stories.CreateStory(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, story)
}

func (h *Handler) listStories(c *gin.Context) {
	filter := models.StoryFilter{
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
	}
	stories, err := h.stories.ListStories(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stories)
}

func (h *Handler) listEditedStories(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	stories, err := h.stories.ListEditedStories(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stories)
}

func (h *Handler) getStory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	detail, err := h.stories.GetDetail(c.Request.Context(), userID, storyID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) updateStory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	var req models.UpdateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	story, err := h.stories.UpdateStory(c.Request.Context(), userID, storyID, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) deleteStory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	if err := h.stories.DeleteStory(c.Request.Context(), userID, storyID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadCover(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "missing 'cover' file"})
		return
	}
	if fileHeader.Size > maxCoverSize {
		c.JSON(http.StatusBadRequest, APIError{Message: "cover file is too large"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "failed to open cover file"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "failed to read cover file"})
		return
	}

	url, err := h.stories.UploadCover(c.Request.Context(), userID, storyID,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coverImageUrl": url})
}

func (h *Handler) publishStory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	newDraft, err := h.publish.Publish(c.Request.Context(), userID, storyID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newDraft)
}
