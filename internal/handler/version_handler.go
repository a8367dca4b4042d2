package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listVersions(c *gin.Context) {
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	versions, err := h.versions.ListVersions(c.Request.Context(), storyID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

func (h *Handler) getDraft(c *gin.Context) {
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	draft, err := h.versions.GetDraft(c.Request.Context(), storyID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *Handler) getVersion(c *gin.Context) {
	versionID, ok := h.pathUUID(c, "versionId")
	if !ok {
		return
	}
	version, err := h.versions.GetVersion(c.Request.Context(), versionID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, version)
}

func (h *Handler) addNodeToVersion(c *gin.Context) {
	if _, ok := h.userID(c); !ok {
		return
	}
	versionID, ok := h.pathUUID(c, "versionId")
	if !ok {
		return
	}
	nodeID, ok := h.pathUUID(c, "nodeId")
	if !ok {
		return
	}
	version, err := h.versions.AddNodeToVersion(c.Request.Context(), versionID, nodeID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, version)
}

func (h *Handler) removeNodeFromVersion(c *gin.Context) {
	if _, ok := h.userID(c); !ok {
		return
	}
	versionID, ok := h.pathUUID(c, "versionId")
	if !ok {
		return
	}
	nodeID, ok := h.pathUUID(c, "nodeId")
	if !ok {
		return
	}
	version, err := h.versions.RemoveNodeFromVersion(c.Request.Context(), versionID, nodeID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, version)
}
