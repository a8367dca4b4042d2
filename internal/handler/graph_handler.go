package handler

import (
	"net/http"

	"storyweave-server/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createNode(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	var req models.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	node, err := h.graph.CreateNode(c.Request.Context(), userID, storyID, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

func (h *Handler) getNode(c *gin.Context) {
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	nodeID, ok := h.pathUUID(c, "nodeId")
	if !ok {
		return
	}
	node, err := h.graph.GetNode(c.Request.Context(), storyID, nodeID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

func (h *Handler) updateNode(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	nodeID, ok := h.pathUUID(c, "nodeId")
	if !ok {
		return
	}
	var req models.UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	node, err := h.graph.UpdateNode(c.Request.Context(), userID, storyID, nodeID, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

func (h *Handler) deleteNode(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	nodeID, ok := h.pathUUID(c, "nodeId")
	if !ok {
		return
	}
	if err := h.graph.DeleteNode(c.Request.Context(), userID, storyID, nodeID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) updateNodePosition(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	nodeID, ok := h.pathUUID(c, "nodeId")
	if !ok {
		return
	}
	var req models.UpdatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	node, err := h.graph.UpdateNodePosition(c.Request.Context(), userID, storyID, nodeID, req.Position)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

func (h *Handler) createConnection(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	var req models.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	payload, err := h.graph.CreateConnection(c.Request.Context(), userID, storyID, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, payload)
}

func (h *Handler) deleteConnection(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	var req models.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	payload, err := h.graph.DeleteConnection(c.Request.Context(), userID, storyID, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *Handler) listGraph(c *gin.Context) {
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	versionID, ok := h.pathUUID(c, "versionId")
	if !ok {
		return
	}
	nodes, err := h.graph.ListGraph(c.Request.Context(), storyID, versionID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

func (h *Handler) getNodeTree(c *gin.Context) {
	storyID, ok := h.pathUUID(c, "storyId")
	if !ok {
		return
	}
	versionID, ok := h.pathUUID(c, "versionId")
	if !ok {
		return
	}
	tree, err := h.versions.GetNodeTree(c.Request.Context(), storyID, versionID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}
