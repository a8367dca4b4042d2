package handler

import (
	"net/http"

	"storyweave-server/internal/middleware"
	"storyweave-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler собирает все HTTP обработчики сервера.
type Handler struct {
	logger   *zap.Logger
	stories  *service.StoryService
	graph    *service.GraphService
	versions *service.VersionService
	publish  *service.PublishService
	presence *service.PresenceService
	reader   *service.ReaderService
}

func New(
	stories *service.StoryService,
	graph *service.GraphService,
	versions *service.VersionService,
	publish *service.PublishService,
	presence *service.PresenceService,
	reader *service.ReaderService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		logger:   logger.Named("Handler"),
		stories:  stories,
		graph:    graph,
		versions: versions,
		publish:  publish,
		presence: presence,
		reader:   reader,
	}
}

// RegisterRoutes вешает маршруты API на группу, уже защищенную
// Auth middleware.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	stories := api.Group("/stories")
	{
		stories.POST("", h.createStory)
		stories.GET("", h.listStories)
		stories.GET("/edited", h.listEditedStories)
		stories.GET("/:storyId", h.getStory)
		stories.PATCH("/:storyId", h.updateStory)
		stories.DELETE("/:storyId", h.deleteStory)
		stories.POST("/:storyId/cover", h.uploadCover)
		stories.POST("/:storyId/publish", h.publishStory)

		stories.GET("/:storyId/versions", h.listVersions)
		stories.GET("/:storyId/versions/draft", h.getDraft)
		stories.GET("/:storyId/versions/:versionId/nodes", h.listGraph)
		stories.GET("/:storyId/versions/:versionId/tree", h.getNodeTree)

		stories.POST("/:storyId/nodes", h.createNode)
		stories.GET("/:storyId/nodes/:nodeId", h.getNode)
		stories.PATCH("/:storyId/nodes/:nodeId", h.updateNode)
		stories.DELETE("/:storyId/nodes/:nodeId", h.deleteNode)
		stories.PATCH("/:storyId/nodes/:nodeId/position", h.updateNodePosition)

		stories.POST("/:storyId/connections", h.createConnection)
		stories.DELETE("/:storyId/connections", h.deleteConnection)

		stories.PUT("/:storyId/star", h.starStory)
		stories.DELETE("/:storyId/star", h.unstarStory)
		stories.POST("/:storyId/read-sessions", h.startReading)
	}

	versions := api.Group("/versions")
	{
		versions.GET("/:versionId", h.getVersion)
		versions.PUT("/:versionId/nodes/:nodeId", h.addNodeToVersion)
		versions.DELETE("/:versionId/nodes/:nodeId", h.removeNodeFromVersion)
	}

	api.PATCH("/read-sessions/:sessionId", h.advanceReading)
}

// userID достает ID пользователя из контекста. Auth middleware
// гарантирует его наличие на защищенных маршрутах.
func (h *Handler) userID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, APIError{Message: "Unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID разбирает UUID из path-параметра.
func (h *Handler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
