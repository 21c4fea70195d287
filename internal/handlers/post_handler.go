package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ngo_connect_backend/internal/services"
	"ngo_connect_backend/internal/services/dto"
)

type PostHandler struct {
	*BaseHandler
	postService     services.PostService
	matchingService services.MatchingService
}

func NewPostHandler(base *BaseHandler, postService services.PostService, matchingService services.MatchingService) *PostHandler {
	return &PostHandler{
		BaseHandler:     base,
		postService:     postService,
		matchingService: matchingService,
	}
}

func (h *PostHandler) RegisterRoutes(r *gin.RouterGroup) {
	posts := r.Group("/posts")
	{
		posts.POST("", h.CreatePost)
		posts.GET("/:postId", h.GetPost)
		posts.GET("/:postId/notifications", h.GetPostNotifications)
		posts.POST("/:postId/notify", h.NotifyNGOs)
	}
}

// CreatePost stores a report and notifies NGOs around it.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req dto.CreatePostRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.postService.CreatePost(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := h.PathParam(c, "postId")
	if !ok {
		return
	}

	resp, err := h.postService.GetPost(c.Request.Context(), postID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PostHandler) GetPostNotifications(c *gin.Context) {
	postID, ok := h.PathParam(c, "postId")
	if !ok {
		return
	}

	notifications, err := h.matchingService.GetPostNotifications(c.Request.Context(), postID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PostNotificationsResponse{
		PostID:        postID,
		Notifications: notifications,
		Total:         len(notifications),
	})
}

func (h *PostHandler) NotifyNGOs(c *gin.Context) {
	postID, ok := h.PathParam(c, "postId")
	if !ok {
		return
	}

	notifications, err := h.postService.NotifyExistingPost(c.Request.Context(), postID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NotifyResponse{
		PostID:        postID,
		Notifications: notifications,
		Total:         len(notifications),
	})
}
