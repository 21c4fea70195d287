package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ngo_connect_backend/internal/services"
	"ngo_connect_backend/internal/services/dto"
)

type NotificationHandler struct {
	*BaseHandler
	matchingService services.MatchingService
}

func NewNotificationHandler(base *BaseHandler, matchingService services.MatchingService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:     base,
		matchingService: matchingService,
	}
}

func (h *NotificationHandler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.PUT("/:notificationId/status", h.UpdateStatus)
	}
}

// UpdateStatus answers 409 for a backward move and 404 for an unknown id.
func (h *NotificationHandler) UpdateStatus(c *gin.Context) {
	notificationID, ok := h.PathParam(c, "notificationId")
	if !ok {
		return
	}

	var req dto.UpdateNotificationStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	notification, err := h.matchingService.UpdateNotificationStatus(c.Request.Context(), notificationID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UpdateNotificationStatusResponse{
		Success:      true,
		Notification: notification,
	})
}
