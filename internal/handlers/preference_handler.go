package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ngo_connect_backend/internal/services"
	"ngo_connect_backend/internal/services/dto"
)

type PreferenceHandler struct {
	*BaseHandler
	preferenceService services.PreferenceService
}

func NewPreferenceHandler(base *BaseHandler, preferenceService services.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{
		BaseHandler:       base,
		preferenceService: preferenceService,
	}
}

func (h *PreferenceHandler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users/:userId")
	{
		users.GET("/notification-preferences", h.GetPreferences)
		users.PUT("/notification-preferences", h.UpdatePreferences)
	}
}

func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	userID, ok := h.PathParam(c, "userId")
	if !ok {
		return
	}

	prefs, err := h.preferenceService.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := h.PathParam(c, "userId")
	if !ok {
		return
	}

	var req dto.UpdatePreferencesRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	prefs, err := h.preferenceService.UpdatePreferences(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}
