package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ngo_connect_backend/internal/algorithms"
	"ngo_connect_backend/internal/models"
	"ngo_connect_backend/internal/services"
	"ngo_connect_backend/internal/services/dto"
)

type NGOHandler struct {
	*BaseHandler
	matchingService services.MatchingService
}

func NewNGOHandler(base *BaseHandler, matchingService services.MatchingService) *NGOHandler {
	return &NGOHandler{
		BaseHandler:     base,
		matchingService: matchingService,
	}
}

func (h *NGOHandler) RegisterRoutes(r *gin.RouterGroup) {
	ngos := r.Group("/ngos")
	{
		ngos.GET("", h.ListNGOs)
		ngos.GET("/nearby", h.GetNearbyNGOs)
		ngos.GET("/:ngoId", h.GetNGO)
		ngos.GET("/:ngoId/stats", h.GetNGOStats)
	}
}

func (h *NGOHandler) GetNearbyNGOs(c *gin.Context) {
	var query dto.NearbyNGOsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	point := models.GeoPoint{Latitude: *query.Latitude, Longitude: *query.Longitude}
	nearby, err := h.matchingService.GetNearbyNGOs(c.Request.Context(), point, query.Category, query.RadiusKm)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	radius := query.RadiusKm
	if radius <= 0 {
		radius = algorithms.DefaultRadiusKm
	}
	c.JSON(http.StatusOK, dto.NearbyNGOsResponse{
		NGOs:     nearby,
		Total:    len(nearby),
		RadiusKm: radius,
	})
}

func (h *NGOHandler) ListNGOs(c *gin.Context) {
	var query dto.ListNGOsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	ngos, err := h.matchingService.ListNGOs(c.Request.Context(), query.Category)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ngos":  ngos,
		"total": len(ngos),
	})
}

func (h *NGOHandler) GetNGO(c *gin.Context) {
	ngoID, ok := h.PathParam(c, "ngoId")
	if !ok {
		return
	}

	ngo, err := h.matchingService.GetNGO(c.Request.Context(), ngoID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ngo)
}

func (h *NGOHandler) GetNGOStats(c *gin.Context) {
	ngoID, ok := h.PathParam(c, "ngoId")
	if !ok {
		return
	}

	stats, err := h.matchingService.GetNGOStats(c.Request.Context(), ngoID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
