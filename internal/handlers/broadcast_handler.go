package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"talentvault_backend/internal/middleware"
	"talentvault_backend/internal/services"
	"talentvault_backend/internal/services/dto"
)

type BroadcastHandler struct {
	*BaseHandler
	broadcastService services.BroadcastService
}

func NewBroadcastHandler(base *BaseHandler, broadcastService services.BroadcastService) *BroadcastHandler {
	return &BroadcastHandler{
		BaseHandler:      base,
		broadcastService: broadcastService,
	}
}

func (h *BroadcastHandler) RegisterRoutes(r *gin.RouterGroup) {
	broadcast := r.Group("/broadcast")
	broadcast.Use(middleware.AuthMiddleware(), middleware.RequireAdminTier())
	{
		broadcast.GET("/stats", h.GetStats)
		broadcast.GET("/users", h.SearchUsers)
		broadcast.GET("", h.ListRecent)
		broadcast.POST("/send", h.Send)
	}

	industry := r.Group("/industry")
	industry.Use(middleware.AuthMiddleware(), middleware.RequireAdminTier())
	{
		industry.POST("/alerts", h.SendIndustryAlert)
	}
}

func (h *BroadcastHandler) GetStats(c *gin.Context) {
	stats, err := h.broadcastService.GetStats()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *BroadcastHandler) SearchUsers(c *gin.Context) {
	query := c.Query("search")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	// exclude carries the already-selected recipient ids so they do not
	// reappear in subsequent result sets.
	var excludeIDs []string
	if exclude := c.Query("exclude"); exclude != "" {
		excludeIDs = strings.Split(exclude, ",")
	}

	response, err := h.broadcastService.SearchUsers(query, limit, excludeIDs)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *BroadcastHandler) ListRecent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	broadcasts, err := h.broadcastService.ListRecent(limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"broadcasts": broadcasts})
}

func (h *BroadcastHandler) Send(c *gin.Context) {
	senderID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SendBroadcastRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.broadcastService.Send(senderID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SendBroadcastResponse{Data: *result})
}

func (h *BroadcastHandler) SendIndustryAlert(c *gin.Context) {
	senderID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SendIndustryAlertRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.broadcastService.SendIndustryAlert(senderID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Industry alert published"})
}
