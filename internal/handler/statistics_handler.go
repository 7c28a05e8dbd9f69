package handler

import (
	"net/http"

	"vetclinic/internal/middleware"
	"vetclinic/internal/service"
	"vetclinic/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statsService service.StatisticsService
}

func NewStatisticsHandler(statsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statsService: statsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	stats := router.Group("/statistics")
	{
		stats.GET("/revenue", middleware.RequirePermission("dashboard.read"), h.RevenueSummary)
		stats.GET("/dashboard", middleware.RequirePermission("dashboard.read"), h.DashboardCounts)
	}
}

// RevenueSummary handles GET /statistics/revenue
// @Summary      Revenue summary
// @Description  Aggregates invoiced and collected totals for a date range (defaults to the current month)
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Param        from  query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to    query     string  false  "End date (YYYY-MM-DD)"
// @Success      200   {object}  response.Response{data=service.RevenueSummary}
// @Failure      400   {object}  response.Response
// @Router       /statistics/revenue [get]
func (h *StatisticsHandler) RevenueSummary(c *gin.Context) {
	summary, err := h.statsService.RevenueSummary(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// DashboardCounts handles GET /statistics/dashboard
// @Summary      Dashboard counts
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardCounts}
// @Failure      500  {object}  response.Response
// @Router       /statistics/dashboard [get]
func (h *StatisticsHandler) DashboardCounts(c *gin.Context) {
	counts, err := h.statsService.DashboardCounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch dashboard counts"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, counts))
}
