package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"kidsafe/internal/core"
	"kidsafe/internal/insights"
	"kidsafe/internal/storage"

	"github.com/gin-gonic/gin"
)

const weeklyWindowDays = 6

// DashboardHandler serves the parent dashboard views
type DashboardHandler struct {
	storage    storage.Storage
	calculator *core.DashboardCalculator
	insights   *insights.Provider
	logger     *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(st storage.Storage, calculator *core.DashboardCalculator, provider *insights.Provider, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		storage:    st,
		calculator: calculator,
		insights:   provider,
		logger:     logger,
	}
}

// GetChildStats returns the full dashboard summary for a child
// GET /dashboard/child/:id/stats
func (h *DashboardHandler) GetChildStats(c *gin.Context) {
	child := authorizeChild(c, h.storage, c.Param("id"))
	if child == nil {
		return
	}

	activities, err := h.storage.ListActivitiesByChild(c.Request.Context(), child.ID, storage.ActivityFilter{})
	if err != nil {
		h.logger.Error("Failed to list activities for dashboard",
			"component", "api",
			"child_id", child.ID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve dashboard stats",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	summary := h.calculator.DailySummary(activities, child.DailyLimit, time.Now())

	c.JSON(http.StatusOK, gin.H{
		"totalTimeToday":    summary.TotalTimeToday,
		"remainingTime":     summary.RemainingTime,
		"weeklyAverage":     summary.WeeklyAverage,
		"mostVisitedSites":  summary.MostVisitedSites,
		"categoryBreakdown": summary.CategoryBreakdown,
		"recentActivities":  formatActivities(summary.RecentActivities),
		"aiInsights":        h.insights.ForChild(child.ID),
	})
}

// GetWeeklyData returns one data point per day for the trailing week,
// today included
// GET /dashboard/child/:id/weekly
func (h *DashboardHandler) GetWeeklyData(c *gin.Context) {
	child := authorizeChild(c, h.storage, c.Param("id"))
	if child == nil {
		return
	}

	now := time.Now()
	from := h.calculator.StartOfDay(now).AddDate(0, 0, -weeklyWindowDays)
	activities, err := h.storage.ListActivitiesByChild(c.Request.Context(), child.ID, storage.ActivityFilter{From: &from})
	if err != nil {
		h.logger.Error("Failed to list activities for weekly view",
			"component", "api",
			"child_id", child.ID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve weekly data",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	buckets := h.calculator.TimeSeries(activities, weeklyWindowDays, now)

	response := make([]gin.H, 0, len(buckets))
	for _, bucket := range buckets {
		response = append(response, gin.H{
			"date":      bucket.Date.Format("2006-01-02"),
			"totalTime": bucket.TotalTime,
		})
	}

	c.JSON(http.StatusOK, response)
}

// GetAiInsights returns the insight strings for a child's dashboard
// GET /dashboard/child/:id/ai-insights
func (h *DashboardHandler) GetAiInsights(c *gin.Context) {
	child := authorizeChild(c, h.storage, c.Param("id"))
	if child == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"insights": h.insights.ForChild(child.ID)})
}
