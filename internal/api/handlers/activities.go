package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"kidsafe/internal/core"
	"kidsafe/internal/idgen"
	"kidsafe/internal/storage"

	"github.com/gin-gonic/gin"
)

// AlertNotifier sends parental alerts about restricted activity
type AlertNotifier interface {
	SendRestrictedContentAlert(ctx context.Context, parentEmail, childID, childName, contentType string)
}

// ActivitiesHandler handles activity ingestion and querying
type ActivitiesHandler struct {
	storage    storage.Storage
	calculator *core.DashboardCalculator
	notifier   AlertNotifier
	logger     *slog.Logger
}

// NewActivitiesHandler creates a new activities handler
func NewActivitiesHandler(st storage.Storage, calculator *core.DashboardCalculator, notifier AlertNotifier, logger *slog.Logger) *ActivitiesHandler {
	return &ActivitiesHandler{
		storage:    st,
		calculator: calculator,
		notifier:   notifier,
		logger:     logger,
	}
}

type createActivityRequest struct {
	ChildID      string     `json:"child_id" binding:"required"`
	Type         string     `json:"type" binding:"required"`
	Name         string     `json:"name" binding:"required"`
	URL          string     `json:"url"`
	Category     string     `json:"category"`
	Duration     int        `json:"duration"`
	IsRestricted bool       `json:"is_restricted"`
	IsBlocked    bool       `json:"is_blocked"`
	Timestamp    *time.Time `json:"timestamp"`
}

func (r *createActivityRequest) toActivity() *core.Activity {
	activity := &core.Activity{
		ID:           idgen.NewActivity(),
		ChildID:      r.ChildID,
		Type:         r.Type,
		Name:         r.Name,
		URL:          r.URL,
		Category:     r.Category,
		Duration:     r.Duration,
		IsRestricted: r.IsRestricted,
		IsBlocked:    r.IsBlocked,
	}
	if r.Timestamp != nil {
		activity.Timestamp = *r.Timestamp
	}
	return activity
}

// CreateActivity records a single activity for a child
// POST /activity
func (h *ActivitiesHandler) CreateActivity(c *gin.Context) {
	var req createActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	child := authorizeChild(c, h.storage, req.ChildID)
	if child == nil {
		return
	}

	activity := req.toActivity()
	if err := h.storage.CreateActivity(c.Request.Context(), activity); err != nil {
		if err == core.ErrInvalidDuration || err == core.ErrInvalidActivityType || err == core.ErrInvalidName {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
				"code":  "INVALID_REQUEST",
			})
			return
		}
		h.logger.Error("Failed to create activity",
			"component", "api",
			"child_id", req.ChildID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to record activity",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	// Alerting stays out of the aggregation path: it happens here in
	// the handler, fire-and-forget, so a slow or failing channel never
	// blocks ingestion.
	if activity.IsRestricted || activity.IsBlocked {
		h.alertRestricted(child, activity.Type)
	}

	c.JSON(http.StatusCreated, formatActivity(activity))
}

type batchActivitiesRequest struct {
	Activities []createActivityRequest `json:"activities"`
}

// CreateActivitiesBatch records a batch of activities in one transaction
// POST /activity/batch
func (h *ActivitiesHandler) CreateActivitiesBatch(c *gin.Context) {
	var req batchActivitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	if len(req.Activities) == 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "count": 0})
		return
	}

	// All records in a batch must belong to the same authorized child
	childID := req.Activities[0].ChildID
	for _, item := range req.Activities {
		if item.ChildID != childID {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "All activities in a batch must belong to the same child",
				"code":  "INVALID_REQUEST",
			})
			return
		}
	}

	child := authorizeChild(c, h.storage, childID)
	if child == nil {
		return
	}

	activities := make([]*core.Activity, 0, len(req.Activities))
	restricted := 0
	for _, item := range req.Activities {
		activity := item.toActivity()
		if activity.IsRestricted || activity.IsBlocked {
			restricted++
		}
		activities = append(activities, activity)
	}

	if err := h.storage.CreateActivities(c.Request.Context(), activities); err != nil {
		h.logger.Error("Failed to create activity batch",
			"component", "api",
			"child_id", childID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to record activities",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	// One grouped alert per batch rather than one per record
	if restricted > 0 {
		h.alertRestricted(child, fmt.Sprintf("multiple activities (%d)", restricted))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(activities)})
}

// ListActivities returns a child's activities with optional filters
// GET /activity/child/:id?startDate=&endDate=&type=&category=
func (h *ActivitiesHandler) ListActivities(c *gin.Context) {
	child := authorizeChild(c, h.storage, c.Param("id"))
	if child == nil {
		return
	}

	filter := storage.ActivityFilter{
		Type:     c.Query("type"),
		Category: c.Query("category"),
	}

	if raw := c.Query("startDate"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid startDate. Use YYYY-MM-DD or RFC 3339",
				"code":  "INVALID_DATE_FORMAT",
			})
			return
		}
		filter.From = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid endDate. Use YYYY-MM-DD or RFC 3339",
				"code":  "INVALID_DATE_FORMAT",
			})
			return
		}
		filter.To = &t
	}

	activities, err := h.storage.ListActivitiesByChild(c.Request.Context(), child.ID, filter)
	if err != nil {
		h.logger.Error("Failed to list activities",
			"component", "api",
			"child_id", child.ID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve activities",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, formatActivities(activities))
}

// GetSummary returns totals grouped by type and category
// GET /activity/child/:id/summary
func (h *ActivitiesHandler) GetSummary(c *gin.Context) {
	child := authorizeChild(c, h.storage, c.Param("id"))
	if child == nil {
		return
	}

	activities, err := h.storage.ListActivitiesByChild(c.Request.Context(), child.ID, storage.ActivityFilter{})
	if err != nil {
		h.logger.Error("Failed to list activities for summary",
			"component", "api",
			"child_id", child.ID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve summary",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	summary := h.calculator.Summary(activities)

	c.JSON(http.StatusOK, gin.H{
		"total_activities": summary.TotalActivities,
		"total_duration":   summary.TotalDuration,
		"by_type":          summary.ByType,
		"by_category":      summary.ByCategory,
	})
}

// GetTimeSeries returns one bucket per day over the trailing window
// GET /activity/child/:id/time-series?days=N
func (h *ActivitiesHandler) GetTimeSeries(c *gin.Context) {
	child := authorizeChild(c, h.storage, c.Param("id"))
	if child == nil {
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "days must be a non-negative integer",
				"code":  "INVALID_REQUEST",
			})
			return
		}
		days = parsed
	}

	now := time.Now()
	from := h.calculator.StartOfDay(now).AddDate(0, 0, -days)
	activities, err := h.storage.ListActivitiesByChild(c.Request.Context(), child.ID, storage.ActivityFilter{From: &from})
	if err != nil {
		h.logger.Error("Failed to list activities for time series",
			"component", "api",
			"child_id", child.ID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve time series",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	buckets := h.calculator.TimeSeries(activities, days, now)

	response := make([]gin.H, 0, len(buckets))
	for _, bucket := range buckets {
		response = append(response, gin.H{
			"date":     bucket.Date.Format("2006-01-02"),
			"duration": bucket.TotalTime,
			"count":    bucket.Count,
		})
	}

	c.JSON(http.StatusOK, response)
}

// alertRestricted notifies the child's parent in the background
func (h *ActivitiesHandler) alertRestricted(child *core.Child, contentType string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		parent, err := h.storage.GetUser(ctx, child.ParentID)
		if err != nil {
			h.logger.Error("Failed to load parent for restricted-content alert",
				"component", "api",
				"child_id", child.ID,
				"error", err,
			)
			return
		}

		h.notifier.SendRestrictedContentAlert(ctx, parent.Email, child.ID, child.Name, contentType)
	}()
}
