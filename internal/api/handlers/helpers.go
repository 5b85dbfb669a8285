package handlers

import (
	"net/http"
	"time"

	"kidsafe/internal/api/middleware"
	"kidsafe/internal/core"
	"kidsafe/internal/storage"

	"github.com/gin-gonic/gin"
)

const timestampFormat = "2006-01-02T15:04:05Z07:00"

// authorizeChild loads a child and checks that the caller may access it:
// a parent must own the child, a child device token must belong to it.
// Writes the error response and returns nil when access is denied. A
// not-owned child reads as not-found so child IDs can't be probed.
func authorizeChild(c *gin.Context, st storage.Storage, childID string) *core.Child {
	child, err := st.GetChild(c.Request.Context(), childID)
	if err != nil {
		if err == core.ErrChildNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Child not found",
				"code":  "CHILD_NOT_FOUND",
			})
			return nil
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve child",
			"code":  "INTERNAL_ERROR",
		})
		return nil
	}

	if c.GetBool(middleware.IsChildKey) {
		if c.GetString(middleware.ChildIDKey) != child.ID {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Child not found",
				"code":  "CHILD_NOT_FOUND",
			})
			return nil
		}
		return child
	}

	if child.ParentID != c.GetString(middleware.UserIDKey) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Child not found",
			"code":  "CHILD_NOT_FOUND",
		})
		return nil
	}

	return child
}

// requireParent rejects child device tokens on parent-only endpoints and
// returns the authenticated user ID.
func requireParent(c *gin.Context) (string, bool) {
	if c.GetBool(middleware.IsChildKey) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Parent account required",
			"code":  "FORBIDDEN",
		})
		return "", false
	}
	return c.GetString(middleware.UserIDKey), true
}

func formatChild(child *core.Child) gin.H {
	blocked := child.BlockedWebsites
	if blocked == nil {
		blocked = []string{}
	}
	return gin.H{
		"id":               child.ID,
		"name":             child.Name,
		"device_id":        child.DeviceID,
		"daily_limit":      child.DailyLimit,
		"blocked_websites": blocked,
		"avatar":           child.Avatar,
		"created_at":       child.CreatedAt.Format(timestampFormat),
		"updated_at":       child.UpdatedAt.Format(timestampFormat),
	}
}

func formatActivity(activity *core.Activity) gin.H {
	return gin.H{
		"id":            activity.ID,
		"child_id":      activity.ChildID,
		"type":          activity.Type,
		"name":          activity.Name,
		"url":           activity.URL,
		"category":      activity.Category,
		"duration":      activity.Duration,
		"is_restricted": activity.IsRestricted,
		"is_blocked":    activity.IsBlocked,
		"timestamp":     activity.Timestamp.Format(timestampFormat),
	}
}

func formatActivities(activities []*core.Activity) []gin.H {
	out := make([]gin.H, 0, len(activities))
	for _, activity := range activities {
		out = append(out, formatActivity(activity))
	}
	return out
}

// parseTimeParam accepts RFC 3339 timestamps and bare dates
func parseTimeParam(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
