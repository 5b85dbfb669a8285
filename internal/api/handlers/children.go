package handlers

import (
	"log/slog"
	"net/http"

	"kidsafe/internal/core"
	"kidsafe/internal/idgen"
	"kidsafe/internal/storage"

	"github.com/gin-gonic/gin"
)

// TokenRegistry stores child device push tokens
type TokenRegistry interface {
	RegisterDeviceToken(childID, token string)
}

// ChildrenHandler handles child profile management
type ChildrenHandler struct {
	storage storage.Storage
	tokens  TokenRegistry
	logger  *slog.Logger
}

// NewChildrenHandler creates a new children handler
func NewChildrenHandler(st storage.Storage, tokens TokenRegistry, logger *slog.Logger) *ChildrenHandler {
	return &ChildrenHandler{
		storage: st,
		tokens:  tokens,
		logger:  logger,
	}
}

// ListChildren returns the authenticated parent's children
// GET /profile/children
func (h *ChildrenHandler) ListChildren(c *gin.Context) {
	userID, ok := requireParent(c)
	if !ok {
		return
	}

	children, err := h.storage.ListChildrenByParent(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list children",
			"component", "api",
			"user_id", userID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve children",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	response := make([]gin.H, 0, len(children))
	for _, child := range children {
		response = append(response, formatChild(child))
	}

	c.JSON(http.StatusOK, response)
}

// GetChild returns a single child profile
// GET /profile/children/:id
func (h *ChildrenHandler) GetChild(c *gin.Context) {
	child := authorizeChild(c, h.storage, c.Param("id"))
	if child == nil {
		return
	}

	c.JSON(http.StatusOK, formatChild(child))
}

type createChildRequest struct {
	Name            string   `json:"name" binding:"required"`
	DeviceID        string   `json:"device_id"`
	DailyLimit      *int     `json:"daily_limit"`
	BlockedWebsites []string `json:"blocked_websites"`
	Avatar          string   `json:"avatar"`
}

// CreateChild adds a child profile for the authenticated parent
// POST /profile/children
func (h *ChildrenHandler) CreateChild(c *gin.Context) {
	userID, ok := requireParent(c)
	if !ok {
		return
	}

	var req createChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	child := &core.Child{
		ID:              idgen.NewChild(),
		ParentID:        userID,
		Name:            req.Name,
		DeviceID:        req.DeviceID,
		DailyLimit:      core.DefaultDailyLimit,
		BlockedWebsites: req.BlockedWebsites,
		Avatar:          req.Avatar,
	}
	if req.DailyLimit != nil {
		child.DailyLimit = *req.DailyLimit
	}
	if child.DeviceID == "" {
		child.DeviceID = idgen.NewDeviceID()
	}
	if child.Avatar == "" {
		child.Avatar = "avatar1.png"
	}

	if err := h.storage.CreateChild(c.Request.Context(), child); err != nil {
		switch err {
		case core.ErrDeviceIDInUse:
			c.JSON(http.StatusConflict, gin.H{
				"error": "Device ID is already in use",
				"code":  "DEVICE_ID_IN_USE",
			})
		case core.ErrInvalidName, core.ErrInvalidDailyLimit:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
				"code":  "INVALID_REQUEST",
			})
		default:
			h.logger.Error("Failed to create child",
				"component", "api",
				"user_id", userID,
				"error", err,
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create child",
				"code":  "INTERNAL_ERROR",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, formatChild(child))
}

type updateChildRequest struct {
	Name            *string   `json:"name"`
	DeviceID        *string   `json:"device_id"`
	DailyLimit      *int      `json:"daily_limit"`
	BlockedWebsites *[]string `json:"blocked_websites"`
	Avatar          *string   `json:"avatar"`
}

// UpdateChild applies a partial update to a child profile
// PATCH /profile/children/:id
func (h *ChildrenHandler) UpdateChild(c *gin.Context) {
	child := authorizeChild(c, h.storage, c.Param("id"))
	if child == nil {
		return
	}

	var req updateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	if req.Name != nil {
		child.Name = *req.Name
	}
	if req.DeviceID != nil {
		child.DeviceID = *req.DeviceID
	}
	if req.DailyLimit != nil {
		child.DailyLimit = *req.DailyLimit
	}
	if req.BlockedWebsites != nil {
		child.BlockedWebsites = *req.BlockedWebsites
	}
	if req.Avatar != nil {
		child.Avatar = *req.Avatar
	}

	if err := h.storage.UpdateChild(c.Request.Context(), child); err != nil {
		switch err {
		case core.ErrDeviceIDInUse:
			c.JSON(http.StatusConflict, gin.H{
				"error": "Device ID is already in use",
				"code":  "DEVICE_ID_IN_USE",
			})
		case core.ErrInvalidName, core.ErrInvalidDailyLimit:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
				"code":  "INVALID_REQUEST",
			})
		default:
			h.logger.Error("Failed to update child",
				"component", "api",
				"child_id", child.ID,
				"error", err,
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update child",
				"code":  "INTERNAL_ERROR",
			})
		}
		return
	}

	c.JSON(http.StatusOK, formatChild(child))
}

// DeleteChild removes a child profile and its activity history
// DELETE /profile/children/:id
func (h *ChildrenHandler) DeleteChild(c *gin.Context) {
	child := authorizeChild(c, h.storage, c.Param("id"))
	if child == nil {
		return
	}

	if err := h.storage.DeleteChild(c.Request.Context(), child.ID); err != nil {
		h.logger.Error("Failed to delete child",
			"component", "api",
			"child_id", child.ID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete child",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type registerDeviceTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// RegisterDeviceToken stores a push notification token for a child device
// POST /profile/children/:id/device-token
func (h *ChildrenHandler) RegisterDeviceToken(c *gin.Context) {
	child := authorizeChild(c, h.storage, c.Param("id"))
	if child == nil {
		return
	}

	var req registerDeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	h.tokens.RegisterDeviceToken(child.ID, req.Token)

	c.JSON(http.StatusOK, gin.H{"success": true})
}
