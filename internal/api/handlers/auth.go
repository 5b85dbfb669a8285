package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"kidsafe/internal/auth"
	"kidsafe/internal/core"
	"kidsafe/internal/idgen"
	"kidsafe/internal/otp"
	"kidsafe/internal/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// OTPMailer delivers verification codes. Treated as fire-and-forget: a
// delivery failure is logged, never surfaced to the requester.
type OTPMailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// AuthHandler handles registration, login, and OTP verification
type AuthHandler struct {
	storage storage.Storage
	otp     *otp.Store
	tokens  *auth.Tokens
	mailer  OTPMailer
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(st storage.Storage, otpStore *otp.Store, tokens *auth.Tokens, mailer OTPMailer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		storage: st,
		otp:     otpStore,
		tokens:  tokens,
		mailer:  mailer,
		logger:  logger,
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register creates a parent account. The email must hold a live OTP
// verification; the verification is consumed on success.
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	if !h.otp.IsVerified(req.Email) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Email address has not been verified",
			"code":  "EMAIL_NOT_VERIFIED",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("Failed to hash password",
			"component", "api",
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create account",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	user := &core.User{
		ID:           idgen.NewUser(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	if err := h.storage.CreateUser(c.Request.Context(), user); err != nil {
		if err == core.ErrEmailInUse {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Email is already in use",
				"code":  "EMAIL_IN_USE",
			})
			return
		}
		h.logger.Error("Failed to create user",
			"component", "api",
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create account",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	// Verification is single-use: once registration succeeds, the
	// record is dropped so it can't gate a second registration.
	h.otp.Clear(req.Email)

	token, err := h.tokens.IssueParent(user.ID)
	if err != nil {
		h.logger.Error("Failed to issue token",
			"component", "api",
			"user_id", user.ID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create account",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":  formatUser(user),
		"token": token,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a parent account
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	user, err := h.storage.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		// Same response as a wrong password so emails can't be probed
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid credentials",
			"code":  "INVALID_CREDENTIALS",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid credentials",
			"code":  "INVALID_CREDENTIALS",
		})
		return
	}

	token, err := h.tokens.IssueParent(user.ID)
	if err != nil {
		h.logger.Error("Failed to issue token",
			"component", "api",
			"user_id", user.ID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to log in",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  formatUser(user),
		"token": token,
	})
}

type childLoginRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

// ChildLogin authenticates a child device by its device ID
// POST /auth/child-login
func (h *AuthHandler) ChildLogin(c *gin.Context) {
	var req childLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	child, err := h.storage.GetChildByDeviceID(c.Request.Context(), req.DeviceID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid device ID",
			"code":  "INVALID_DEVICE_ID",
		})
		return
	}

	token, err := h.tokens.IssueChild(child.ID)
	if err != nil {
		h.logger.Error("Failed to issue child token",
			"component", "api",
			"child_id", child.ID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to log in",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"child_id": child.ID,
		"token":    token,
	})
}

type sendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendOTP generates a verification code and dispatches it by email.
// Delivery is best-effort; the response doesn't wait for it.
// POST /auth/send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	code := h.otp.Generate(req.Email)

	go func(email, code string) {
		if err := h.mailer.SendOTP(context.Background(), email, code); err != nil {
			h.logger.Error("Failed to send OTP email",
				"component", "api",
				"error", err,
			)
		}
	}(req.Email, code)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verification code sent",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

// VerifyOTP checks a submitted verification code. Wrong and expired codes
// get the same generic response.
// POST /auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
			"code":  "INVALID_REQUEST",
		})
		return
	}

	if !h.otp.Verify(req.Email, req.OTP) {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Invalid or expired verification code",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Email verified",
	})
}

// GetProfile returns the authenticated parent's account
// GET /auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := requireParent(c)
	if !ok {
		return
	}

	user, err := h.storage.GetUser(c.Request.Context(), userID)
	if err != nil {
		if err == core.ErrUserNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
				"code":  "USER_NOT_FOUND",
			})
			return
		}
		h.logger.Error("Failed to get user",
			"component", "api",
			"user_id", userID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve profile",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": formatUser(user)})
}

func formatUser(user *core.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"created_at": user.CreatedAt.Format(timestampFormat),
	}
}
