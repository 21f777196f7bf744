package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportdesk-io/supportdesk-ce/internal/auth"
	"github.com/supportdesk-io/supportdesk-ce/internal/models"
)

// AuthHandler handles authentication and profile requests.
type AuthHandler struct {
	authService *auth.AuthService
}

func NewAuthHandler(authService *auth.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUp registers a new account and signs it in.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	resp, err := h.authService.SignUp(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Email is already registered"})
		case errors.Is(err, auth.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Password is too short"})
		default:
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Sign up failed", Details: err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// SignIn exchanges credentials for a token pair.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	resp, err := h.authService.SignIn(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Sign in failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SignOut revokes the caller's session and marks them offline.
func (h *AuthHandler) SignOut(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.GetString("session_id")

	if err := h.authService.SignOut(c.Request.Context(), userID, sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Sign out failed"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Signed out"})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh rotates the token pair against a live session.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	resp, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired refresh token"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the caller's full profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString("user_id")

	user, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe applies a partial patch to the caller's profile.
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Profile update failed", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}
