// Auth HTTP handlers.
//
// This file exposes registration, login/logout, the current-user profile,
// and the password flows. Token-issuing responses return the token in the
// body and also set it as the "token" cookie, which Protect accepts as a
// fallback to the Authorization header.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tbourn/go-bootcamp-backend/internal/domain"
	"github.com/tbourn/go-bootcamp-backend/internal/http/middleware"
)

// AuthService defines authentication operations consumed by HTTP handlers.
type AuthService interface {
	Register(ctx context.Context, name, email, password, role string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Me(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateDetails(ctx context.Context, id primitive.ObjectID, name, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, current, next string) (*domain.User, string, error)
	ForgotPassword(ctx context.Context, email, resetURLBase string) error
	ResetPassword(ctx context.Context, rawToken, password string) (*domain.User, string, error)
}

// RegisterRequest is the JSON payload for account registration.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=user publisher"`
}

// LoginRequest is the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateDetailsRequest is the JSON payload for changing name/email.
type UpdateDetailsRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// UpdatePasswordRequest is the JSON payload for changing the password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// ForgotPasswordRequest is the JSON payload for requesting a reset token.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest is the JSON payload accompanying a reset token.
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// sendToken writes the token response and sets the session cookie.
func (h *Handlers) sendToken(c *gin.Context, status int, token string) {
	c.SetCookie("token", token, h.cookieMaxAge, "/", "", false, true)
	c.JSON(status, tokenResponse{Success: true, Token: token})
}

// Register handles POST /auth/register.
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	_, token, err := h.authSvc.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	h.sendToken(c, http.StatusCreated, token)
}

// Login handles POST /auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	_, token, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, token)
}

// Logout handles GET /auth/logout by expiring the token cookie.
func (h *Handlers) Logout(c *gin.Context) {
	c.SetCookie("token", "none", 10, "/", "", false, true)
	ok(c, http.StatusOK, gin.H{})
}

// Me handles GET /auth/me.
func (h *Handlers) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	u, err := h.authSvc.Me(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateDetails handles PUT /auth/updatedetails.
func (h *Handlers) UpdateDetails(c *gin.Context) {
	var req UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	user := middleware.CurrentUser(c)
	u, err := h.authSvc.UpdateDetails(c.Request.Context(), user.ID, req.Name, req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdatePassword handles PUT /auth/updatepassword.
func (h *Handlers) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	user := middleware.CurrentUser(c)
	_, token, err := h.authSvc.UpdatePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		fail(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, token)
}

// ForgotPassword handles POST /auth/forgotpassword. The reset URL mailed to
// the user points back at this API's resetpassword route.
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	base := scheme + "://" + c.Request.Host + h.apiBasePath + "/auth"

	if err := h.authSvc.ForgotPassword(c.Request.Context(), req.Email, base); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Email sent")
}

// ResetPassword handles PUT /auth/resetpassword/:resettoken.
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	_, token, err := h.authSvc.ResetPassword(c.Request.Context(), c.Param("resettoken"), req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, token)
}
