package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"expense_tracker/internal/models"
)

// SignUpRequest is the signup payload.
type SignUpRequest struct {
	Name     string `json:"name" binding:"required" example:"Alice"`
	Email    string `json:"email" binding:"required,email" example:"alice@x.com"`
	Password string `json:"password" binding:"required" example:"secret1"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"alice@x.com"`
	Password string `json:"password" binding:"required" example:"secret1"`
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email" example:"alice@x.com"`
}

// ResetPasswordRequest redeems a reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required" example:"newsecret"`
}

type signUpResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

type loginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
}

const (
	msgUserCreated   = "User created successfully"
	msgLoginOK       = "Login successful"
	msgResetSent     = "If an account with that email exists, a password reset link has been sent."
	msgPasswordReset = "Password has been reset successfully"

	resetPagePath = "/reset-password"
)

// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      SignUpRequest  true  "New account"
// @Success      201   {object}  signUpResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/signup [post]
func (h *Handler) signUp(c *gin.Context) {
	var input SignUpRequest
	if ok := h.bindJSONOrBadRequest(c, &input, "auth_bad_request_body"); !ok {
		return
	}

	u, err := h.services.SignUp(c.Request.Context(), input.Name, input.Email, input.Password)
	if err != nil {
		h.respondError(c, "auth_sign_up_failed", err, "email", input.Email)
		return
	}

	c.JSON(http.StatusCreated, signUpResponse{Message: msgUserCreated, User: u})
}

// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	if ok := h.bindJSONOrBadRequest(c, &input, "auth_bad_request_body"); !ok {
		return
	}

	token, u, err := h.services.GenerateToken(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.respondError(c, "auth_login_failed", err, "email", input.Email)
		return
	}

	c.JSON(http.StatusOK, loginResponse{Message: msgLoginOK, Token: token, User: u})
}

// @Summary      Request a password reset email
// @Description  Always answers with the same message whether or not the email is registered.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ForgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/forgot-password [post]
func (h *Handler) forgotPassword(c *gin.Context) {
	var input ForgotPasswordRequest
	if ok := h.bindJSONOrBadRequest(c, &input, "auth_bad_request_body"); !ok {
		return
	}

	if err := h.services.RequestReset(c.Request.Context(), input.Email, h.resetLinkBase(c)); err != nil {
		h.respondError(c, "auth_forgot_password_failed", err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: msgResetSent})
}

// @Summary      Reset password with a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ResetPasswordRequest  true  "Token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Router       /auth/reset-password [post]
func (h *Handler) resetPassword(c *gin.Context) {
	var input ResetPasswordRequest
	if ok := h.bindJSONOrBadRequest(c, &input, "auth_bad_request_body"); !ok {
		return
	}

	if err := h.services.ConfirmReset(c.Request.Context(), input.Token, input.NewPassword); err != nil {
		h.respondError(c, "auth_reset_password_failed", err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: msgPasswordReset})
}

func (h *Handler) resetLinkBase(c *gin.Context) string {
	if h.opts.ResetLinkBase != "" {
		return h.opts.ResetLinkBase
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + resetPagePath
}
