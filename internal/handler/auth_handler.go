package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "stockpilot/internal/errors"
	"stockpilot/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// VerifyEmailRequest represents an email verification request.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// LoginData is the payload of a successful login.
type LoginData struct {
	Name    string `json:"name"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoginResponse keeps the message at the top level rather than under meta.
type LoginResponse struct {
	Message string    `json:"message"`
	Data    LoginData `json:"data"`
}

// AccessData carries a freshly minted access token.
type AccessData struct {
	Access string `json:"access"`
}

// Register godoc
// @Summary Register a new user
// @Description Creates an account and emails a verification code.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register/ [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := h.authService.Register(c.Request().Context(), req.Username, req.Email, req.Password); err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Meta: apperrors.Meta{Message: "User registered successfully. Please verify your email."},
	})
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login/ [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	accessToken, refreshToken, user, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Message: "Login successful",
		Data: LoginData{
			Name:    user.Username,
			Access:  accessToken,
			Refresh: refreshToken,
		},
	})
}

// Refresh godoc
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} DataResponse{data=AccessData}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/token/refresh/ [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	accessToken, err := h.authService.RefreshToken(c.Request().Context(), req.Refresh)
	if err != nil {
		return fail(err)
	}

	return respond(c, http.StatusOK, "Token refreshed successfully.", AccessData{Access: accessToken})
}

// VerifyEmail godoc
// @Summary Verify email address
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyEmailRequest true "Email and verification code"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/verify-email/ [post]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req VerifyEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.VerifyEmail(c.Request().Context(), req.Email, req.Code); err != nil {
		return fail(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Meta: apperrors.Meta{Message: "Email verified successfully."},
	})
}
