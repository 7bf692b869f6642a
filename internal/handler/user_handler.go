package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"stockpilot/internal/service"
)

// UserHandler serves the authenticated user's profile.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse{data=UserResponse}
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/me/ [get]
func (h *UserHandler) Me(c echo.Context) error {
	principal, err := Principal(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), principal.ID)
	if err != nil {
		return fail(err)
	}
	return respond(c, http.StatusOK, "User fetched successfully.", UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	})
}
