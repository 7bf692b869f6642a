package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "stockpilot/internal/errors"
	"stockpilot/internal/model"
)

const principalKey = "principal"

// MessageResponse is an envelope carrying only metadata.
type MessageResponse struct {
	Meta apperrors.Meta `json:"meta"`
}

// DataResponse is the success envelope for endpoints that return a payload.
type DataResponse struct {
	Meta apperrors.Meta `json:"meta"`
	Data interface{}    `json:"data"`
}

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, DataResponse{Meta: apperrors.Meta{Message: message}, Data: data})
}

// fail converts a service error into an echo error carrying the response envelope.
func fail(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func parseError(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Meta: apperrors.Meta{Message: "Malformed request body.", StatusCode: http.StatusBadRequest, Code: "parse_error"},
	}).SetInternal(err)
}

// bindAndValidate binds the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return parseError(err)
	}
	if err := c.Validate(req); err != nil {
		return fail(err)
	}
	return nil
}

// SetPrincipal stores the authenticated user on the request context.
func SetPrincipal(c echo.Context, user *model.User) {
	c.Set(principalKey, user)
}

// Principal returns the authenticated user set by the auth middleware.
func Principal(c echo.Context) (*model.User, error) {
	user, ok := c.Get(principalKey).(*model.User)
	if !ok || user == nil {
		return nil, fail(apperrors.ErrUserNotFound)
	}
	return user, nil
}
