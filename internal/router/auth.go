package router

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"stockpilot/internal/auth"
	apperrors "stockpilot/internal/errors"
	"stockpilot/internal/handler"
	"stockpilot/internal/service"
)

const claimsKey = "user"

// JWTConfig accepts only access tokens signed by jwtService and stores their *auth.Claims under "user".
func JWTConfig(jwtService *auth.JWTService) echojwt.Config {
	return echojwt.Config{
		ContextKey: claimsKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateAccessToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, echojwt.ErrJWTMissing) {
				return unauthorized("Authentication credentials were not provided.", "not_authenticated", err)
			}
			return unauthorized("Given token not valid for any token type", "token_not_valid", err)
		},
	}
}

// RequirePrincipal resolves the token subject to an active user. Tokens of
// deleted or deactivated users are rejected.
func RequirePrincipal(users service.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(claimsKey).(*auth.Claims)
			if !ok {
				return unauthorized("Authentication credentials were not provided.", "not_authenticated", nil)
			}
			user, err := users.GetUser(c.Request().Context(), claims.UserID)
			if err != nil {
				httpErr := apperrors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
			}
			handler.SetPrincipal(c, user)
			return next(c)
		}
	}
}

func unauthorized(message, code string, cause error) error {
	he := echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Meta: apperrors.Meta{Message: message, StatusCode: http.StatusUnauthorized, Code: code},
	})
	if cause != nil {
		he.SetInternal(cause)
	}
	return he
}
