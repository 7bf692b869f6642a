package router

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "stockpilot/internal/errors"
)

// NewErrorHandler renders every error, including echo's own 404/405 and
// recovered panics, in the standard error envelope.
func NewErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			mapped := apperrors.MapErrorToHTTP(err)
			he = echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse()).SetInternal(err)
		}

		if he.Code >= http.StatusInternalServerError {
			log.Error("unhandled error",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		var body apperrors.ErrorResponse
		switch m := he.Message.(type) {
		case apperrors.ErrorResponse:
			body = m
		case string:
			body = envelope(he.Code, m)
		default:
			body = envelope(he.Code, http.StatusText(he.Code))
		}
		if he.Code >= http.StatusInternalServerError && he.Internal != nil {
			body = envelope(he.Code, apperrors.MessageInternal)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, body)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}

func envelope(status int, message string) apperrors.ErrorResponse {
	return apperrors.ErrorResponse{
		Meta: apperrors.Meta{Message: message, StatusCode: status, Code: statusCode(status)},
	}
}

func statusCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	case http.StatusUnauthorized:
		return "not_authenticated"
	case http.StatusBadRequest:
		return "invalid"
	default:
		return "error"
	}
}
