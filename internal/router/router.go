package router

import (
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"stockpilot/docs"
	"stockpilot/internal/auth"
	"stockpilot/internal/config"
	"stockpilot/internal/handler"
	"stockpilot/internal/service"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *zap.Logger,
	jwtService *auth.JWTService,
	userService service.UserService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	productHandler *handler.ProductHandler,
) {
	e.HTTPErrorHandler = NewErrorHandler(log)
	e.Validator = NewValidator()

	// Routes are registered with a trailing slash; requests without one are rewritten.
	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/swagger")
		},
	}))
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	}))

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public routes
	e.POST("/auth/register/", authHandler.Register)
	e.POST("/auth/login/", authHandler.Login)
	e.POST("/auth/token/refresh/", authHandler.Refresh)
	e.POST("/auth/verify-email/", authHandler.VerifyEmail)

	// Secured routes (require an access token belonging to an active user)
	secured := []echo.MiddlewareFunc{
		echojwt.WithConfig(JWTConfig(jwtService)),
		RequirePrincipal(userService),
	}

	e.GET("/auth/me/", userHandler.Me, secured...)

	products := e.Group("/products", secured...)
	products.GET("/", productHandler.List)
	products.POST("/", productHandler.Create)
	products.GET("/:id/", productHandler.Get)
	products.PUT("/:id/", productHandler.Update)
	products.PATCH("/:id/", productHandler.Update)
	products.DELETE("/:id/", productHandler.Delete)
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil && v.Status >= http.StatusInternalServerError {
				log.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
