package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/farmfresh/connect/docs"
	"github.com/farmfresh/connect/internal/api/handler"
	"github.com/farmfresh/connect/internal/api/middleware"
	"github.com/farmfresh/connect/internal/core/domain"
	"github.com/farmfresh/connect/internal/core/ports"
)

// Deps are the collaborators the HTTP surface is built from. Mongo is nil
// when the demo backend is selected.
type Deps struct {
	Sessions middleware.StoreResolver
	Notifier ports.Notifier
	Inbox    ports.NotificationInbox
	Redis    *redis.Client
	Mongo    *mongo.Database
	Cookie   middleware.SessionOptions
	Logger   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddleware("farmfresh_http"))

	// --- Operational endpoints (no session) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Redis, deps.Mongo)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Session-bound routes ---
	s := e.Group("", middleware.Session(deps.Sessions, deps.Cookie))

	authHandler := handler.NewAuthHandler(deps.Notifier)
	auth := s.Group("/auth")
	auth.GET("/session", authHandler.Session)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/signup/customer", authHandler.SignupCustomer)
	auth.POST("/signup/farmer", authHandler.SignupFarmer)
	auth.POST("/verify-otp", authHandler.VerifyOTP)
	auth.POST("/resend-otp", authHandler.ResendOTP)
	auth.GET("/resend-otp", authHandler.ResendCountdown)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	notificationHandler := handler.NewNotificationHandler(deps.Inbox)
	s.GET("/notifications", notificationHandler.Drain)

	// --- Pages ---
	pages := handler.NewPageHandler()
	s.GET(middleware.SignInPath, pages.SignIn)
	s.GET(middleware.UnauthorizedPath, pages.Unauthorized)
	s.GET("/profile", pages.Page("profile"), middleware.Guard(""))
	s.GET("/farmer-dashboard", pages.Page("farmer-dashboard"), middleware.Guard(domain.RoleFarmer))
	s.GET("/browse-farmers", pages.Page("browse-farmers"), middleware.Guard(domain.RoleCustomer))

	return e
}

// requestLogger logs one structured line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
