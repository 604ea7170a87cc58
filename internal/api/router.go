package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/parceldesk/courier-system/internal/api/handler"
	"github.com/parceldesk/courier-system/internal/api/middleware"
	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Log       zerolog.Logger
	JWTSecret string

	Auth    ports.AuthService
	Parcels ports.ParcelService
	Queries ports.QueryService

	// HealthChecks back the readiness probe.
	HealthChecks []handler.DependencyCheck

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "courier",
		Registerer: deps.Registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	parcelHandler := handler.NewParcelHandler(deps.Parcels, deps.Queries)
	adminHandler := handler.NewAdminHandler(deps.Parcels, deps.Queries)
	trackingHandler := handler.NewTrackingHandler(deps.Queries)
	userHandler := handler.NewUserHandler(deps.Auth, deps.Queries)
	authMiddleware := middleware.Auth(deps.JWTSecret)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.HealthChecks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")

	// --- Public tracking ---
	v1.GET("/track/:tracking_code", trackingHandler.Track)

	// --- Guest receivers: phone in the body, token optional ---
	guest := v1.Group("/guest/parcels", middleware.OptionalAuth(deps.JWTSecret))
	guest.PATCH("/:id/approve", parcelHandler.GuestApprove)
	guest.PATCH("/:id/decline", parcelHandler.GuestDecline)

	// --- Senders and registered receivers ---
	senderOnly := middleware.RBAC(domain.RoleSender)
	receiverOnly := middleware.RBAC(domain.RoleReceiver)

	parcels := v1.Group("/parcels", authMiddleware)
	parcels.POST("", parcelHandler.Create, senderOnly)
	parcels.GET("/sent", parcelHandler.ListSent, senderOnly)
	parcels.GET("/sent/:id", parcelHandler.GetSent, senderOnly)
	parcels.PATCH("/:id/cancel", parcelHandler.Cancel, senderOnly)
	parcels.GET("/incoming", parcelHandler.ListIncoming, receiverOnly)
	parcels.GET("/history", parcelHandler.ListHistory, receiverOnly)
	parcels.PATCH("/:id/approve", parcelHandler.Approve, receiverOnly)
	parcels.PATCH("/:id/decline", parcelHandler.Decline, receiverOnly)

	// --- Accounts ---
	v1.PATCH("/profile", userHandler.UpdateProfile, authMiddleware, middleware.RBAC(domain.RoleSender, domain.RoleReceiver))
	v1.GET("/receivers", userHandler.ListReceivers, authMiddleware, senderOnly)
	v1.GET("/admin/users", userHandler.ListUsers, authMiddleware, middleware.RBAC(domain.RoleAdmin))

	// --- Courier operations ---
	admin := v1.Group("/admin/parcels", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	admin.GET("", adminHandler.List)
	admin.GET("/:id", adminHandler.Get)
	admin.PATCH("/:id/pickup", adminHandler.PickUp)
	admin.PATCH("/:id/transit", adminHandler.StartTransit)
	admin.PATCH("/:id/deliver", adminHandler.Deliver)
	admin.PATCH("/:id/return", adminHandler.Return)
	admin.PATCH("/:id/hold", adminHandler.Hold)
	admin.PATCH("/:id/block", adminHandler.Block)
	admin.PATCH("/:id/unblock", adminHandler.Unblock)
	admin.PATCH("/:id/status", adminHandler.UpdateStatus)

	return e
}

// requestLogger writes one structured line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
