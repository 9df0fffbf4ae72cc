// Package router builds the echo instance: global middleware, the
// validator and every route of the API.
package router

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/gym-membership/internal/config"
	"github.com/iliyamo/gym-membership/internal/handler"
	"github.com/iliyamo/gym-membership/internal/metrics"
	"github.com/iliyamo/gym-membership/internal/middleware"
	"github.com/iliyamo/gym-membership/internal/queue"
	"github.com/iliyamo/gym-membership/internal/repository"
	"github.com/iliyamo/gym-membership/internal/service"
	"github.com/iliyamo/gym-membership/internal/validation"
)

// Deps are the collaborators the HTTP layer is built from.  Redis, Events,
// Metrics and Gatherer are optional.
type Deps struct {
	Cfg      config.Config
	DB       *sql.DB
	Redis    *redis.Client
	Events   queue.Publisher
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      *slog.Logger
	Now      func() time.Time
}

// New returns an echo instance with every route registered.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(d.Log))
	e.Use(d.Metrics.Middleware())

	users := repository.NewUserRepo(d.DB)
	tokens := repository.NewTokenRepo(d.DB)
	plans := repository.NewPlanRepo(d.DB)
	payments := repository.NewPaymentRepo(d.DB)
	memberships := repository.NewMembershipRepo(d.DB)
	revenue := repository.NewRevenueRepo(d.DB)
	classes := repository.NewClassRepo(d.DB)
	sessions := repository.NewSessionRepo(d.DB)
	attendances := repository.NewAttendanceRepo(d.DB)

	checkIns := service.NewCheckIns(d.DB, d.Events, d.Metrics, d.Log, d.Now, d.Cfg.Location)
	paymentSvc := service.NewPayments(d.DB, d.Events, d.Metrics, d.Log, d.Now, d.Cfg.Location)

	// The limiter is attached per route so it runs after JWTAuth and can key
	// on the caller.  Groups under /v1 carry no middleware of their own.
	limit := middleware.NewTokenBucket(d.Cfg.RateLimit, d.Redis, d.Log)
	v1 := e.Group("/v1")

	RegisterRoutes(e, d.DB, d.Gatherer)
	RegisterAuth(v1, handler.NewAuthHandler(d.Cfg, users, tokens, d.Log), d.Cfg.JWTSecret, limit)

	classH := handler.NewClassHandler(classes, sessions, attendances, d.Log)
	RegisterPublic(v1, classH, limit, middleware.NewRedisCache(d.Cfg.Cache, d.Redis, d.Log))
	RegisterMember(v1, MemberHandlers{
		Users:      handler.NewUserHandler(d.Cfg, users, tokens, d.Log),
		Clients:    handler.NewClientHandler(d.Cfg, users, tokens, d.Log),
		Plans:      handler.NewPlanHandler(plans, d.Log),
		Attendance: handler.NewAttendanceHandler(checkIns, attendances, memberships, d.Log),
	}, d.Cfg.JWTSecret, limit)
	RegisterAdmin(v1, AdminHandlers{
		Classes:  classH,
		Payments: handler.NewPaymentHandler(paymentSvc, payments, memberships, d.Log),
		Revenue:  handler.NewRevenueHandler(revenue, d.Log),
	}, d.Cfg.JWTSecret, limit)
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints.
// /metrics is only mounted when g is non-nil.
func RegisterRoutes(e *echo.Echo, db *sql.DB, g prometheus.Gatherer) {
	e.GET("/healthz", handler.Health(db))
	if g != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}
}

// RegisterAuth registers the token endpoints under /auth and the protected
// /me on the API group.
func RegisterAuth(v1 *echo.Group, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	v1.POST("/auth/register", a.Register, limit)
	v1.POST("/auth/login", a.Login, limit)
	v1.POST("/auth/refresh", a.Refresh, limit)
	// Logout works with either a refresh token in the body or a bearer.
	v1.POST("/auth/logout", a.Logout, limit)

	v1.GET("/me", a.Me, middleware.JWTAuth(jwtSecret), limit)
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogRoutePath: true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"request_id", v.RequestID,
				"method", v.Method,
				"route", v.RoutePath,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				log.Warn("request", append(attrs, "err", v.Error)...)
				return nil
			}
			log.Info("request", attrs...)
			return nil
		},
	})
}
