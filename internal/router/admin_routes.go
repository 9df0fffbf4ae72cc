package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/handler"
	"github.com/iliyamo/gym-membership/internal/middleware"
	"github.com/iliyamo/gym-membership/internal/model"
)

type AdminHandlers struct {
	Classes  *handler.ClassHandler
	Payments *handler.PaymentHandler
	Revenue  *handler.RevenueHandler
}

// RegisterAdmin registers the endpoints restricted to administrators:
// catalogue writes, payments, membership adjustments and revenue.
func RegisterAdmin(v1 *echo.Group, h AdminHandlers, jwtSecret string, limit echo.MiddlewareFunc) {
	g := authed{v1, []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdministrator),
		limit,
	}}

	g.POST("/classes", h.Classes.Create)
	g.PUT("/classes/:id", h.Classes.Update)
	g.PATCH("/classes/:id", h.Classes.Update)
	g.DELETE("/classes/:id", h.Classes.Delete)
	g.POST("/classes/:id/sessions", h.Classes.CreateSession)
	g.PUT("/sessions/:id", h.Classes.UpdateSession)
	g.PATCH("/sessions/:id", h.Classes.UpdateSession)
	g.DELETE("/sessions/:id", h.Classes.DeleteSession)
	g.GET("/sessions/:id/attendances", h.Classes.SessionAttendances)

	g.POST("/payments", h.Payments.Create)
	g.GET("/payments", h.Payments.List)
	g.GET("/payments/:id", h.Payments.Show)
	g.PATCH("/active-memberships/:id", h.Payments.UpdateMembership)

	g.GET("/revenue", h.Revenue.List)
	g.GET("/revenue/summary", h.Revenue.Summary)
	g.GET("/revenue/export", h.Revenue.Export)
}
