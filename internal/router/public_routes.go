package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/handler"
)

// RegisterPublic registers the class catalogue reads that guests may call.
// cache wraps them; it is a pass-through when Redis is unavailable.
func RegisterPublic(v1 *echo.Group, h *handler.ClassHandler, limit, cache echo.MiddlewareFunc) {
	v1.GET("/classes", h.List, limit, cache)
	v1.GET("/classes/:id", h.Show, limit, cache)
	v1.GET("/classes/:id/sessions", h.ListSessions, limit, cache)
	v1.GET("/sessions/:id", h.ShowSession, limit, cache)
}
