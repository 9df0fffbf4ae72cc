package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-membership/internal/handler"
	"github.com/iliyamo/gym-membership/internal/middleware"
)

type MemberHandlers struct {
	Users      *handler.UserHandler
	Clients    *handler.UserHandler
	Plans      *handler.PlanHandler
	Attendance *handler.AttendanceHandler
}

// RegisterMember registers the endpoints open to any authenticated role.
// Ownership and administrator-only field changes are checked in the
// handlers.  limit runs after JWTAuth so it sees the caller.
func RegisterMember(v1 *echo.Group, h MemberHandlers, jwtSecret string, limit echo.MiddlewareFunc) {
	g := authed{v1, []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), limit}}

	crud := func(prefix string, u *handler.UserHandler) {
		g.GET(prefix, u.List)
		g.POST(prefix, u.Create)
		g.GET(prefix+"/:id", u.Show)
		g.PUT(prefix+"/:id", u.Update)
		g.PATCH(prefix+"/:id", u.Update)
		g.DELETE(prefix+"/:id", u.Delete)
	}
	crud("/users", h.Users)
	crud("/clients", h.Clients)

	g.GET("/memberships", h.Plans.List)
	g.POST("/memberships", h.Plans.Create)
	g.GET("/memberships/:id", h.Plans.Show)
	g.PUT("/memberships/:id", h.Plans.Update)
	g.PATCH("/memberships/:id", h.Plans.Update)
	g.DELETE("/memberships/:id", h.Plans.Delete)
	g.DELETE("/memberships", h.Plans.DeleteByBody)

	g.POST("/classes/:id/check-in", h.Attendance.CheckInClass)
	g.POST("/sessions/:id/check-in", h.Attendance.CheckInSession)
	g.POST("/attendances/:id/check-out", h.Attendance.CheckOut)
	g.GET("/my/attendances", h.Attendance.MyAttendances)
	g.GET("/my/memberships", h.Attendance.MyMemberships)
}

// authed adds routes to the API group with a fixed middleware chain.  It
// replaces a middleware-carrying sub-group, which would also claim every
// unmatched path under the prefix.
type authed struct {
	g  *echo.Group
	mw []echo.MiddlewareFunc
}

func (a authed) GET(path string, h echo.HandlerFunc)    { a.g.GET(path, h, a.mw...) }
func (a authed) POST(path string, h echo.HandlerFunc)   { a.g.POST(path, h, a.mw...) }
func (a authed) PUT(path string, h echo.HandlerFunc)    { a.g.PUT(path, h, a.mw...) }
func (a authed) PATCH(path string, h echo.HandlerFunc)  { a.g.PATCH(path, h, a.mw...) }
func (a authed) DELETE(path string, h echo.HandlerFunc) { a.g.DELETE(path, h, a.mw...) }
