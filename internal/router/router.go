// Package router wires handlers to routes.  Every API route lives under
// /api; each portal gets its own group with JWT and role middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/rakeshreddymandala/humaneq-hr/internal/handler"
	"github.com/rakeshreddymandala/humaneq-hr/internal/metrics"
	"github.com/rakeshreddymandala/humaneq-hr/internal/middleware"
)

// Guards holds the shared middleware.  RateLimit and Cache may be nil when
// Redis is not configured.
type Guards struct {
	Secret    string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

func (g Guards) auth(roles ...string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{middleware.JWTAuth(g.Secret), middleware.RequireRole(roles...)}
}

func (g Guards) limited() []echo.MiddlewareFunc {
	return only(g.RateLimit)
}

func only(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mw))
	for _, m := range mw {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, deps map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(deps))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers signup, login and logout for every portal plus the
// shared refresh and me endpoints.  All of them are rate limited.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	portals := map[string]string{
		"/api/auth":         handler.PortalCompany,
		"/api/student/auth": handler.PortalStudent,
		"/api/general/auth": handler.PortalGeneral,
	}
	for prefix, portal := range portals {
		grp := e.Group(prefix, g.limited()...)
		grp.POST("/signup", a.Signup(portal))
		grp.POST("/login", a.Login(portal))
		grp.POST("/logout", a.Logout)
	}

	e.POST("/api/auth/refresh", a.Refresh, g.limited()...)
	e.GET("/api/auth/me", a.Me, middleware.JWTAuth(g.Secret))
}
