package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/note-keeper/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/note-keeper/internal/middleware" // import middleware for JWT authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// The /healthz endpoint can be used by load balancers or monitoring
	// systems to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the registration and login endpoints. Neither
// requires an existing session; both mint a fresh bearer token on success.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	// /me is a small protected probe for the extracted identity.
	auth := e.Group("")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterNotes registers all note endpoints behind the JWT middleware. The
// literal /notes/tags route is declared alongside /notes/:id; Echo gives
// static segments priority over the parameter match.
func RegisterNotes(e *echo.Echo, n *handler.NoteHandler, jwtSecret string) {
	g := e.Group("/notes")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.GET("", n.List)
	g.GET("/tags", n.Tags)
	g.GET("/:id", n.Get)
	g.POST("", n.Create)
	g.PUT("/:id", n.Update)
	g.DELETE("/:id", n.Delete)
}
