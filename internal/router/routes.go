package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ezazahamad2003/pre-funnel/internal/config"
	"github.com/ezazahamad2003/pre-funnel/internal/handler"
	middlewarepkg "github.com/ezazahamad2003/pre-funnel/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Discovery *handler.DiscoveryHandler
	Users     *handler.UserHandler
	Social    *handler.SocialHandler
	OAuth     *handler.OAuthHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, handlers Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"message": "Pre-Funnel API is running",
		})
	})

	api := e.Group("/api")
	api.POST("/lead-discovery", handlers.Discovery.Discover, middlewarepkg.DiscoveryRateLimiter(cfg.RateLimitDiscovery))
	api.GET("/search-strategies/:user_id", handlers.Discovery.Strategies)

	api.POST("/users", handlers.Users.Create)
	api.GET("/users/:id/connections", handlers.Users.Connections)
	api.GET("/usage/:id", handlers.Users.Usage)

	api.POST("/connect-social-profiles", handlers.Social.Connect)

	if handlers.OAuth != nil {
		e.GET("/auth/:platform", handlers.OAuth.Authorize)
		e.GET("/auth/:platform/callback", handlers.OAuth.Callback)
	}
}
