package router

import (
	"github.com/oksasatya/go-travel-booking/internal/container"
	handlers "github.com/oksasatya/go-travel-booking/internal/interface/http"
	"github.com/oksasatya/go-travel-booking/internal/router/modules"
)

// InitModules builds the handlers from the container and registers their modules.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config

	userHandler := handlers.NewUserHandler(c.Account, c.Logger, cfg.CookieDomain, cfg.CookieSecure)
	authHandler := handlers.NewAuthHandler(c.Account, c.Logger)

	r.Add(modules.NewUserModule(userHandler, c.JWT, c.Redis))
	r.Add(modules.NewAuthModule(authHandler, c.Redis))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c.Redis))
	}
}
