package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// Registry collects feature modules and mounts them under /api.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	api := engine.Group("/api")
	return &Registry{Engine: engine, API: api}
}

// Use adds middleware applied to every module route.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

// Add queues mod for RegisterAll. Adding a second module with the same name panics,
// since both would mount the same routes.
func (r *Registry) Add(mod Module) {
	for _, m := range r.modules {
		if m.Name() == mod.Name() {
			panic(fmt.Sprintf("router: module %q added twice", mod.Name()))
		}
	}
	r.modules = append(r.modules, mod)
}

// Names lists the queued modules in mount order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		names = append(names, m.Name())
	}
	return names
}

// RegisterAll mounts the middleware first and then every module in insertion order.
func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
