package routes

import (
	"github.com/gofiber/fiber/v3"

	"quickjob/internal/delivery/http/handler"
	"quickjob/internal/ws"
)

type Handlers struct {
	Health       *handler.HealthHandler
	Metrics      handler.MetricsSource
	Positions    *handler.PositionsHandler
	Applications *handler.ApplicationsHandler
	Feed         *ws.Handler
}

type Registry struct {
	h Handlers
}

func NewRegistry(h Handlers) *Registry {
	return &Registry{h: h}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerAPI(app)
	r.registerFeed(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.h.Health != nil {
		r.h.Health.RegisterRoutes(app)
	}
	handler.RegisterMetrics(app, r.h.Metrics)
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.h.Positions, r.h.Applications)
}

func (r *Registry) registerFeed(app *fiber.App) {
	if r.h.Feed == nil {
		return
	}
	app.Get("/ws/applications", r.h.Feed.HandleApplicationsWS)
}
