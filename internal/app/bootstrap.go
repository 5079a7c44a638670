package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"quickjob/internal/config"
	"quickjob/internal/delivery/http/form"
	"quickjob/internal/delivery/http/handler"
	"quickjob/internal/delivery/http/middleware"
	"quickjob/internal/delivery/http/routes"
	"quickjob/internal/ws"
)

// bodyLimit leaves room for the largest allowed set of attachments plus the
// text fields.
const bodyLimit = form.MaxFiles*form.MaxFileSize + 1<<20

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName:   c.Config.App.AppName,
		BodyLimit: bodyLimit,
	})

	registerGlobalMiddleware(f, c)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap connects to every backing service, starts the feed hub and
// returns the app with a cleanup that stops both.
func Bootstrap(cfg config.Config, log *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go c.Hub.Run(ctx)

	app := New(c)
	cleanup := func() error {
		cancel()
		return c.Close()
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(c.Logger.Named("http")).Middleware())
	app.Use(middleware.NewErrorMiddleware(c.Logger.Named("http")).Middleware())
	app.Use(middleware.NewMetricsMiddleware(c.Metrics).Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	routes.NewRegistry(routes.Handlers{
		Health:       handler.NewHealthHandler(c.DB),
		Metrics:      c.Metrics,
		Positions:    handler.NewPositionsHandler(c.Positions),
		Applications: handler.NewApplicationsHandler(c.Applications, c.Positions),
		Feed:         ws.NewHandler(c.Hub, c.Logger.Named("ws")),
	}).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
