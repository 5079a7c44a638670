package v1

import (
	"github.com/gofiber/fiber/v3"

	"quickjob/internal/delivery/http/handler"
)

func Register(r fiber.Router, positions *handler.PositionsHandler, applications *handler.ApplicationsHandler) {
	if r == nil {
		return
	}

	positionsGroup := r.Group("/positions")
	if positions != nil {
		positions.RegisterRoutes(positionsGroup)
	}

	if applications != nil {
		applications.RegisterRoutes(positionsGroup, r.Group("/applications"))
	}
}
