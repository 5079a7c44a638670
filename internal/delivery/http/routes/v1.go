package routes

import (
	"github.com/gofiber/fiber/v3"

	"quickjob/internal/delivery/http/handler"
	v1 "quickjob/internal/delivery/http/routes/v1"
)

func RegisterV1(r fiber.Router, positions *handler.PositionsHandler, applications *handler.ApplicationsHandler) {
	if r == nil {
		return
	}

	v1.Register(r, positions, applications)
}
