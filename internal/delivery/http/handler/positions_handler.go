package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"quickjob/internal/delivery/http/dto"
	"quickjob/internal/delivery/http/middleware"
	"quickjob/internal/pkg/response"
	"quickjob/internal/usecase"
)

type PositionsHandler struct {
	uc usecase.PositionLookup
}

func NewPositionsHandler(uc usecase.PositionLookup) *PositionsHandler {
	return &PositionsHandler{uc: uc}
}

func (h *PositionsHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/", h.HandleList)
	r.Get("/:slug", h.HandleDetail)
	r.Get("/:slug/cities", h.HandleCities)
}

func (h *PositionsHandler) HandleList(c fiber.Ctx) error {
	page, err := parseQueryIntStrict(c, "page", 1)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	out, err := h.uc.ListPage(c.Context(), c.Query("search"), page)
	if err != nil {
		return mapPositionUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "success", dto.NewPositionListResponse(out))
}

func (h *PositionsHandler) HandleDetail(c fiber.Ctx) error {
	d, err := h.uc.Detail(c.Context(), c.Params("slug"))
	if err != nil {
		return mapPositionUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "success", dto.NewPositionDetailResponse(d))
}

func (h *PositionsHandler) HandleCities(c fiber.Ctx) error {
	slug := c.Params("slug")
	if _, err := h.uc.GetPositionBySlug(c.Context(), slug); err != nil {
		return mapPositionUsecaseError(err)
	}
	cities, err := h.uc.CitiesAvailableBySlug(c.Context(), slug)
	if err != nil {
		return mapPositionUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, "success", dto.NewCityResponses(cities))
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}

func mapPositionUsecaseError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrPositionNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, response.MessagePositionNotFound, nil, err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
