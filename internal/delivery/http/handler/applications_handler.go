package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"quickjob/internal/delivery/http/dto"
	"quickjob/internal/delivery/http/form"
	"quickjob/internal/delivery/http/middleware"
	"quickjob/internal/issue"
	"quickjob/internal/pkg/response"
	"quickjob/internal/usecase"
)

type ApplicationsHandler struct {
	apps      usecase.ApplicationWorkflow
	positions usecase.PositionLookup
}

func NewApplicationsHandler(apps usecase.ApplicationWorkflow, positions usecase.PositionLookup) *ApplicationsHandler {
	return &ApplicationsHandler{apps: apps, positions: positions}
}

// RegisterRoutes mounts the submit endpoint under positions and receipt
// verification under applications.
func (h *ApplicationsHandler) RegisterRoutes(positions, applications fiber.Router) {
	positions.Post("/:slug/applications", h.HandleSubmit)
	applications.Get("/receipts/:token", h.HandleReceipt)
}

func (h *ApplicationsHandler) HandleSubmit(c fiber.Ctx) error {
	ctx := c.Context()
	slug := c.Params("slug")

	p, err := h.positions.GetPositionBySlug(ctx, slug)
	if err != nil {
		return mapPositionUsecaseError(err)
	}

	values, uploads, err := form.Read(c)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	formIssues := issue.NewCollector()
	if !form.Validate(values, uploads, formIssues) {
		return middleware.NewAppError(
			fiber.StatusUnprocessableEntity,
			response.MessageApplicationRejected,
			dto.NewApplicationIssuesResponse(formIssues.Issues(), formIssues.Map()),
			nil,
		)
	}

	res, err := h.apps.SubmitApplication(ctx, values.Input(p.ID, p.Slug), form.Attachments(uploads))
	if err != nil {
		if errors.Is(err, usecase.ErrSubmissionFailed) {
			return middleware.NewPublicAppError(fiber.StatusInternalServerError, usecase.SubmissionFailedMessage, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	if !res.Success {
		return middleware.NewAppError(
			fiber.StatusUnprocessableEntity,
			response.MessageApplicationRejected,
			dto.NewApplicationIssuesResponse(res.Issues, res.Messages),
			nil,
		)
	}

	return response.Success(c, fiber.StatusCreated, response.MessageApplicationReceived, dto.ApplicationCreatedResponse{
		ApplicationID: res.ApplicationID,
		Receipt:       res.Receipt,
	})
}

func (h *ApplicationsHandler) HandleReceipt(c fiber.Ctx) error {
	r, err := h.apps.VerifyReceipt(c.Context(), c.Params("token"))
	if err != nil {
		if errors.Is(err, usecase.ErrReceiptInvalid) {
			return middleware.NewAppError(fiber.StatusNotFound, response.MessageReceiptInvalid, nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, "success", dto.NewReceiptResponse(r))
}
