package handlers

import (
	"time"

	"github.com/aiwork-marketplace/backend/internal/http/dto"
	"github.com/aiwork-marketplace/backend/internal/middleware"
	"github.com/aiwork-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projectService   *services.ProjectService
	milestoneService *services.MilestoneService
	log              *zap.Logger
}

func NewProjectHandler(projectService *services.ProjectService, milestoneService *services.MilestoneService, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, milestoneService: milestoneService, log: log}
}

// POST /projects
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		return badRequest(c, "invalid vendor_id")
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	project, err := h.projectService.Create(c.Context(), middleware.GetUserID(c), vendorID, req.Title, description)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: project})
}

// GET /projects
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	projects, err := h.projectService.ListForUser(c.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: projects})
}

// GET /projects/:id
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}
	project, err := h.projectService.Get(c.Context(), projectID, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: project})
}

// POST /projects/:id/close
func (h *ProjectHandler) CloseProject(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}
	if err := h.projectService.Close(c.Context(), projectID, middleware.GetUserID(c)); err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// PUT /projects/:id/milestones
func (h *ProjectHandler) SetupMilestones(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}
	var req dto.SetupMilestonesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	items := make([]services.MilestoneInput, 0, len(req.Milestones))
	for _, m := range req.Milestones {
		amount, err := decimal.NewFromString(m.Amount)
		if err != nil {
			return badRequest(c, "invalid milestone amount")
		}
		var due *time.Time
		if m.DueDate != nil {
			d := *m.DueDate
			due = &d
		}
		items = append(items, services.MilestoneInput{Title: m.Title, Amount: amount, DueDate: due})
	}

	milestones, err := h.milestoneService.ReplaceMilestones(c.Context(), projectID, middleware.GetUserID(c), items)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: milestones})
}

// GET /projects/:id/milestones
func (h *ProjectHandler) ListMilestones(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid project id")
	}
	if _, err := h.projectService.Get(c.Context(), projectID, middleware.GetUserID(c), middleware.GetRole(c)); err != nil {
		return fail(c, h.log, err)
	}
	milestones, err := h.milestoneService.ListByProject(c.Context(), projectID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: milestones})
}
