package handlers

import (
	"github.com/aiwork-marketplace/backend/internal/http/dto"
	"github.com/aiwork-marketplace/backend/internal/middleware"
	"github.com/aiwork-marketplace/backend/internal/models"
	"github.com/aiwork-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DeliverableHandler struct {
	deliverableService *services.DeliverableService
	log                *zap.Logger
}

func NewDeliverableHandler(deliverableService *services.DeliverableService, log *zap.Logger) *DeliverableHandler {
	return &DeliverableHandler{deliverableService: deliverableService, log: log}
}

// POST /milestones/:id/folders
func (h *DeliverableHandler) CreateFolder(c *fiber.Ctx) error {
	milestoneID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid milestone id")
	}
	var req dto.CreateFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	folder, err := h.deliverableService.CreateFolder(c.Context(), milestoneID, middleware.GetUserID(c), req.Name)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: folder})
}

// GET /milestones/:id/folders
func (h *DeliverableHandler) ListFolders(c *fiber.Ctx) error {
	milestoneID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid milestone id")
	}
	folders, err := h.deliverableService.ListFolders(c.Context(), milestoneID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: folders})
}

// POST /folders/:id/files
func (h *DeliverableHandler) RegisterFile(c *fiber.Ctx) error {
	folderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid folder id")
	}
	var req dto.RegisterFileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	file := &models.DeliverableFile{
		Name:         req.Name,
		Size:         req.Size,
		MimeType:     req.MimeType,
		StorageKey:   req.StorageKey,
		ThumbnailKey: req.ThumbnailKey,
	}
	if err := h.deliverableService.RegisterFile(c.Context(), folderID, middleware.GetUserID(c), file); err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: file})
}

// GET /folders/:id
func (h *DeliverableHandler) ViewFolder(c *fiber.Ctx) error {
	folderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid folder id")
	}
	view, err := h.deliverableService.ViewFolder(c.Context(), folderID, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: view})
}

// GET /files/:id/download
func (h *DeliverableHandler) DownloadFile(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid file id")
	}
	key, err := h.deliverableService.FileDownloadKey(c.Context(), fileID, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.DownloadResponse{StorageKey: key}})
}
