package handlers

import (
	"github.com/aiwork-marketplace/backend/internal/apperrors"
	"github.com/aiwork-marketplace/backend/internal/http/dto"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// fail translates a service error into the HTTP response. 5xx errors are
// logged with context; expected workflow errors pass through with their
// message.
func fail(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := apperrors.HTTPStatus(err)
	if status == fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(status).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg})
}
