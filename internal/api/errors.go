package api

import "github.com/gofiber/fiber/v3"

func badRequest(c fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: detail,
		Code:  "validation_error",
	})
}

func notFound(c fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error: detail,
		Code:  "not_found",
	})
}

func internalError(c fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: err.Error(),
		Code:  "internal_error",
	})
}
