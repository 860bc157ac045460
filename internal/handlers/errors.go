package handlers

import (
	"errors"
	"log"

	"maplestore/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// writeError renders err as {"code","message","details"} with the status
// matching its code.
func writeError(c *fiber.Ctx, err error) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	status := apperrors.HTTPStatus(appErr.Code)
	if status >= fiber.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(appErr)
}

func badBody(c *fiber.Ctx, err error) error {
	log.Printf("Error parsing request body for %s %s: %v", c.Method(), c.Path(), err)
	return writeError(c, apperrors.Validation("Invalid request body", map[string]string{"body": err.Error()}))
}

// ErrorHandler renders errors that escape the handlers, such as unknown
// routes, in the same shape as domain errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := apperrors.CodeInternal
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			code = apperrors.CodeNotFound
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			code = apperrors.CodeValidation
		case fiber.StatusMethodNotAllowed:
			code = apperrors.CodeNotFound
		}
		return c.Status(fiberErr.Code).JSON(apperrors.New(code, fiberErr.Message))
	}
	return writeError(c, err)
}
