package handlers

import (
	"errors"
	"net/http"

	"receipts-backend/internal/services"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/exp/slog"
)

const (
	msgDuplicateEmail     = "User with this email already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgNotAuthenticated   = "Not authenticated"
	msgNotImage           = "File must be an image"
	msgInternal           = "Internal server error"
)

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}

// handleError maps service errors onto HTTP responses.
func handleError(c *fiber.Ctx, err error) error {
	var (
		notFound   *services.NotFoundError
		validation *services.ValidationError
		storageErr *services.StorageError
	)

	switch {
	case errors.As(err, &notFound):
		return detail(c, http.StatusNotFound, notFound.Error())
	case errors.Is(err, services.ErrDuplicateEmail):
		return detail(c, http.StatusBadRequest, msgDuplicateEmail)
	case errors.Is(err, services.ErrInvalidCredentials):
		return detail(c, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, services.ErrInvalidSession):
		return detail(c, http.StatusUnauthorized, msgNotAuthenticated)
	case errors.Is(err, services.ErrInvalidMediaType):
		return detail(c, http.StatusBadRequest, msgNotImage)
	case errors.As(err, &validation):
		return detail(c, http.StatusBadRequest, validation.Error())
	case errors.As(err, &storageErr):
		slog.Error("Photo upload failed", "op", storageErr.Op, "error", storageErr.Err, "path", c.Path())
		return detail(c, http.StatusInternalServerError, "Error uploading photo: "+storageErr.Op+" failed")
	}

	slog.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return detail(c, http.StatusInternalServerError, msgInternal)
}

// ErrorHandler renders errors that escape the handlers, such as unknown
// routes or oversized bodies, in the same {"detail": ...} shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return detail(c, fe.Code, fe.Message)
	}
	return handleError(c, err)
}
