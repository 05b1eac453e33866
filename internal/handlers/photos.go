package handlers

import (
	"net/http"
	"strconv"

	"receipts-backend/internal/models"
	"receipts-backend/internal/services"
	"receipts-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/exp/slog"
)

// UploadPhotoHandler accepts a multipart form with file, user_id, title and description.
func UploadPhotoHandler(photos *services.PhotoService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return detail(c, http.StatusBadRequest, "file is required")
		}
		userID, err := strconv.ParseInt(c.FormValue("user_id"), 10, 64)
		if err != nil {
			return detail(c, http.StatusBadRequest, "user_id is required and must be an integer")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return detail(c, http.StatusBadRequest, "could not read uploaded file")
		}
		defer file.Close()

		photo, err := photos.Upload(c.Context(), services.UploadInput{
			UserID:      userID,
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
			Size:        fileHeader.Size,
			Body:        file,
			Title:       utils.OptionalString(c.FormValue("title")),
			Description: utils.OptionalString(c.FormValue("description")),
		})
		if err != nil {
			return handleError(c, err)
		}

		slog.Info("Photo uploaded", "photo_id", photo.ID, "user_id", userID, "size", photo.FileSize)
		return c.Status(http.StatusCreated).JSON(photo)
	}
}

// ListPhotosHandler returns photos, optionally for one user.
func ListPhotosHandler(photos *services.PhotoService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ParseOptionalInt64(c.Query("user_id"))
		if err != nil {
			return detail(c, http.StatusBadRequest, "user_id must be an integer")
		}
		skip, limit := pagination(c)

		list, err := photos.List(c.Context(), models.PhotoFilter{UserID: userID, Skip: skip, Limit: limit})
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(list)
	}
}

// GetPhotoHandler returns photo metadata by ID.
func GetPhotoHandler(photos *services.PhotoService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return detail(c, http.StatusBadRequest, "invalid photo id")
		}
		photo, err := photos.Get(c.Context(), id)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(photo)
	}
}

// PhotoFileHandler streams the stored image bytes.
func PhotoFileHandler(photos *services.PhotoService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return detail(c, http.StatusBadRequest, "invalid photo id")
		}
		photo, body, err := photos.Open(c.Context(), id)
		if err != nil {
			return handleError(c, err)
		}
		c.Set(fiber.HeaderContentType, photo.MimeType)
		c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
		// fasthttp closes body once the response is written.
		return c.SendStream(body, int(photo.FileSize))
	}
}

// DeletePhotoHandler deletes a photo and its stored file.
func DeletePhotoHandler(photos *services.PhotoService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return detail(c, http.StatusBadRequest, "invalid photo id")
		}
		if err := photos.Delete(c.Context(), id); err != nil {
			return handleError(c, err)
		}
		return c.SendStatus(http.StatusNoContent)
	}
}
