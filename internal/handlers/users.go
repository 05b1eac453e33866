package handlers

import (
	"math"
	"net/http"

	"receipts-backend/internal/models"
	"receipts-backend/internal/services"
	"receipts-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

func pagination(c *fiber.Ctx) (skip, limit int) {
	skip = utils.ParseInt(c.Query("skip"), 0, 0, math.MaxInt32)
	limit = utils.ParseInt(c.Query("limit"), defaultLimit, 0, maxLimit)
	return skip, limit
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil {
		return 0, err
	}
	return int64(id), nil
}

// ListUsersHandler returns a page of users.
func ListUsersHandler(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		skip, limit := pagination(c)
		list, err := users.List(c.Context(), skip, limit)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(list)
	}
}

// GetUserHandler returns a single user by ID.
func GetUserHandler(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return detail(c, http.StatusBadRequest, "invalid user id")
		}
		user, err := users.Get(c.Context(), id)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(user)
	}
}

// CreateUserHandler creates the account and logs it in.
func CreateUserHandler(users *services.UserService, sessions *services.SessionService, cookie CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.CreateUserRequest
		if err := c.BodyParser(&req); err != nil {
			return detail(c, http.StatusBadRequest, "Invalid request body")
		}
		user, err := users.CreateAccount(c.Context(), req)
		if err != nil {
			return handleError(c, err)
		}
		return startSession(c, sessions, cookie, user)
	}
}

// UpdateUserHandler applies a partial update to a user.
func UpdateUserHandler(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return detail(c, http.StatusBadRequest, "invalid user id")
		}
		var req models.UpdateUserRequest
		if err := c.BodyParser(&req); err != nil {
			return detail(c, http.StatusBadRequest, "Invalid request body")
		}
		user, err := users.Update(c.Context(), id, req)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(user)
	}
}

// DeleteUserHandler deletes a user with its sessions and photos.
func DeleteUserHandler(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return detail(c, http.StatusBadRequest, "invalid user id")
		}
		if err := users.Delete(c.Context(), id); err != nil {
			return handleError(c, err)
		}
		return c.SendStatus(http.StatusNoContent)
	}
}
