package handlers

import (
	"net/http"

	"receipts-backend/internal/models"
	"receipts-backend/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"golang.org/x/exp/slog"
)

const localUserID = "user_id"

// clientInfo copies the request values out of fasthttp's buffers, which are
// reused once the handler returns.
func clientInfo(c *fiber.Ctx) services.ClientInfo {
	return services.ClientInfo{
		IP:        utils.CopyString(c.IP()),
		UserAgent: utils.CopyString(c.Get(fiber.HeaderUserAgent)),
	}
}

// startSession logs user in and writes the 201 auth response with the session cookie.
func startSession(c *fiber.Ctx, sessions *services.SessionService, cookie CookieConfig, user *models.User) error {
	sess, err := sessions.Start(c.Context(), user.ID, clientInfo(c))
	if err != nil {
		return handleError(c, err)
	}
	setSessionCookie(c, cookie, sess)

	return c.Status(http.StatusCreated).JSON(models.AuthResponse{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		SessionToken: sess.Token,
	})
}

// LoginHandler registers and logs in when the body carries names, otherwise
// it authenticates an existing account.
func LoginHandler(users *services.UserService, sessions *services.SessionService, cookie CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return detail(c, http.StatusBadRequest, "Invalid request body")
		}
		if req.Email == "" || req.Password == "" {
			return detail(c, http.StatusBadRequest, "email and password are required")
		}

		var (
			user *models.User
			err  error
		)
		if req.IsRegistration() {
			user, err = users.CreateAccount(c.Context(), models.CreateUserRequest(req))
		} else {
			user, err = sessions.Authenticate(c.Context(), req.Email, req.Password)
		}
		if err != nil {
			return handleError(c, err)
		}

		return startSession(c, sessions, cookie, user)
	}
}

// LogoutHandler drops the session named by the cookie, if any, and always clears the cookie.
func LogoutHandler(sessions *services.SessionService, cookie CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(cookie.Name)
		err := sessions.Invalidate(c.Context(), token)
		clearSessionCookie(c, cookie)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Logged out successfully"})
	}
}

// RequireSession rejects requests without a live session cookie.
func RequireSession(sessions *services.SessionService, cookie CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.Validate(c.Context(), c.Cookies(cookie.Name))
		if err != nil {
			return handleError(c, err)
		}
		c.Locals(localUserID, sess.UserID)
		return c.Next()
	}
}

// MeHandler returns the user behind the current session.
func MeHandler(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(localUserID).(int64)
		if !ok {
			slog.Error("MeHandler mounted without RequireSession", "path", c.Path())
			return detail(c, http.StatusUnauthorized, msgNotAuthenticated)
		}
		user, err := users.Get(c.Context(), userID)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(user)
	}
}
