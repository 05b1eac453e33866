package handlers

import (
	"net/http"

	"receipts-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

func setSessionCookie(c *fiber.Ctx, cfg CookieConfig, sess *models.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// clearSessionCookie expires the cookie with Max-Age=0, which fiber.Cookie cannot express.
func clearSessionCookie(c *fiber.Ctx, cfg CookieConfig) {
	cookie := &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	c.Response().Header.Add(fiber.HeaderSetCookie, cookie.String())
}
