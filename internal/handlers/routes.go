package handlers

import (
	"receipts-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Deps are the services and settings the routes need.
type Deps struct {
	Users    *services.UserService
	Sessions *services.SessionService
	Photos   *services.PhotoService
	Cookie   CookieConfig
	Limiter  *LoginLimiter
}

// Register mounts the API routes on router.
func Register(router fiber.Router, d Deps) {
	login := LoginHandler(d.Users, d.Sessions, d.Cookie)

	auth := router.Group("/auth")
	auth.Post("/login", d.Limiter.Middleware(), login)
	auth.Post("/logout", LogoutHandler(d.Sessions, d.Cookie))
	auth.Get("/me", RequireSession(d.Sessions, d.Cookie), MeHandler(d.Users))

	users := router.Group("/users")
	users.Post("/login", d.Limiter.Middleware(), login)
	users.Get("/", ListUsersHandler(d.Users))
	users.Post("/", CreateUserHandler(d.Users, d.Sessions, d.Cookie))
	users.Get("/:id", GetUserHandler(d.Users))
	users.Put("/:id", UpdateUserHandler(d.Users))
	users.Delete("/:id", DeleteUserHandler(d.Users))

	photos := router.Group("/photos")
	photos.Post("/", UploadPhotoHandler(d.Photos))
	photos.Get("/", ListPhotosHandler(d.Photos))
	photos.Get("/:id", GetPhotoHandler(d.Photos))
	photos.Get("/:id/file", PhotoFileHandler(d.Photos))
	photos.Delete("/:id", DeletePhotoHandler(d.Photos))
}
