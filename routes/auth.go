package routes

import (
	"isp-inventory-backend/controllers"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes настраивает маршруты аутентификации
func SetupAuthRoutes(app *fiber.App, authController *controllers.AuthController) {
	auth := app.Group("/api/auth")

	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Get("/me", utils.AuthMiddleware, authController.Me)
}
