package routes

import (
	"isp-inventory-backend/controllers"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupDashboardRoutes настраивает маршруты сводных показателей
func SetupDashboardRoutes(app *fiber.App, dashboardController *controllers.DashboardController) {
	dashboard := app.Group("/api/dashboard", utils.AuthMiddleware)

	dashboard.Get("/stats", dashboardController.GetStats)
	dashboard.Get("/trends", dashboardController.GetTrends)
	dashboard.Get("/performance", dashboardController.GetPerformance)
}
