package routes

import (
	"isp-inventory-backend/controllers"
	"isp-inventory-backend/models"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupStockRoutes настраивает маршруты складских позиций.
// Чтение доступно всем авторизованным, изменения — админам и супервайзерам,
// удаление — только админам.
func SetupStockRoutes(app *fiber.App, stockController *controllers.StockController) {
	stock := app.Group("/api/stock", utils.AuthMiddleware)

	manage := utils.RequireRoles(models.RoleAdmin, models.RoleSupervisor)

	stock.Get("/", stockController.GetStockItems)
	stock.Get("/low-stock", stockController.GetLowStockItems)
	stock.Post("/alerts/send-email", manage, stockController.SendLowStockAlert)
	stock.Get("/:id", stockController.GetStockItem)
	stock.Post("/", manage, stockController.CreateStockItem)
	stock.Put("/:id", manage, stockController.UpdateStockItem)
	stock.Patch("/:id/quantity", manage, stockController.AdjustQuantity)
	stock.Delete("/:id", utils.RequireRoles(models.RoleAdmin), stockController.DeleteStockItem)
}
