package routes

import (
	"isp-inventory-backend/controllers"
	"isp-inventory-backend/models"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupCustomerRoutes настраивает маршруты клиентов
func SetupCustomerRoutes(app *fiber.App, customerController *controllers.CustomerController) {
	customers := app.Group("/api/customers", utils.AuthMiddleware)

	manage := utils.RequireRoles(models.RoleAdmin, models.RoleSupervisor)

	customers.Get("/", customerController.GetCustomers)
	customers.Get("/:id", customerController.GetCustomer)
	customers.Post("/", manage, customerController.CreateCustomer)
	customers.Put("/:id", manage, customerController.UpdateCustomer)
	customers.Patch("/:id/status", manage, customerController.UpdateCustomerStatus)
	customers.Delete("/:id", utils.RequireRoles(models.RoleAdmin), customerController.DeleteCustomer)

	customers.Post("/:id/devices", manage, customerController.AddDevice)
	customers.Post("/:id/service-history", manage, customerController.AddServiceRecord)
}
