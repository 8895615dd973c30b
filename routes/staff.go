package routes

import (
	"isp-inventory-backend/controllers"
	"isp-inventory-backend/models"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupStaffRoutes настраивает маршруты сотрудников
func SetupStaffRoutes(app *fiber.App, staffController *controllers.StaffController) {
	staff := app.Group("/api/staff", utils.AuthMiddleware)

	manage := utils.RequireRoles(models.RoleAdmin, models.RoleSupervisor)

	staff.Get("/", staffController.GetStaff)
	staff.Get("/stats/overview", staffController.GetStaffStats)
	staff.Get("/:id", staffController.GetStaffMember)
	staff.Post("/", manage, staffController.CreateStaffMember)
	staff.Put("/:id", manage, staffController.UpdateStaffMember)
	staff.Patch("/:id/performance", manage, staffController.UpdatePerformance)
	staff.Delete("/:id", utils.RequireRoles(models.RoleAdmin), staffController.DeleteStaffMember)
}
