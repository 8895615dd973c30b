package routes

import (
	"isp-inventory-backend/controllers"
	"isp-inventory-backend/models"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupTransactionRoutes настраивает маршруты складских транзакций.
// Создавать заявки может любой авторизованный пользователь, подтверждать и
// отклонять — только админы и супервайзеры.
func SetupTransactionRoutes(app *fiber.App, transactionController *controllers.TransactionController) {
	transactions := app.Group("/api/transactions", utils.AuthMiddleware)

	approve := utils.RequireRoles(models.RoleAdmin, models.RoleSupervisor)

	transactions.Get("/", transactionController.GetTransactions)
	transactions.Get("/stats/overview", transactionController.GetTransactionStats)
	transactions.Get("/:id", transactionController.GetTransaction)
	transactions.Post("/", transactionController.CreateTransaction)
	transactions.Patch("/:id/approve", approve, transactionController.ApproveTransaction)
	transactions.Patch("/:id/reject", approve, transactionController.RejectTransaction)
	transactions.Patch("/:id/complete", approve, transactionController.CompleteTransaction)
}
