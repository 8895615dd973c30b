package routes

import (
	"isp-inventory-backend/controllers"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupUploadRoutes настраивает маршруты загрузки файлов
func SetupUploadRoutes(app *fiber.App, uploadController *controllers.UploadController) {
	uploads := app.Group("/api/uploads", utils.AuthMiddleware)

	uploads.Post("/single", uploadController.UploadFile)
	uploads.Post("/multiple", uploadController.UploadFiles)
	uploads.Get("/file/:filename", uploadController.GetFile)
	uploads.Delete("/:id", uploadController.DeleteFile)
}
