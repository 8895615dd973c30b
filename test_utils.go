package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"isp-inventory-backend/config"
	"isp-inventory-backend/controllers"
	"isp-inventory-backend/models"
	"isp-inventory-backend/routes"
	"isp-inventory-backend/services"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB создает тестовую базу данных в памяти
func setupTestDB() *gorm.DB {
	db, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	db.AutoMigrate(&models.User{}, &models.StockItem{}, &models.Staff{}, &models.Customer{}, &models.CustomerDevice{}, &models.ServiceRecord{}, &models.Transaction{}, &models.TransactionItem{}, &models.FileUpload{})
	return db
}

// setupTestApp создает приложение со всеми маршрутами поверх тестовой БД.
// SMTP не настроен, поэтому отправка почты в тестах пропускается.
func setupTestApp(db *gorm.DB) *fiber.App {
	cfg := &config.Config{
		Upload: config.UploadConfig{Path: os.TempDir(), MaxSizeMB: 10},
	}

	notificationService := services.NewNotificationService(db, cfg)

	app := fiber.New()

	routes.SetupAuthRoutes(app, controllers.NewAuthController(db, notificationService))
	routes.SetupStockRoutes(app, controllers.NewStockController(db, notificationService))
	routes.SetupStaffRoutes(app, controllers.NewStaffController(db))
	routes.SetupCustomerRoutes(app, controllers.NewCustomerController(db))
	routes.SetupTransactionRoutes(app, controllers.NewTransactionController(db, notificationService))
	routes.SetupDashboardRoutes(app, controllers.NewDashboardController(db))
	routes.SetupUploadRoutes(app, controllers.NewUploadController(db, cfg))

	return app
}

// createTestUser создает пользователя с указанной ролью и возвращает его
// вместе с токеном для заголовка Authorization
func createTestUser(db *gorm.DB, email, role string) (models.User, string) {
	hash, _ := utils.HashPassword("password123")
	user := models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	db.Create(&user)

	token, _ := utils.GenerateJWT(user.ID, user.Email, user.Role)
	return user, token
}

// createTestStaff создает активного сотрудника
func createTestStaff(db *gorm.DB, email string) models.Staff {
	staff := models.Staff{
		Name:     "Test Technician",
		Email:    email,
		Phone:    "+79990000000",
		Role:     models.RoleTechnician,
		Team:     "Alpha",
		Area:     "Test Area",
		Skills:   []string{"fiber"},
		JoinDate: time.Now().AddDate(-1, 0, 0),
		IsActive: true,
	}
	db.Create(&staff)
	return staff
}

// createTestStockItem создает складскую позицию с заданным остатком
func createTestStockItem(db *gorm.DB, name string, quantity, minStock int) models.StockItem {
	item := models.StockItem{
		Name:     name,
		Category: models.CategoryRouter,
		Brand:    "TestBrand",
		Model:    "T-1000",
		Quantity: quantity,
		MinStock: minStock,
		Unit:     "pcs",
		Location: "Test Shelf",
		Price:    10.0,
	}
	db.Create(&item)
	return item
}

// createTestCustomer создает клиента
func createTestCustomer(db *gorm.DB, email string) models.Customer {
	customer := models.Customer{
		Name:             "Test Customer",
		Email:            email,
		Phone:            "+79991111111",
		Address:          "Test Street 1",
		ServiceType:      models.ServiceTypeResidential,
		PackageType:      "Basic 100",
		Status:           models.CustomerStatusActive,
		InstallationDate: time.Now().AddDate(0, -1, 0),
	}
	db.Create(&customer)
	return customer
}

// jsonRequest собирает HTTP запрос с JSON телом и токеном авторизации
func jsonRequest(method, target string, body interface{}, token string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// decodeBody разбирает JSON тело ответа в map
func decodeBody(resp *http.Response) map[string]interface{} {
	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	return body
}
