package main

import (
	"log"
	"time"

	"isp-inventory-backend/config"
	"isp-inventory-backend/controllers"
	"isp-inventory-backend/models"
	"isp-inventory-backend/routes"
	"isp-inventory-backend/services"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Загружаем .env, если он есть (в продакшене переменные задаются окружением)
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Секрет токенов берется из конфигурации, а не читается хелперами из окружения
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Инициализация базы данных
	db, err := models.InitDB(cfg.Database.URL, cfg.Database.SQLitePath)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Автомиграция
	db.AutoMigrate(&models.User{}, &models.StockItem{}, &models.Staff{}, &models.Customer{}, &models.CustomerDevice{}, &models.ServiceRecord{}, &models.Transaction{}, &models.TransactionItem{}, &models.FileUpload{})

	// Администратор по умолчанию
	initDefaultAdmin(db, cfg)

	// Базовые складские позиции
	initSampleStock(db)

	// Создание Fiber приложения
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Сервис уведомлений
	notificationService := services.NewNotificationService(db, cfg)

	// Инициализация контроллеров
	authController := controllers.NewAuthController(db, notificationService)
	stockController := controllers.NewStockController(db, notificationService)
	staffController := controllers.NewStaffController(db)
	customerController := controllers.NewCustomerController(db)
	transactionController := controllers.NewTransactionController(db, notificationService)
	dashboardController := controllers.NewDashboardController(db)
	uploadController := controllers.NewUploadController(db, cfg)

	// Настройка маршрутов
	routes.SetupAuthRoutes(app, authController)
	routes.SetupStockRoutes(app, stockController)
	routes.SetupStaffRoutes(app, staffController)
	routes.SetupCustomerRoutes(app, customerController)
	routes.SetupTransactionRoutes(app, transactionController)
	routes.SetupDashboardRoutes(app, dashboardController)
	routes.SetupUploadRoutes(app, uploadController)

	// Общий health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"message":   "ISP Inventory Backend is running",
			"timestamp": time.Now().Unix(),
		})
	})

	// Запуск сервера
	log.Printf("Server starting on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}

// initDefaultAdmin создает администратора по умолчанию, если его еще нет
func initDefaultAdmin(db *gorm.DB, cfg *config.Config) {
	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)

	if count > 0 {
		log.Printf("Администратор уже существует (%d учетных записей)", count)
		return
	}

	hash, err := utils.HashPassword(cfg.Admin.Password)
	if err != nil {
		log.Printf("Ошибка при хэшировании пароля администратора: %v", err)
		return
	}

	admin := models.User{
		Name:         cfg.Admin.Name,
		Email:        cfg.Admin.Email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}

	if err := db.Create(&admin).Error; err != nil {
		log.Printf("Ошибка при создании администратора: %v", err)
	} else {
		log.Printf("Создан администратор: %s", admin.Email)
	}
}

// initSampleStock инициализирует базовые складские позиции
func initSampleStock(db *gorm.DB) {
	sampleStock := []models.StockItem{
		{Name: "Cisco RV160 Router", Category: models.CategoryRouter, Brand: "Cisco", Model: "RV160", Quantity: 25, MinStock: 5, Unit: "pcs", Location: "Склад А, стеллаж 1", Price: 150.00, Description: "VPN маршрутизатор для малого бизнеса"},
		{Name: "UTP Cable Cat6", Category: models.CategoryCable, Brand: "CommScope", Model: "Cat6", Quantity: 500, MinStock: 100, Unit: "m", Location: "Склад А, стеллаж 3", Price: 0.85, Description: "Кабель витая пара категории 6"},
		{Name: "Mikrotik hEX S", Category: models.CategoryRouter, Brand: "Mikrotik", Model: "RB760iGS", Quantity: 15, MinStock: 3, Unit: "pcs", Location: "Склад А, стеллаж 1", Price: 70.00, Description: "Гигабитный маршрутизатор с SFP портом"},
		{Name: "TP-Link Archer C6", Category: models.CategoryRouter, Brand: "TP-Link", Model: "Archer C6", Quantity: 30, MinStock: 8, Unit: "pcs", Location: "Склад А, стеллаж 2", Price: 45.00, Description: "Двухдиапазонный Wi-Fi роутер для квартир"},
		{Name: "Ubiquiti LiteBeam 5AC", Category: models.CategoryAntenna, Brand: "Ubiquiti", Model: "LBE-5AC-Gen2", Quantity: 12, MinStock: 4, Unit: "pcs", Location: "Склад Б, стеллаж 1", Price: 65.00, Description: "Направленная антенна 5 ГГц"},
	}

	var count int64
	db.Model(&models.StockItem{}).Count(&count)

	if count == 0 {
		log.Println("Инициализация базовых складских позиций...")
		for _, item := range sampleStock {
			if err := db.Create(&item).Error; err != nil {
				log.Printf("Ошибка при создании позиции '%s': %v", item.Name, err)
			} else {
				log.Printf("Создана позиция: %s", item.Name)
			}
		}
		log.Println("Базовые складские позиции инициализированы")
	} else {
		log.Printf("Складские позиции уже существуют (%d элементов)", count)
	}
}
