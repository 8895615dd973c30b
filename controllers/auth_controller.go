package controllers

import (
	"isp-inventory-backend/models"
	"isp-inventory-backend/services"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthController контроллер для аутентификации
type AuthController struct {
	DB            *gorm.DB
	Notifications *services.NotificationService
}

// NewAuthController создает новый экземпляр AuthController
func NewAuthController(db *gorm.DB, notifications *services.NotificationService) *AuthController {
	return &AuthController{DB: db, Notifications: notifications}
}

// RegisterRequest структура запроса регистрации
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin supervisor technician"`
	Phone    string `json:"phone"`
}

// LoginRequest структура запроса входа
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthData данные успешной аутентификации
type AuthData struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// AuthResponse структура ответа аутентификации
type AuthResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    *AuthData `json:"data,omitempty"`
}

// Register регистрирует нового пользователя.
// Без явно указанной роли создается technician: права admin и supervisor
// выдаются только существующим администратором.
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	// Проверяем уникальность email
	var existing models.User
	if err := ac.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.Status(409).JSON(AuthResponse{
			Success: false,
			Message: "Пользователь с таким email уже существует",
		})
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Ошибка при создании пользователя",
		})
	}

	role := req.Role
	if role == "" {
		role = models.RoleTechnician
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Phone:        req.Phone,
		IsActive:     true,
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Ошибка при создании пользователя",
		})
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Ошибка при генерации токена",
		})
	}

	ac.Notifications.SendWelcomeEmail(user)

	return c.Status(201).JSON(AuthResponse{
		Success: true,
		Message: "Пользователь успешно зарегистрирован",
		Data:    &AuthData{Token: token, User: user},
	})
}

// Login выполняет вход пользователя
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	var user models.User
	if err := ac.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		// Не раскрываем, существует ли пользователь
		return c.Status(401).JSON(AuthResponse{
			Success: false,
			Message: "Неверный email или пароль",
		})
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return c.Status(401).JSON(AuthResponse{
			Success: false,
			Message: "Неверный email или пароль",
		})
	}

	if !user.IsActive {
		return c.Status(403).JSON(AuthResponse{
			Success: false,
			Message: "Учетная запись деактивирована",
		})
	}

	token, err := utils.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Ошибка при генерации токена",
		})
	}

	return c.JSON(AuthResponse{
		Success: true,
		Message: "Вход выполнен успешно",
		Data:    &AuthData{Token: token, User: user},
	})
}

// UserResponse структура ответа с данными пользователя
type UserResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"data,omitempty"`
}

// Me возвращает данные текущего пользователя
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return c.Status(401).JSON(UserResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	var user models.User
	if err := ac.DB.First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(UserResponse{
			Success: false,
			Message: "Пользователь не найден",
		})
	}

	return c.JSON(UserResponse{
		Success: true,
		User:    &user,
	})
}
