package utils

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Claims представляет структуру JWT токена
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Секрет задается из конфигурации при старте процесса, до запуска сервера
var configuredSecret string

// SetJWTSecret устанавливает секретный ключ из конфигурации
func SetJWTSecret(secret string) {
	configuredSecret = secret
}

func jwtSecret() []byte {
	if configuredSecret != "" {
		return []byte(configuredSecret)
	}

	// Запасной путь: переменная окружения или дефолт для разработки
	secretKey := os.Getenv("JWT_SECRET")
	if secretKey == "" {
		secretKey = "isp-inventory-secret-key-change-in-production"
	}
	return []byte(secretKey)
}

// GenerateJWT создает JWT токен для пользователя
func GenerateJWT(userID uint, email, role string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)), // Токен действителен 24 часа
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(jwtSecret())
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateJWT проверяет и парсит JWT токен
func ValidateJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем метод подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret(), nil
	}, jwt.WithLeeway(5*time.Minute))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenMalformed
}

// AuthMiddleware middleware для проверки JWT токена
func AuthMiddleware(c *fiber.Ctx) error {
	// Получаем токен из заголовка Authorization
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(401).JSON(fiber.Map{
			"success": false,
			"message": "Требуется заголовок Authorization",
		})
	}

	// Проверяем формат Bearer token
	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return c.Status(401).JSON(fiber.Map{
			"success": false,
			"message": "Неверный формат заголовка Authorization",
		})
	}

	claims, err := ValidateJWT(tokenParts[1])
	if err != nil {
		return c.Status(401).JSON(fiber.Map{
			"success": false,
			"message": "Недействительный токен",
		})
	}

	// Сохраняем информацию о пользователе в контексте
	c.Locals("user_id", claims.UserID)
	c.Locals("user_email", claims.Email)
	c.Locals("user_role", claims.Role)

	return c.Next()
}

// RequireRoles возвращает middleware, пропускающий только пользователей
// с одной из перечисленных ролей. Применяется в настройке маршрутов,
// чтобы проверка прав не расползалась по обработчикам.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return c.Status(403).JSON(fiber.Map{
			"success": false,
			"message": "Недостаточно прав для выполнения операции",
		})
	}
}

// CurrentUserID возвращает ID пользователя, сохраненный AuthMiddleware
func CurrentUserID(c *fiber.Ctx) (uint, error) {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return 0, fiber.NewError(401, "Неавторизованный доступ")
	}
	return userID, nil
}
