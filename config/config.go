package config

import (
	"github.com/spf13/viper"
)

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	Port        string `mapstructure:"port"`
	CORSOrigins string `mapstructure:"cors_origins"`
	FrontendURL string `mapstructure:"frontend_url"` // Используется в ссылках в письмах
}

// DatabaseConfig настройки подключения к базе данных
type DatabaseConfig struct {
	URL        string `mapstructure:"url"`         // PostgreSQL DSN; пусто — SQLite
	SQLitePath string `mapstructure:"sqlite_path"` // Путь к файлу SQLite для разработки
}

// JWTConfig настройки JWT токенов
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// SMTPConfig настройки исходящей почты.
// Пустой Host означает, что почта не настроена и отправка пропускается.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// UploadConfig настройки загрузки файлов
type UploadConfig struct {
	Path      string `mapstructure:"path"`
	MaxSizeMB int64  `mapstructure:"max_size_mb"`
}

// AdminConfig учетные данные администратора по умолчанию
type AdminConfig struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// Config корневая конфигурация приложения
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

// Load читает конфигурацию из переменных окружения через viper.
// Каждый ключ привязан к переменной окружения явно, значения по умолчанию
// подходят для локальной разработки.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// Привязка ключей к переменным окружения
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.cors_origins", "CORS_ORIGINS")
	v.BindEnv("server.frontend_url", "FRONTEND_URL")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.sqlite_path", "SQLITE_PATH")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("smtp.host", "EMAIL_HOST")
	v.BindEnv("smtp.port", "EMAIL_PORT")
	v.BindEnv("smtp.user", "EMAIL_USER")
	v.BindEnv("smtp.password", "EMAIL_PASS")
	v.BindEnv("smtp.from", "EMAIL_FROM")
	v.BindEnv("upload.path", "UPLOAD_PATH")
	v.BindEnv("upload.max_size_mb", "UPLOAD_MAX_SIZE_MB")
	v.BindEnv("admin.name", "ADMIN_NAME")
	v.BindEnv("admin.email", "ADMIN_EMAIL")
	v.BindEnv("admin.password", "ADMIN_PASSWORD")

	// Значения по умолчанию для локальной разработки
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("server.frontend_url", "http://localhost:5173")
	v.SetDefault("database.sqlite_path", "isp_inventory.db")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("upload.path", "uploads")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("admin.name", "Admin User")
	v.SetDefault("admin.email", "admin@isp.com")
	v.SetDefault("admin.password", "admin123")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
