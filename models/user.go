package models

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Роли пользователей в системе
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleTechnician = "technician"
)

// User представляет модель пользователя системы
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null;size:255"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"` // Скрываем хэш пароля в JSON
	Role         string    `json:"role" gorm:"not null;size:20;default:'technician';index"`
	Phone        string    `json:"phone" gorm:"size:20;default:''"`
	Avatar       string    `json:"avatar" gorm:"default:''"` // URL аватара
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// InitDB инициализирует подключение к базе данных.
// Жизненный цикл подключения принадлежит точке входа процесса,
// контроллеры получают готовый *gorm.DB через конструкторы.
func InitDB(databaseURL, sqlitePath string) (*gorm.DB, error) {
	if databaseURL != "" {
		// Используем PostgreSQL для продакшена
		return gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	}

	// Используем SQLite для разработки
	if sqlitePath == "" {
		sqlitePath = "isp_inventory.db"
	}
	return gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
}

// BeforeCreate хук для установки времени создания
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для обновления времени изменения
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
