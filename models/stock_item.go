package models

import (
	"time"

	"gorm.io/gorm"
)

// Категории складских позиций
const (
	CategoryRouter    = "router"
	CategorySwitch    = "switch"
	CategoryCable     = "cable"
	CategoryModem     = "modem"
	CategoryAntenna   = "antenna"
	CategoryAccessory = "accessory"
)

// StockItem представляет складскую позицию (оборудование и материалы)
type StockItem struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Category    string    `json:"category" gorm:"not null;size:50;index"`
	Brand       string    `json:"brand" gorm:"not null;size:100;index"`
	Model       string    `json:"model" gorm:"not null;size:100"`
	Quantity    int       `json:"quantity" gorm:"not null;default:0;index"`
	MinStock    int       `json:"min_stock" gorm:"not null;default:0"` // Минимальный порог остатка
	Unit        string    `json:"unit" gorm:"not null;size:20;default:'pcs'"`
	Location    string    `json:"location" gorm:"not null;size:255"`
	Price       float64   `json:"price" gorm:"not null;default:0"`
	Description string    `json:"description" gorm:"type:text;default:''"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsLowStock возвращает true, если остаток не превышает минимальный порог
func (s *StockItem) IsLowStock() bool {
	return s.Quantity <= s.MinStock
}

// BeforeCreate хук для установки времени создания
func (s *StockItem) BeforeCreate(tx *gorm.DB) error {
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для обновления времени изменения
func (s *StockItem) BeforeUpdate(tx *gorm.DB) error {
	s.UpdatedAt = time.Now()
	return nil
}
