package models

import (
	"time"

	"gorm.io/gorm"
)

// Типы подключения клиентов
const (
	ServiceTypeResidential = "residential"
	ServiceTypeBusiness    = "business"
)

// Статусы клиентов
const (
	CustomerStatusActive     = "active"
	CustomerStatusSuspended  = "suspended"
	CustomerStatusTerminated = "terminated"
)

// Статусы установленных устройств
const (
	DeviceStatusActive      = "active"
	DeviceStatusMaintenance = "maintenance"
	DeviceStatusReplaced    = "replaced"
)

// Customer представляет модель клиента провайдера
type Customer struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name" gorm:"not null;size:255"`
	Email            string    `json:"email" gorm:"not null;size:255"`
	Phone            string    `json:"phone" gorm:"not null;size:20"`
	Address          string    `json:"address" gorm:"type:text;not null"`
	ServiceType      string    `json:"service_type" gorm:"not null;size:20;index"` // 'residential' или 'business'
	PackageType      string    `json:"package_type" gorm:"not null;size:100"`      // Название тарифа
	Status           string    `json:"status" gorm:"not null;size:20;default:'active';index"`
	InstallationDate time.Time `json:"installation_date" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Связи
	Devices        []CustomerDevice `json:"devices" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	ServiceHistory []ServiceRecord  `json:"service_history" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

// CustomerDevice представляет оборудование, установленное у клиента
type CustomerDevice struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CustomerID   uint      `json:"customer_id" gorm:"not null;index"`
	StockID      uint      `json:"stock_id" gorm:"not null"`
	SerialNumber string    `json:"serial_number" gorm:"uniqueIndex;not null;size:100"`
	InstallDate  time.Time `json:"install_date" gorm:"not null"`
	Location     string    `json:"location" gorm:"not null;size:255"` // Где установлено у клиента
	Status       string    `json:"status" gorm:"not null;size:20;default:'active'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Связи
	StockItem StockItem `json:"stock_item" gorm:"foreignKey:StockID"`
}

// ServiceRecord представляет запись истории обслуживания клиента
type ServiceRecord struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CustomerID  uint      `json:"customer_id" gorm:"not null;index"`
	Type        string    `json:"type" gorm:"not null;size:20"` // 'installation', 'maintenance', 'repair', 'upgrade'
	Description string    `json:"description" gorm:"type:text;not null"`
	Technician  string    `json:"technician" gorm:"not null;size:255"`
	Date        time.Time `json:"date" gorm:"not null"`
	Status      string    `json:"status" gorm:"not null;size:20;default:'pending'"`
	Cost        float64   `json:"cost" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate хук для установки времени создания
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для обновления времени изменения
func (c *Customer) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = time.Now()
	return nil
}
