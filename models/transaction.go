package models

import (
	"time"

	"gorm.io/gorm"
)

// Типы складских транзакций
const (
	TransactionTypeInstallation = "installation"
	TransactionTypeMaintenance  = "maintenance"
	TransactionTypeReturn       = "return"
	TransactionTypeBorrow       = "borrow"
)

// Статусы складских транзакций.
// Переходы однонаправленные: pending -> approved -> completed, pending -> rejected.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusApproved  = "approved"
	TransactionStatusRejected  = "rejected"
	TransactionStatusCompleted = "completed"
)

// Transaction представляет складскую транзакцию — заявку на выдачу или
// возврат оборудования, привязанную к монтажу, обслуживанию или выдаче во
// временное пользование. Остатки меняются только при подтверждении.
type Transaction struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	Type       string     `json:"type" gorm:"not null;size:20;index"`
	StaffID    uint       `json:"staff_id" gorm:"not null;index"`
	CustomerID *uint      `json:"customer_id" gorm:"index"`
	Status     string     `json:"status" gorm:"not null;size:20;default:'pending';index"`
	Notes      string     `json:"notes" gorm:"type:text;not null"`
	ApprovedBy *uint      `json:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Связи
	Staff    Staff             `json:"-" gorm:"foreignKey:StaffID"`
	Customer *Customer         `json:"-" gorm:"foreignKey:CustomerID"`
	Approver *User             `json:"-" gorm:"foreignKey:ApprovedBy"`
	Items    []TransactionItem `json:"items" gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
}

// TransactionItem представляет позицию складской транзакции.
// Создается атомарно вместе с родительской транзакцией и удаляется вместе с ней.
type TransactionItem struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	TransactionID uint      `json:"transaction_id" gorm:"not null;index"`
	StockID       uint      `json:"stock_id" gorm:"not null;index"`
	Quantity      int       `json:"quantity" gorm:"not null"`
	Notes         string    `json:"notes" gorm:"type:text;default:''"`
	CreatedAt     time.Time `json:"created_at"`

	// Связи
	StockItem StockItem `json:"-" gorm:"foreignKey:StockID"`
}

// BeforeCreate хук для установки времени создания
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для обновления времени изменения
func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	t.UpdatedAt = time.Now()
	return nil
}

// BeforeCreate хук для установки времени создания
func (ti *TransactionItem) BeforeCreate(tx *gorm.DB) error {
	ti.CreatedAt = time.Now()
	return nil
}
