package models

import (
	"time"

	"gorm.io/gorm"
)

// Staff представляет модель сотрудника (монтажника, супервайзера)
type Staff struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"not null;size:255"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone         string    `json:"phone" gorm:"not null;size:20"`
	Role          string    `json:"role" gorm:"not null;size:20;index"` // 'technician', 'supervisor', 'admin'
	Team          string    `json:"team" gorm:"not null;size:100;index"`
	Area          string    `json:"area" gorm:"not null;size:255"` // Зона обслуживания
	Skills        []string  `json:"skills" gorm:"serializer:json"`
	JoinDate      time.Time `json:"join_date" gorm:"not null"`
	CompletedJobs int       `json:"completed_jobs" gorm:"default:0"`
	Rating        float64   `json:"rating" gorm:"default:5.0"`
	Efficiency    int       `json:"efficiency" gorm:"default:100"` // Процент эффективности
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate хук для установки времени создания
func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate хук для обновления времени изменения
func (s *Staff) BeforeUpdate(tx *gorm.DB) error {
	s.UpdatedAt = time.Now()
	return nil
}
