package models

import (
	"time"

	"gorm.io/gorm"
)

// FileUpload представляет метаданные загруженного файла
type FileUpload struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	OriginalName string    `json:"original_name" gorm:"not null;size:255"`
	Filename     string    `json:"filename" gorm:"not null;size:255;uniqueIndex"` // Имя файла на диске
	Path         string    `json:"path" gorm:"not null;size:500"`
	Mimetype     string    `json:"mimetype" gorm:"not null;size:100"`
	Size         int64     `json:"size" gorm:"not null"`
	UploadedBy   uint      `json:"uploaded_by" gorm:"index"`
	EntityType   string    `json:"entity_type" gorm:"size:50;index:idx_entity"` // К какой сущности привязан файл
	EntityID     uint      `json:"entity_id" gorm:"index:idx_entity"`
	CreatedAt    time.Time `json:"created_at"`

	// Связи
	Uploader *User `json:"-" gorm:"foreignKey:UploadedBy"`
}

// BeforeCreate хук для установки времени создания
func (f *FileUpload) BeforeCreate(tx *gorm.DB) error {
	f.CreatedAt = time.Now()
	return nil
}
