package controllers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"isp-inventory-backend/config"
	"isp-inventory-backend/models"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Допустимые типы загружаемых файлов
var allowedMimetypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// UploadController контроллер для загрузки файлов (фото монтажа, сканы документов)
type UploadController struct {
	DB        *gorm.DB
	Path      string
	MaxSizeMB int64
}

// NewUploadController создает новый экземпляр UploadController
func NewUploadController(db *gorm.DB, cfg *config.Config) *UploadController {
	return &UploadController{
		DB:        db,
		Path:      cfg.Upload.Path,
		MaxSizeMB: cfg.Upload.MaxSizeMB,
	}
}

// UploadResponse структура ответа с одним загруженным файлом
type UploadResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	File    *models.FileUpload `json:"data,omitempty"`
}

// UploadsResponse структура ответа с несколькими загруженными файлами
type UploadsResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Files   []models.FileUpload `json:"data,omitempty"`
}

// UploadFile принимает один файл из multipart-формы (поле file).
// Файл сохраняется под случайным именем, оригинальное имя остается в метаданных.
func (uc *UploadController) UploadFile(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return c.Status(401).JSON(UploadResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(UploadResponse{
			Success: false,
			Message: "Файл не передан",
		})
	}

	upload, status, message := uc.saveFile(c, fileHeader, userID)
	if upload == nil {
		return c.Status(status).JSON(UploadResponse{
			Success: false,
			Message: message,
		})
	}

	return c.Status(201).JSON(UploadResponse{
		Success: true,
		Message: "Файл успешно загружен",
		File:    upload,
	})
}

// UploadFiles принимает несколько файлов из multipart-формы (поле files).
// Загрузка не атомарна: сбой одного файла не откатывает уже сохраненные.
func (uc *UploadController) UploadFiles(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return c.Status(401).JSON(UploadsResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(400).JSON(UploadsResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return c.Status(400).JSON(UploadsResponse{
			Success: false,
			Message: "Файлы не переданы",
		})
	}
	if len(fileHeaders) > 10 {
		return c.Status(400).JSON(UploadsResponse{
			Success: false,
			Message: "За один запрос можно загрузить не более 10 файлов",
		})
	}

	uploads := make([]models.FileUpload, 0, len(fileHeaders))
	for _, fileHeader := range fileHeaders {
		upload, status, message := uc.saveFile(c, fileHeader, userID)
		if upload == nil {
			return c.Status(status).JSON(UploadsResponse{
				Success: false,
				Message: fmt.Sprintf("%s: %s", fileHeader.Filename, message),
				Files:   uploads,
			})
		}
		uploads = append(uploads, *upload)
	}

	return c.Status(201).JSON(UploadsResponse{
		Success: true,
		Message: fmt.Sprintf("Загружено файлов: %d", len(uploads)),
		Files:   uploads,
	})
}

// saveFile проверяет, сохраняет файл на диск и записывает метаданные
func (uc *UploadController) saveFile(c *fiber.Ctx, fileHeader *multipart.FileHeader, userID uint) (*models.FileUpload, int, string) {
	if fileHeader.Size > uc.MaxSizeMB*1024*1024 {
		return nil, 400, fmt.Sprintf("Размер файла превышает %d МБ", uc.MaxSizeMB)
	}

	mimetype := fileHeader.Header.Get("Content-Type")
	if !allowedMimetypes[mimetype] {
		return nil, 400, "Недопустимый тип файла"
	}

	if err := os.MkdirAll(uc.Path, 0o755); err != nil {
		return nil, 500, "Ошибка при сохранении файла"
	}

	// Случайное имя исключает коллизии и перезапись чужих файлов
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	filename := uuid.NewString() + ext
	path := filepath.Join(uc.Path, filename)

	if err := c.SaveFile(fileHeader, path); err != nil {
		return nil, 500, "Ошибка при сохранении файла"
	}

	upload := models.FileUpload{
		OriginalName: fileHeader.Filename,
		Filename:     filename,
		Path:         path,
		Mimetype:     mimetype,
		Size:         fileHeader.Size,
		UploadedBy:   userID,
		EntityType:   c.FormValue("entity_type"),
	}
	if entityID, err := strconv.ParseUint(c.FormValue("entity_id"), 10, 32); err == nil {
		upload.EntityID = uint(entityID)
	}

	if err := uc.DB.Create(&upload).Error; err != nil {
		os.Remove(path)
		return nil, 500, "Ошибка при сохранении метаданных файла"
	}

	return &upload, 0, ""
}

// GetFile отдает содержимое загруженного файла
func (uc *UploadController) GetFile(c *fiber.Ctx) error {
	filename := c.Params("filename")

	var upload models.FileUpload
	if err := uc.DB.Where("filename = ?", filename).First(&upload).Error; err != nil {
		return c.Status(404).JSON(UploadResponse{
			Success: false,
			Message: "Файл не найден",
		})
	}

	c.Set("Content-Type", upload.Mimetype)
	return c.SendFile(upload.Path)
}

// DeleteFile удаляет файл. Разрешено только загрузившему и администратору.
func (uc *UploadController) DeleteFile(c *fiber.Ctx) error {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		return c.Status(401).JSON(UploadResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}
	role, _ := c.Locals("user_role").(string)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(UploadResponse{
			Success: false,
			Message: "Неверный ID файла",
		})
	}

	var upload models.FileUpload
	if err := uc.DB.First(&upload, id).Error; err != nil {
		return c.Status(404).JSON(UploadResponse{
			Success: false,
			Message: "Файл не найден",
		})
	}

	if upload.UploadedBy != userID && role != models.RoleAdmin {
		return c.Status(403).JSON(UploadResponse{
			Success: false,
			Message: "Недостаточно прав для удаления файла",
		})
	}

	if err := uc.DB.Delete(&upload).Error; err != nil {
		return c.Status(500).JSON(UploadResponse{
			Success: false,
			Message: "Ошибка при удалении файла",
		})
	}

	// Файл на диске удаляется после записи в БД; ошибка игнорируется,
	// осиротевший файл безопаснее потерянных метаданных
	os.Remove(upload.Path)

	return c.JSON(UploadResponse{
		Success: true,
		Message: "Файл успешно удален",
	})
}
