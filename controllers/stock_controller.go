package controllers

import (
	"fmt"
	"strconv"
	"time"

	"isp-inventory-backend/models"
	"isp-inventory-backend/services"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StockController контроллер для складских позиций
type StockController struct {
	DB            *gorm.DB
	Notifications *services.NotificationService
}

// NewStockController создает новый экземпляр StockController
func NewStockController(db *gorm.DB, notifications *services.NotificationService) *StockController {
	return &StockController{DB: db, Notifications: notifications}
}

// StockItemRequest структура запроса создания и обновления позиции
type StockItemRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=255"`
	Category    string  `json:"category" validate:"required,oneof=router switch cable modem antenna accessory"`
	Brand       string  `json:"brand" validate:"required,max=100"`
	Model       string  `json:"model" validate:"required,max=100"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	MinStock    int     `json:"min_stock" validate:"gte=0"`
	Unit        string  `json:"unit" validate:"required,max=20"`
	Location    string  `json:"location" validate:"required,max=255"`
	Price       float64 `json:"price" validate:"gte=0"`
	Description string  `json:"description"`
}

// StockItemResponse структура ответа с одной позицией
type StockItemResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Item    *models.StockItem `json:"data,omitempty"`
}

// StockListData данные списочного ответа
type StockListData struct {
	Items      []models.StockItem `json:"items"`
	Pagination Pagination         `json:"pagination"`
}

// StockListResponse структура ответа со списком позиций
type StockListResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    *StockListData `json:"data,omitempty"`
}

// GetStockItems возвращает список складских позиций с фильтрами и пагинацией
func (sc *StockController) GetStockItems(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	page, limit, offset := parsePagination(page, limit)

	category := c.Query("category")
	search := c.Query("search")
	lowStock := c.Query("low_stock")

	query := sc.DB.Model(&models.StockItem{})

	if category != "" && category != "all" {
		query = query.Where("category = ?", category)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR brand LIKE ? OR model LIKE ?", pattern, pattern, pattern)
	}
	if lowStock == "true" {
		query = query.Where("quantity <= min_stock")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(500).JSON(StockListResponse{
			Success: false,
			Message: "Ошибка при получении списка позиций",
		})
	}

	var items []models.StockItem
	if err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return c.Status(500).JSON(StockListResponse{
			Success: false,
			Message: "Ошибка при получении списка позиций",
		})
	}

	return c.JSON(StockListResponse{
		Success: true,
		Data: &StockListData{
			Items:      items,
			Pagination: newPagination(page, limit, total),
		},
	})
}

// GetStockItem возвращает одну складскую позицию
func (sc *StockController) GetStockItem(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(StockItemResponse{
			Success: false,
			Message: "Неверный ID позиции",
		})
	}

	var item models.StockItem
	if err := sc.DB.First(&item, id).Error; err != nil {
		return c.Status(404).JSON(StockItemResponse{
			Success: false,
			Message: "Складская позиция не найдена",
		})
	}

	return c.JSON(StockItemResponse{
		Success: true,
		Item:    &item,
	})
}

// CreateStockItem создает новую складскую позицию
func (sc *StockController) CreateStockItem(c *fiber.Ctx) error {
	var req StockItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(StockItemResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(StockItemResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	item := models.StockItem{
		Name:        req.Name,
		Category:    req.Category,
		Brand:       req.Brand,
		Model:       req.Model,
		Quantity:    req.Quantity,
		MinStock:    req.MinStock,
		Unit:        req.Unit,
		Location:    req.Location,
		Price:       req.Price,
		Description: req.Description,
	}

	if err := sc.DB.Create(&item).Error; err != nil {
		return c.Status(500).JSON(StockItemResponse{
			Success: false,
			Message: "Ошибка при создании позиции",
		})
	}

	return c.Status(201).JSON(StockItemResponse{
		Success: true,
		Message: "Складская позиция успешно создана",
		Item:    &item,
	})
}

// UpdateStockItem обновляет складскую позицию
func (sc *StockController) UpdateStockItem(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(StockItemResponse{
			Success: false,
			Message: "Неверный ID позиции",
		})
	}

	var item models.StockItem
	if err := sc.DB.First(&item, id).Error; err != nil {
		return c.Status(404).JSON(StockItemResponse{
			Success: false,
			Message: "Складская позиция не найдена",
		})
	}

	var req StockItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(StockItemResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(StockItemResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	item.Name = req.Name
	item.Category = req.Category
	item.Brand = req.Brand
	item.Model = req.Model
	item.Quantity = req.Quantity
	item.MinStock = req.MinStock
	item.Unit = req.Unit
	item.Location = req.Location
	item.Price = req.Price
	item.Description = req.Description

	if err := sc.DB.Save(&item).Error; err != nil {
		return c.Status(500).JSON(StockItemResponse{
			Success: false,
			Message: "Ошибка при обновлении позиции",
		})
	}

	return c.JSON(StockItemResponse{
		Success: true,
		Message: "Складская позиция успешно обновлена",
		Item:    &item,
	})
}

// DeleteStockItem удаляет складскую позицию.
// Позиция, на которую ссылаются транзакции, не удаляется.
func (sc *StockController) DeleteStockItem(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(StockItemResponse{
			Success: false,
			Message: "Неверный ID позиции",
		})
	}

	var item models.StockItem
	if err := sc.DB.First(&item, id).Error; err != nil {
		return c.Status(404).JSON(StockItemResponse{
			Success: false,
			Message: "Складская позиция не найдена",
		})
	}

	var references int64
	if err := sc.DB.Model(&models.TransactionItem{}).Where("stock_id = ?", item.ID).Count(&references).Error; err != nil {
		return c.Status(500).JSON(StockItemResponse{
			Success: false,
			Message: "Ошибка при удалении позиции",
		})
	}
	if references > 0 {
		return c.Status(409).JSON(StockItemResponse{
			Success: false,
			Message: "Невозможно удалить позицию: на нее ссылаются транзакции",
		})
	}

	if err := sc.DB.Delete(&item).Error; err != nil {
		return c.Status(500).JSON(StockItemResponse{
			Success: false,
			Message: "Ошибка при удалении позиции",
		})
	}

	return c.JSON(StockItemResponse{
		Success: true,
		Message: "Складская позиция успешно удалена",
	})
}

// AdjustStockRequest структура запроса корректировки остатка
type AdjustStockRequest struct {
	Operation string `json:"operation" validate:"required,oneof=add subtract"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Reason    string `json:"reason" validate:"required,min=3"`
}

// AdjustQuantity корректирует остаток позиции вручную (инвентаризация,
// списание брака). Списание больше остатка не допускается.
func (sc *StockController) AdjustQuantity(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(StockItemResponse{
			Success: false,
			Message: "Неверный ID позиции",
		})
	}

	var req AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(StockItemResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(StockItemResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	var item models.StockItem
	if err := sc.DB.First(&item, id).Error; err != nil {
		return c.Status(404).JSON(StockItemResponse{
			Success: false,
			Message: "Складская позиция не найдена",
		})
	}

	// Списание защищено предикатом в самом UPDATE: два конкурентных запроса
	// не могут оба пройти проверку и увести остаток в минус
	delta := req.Quantity
	query := sc.DB.Model(&models.StockItem{}).Where("id = ?", item.ID)
	if req.Operation == "subtract" {
		delta = -req.Quantity
		query = query.Where("quantity >= ?", req.Quantity)
	}

	result := query.Updates(map[string]interface{}{
		"quantity":   gorm.Expr("quantity + ?", delta),
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return c.Status(500).JSON(StockItemResponse{
			Success: false,
			Message: "Ошибка при корректировке остатка",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(400).JSON(StockItemResponse{
			Success: false,
			Message: fmt.Sprintf("Недостаточно остатка для позиции '%s'", item.Name),
		})
	}

	if err := sc.DB.First(&item, id).Error; err != nil {
		return c.Status(500).JSON(StockItemResponse{
			Success: false,
			Message: "Ошибка при получении позиции",
		})
	}

	return c.JSON(StockItemResponse{
		Success: true,
		Message: "Остаток успешно скорректирован",
		Item:    &item,
	})
}

// LowStockResponse структура ответа со списком позиций с низким остатком
type LowStockResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Items   []models.StockItem `json:"data,omitempty"`
}

// GetLowStockItems возвращает позиции с остатком не выше минимального порога
func (sc *StockController) GetLowStockItems(c *fiber.Ctx) error {
	var items []models.StockItem
	err := sc.DB.Where("quantity <= min_stock").Order("quantity ASC").Find(&items).Error
	if err != nil {
		return c.Status(500).JSON(LowStockResponse{
			Success: false,
			Message: "Ошибка при получении списка позиций",
		})
	}

	return c.JSON(LowStockResponse{
		Success: true,
		Items:   items,
	})
}

// SendLowStockAlert отправляет предупреждение о низких остатках по почте
func (sc *StockController) SendLowStockAlert(c *fiber.Ctx) error {
	var items []models.StockItem
	err := sc.DB.Where("quantity <= min_stock").Order("quantity ASC").Find(&items).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Ошибка при получении списка позиций",
		})
	}

	if len(items) == 0 {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Все остатки выше минимального порога",
		})
	}

	if !sc.Notifications.Enabled() {
		return c.Status(503).JSON(fiber.Map{
			"success": false,
			"message": "Отправка почты не настроена",
		})
	}

	recipients, err := sc.Notifications.SendLowStockAlert(items)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Ошибка при отправке предупреждения",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Предупреждение отправлено %d получателям", recipients),
	})
}
