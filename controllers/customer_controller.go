package controllers

import (
	"strconv"
	"time"

	"isp-inventory-backend/models"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CustomerController контроллер для клиентов провайдера
type CustomerController struct {
	DB *gorm.DB
}

// NewCustomerController создает новый экземпляр CustomerController
func NewCustomerController(db *gorm.DB) *CustomerController {
	return &CustomerController{DB: db}
}

// CustomerRequest структура запроса создания и обновления клиента
type CustomerRequest struct {
	Name             string `json:"name" validate:"required,min=2,max=255"`
	Email            string `json:"email" validate:"required,email"`
	Phone            string `json:"phone" validate:"required,max=20"`
	Address          string `json:"address" validate:"required"`
	ServiceType      string `json:"service_type" validate:"required,oneof=residential business"`
	PackageType      string `json:"package_type" validate:"required,max=100"`
	InstallationDate string `json:"installation_date" validate:"required"`
}

// CustomerResponse структура ответа с одним клиентом
type CustomerResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	Customer *models.Customer `json:"data,omitempty"`
}

// CustomerListData данные списочного ответа
type CustomerListData struct {
	Customers  []models.Customer `json:"customers"`
	Pagination Pagination        `json:"pagination"`
}

// CustomersResponse структура ответа со списком клиентов
type CustomersResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    *CustomerListData `json:"data,omitempty"`
}

// GetCustomers возвращает список клиентов с фильтрами и пагинацией
func (cc *CustomerController) GetCustomers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	page, limit, offset := parsePagination(page, limit)

	serviceType := c.Query("service_type")
	status := c.Query("status")
	search := c.Query("search")

	query := cc.DB.Model(&models.Customer{})

	if serviceType != "" && serviceType != "all" {
		query = query.Where("service_type = ?", serviceType)
	}
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR phone LIKE ? OR address LIKE ?",
			pattern, pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(500).JSON(CustomersResponse{
			Success: false,
			Message: "Ошибка при получении списка клиентов",
		})
	}

	var customers []models.Customer
	err := query.Preload("Devices.StockItem").Preload("ServiceHistory").
		Order("name ASC").Offset(offset).Limit(limit).
		Find(&customers).Error
	if err != nil {
		return c.Status(500).JSON(CustomersResponse{
			Success: false,
			Message: "Ошибка при получении списка клиентов",
		})
	}

	return c.JSON(CustomersResponse{
		Success: true,
		Data: &CustomerListData{
			Customers:  customers,
			Pagination: newPagination(page, limit, total),
		},
	})
}

// GetCustomer возвращает одного клиента с устройствами и историей обслуживания
func (cc *CustomerController) GetCustomer(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(CustomerResponse{
			Success: false,
			Message: "Неверный ID клиента",
		})
	}

	var customer models.Customer
	err = cc.DB.Preload("Devices.StockItem").
		Preload("ServiceHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("date DESC")
		}).
		First(&customer, id).Error
	if err != nil {
		return c.Status(404).JSON(CustomerResponse{
			Success: false,
			Message: "Клиент не найден",
		})
	}

	return c.JSON(CustomerResponse{
		Success:  true,
		Customer: &customer,
	})
}

// CreateCustomer создает нового клиента
func (cc *CustomerController) CreateCustomer(c *fiber.Ctx) error {
	var req CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(CustomerResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(CustomerResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	installationDate, err := time.Parse(time.DateOnly, req.InstallationDate)
	if err != nil {
		return c.Status(400).JSON(CustomerResponse{
			Success: false,
			Message: "Неверный формат даты подключения (ожидается YYYY-MM-DD)",
		})
	}

	customer := models.Customer{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		ServiceType:      req.ServiceType,
		PackageType:      req.PackageType,
		Status:           models.CustomerStatusActive,
		InstallationDate: installationDate,
	}

	if err := cc.DB.Create(&customer).Error; err != nil {
		return c.Status(500).JSON(CustomerResponse{
			Success: false,
			Message: "Ошибка при создании клиента",
		})
	}

	return c.Status(201).JSON(CustomerResponse{
		Success:  true,
		Message:  "Клиент успешно создан",
		Customer: &customer,
	})
}

// UpdateCustomer обновляет данные клиента
func (cc *CustomerController) UpdateCustomer(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(CustomerResponse{
			Success: false,
			Message: "Неверный ID клиента",
		})
	}

	var customer models.Customer
	if err := cc.DB.First(&customer, id).Error; err != nil {
		return c.Status(404).JSON(CustomerResponse{
			Success: false,
			Message: "Клиент не найден",
		})
	}

	var req CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(CustomerResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(CustomerResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	installationDate, err := time.Parse(time.DateOnly, req.InstallationDate)
	if err != nil {
		return c.Status(400).JSON(CustomerResponse{
			Success: false,
			Message: "Неверный формат даты подключения (ожидается YYYY-MM-DD)",
		})
	}

	customer.Name = req.Name
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address
	customer.ServiceType = req.ServiceType
	customer.PackageType = req.PackageType
	customer.InstallationDate = installationDate

	if err := cc.DB.Save(&customer).Error; err != nil {
		return c.Status(500).JSON(CustomerResponse{
			Success: false,
			Message: "Ошибка при обновлении клиента",
		})
	}

	return c.JSON(CustomerResponse{
		Success:  true,
		Message:  "Клиент успешно обновлен",
		Customer: &customer,
	})
}

// DeleteCustomer удаляет клиента вместе с устройствами и историей обслуживания
func (cc *CustomerController) DeleteCustomer(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(CustomerResponse{
			Success: false,
			Message: "Неверный ID клиента",
		})
	}

	var customer models.Customer
	if err := cc.DB.First(&customer, id).Error; err != nil {
		return c.Status(404).JSON(CustomerResponse{
			Success: false,
			Message: "Клиент не найден",
		})
	}

	tx := cc.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Каскад прописан в схеме, но SQLite без PRAGMA foreign_keys его не
	// выполняет, поэтому зависимые записи удаляются явно
	if err := tx.Where("customer_id = ?", customer.ID).Delete(&models.CustomerDevice{}).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(CustomerResponse{
			Success: false,
			Message: "Ошибка при удалении клиента",
		})
	}
	if err := tx.Where("customer_id = ?", customer.ID).Delete(&models.ServiceRecord{}).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(CustomerResponse{
			Success: false,
			Message: "Ошибка при удалении клиента",
		})
	}
	if err := tx.Delete(&customer).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(CustomerResponse{
			Success: false,
			Message: "Ошибка при удалении клиента",
		})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(500).JSON(CustomerResponse{
			Success: false,
			Message: "Ошибка при удалении клиента",
		})
	}

	return c.JSON(CustomerResponse{
		Success: true,
		Message: "Клиент успешно удален",
	})
}

// CustomerStatusRequest структура запроса смены статуса клиента
type CustomerStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended terminated"`
}

// UpdateCustomerStatus меняет статус клиента
func (cc *CustomerController) UpdateCustomerStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(CustomerResponse{
			Success: false,
			Message: "Неверный ID клиента",
		})
	}

	var req CustomerStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(CustomerResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(CustomerResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	result := cc.DB.Model(&models.Customer{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": req.Status, "updated_at": time.Now()})
	if result.Error != nil {
		return c.Status(500).JSON(CustomerResponse{
			Success: false,
			Message: "Ошибка при обновлении статуса",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(CustomerResponse{
			Success: false,
			Message: "Клиент не найден",
		})
	}

	return c.JSON(CustomerResponse{
		Success: true,
		Message: "Статус клиента успешно обновлен",
	})
}

// DeviceRequest структура запроса добавления устройства клиенту
type DeviceRequest struct {
	StockID      uint   `json:"stock_id" validate:"required"`
	SerialNumber string `json:"serial_number" validate:"required,max=100"`
	InstallDate  string `json:"install_date" validate:"required"`
	Location     string `json:"location" validate:"required,max=255"`
}

// DeviceResponse структура ответа с устройством клиента
type DeviceResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Device  *models.CustomerDevice `json:"data,omitempty"`
}

// AddDevice регистрирует устройство, установленное у клиента.
// Серийный номер уникален по всей базе устройств.
func (cc *CustomerController) AddDevice(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(DeviceResponse{
			Success: false,
			Message: "Неверный ID клиента",
		})
	}

	var customer models.Customer
	if err := cc.DB.First(&customer, id).Error; err != nil {
		return c.Status(404).JSON(DeviceResponse{
			Success: false,
			Message: "Клиент не найден",
		})
	}

	var req DeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(DeviceResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(DeviceResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	installDate, err := time.Parse(time.DateOnly, req.InstallDate)
	if err != nil {
		return c.Status(400).JSON(DeviceResponse{
			Success: false,
			Message: "Неверный формат даты установки (ожидается YYYY-MM-DD)",
		})
	}

	var stockItem models.StockItem
	if err := cc.DB.First(&stockItem, req.StockID).Error; err != nil {
		return c.Status(400).JSON(DeviceResponse{
			Success: false,
			Message: "Складская позиция не найдена",
		})
	}

	var existing models.CustomerDevice
	if err := cc.DB.Where("serial_number = ?", req.SerialNumber).First(&existing).Error; err == nil {
		return c.Status(409).JSON(DeviceResponse{
			Success: false,
			Message: "Устройство с таким серийным номером уже зарегистрировано",
		})
	}

	device := models.CustomerDevice{
		CustomerID:   customer.ID,
		StockID:      req.StockID,
		SerialNumber: req.SerialNumber,
		InstallDate:  installDate,
		Location:     req.Location,
		Status:       models.DeviceStatusActive,
	}

	if err := cc.DB.Create(&device).Error; err != nil {
		return c.Status(500).JSON(DeviceResponse{
			Success: false,
			Message: "Ошибка при регистрации устройства",
		})
	}

	cc.DB.Preload("StockItem").First(&device, device.ID)

	return c.Status(201).JSON(DeviceResponse{
		Success: true,
		Message: "Устройство успешно зарегистрировано",
		Device:  &device,
	})
}

// ServiceRecordRequest структура запроса добавления записи обслуживания
type ServiceRecordRequest struct {
	Type        string  `json:"type" validate:"required,oneof=installation maintenance repair upgrade"`
	Description string  `json:"description" validate:"required,min=5"`
	Technician  string  `json:"technician" validate:"required,max=255"`
	Date        string  `json:"date" validate:"required"`
	Status      string  `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
	Cost        float64 `json:"cost" validate:"gte=0"`
}

// ServiceRecordResponse структура ответа с записью обслуживания
type ServiceRecordResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Record  *models.ServiceRecord `json:"data,omitempty"`
}

// AddServiceRecord добавляет запись в историю обслуживания клиента
func (cc *CustomerController) AddServiceRecord(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(ServiceRecordResponse{
			Success: false,
			Message: "Неверный ID клиента",
		})
	}

	var customer models.Customer
	if err := cc.DB.First(&customer, id).Error; err != nil {
		return c.Status(404).JSON(ServiceRecordResponse{
			Success: false,
			Message: "Клиент не найден",
		})
	}

	var req ServiceRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ServiceRecordResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(ServiceRecordResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return c.Status(400).JSON(ServiceRecordResponse{
			Success: false,
			Message: "Неверный формат даты (ожидается YYYY-MM-DD)",
		})
	}

	status := req.Status
	if status == "" {
		status = "pending"
	}

	record := models.ServiceRecord{
		CustomerID:  customer.ID,
		Type:        req.Type,
		Description: req.Description,
		Technician:  req.Technician,
		Date:        date,
		Status:      status,
		Cost:        req.Cost,
	}

	if err := cc.DB.Create(&record).Error; err != nil {
		return c.Status(500).JSON(ServiceRecordResponse{
			Success: false,
			Message: "Ошибка при добавлении записи обслуживания",
		})
	}

	return c.Status(201).JSON(ServiceRecordResponse{
		Success: true,
		Message: "Запись обслуживания успешно добавлена",
		Record:  &record,
	})
}
