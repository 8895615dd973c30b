package controllers

import (
	"sort"
	"strconv"
	"time"

	"isp-inventory-backend/models"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StaffController контроллер для сотрудников
type StaffController struct {
	DB *gorm.DB
}

// NewStaffController создает новый экземпляр StaffController
func NewStaffController(db *gorm.DB) *StaffController {
	return &StaffController{DB: db}
}

// StaffRequest структура запроса создания и обновления сотрудника
type StaffRequest struct {
	Name     string   `json:"name" validate:"required,min=2,max=255"`
	Email    string   `json:"email" validate:"required,email"`
	Phone    string   `json:"phone" validate:"required,max=20"`
	Role     string   `json:"role" validate:"required,oneof=technician supervisor admin"`
	Team     string   `json:"team" validate:"required,max=100"`
	Area     string   `json:"area" validate:"required,max=255"`
	Skills   []string `json:"skills"`
	JoinDate string   `json:"join_date" validate:"required"`
}

// StaffResponse структура ответа с одним сотрудником
type StaffResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Staff   *models.Staff `json:"data,omitempty"`
}

// StaffListData данные списочного ответа
type StaffListData struct {
	Staff      []models.Staff `json:"staff"`
	Pagination Pagination     `json:"pagination"`
}

// StaffListResponse структура ответа со списком сотрудников
type StaffListResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    *StaffListData `json:"data,omitempty"`
}

// GetStaff возвращает список активных сотрудников с фильтрами и пагинацией
func (sc *StaffController) GetStaff(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	page, limit, offset := parsePagination(page, limit)

	role := c.Query("role")
	team := c.Query("team")
	search := c.Query("search")

	query := sc.DB.Model(&models.Staff{}).Where("is_active = ?", true)

	if role != "" && role != "all" {
		query = query.Where("role = ?", role)
	}
	if team != "" && team != "all" {
		query = query.Where("team = ?", team)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR area LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(500).JSON(StaffListResponse{
			Success: false,
			Message: "Ошибка при получении списка сотрудников",
		})
	}

	var staff []models.Staff
	if err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&staff).Error; err != nil {
		return c.Status(500).JSON(StaffListResponse{
			Success: false,
			Message: "Ошибка при получении списка сотрудников",
		})
	}

	return c.JSON(StaffListResponse{
		Success: true,
		Data: &StaffListData{
			Staff:      staff,
			Pagination: newPagination(page, limit, total),
		},
	})
}

// GetStaffMember возвращает одного сотрудника
func (sc *StaffController) GetStaffMember(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: "Неверный ID сотрудника",
		})
	}

	var staff models.Staff
	if err := sc.DB.Where("id = ? AND is_active = ?", id, true).First(&staff).Error; err != nil {
		return c.Status(404).JSON(StaffResponse{
			Success: false,
			Message: "Сотрудник не найден",
		})
	}

	return c.JSON(StaffResponse{
		Success: true,
		Staff:   &staff,
	})
}

// CreateStaffMember создает нового сотрудника
func (sc *StaffController) CreateStaffMember(c *fiber.Ctx) error {
	var req StaffRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	joinDate, err := time.Parse(time.DateOnly, req.JoinDate)
	if err != nil {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: "Неверный формат даты приема (ожидается YYYY-MM-DD)",
		})
	}

	var existing models.Staff
	if err := sc.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.Status(409).JSON(StaffResponse{
			Success: false,
			Message: "Сотрудник с таким email уже существует",
		})
	}

	staff := models.Staff{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Role:       req.Role,
		Team:       req.Team,
		Area:       req.Area,
		Skills:     req.Skills,
		JoinDate:   joinDate,
		Rating:     5.0,
		Efficiency: 100,
		IsActive:   true,
	}

	if err := sc.DB.Create(&staff).Error; err != nil {
		return c.Status(500).JSON(StaffResponse{
			Success: false,
			Message: "Ошибка при создании сотрудника",
		})
	}

	return c.Status(201).JSON(StaffResponse{
		Success: true,
		Message: "Сотрудник успешно создан",
		Staff:   &staff,
	})
}

// UpdateStaffMember обновляет данные сотрудника
func (sc *StaffController) UpdateStaffMember(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: "Неверный ID сотрудника",
		})
	}

	var staff models.Staff
	if err := sc.DB.Where("id = ? AND is_active = ?", id, true).First(&staff).Error; err != nil {
		return c.Status(404).JSON(StaffResponse{
			Success: false,
			Message: "Сотрудник не найден",
		})
	}

	var req StaffRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	joinDate, err := time.Parse(time.DateOnly, req.JoinDate)
	if err != nil {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: "Неверный формат даты приема (ожидается YYYY-MM-DD)",
		})
	}

	// Email должен оставаться уникальным среди других сотрудников
	var existing models.Staff
	if err := sc.DB.Where("email = ? AND id <> ?", req.Email, staff.ID).First(&existing).Error; err == nil {
		return c.Status(409).JSON(StaffResponse{
			Success: false,
			Message: "Сотрудник с таким email уже существует",
		})
	}

	staff.Name = req.Name
	staff.Email = req.Email
	staff.Phone = req.Phone
	staff.Role = req.Role
	staff.Team = req.Team
	staff.Area = req.Area
	staff.Skills = req.Skills
	staff.JoinDate = joinDate

	if err := sc.DB.Save(&staff).Error; err != nil {
		return c.Status(500).JSON(StaffResponse{
			Success: false,
			Message: "Ошибка при обновлении сотрудника",
		})
	}

	return c.JSON(StaffResponse{
		Success: true,
		Message: "Сотрудник успешно обновлен",
		Staff:   &staff,
	})
}

// DeleteStaffMember деактивирует сотрудника (мягкое удаление).
// История транзакций сотрудника сохраняется.
func (sc *StaffController) DeleteStaffMember(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: "Неверный ID сотрудника",
		})
	}

	result := sc.DB.Model(&models.Staff{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return c.Status(500).JSON(StaffResponse{
			Success: false,
			Message: "Ошибка при удалении сотрудника",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(StaffResponse{
			Success: false,
			Message: "Сотрудник не найден",
		})
	}

	return c.JSON(StaffResponse{
		Success: true,
		Message: "Сотрудник успешно удален",
	})
}

// PerformanceRequest структура запроса обновления показателей сотрудника
type PerformanceRequest struct {
	CompletedJobs *int     `json:"completed_jobs" validate:"omitempty,gte=0"`
	Rating        *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Efficiency    *int     `json:"efficiency" validate:"omitempty,gte=0,lte=100"`
}

// UpdatePerformance обновляет показатели эффективности сотрудника.
// Передаются только изменяемые поля.
func (sc *StaffController) UpdatePerformance(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: "Неверный ID сотрудника",
		})
	}

	var req PerformanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.CompletedJobs != nil {
		updates["completed_jobs"] = *req.CompletedJobs
	}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Efficiency != nil {
		updates["efficiency"] = *req.Efficiency
	}

	if len(updates) == 1 {
		return c.Status(400).JSON(StaffResponse{
			Success: false,
			Message: "Не указано ни одного поля для обновления",
		})
	}

	result := sc.DB.Model(&models.Staff{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(updates)
	if result.Error != nil {
		return c.Status(500).JSON(StaffResponse{
			Success: false,
			Message: "Ошибка при обновлении показателей",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(StaffResponse{
			Success: false,
			Message: "Сотрудник не найден",
		})
	}

	var staff models.Staff
	if err := sc.DB.First(&staff, id).Error; err != nil {
		return c.Status(500).JSON(StaffResponse{
			Success: false,
			Message: "Ошибка при получении сотрудника",
		})
	}

	return c.JSON(StaffResponse{
		Success: true,
		Message: "Показатели успешно обновлены",
		Staff:   &staff,
	})
}

// TeamStat статистика по команде
type TeamStat struct {
	Team          string  `json:"team"`
	Members       int64   `json:"members"`
	AverageRating float64 `json:"average_rating"`
}

// StaffStatsData данные статистики по сотрудникам
type StaffStatsData struct {
	TotalStaff        int64      `json:"total_staff"`
	Technicians       int64      `json:"technicians"`
	Supervisors       int64      `json:"supervisors"`
	AverageRating     float64    `json:"average_rating"`
	AverageEfficiency float64    `json:"average_efficiency"`
	Teams             []TeamStat `json:"teams"`
}

// StaffStatsResponse структура ответа со статистикой сотрудников
type StaffStatsResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    *StaffStatsData `json:"data,omitempty"`
}

// GetStaffStats возвращает сводную статистику по активным сотрудникам
func (sc *StaffController) GetStaffStats(c *fiber.Ctx) error {
	var data StaffStatsData

	active := sc.DB.Model(&models.Staff{}).Where("is_active = ?", true)

	if err := active.Count(&data.TotalStaff).Error; err != nil {
		return c.Status(500).JSON(StaffStatsResponse{
			Success: false,
			Message: "Ошибка при получении статистики",
		})
	}
	if err := sc.DB.Model(&models.Staff{}).Where("is_active = ? AND role = ?", true, models.RoleTechnician).
		Count(&data.Technicians).Error; err != nil {
		return c.Status(500).JSON(StaffStatsResponse{
			Success: false,
			Message: "Ошибка при получении статистики",
		})
	}
	if err := sc.DB.Model(&models.Staff{}).Where("is_active = ? AND role = ?", true, models.RoleSupervisor).
		Count(&data.Supervisors).Error; err != nil {
		return c.Status(500).JSON(StaffStatsResponse{
			Success: false,
			Message: "Ошибка при получении статистики",
		})
	}

	row := sc.DB.Model(&models.Staff{}).Where("is_active = ?", true).
		Select("COALESCE(AVG(rating), 0), COALESCE(AVG(efficiency), 0)").Row()
	if err := row.Scan(&data.AverageRating, &data.AverageEfficiency); err != nil {
		return c.Status(500).JSON(StaffStatsResponse{
			Success: false,
			Message: "Ошибка при получении статистики",
		})
	}

	rows, err := sc.DB.Model(&models.Staff{}).Where("is_active = ?", true).
		Select("team, COUNT(*), COALESCE(AVG(rating), 0)").Group("team").Rows()
	if err != nil {
		return c.Status(500).JSON(StaffStatsResponse{
			Success: false,
			Message: "Ошибка при получении статистики",
		})
	}
	defer rows.Close()

	for rows.Next() {
		var stat TeamStat
		if err := rows.Scan(&stat.Team, &stat.Members, &stat.AverageRating); err != nil {
			return c.Status(500).JSON(StaffStatsResponse{
				Success: false,
				Message: "Ошибка при получении статистики",
			})
		}
		data.Teams = append(data.Teams, stat)
	}

	sort.Slice(data.Teams, func(i, j int) bool {
		return data.Teams[i].Members > data.Teams[j].Members
	})

	return c.JSON(StaffStatsResponse{
		Success: true,
		Data:    &data,
	})
}
