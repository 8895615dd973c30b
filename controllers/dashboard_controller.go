package controllers

import (
	"sort"
	"time"

	"isp-inventory-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DashboardController контроллер для сводных показателей
type DashboardController struct {
	DB *gorm.DB
}

// NewDashboardController создает новый экземпляр DashboardController
func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{DB: db}
}

// DashboardStats сводные показатели для главной страницы
type DashboardStats struct {
	TotalStockItems     int64   `json:"total_stock_items"`
	TotalStockQuantity  int64   `json:"total_stock_quantity"`
	TotalStockValue     float64 `json:"total_stock_value"`
	LowStockItems       int64   `json:"low_stock_items"`
	ActiveStaff         int64   `json:"active_staff"`
	ActiveCustomers     int64   `json:"active_customers"`
	TotalCustomers      int64   `json:"total_customers"`
	PendingTransactions int64   `json:"pending_transactions"`
	TodayTransactions   int64   `json:"today_transactions"`
}

// DashboardStatsResponse структура ответа со сводными показателями
type DashboardStatsResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Stats   *DashboardStats `json:"data,omitempty"`
}

// GetStats возвращает сводные показатели системы
func (dc *DashboardController) GetStats(c *fiber.Ctx) error {
	var stats DashboardStats

	if err := dc.DB.Model(&models.StockItem{}).Count(&stats.TotalStockItems).Error; err != nil {
		return dc.statsError(c)
	}

	row := dc.DB.Model(&models.StockItem{}).
		Select("COALESCE(SUM(quantity), 0), COALESCE(SUM(quantity * price), 0)").Row()
	if err := row.Scan(&stats.TotalStockQuantity, &stats.TotalStockValue); err != nil {
		return dc.statsError(c)
	}

	if err := dc.DB.Model(&models.StockItem{}).Where("quantity <= min_stock").
		Count(&stats.LowStockItems).Error; err != nil {
		return dc.statsError(c)
	}

	if err := dc.DB.Model(&models.Staff{}).Where("is_active = ?", true).
		Count(&stats.ActiveStaff).Error; err != nil {
		return dc.statsError(c)
	}

	if err := dc.DB.Model(&models.Customer{}).Where("status = ?", models.CustomerStatusActive).
		Count(&stats.ActiveCustomers).Error; err != nil {
		return dc.statsError(c)
	}

	if err := dc.DB.Model(&models.Customer{}).Count(&stats.TotalCustomers).Error; err != nil {
		return dc.statsError(c)
	}

	if err := dc.DB.Model(&models.Transaction{}).Where("status = ?", models.TransactionStatusPending).
		Count(&stats.PendingTransactions).Error; err != nil {
		return dc.statsError(c)
	}

	today := time.Now().Truncate(24 * time.Hour)
	if err := dc.DB.Model(&models.Transaction{}).Where("created_at >= ?", today).
		Count(&stats.TodayTransactions).Error; err != nil {
		return dc.statsError(c)
	}

	return c.JSON(DashboardStatsResponse{
		Success: true,
		Stats:   &stats,
	})
}

func (dc *DashboardController) statsError(c *fiber.Ctx) error {
	return c.Status(500).JSON(DashboardStatsResponse{
		Success: false,
		Message: "Ошибка при получении показателей",
	})
}

// MonthlyTrend количество транзакций и новых клиентов за месяц
type MonthlyTrend struct {
	Month        string `json:"month"`
	Transactions int64  `json:"transactions"`
	NewCustomers int64  `json:"new_customers"`
}

// TrendsResponse структура ответа с динамикой по месяцам
type TrendsResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Trends  []MonthlyTrend `json:"data,omitempty"`
}

// GetTrends возвращает динамику транзакций и подключений за последние 6 месяцев.
// Группировка по месяцам выполняется в Go, чтобы не зависеть от диалекта SQL.
func (dc *DashboardController) GetTrends(c *fiber.Ctx) error {
	since := time.Now().AddDate(0, -6, 0)

	var transactions []models.Transaction
	if err := dc.DB.Select("created_at").Where("created_at >= ?", since).
		Find(&transactions).Error; err != nil {
		return c.Status(500).JSON(TrendsResponse{
			Success: false,
			Message: "Ошибка при получении динамики",
		})
	}

	var customers []models.Customer
	if err := dc.DB.Select("created_at").Where("created_at >= ?", since).
		Find(&customers).Error; err != nil {
		return c.Status(500).JSON(TrendsResponse{
			Success: false,
			Message: "Ошибка при получении динамики",
		})
	}

	buckets := make(map[string]*MonthlyTrend)
	bucket := func(t time.Time) *MonthlyTrend {
		month := t.Format("2006-01")
		if trend, ok := buckets[month]; ok {
			return trend
		}
		trend := &MonthlyTrend{Month: month}
		buckets[month] = trend
		return trend
	}

	for _, transaction := range transactions {
		bucket(transaction.CreatedAt).Transactions++
	}
	for _, customer := range customers {
		bucket(customer.CreatedAt).NewCustomers++
	}

	trends := make([]MonthlyTrend, 0, len(buckets))
	for _, trend := range buckets {
		trends = append(trends, *trend)
	}
	sort.Slice(trends, func(i, j int) bool {
		return trends[i].Month < trends[j].Month
	})

	return c.JSON(TrendsResponse{
		Success: true,
		Trends:  trends,
	})
}

// StaffPerformance показатели сотрудника для дашборда
type StaffPerformance struct {
	StaffID       uint    `json:"staff_id"`
	Name          string  `json:"name"`
	Team          string  `json:"team"`
	CompletedJobs int     `json:"completed_jobs"`
	Rating        float64 `json:"rating"`
	Efficiency    int     `json:"efficiency"`
	Transactions  int64   `json:"transactions"`
}

// PerformanceResponse структура ответа с показателями сотрудников
type PerformanceResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message,omitempty"`
	Performance []StaffPerformance `json:"data,omitempty"`
}

// GetPerformance возвращает показатели активных сотрудников,
// отсортированные по рейтингу
func (dc *DashboardController) GetPerformance(c *fiber.Ctx) error {
	var staff []models.Staff
	if err := dc.DB.Where("is_active = ?", true).Order("rating DESC").
		Find(&staff).Error; err != nil {
		return c.Status(500).JSON(PerformanceResponse{
			Success: false,
			Message: "Ошибка при получении показателей",
		})
	}

	performance := make([]StaffPerformance, 0, len(staff))
	for _, member := range staff {
		entry := StaffPerformance{
			StaffID:       member.ID,
			Name:          member.Name,
			Team:          member.Team,
			CompletedJobs: member.CompletedJobs,
			Rating:        member.Rating,
			Efficiency:    member.Efficiency,
		}

		if err := dc.DB.Model(&models.Transaction{}).Where("staff_id = ?", member.ID).
			Count(&entry.Transactions).Error; err != nil {
			return c.Status(500).JSON(PerformanceResponse{
				Success: false,
				Message: "Ошибка при получении показателей",
			})
		}

		performance = append(performance, entry)
	}

	return c.JSON(PerformanceResponse{
		Success:     true,
		Performance: performance,
	})
}
