package controllers

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"isp-inventory-backend/models"
	"isp-inventory-backend/services"
	"isp-inventory-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TransactionController контроллер для складских транзакций.
// Создание и подтверждение выполняются внутри одной транзакции БД:
// частичная запись невозможна даже при конкурентных запросах к одним и
// тем же складским позициям.
type TransactionController struct {
	DB            *gorm.DB
	Notifications *services.NotificationService
}

// NewTransactionController создает новый экземпляр TransactionController
func NewTransactionController(db *gorm.DB, notifications *services.NotificationService) *TransactionController {
	return &TransactionController{DB: db, Notifications: notifications}
}

// CreateTransactionRequest структура запроса создания транзакции
type CreateTransactionRequest struct {
	Type       string                   `json:"type" validate:"required,oneof=installation maintenance return borrow"`
	StaffID    uint                     `json:"staff_id" validate:"required"`
	CustomerID *uint                    `json:"customer_id"`
	Notes      string                   `json:"notes" validate:"required,min=5"`
	Items      []TransactionItemRequest `json:"items" validate:"required,min=1,dive"`
}

// TransactionItemRequest структура позиции в запросе создания транзакции
type TransactionItemRequest struct {
	StockID  uint   `json:"stock_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
	Notes    string `json:"notes"`
}

// TransactionItemDetail позиция транзакции с данными складской позиции
type TransactionItemDetail struct {
	ID        uint   `json:"id"`
	StockID   uint   `json:"stock_id"`
	StockName string `json:"stock_name"`
	Unit      string `json:"unit"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

// TransactionDetail транзакция с денормализованными именами для отображения
type TransactionDetail struct {
	ID             uint                    `json:"id"`
	Type           string                  `json:"type"`
	StaffID        uint                    `json:"staff_id"`
	StaffName      string                  `json:"staff_name"`
	CustomerID     *uint                   `json:"customer_id,omitempty"`
	CustomerName   string                  `json:"customer_name,omitempty"`
	Status         string                  `json:"status"`
	Notes          string                  `json:"notes"`
	ApprovedBy     *uint                   `json:"approved_by,omitempty"`
	ApprovedByName string                  `json:"approved_by_name,omitempty"`
	ApprovedAt     *time.Time              `json:"approved_at,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	Items          []TransactionItemDetail `json:"items"`
}

// TransactionResponse структура ответа с одной транзакцией
type TransactionResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message,omitempty"`
	Transaction *TransactionDetail `json:"data,omitempty"`
}

// TransactionListData данные списочного ответа
type TransactionListData struct {
	Transactions []TransactionDetail `json:"transactions"`
	Pagination   Pagination          `json:"pagination"`
}

// TransactionsResponse структура ответа со списком транзакций
type TransactionsResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Data    *TransactionListData `json:"data,omitempty"`
}

// CreateTransaction создает транзакцию со статусом pending.
// Проверка сотрудника, клиента, позиций и доступности остатков, вставка
// транзакции и всех ее позиций выполняются как одна атомарная запись:
// любой сбой откатывает все целиком. Остатки на этом шаге не меняются —
// только проверяются (резервирование не выполняется).
func (tc *TransactionController) CreateTransaction(c *fiber.Ctx) error {
	var req CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный формат данных",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	// Начинаем транзакцию БД
	tx := tc.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Проверяем, что сотрудник существует и активен
	var staff models.Staff
	if err := tx.Where("id = ? AND is_active = ?", req.StaffID, true).First(&staff).Error; err != nil {
		tx.Rollback()
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Сотрудник не найден",
		})
	}

	// Проверяем клиента, если он указан
	if req.CustomerID != nil {
		var customer models.Customer
		if err := tx.First(&customer, *req.CustomerID).Error; err != nil {
			tx.Rollback()
			return c.Status(400).JSON(TransactionResponse{
				Success: false,
				Message: "Клиент не найден",
			})
		}
	}

	// Проверяем складские позиции и доступность остатков.
	// Для возврата остаток не проверяется: оборудование приходит на склад.
	for _, item := range req.Items {
		var stockItem models.StockItem
		if err := tx.First(&stockItem, item.StockID).Error; err != nil {
			tx.Rollback()
			return c.Status(400).JSON(TransactionResponse{
				Success: false,
				Message: fmt.Sprintf("Складская позиция %d не найдена", item.StockID),
			})
		}

		if req.Type != models.TransactionTypeReturn && stockItem.Quantity < item.Quantity {
			tx.Rollback()
			return c.Status(400).JSON(TransactionResponse{
				Success: false,
				Message: fmt.Sprintf("Недостаточно остатка для позиции '%s'", stockItem.Name),
			})
		}
	}

	// Создаем транзакцию
	transaction := models.Transaction{
		Type:       req.Type,
		StaffID:    req.StaffID,
		CustomerID: req.CustomerID,
		Status:     models.TransactionStatusPending,
		Notes:      req.Notes,
	}

	if err := tx.Create(&transaction).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(TransactionResponse{
			Success: false,
			Message: "Ошибка при создании транзакции",
		})
	}

	// Создаем позиции транзакции
	items := make([]models.TransactionItem, 0, len(req.Items))
	for _, item := range req.Items {
		transactionItem := models.TransactionItem{
			TransactionID: transaction.ID,
			StockID:       item.StockID,
			Quantity:      item.Quantity,
			Notes:         item.Notes,
		}

		if err := tx.Create(&transactionItem).Error; err != nil {
			tx.Rollback()
			return c.Status(500).JSON(TransactionResponse{
				Success: false,
				Message: "Ошибка при создании транзакции",
			})
		}
		items = append(items, transactionItem)
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(500).JSON(TransactionResponse{
			Success: false,
			Message: "Ошибка при создании транзакции",
		})
	}

	// Уведомляем админов и супервайзеров после коммита (best-effort)
	tc.Notifications.NotifyTransactionCreated(transaction, staff.Name, items)

	detail, err := tc.loadTransactionDetail(transaction.ID)
	if err != nil {
		return c.Status(500).JSON(TransactionResponse{
			Success: false,
			Message: "Ошибка при получении созданной транзакции",
		})
	}

	return c.Status(201).JSON(TransactionResponse{
		Success:     true,
		Message:     "Транзакция успешно создана",
		Transaction: detail,
	})
}

// ApproveTransaction подтверждает транзакцию в статусе pending и применяет
// ее эффект к остаткам: installation и borrow списывают, return приходует,
// maintenance остатки не трогает. Изменения остатков и смена статуса — одна
// атомарная запись. Из двух конкурентных подтверждений одной транзакции
// выигрывает одно: у проигравшего предикат статуса не совпадает.
func (tc *TransactionController) ApproveTransaction(c *fiber.Ctx) error {
	approverID, err := utils.CurrentUserID(c)
	if err != nil {
		return c.Status(401).JSON(TransactionResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный ID транзакции",
		})
	}

	tx := tc.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Ищем транзакцию в статусе pending
	var transaction models.Transaction
	if err := tx.Where("id = ? AND status = ?", id, models.TransactionStatusPending).First(&transaction).Error; err != nil {
		tx.Rollback()
		return c.Status(404).JSON(TransactionResponse{
			Success: false,
			Message: "Транзакция не найдена или уже обработана",
		})
	}

	var items []models.TransactionItem
	if err := tx.Where("transaction_id = ?", transaction.ID).Find(&items).Error; err != nil {
		tx.Rollback()
		return c.Status(500).JSON(TransactionResponse{
			Success: false,
			Message: "Ошибка при подтверждении транзакции",
		})
	}

	// Корректируем остатки в зависимости от типа транзакции.
	// Доступность проверялась при создании и здесь не перепроверяется,
	// поэтому остаток может уйти в минус (см. проверку при создании).
	now := time.Now()
	for _, item := range items {
		var delta interface{}

		switch transaction.Type {
		case models.TransactionTypeInstallation, models.TransactionTypeBorrow:
			delta = gorm.Expr("quantity - ?", item.Quantity)
		case models.TransactionTypeReturn:
			delta = gorm.Expr("quantity + ?", item.Quantity)
		default:
			// Для maintenance остатки не меняются
			continue
		}

		result := tx.Model(&models.StockItem{}).Where("id = ?", item.StockID).
			Updates(map[string]interface{}{"quantity": delta, "updated_at": now})
		if result.Error != nil {
			tx.Rollback()
			return c.Status(500).JSON(TransactionResponse{
				Success: false,
				Message: "Ошибка при подтверждении транзакции",
			})
		}
		if result.RowsAffected == 0 {
			// Складская позиция исчезла — откатываем все изменения остатков
			tx.Rollback()
			return c.Status(400).JSON(TransactionResponse{
				Success: false,
				Message: fmt.Sprintf("Складская позиция %d не найдена", item.StockID),
			})
		}
	}

	// Меняем статус с предикатом: конкурентное подтверждение проигрывает здесь
	result := tx.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", transaction.ID, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":      models.TransactionStatusApproved,
			"approved_by": approverID,
			"approved_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		tx.Rollback()
		return c.Status(500).JSON(TransactionResponse{
			Success: false,
			Message: "Ошибка при подтверждении транзакции",
		})
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return c.Status(404).JSON(TransactionResponse{
			Success: false,
			Message: "Транзакция не найдена или уже обработана",
		})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(500).JSON(TransactionResponse{
			Success: false,
			Message: "Ошибка при подтверждении транзакции",
		})
	}

	return c.JSON(TransactionResponse{
		Success: true,
		Message: "Транзакция успешно подтверждена",
	})
}

// RejectTransaction отклоняет транзакцию в статусе pending.
// Остатки не меняются; повторный вызов не находит pending-запись.
func (tc *TransactionController) RejectTransaction(c *fiber.Ctx) error {
	approverID, err := utils.CurrentUserID(c)
	if err != nil {
		return c.Status(401).JSON(TransactionResponse{
			Success: false,
			Message: "Неавторизованный доступ",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный ID транзакции",
		})
	}

	now := time.Now()
	result := tc.DB.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":      models.TransactionStatusRejected,
			"approved_by": approverID,
			"approved_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return c.Status(500).JSON(TransactionResponse{
			Success: false,
			Message: "Ошибка при отклонении транзакции",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(TransactionResponse{
			Success: false,
			Message: "Транзакция не найдена или уже обработана",
		})
	}

	return c.JSON(TransactionResponse{
		Success: true,
		Message: "Транзакция отклонена",
	})
}

// CompleteTransaction завершает подтвержденную транзакцию.
// Остатки уже были скорректированы при подтверждении.
func (tc *TransactionController) CompleteTransaction(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный ID транзакции",
		})
	}

	result := tc.DB.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusApproved).
		Updates(map[string]interface{}{
			"status":     models.TransactionStatusCompleted,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return c.Status(500).JSON(TransactionResponse{
			Success: false,
			Message: "Ошибка при завершении транзакции",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(TransactionResponse{
			Success: false,
			Message: "Транзакция не найдена или не подтверждена",
		})
	}

	return c.JSON(TransactionResponse{
		Success: true,
		Message: "Транзакция успешно завершена",
	})
}

// GetTransactions возвращает список транзакций с фильтрами и пагинацией
func (tc *TransactionController) GetTransactions(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	page, limit, offset := parsePagination(page, limit)

	transactionType := c.Query("type")
	status := c.Query("status")
	staffID := c.Query("staff_id")
	search := c.Query("search")

	query := tc.DB.Model(&models.Transaction{})

	if transactionType != "" && transactionType != "all" {
		query = query.Where("type = ?", transactionType)
	}
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if staffID != "" {
		query = query.Where("staff_id = ?", staffID)
	}
	if search != "" {
		query = query.Where("notes LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(500).JSON(TransactionsResponse{
			Success: false,
			Message: "Ошибка при получении списка транзакций",
		})
	}

	var transactions []models.Transaction
	err := query.Preload("Staff").Preload("Customer").Preload("Approver").Preload("Items.StockItem").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return c.Status(500).JSON(TransactionsResponse{
			Success: false,
			Message: "Ошибка при получении списка транзакций",
		})
	}

	details := make([]TransactionDetail, 0, len(transactions))
	for _, transaction := range transactions {
		details = append(details, toTransactionDetail(transaction))
	}

	return c.JSON(TransactionsResponse{
		Success: true,
		Data: &TransactionListData{
			Transactions: details,
			Pagination:   newPagination(page, limit, total),
		},
	})
}

// GetTransaction возвращает одну транзакцию с позициями
func (tc *TransactionController) GetTransaction(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(TransactionResponse{
			Success: false,
			Message: "Неверный ID транзакции",
		})
	}

	detail, err := tc.loadTransactionDetail(uint(id))
	if err != nil {
		return c.Status(404).JSON(TransactionResponse{
			Success: false,
			Message: "Транзакция не найдена",
		})
	}

	return c.JSON(TransactionResponse{
		Success:     true,
		Transaction: detail,
	})
}

// TransactionStatsOverview сводные счетчики по транзакциям
type TransactionStatsOverview struct {
	TotalTransactions     int64 `json:"total_transactions"`
	PendingTransactions   int64 `json:"pending_transactions"`
	ApprovedTransactions  int64 `json:"approved_transactions"`
	RejectedTransactions  int64 `json:"rejected_transactions"`
	CompletedTransactions int64 `json:"completed_transactions"`
	Installations         int64 `json:"installations"`
	Maintenance           int64 `json:"maintenance"`
	Returns               int64 `json:"returns"`
	Borrows               int64 `json:"borrows"`
}

// MonthlyTransactionStat количество транзакций типа за месяц
type MonthlyTransactionStat struct {
	Month string `json:"month"`
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// StaffTransactionStat статистика транзакций по сотруднику
type StaffTransactionStat struct {
	StaffName        string `json:"staff_name"`
	TransactionCount int64  `json:"transaction_count"`
	CompletedCount   int64  `json:"completed_count"`
}

// TransactionStatsData данные статистики транзакций
type TransactionStatsData struct {
	Overview TransactionStatsOverview `json:"overview"`
	Monthly  []MonthlyTransactionStat `json:"monthly"`
	Staff    []StaffTransactionStat   `json:"staff"`
}

// TransactionStatsResponse структура ответа со статистикой транзакций
type TransactionStatsResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Data    *TransactionStatsData `json:"data,omitempty"`
}

// GetTransactionStats возвращает статистику по транзакциям
func (tc *TransactionController) GetTransactionStats(c *fiber.Ctx) error {
	var overview TransactionStatsOverview

	counts := []struct {
		dest  *int64
		where []interface{}
	}{
		{&overview.TotalTransactions, nil},
		{&overview.PendingTransactions, []interface{}{"status = ?", models.TransactionStatusPending}},
		{&overview.ApprovedTransactions, []interface{}{"status = ?", models.TransactionStatusApproved}},
		{&overview.RejectedTransactions, []interface{}{"status = ?", models.TransactionStatusRejected}},
		{&overview.CompletedTransactions, []interface{}{"status = ?", models.TransactionStatusCompleted}},
		{&overview.Installations, []interface{}{"type = ?", models.TransactionTypeInstallation}},
		{&overview.Maintenance, []interface{}{"type = ?", models.TransactionTypeMaintenance}},
		{&overview.Returns, []interface{}{"type = ?", models.TransactionTypeReturn}},
		{&overview.Borrows, []interface{}{"type = ?", models.TransactionTypeBorrow}},
	}

	for _, count := range counts {
		query := tc.DB.Model(&models.Transaction{})
		if count.where != nil {
			query = query.Where(count.where[0], count.where[1:]...)
		}
		if err := query.Count(count.dest).Error; err != nil {
			return c.Status(500).JSON(TransactionStatsResponse{
				Success: false,
				Message: "Ошибка при получении статистики",
			})
		}
	}

	monthly, err := tc.monthlyStats()
	if err != nil {
		return c.Status(500).JSON(TransactionStatsResponse{
			Success: false,
			Message: "Ошибка при получении статистики",
		})
	}

	staffStats, err := tc.staffStats()
	if err != nil {
		return c.Status(500).JSON(TransactionStatsResponse{
			Success: false,
			Message: "Ошибка при получении статистики",
		})
	}

	return c.JSON(TransactionStatsResponse{
		Success: true,
		Data: &TransactionStatsData{
			Overview: overview,
			Monthly:  monthly,
			Staff:    staffStats,
		},
	})
}

// monthlyStats считает транзакции по месяцам за последние 12 месяцев.
// Группировка выполняется в Go, чтобы не зависеть от диалекта SQL
// (strftime в SQLite против date_trunc в PostgreSQL).
func (tc *TransactionController) monthlyStats() ([]MonthlyTransactionStat, error) {
	since := time.Now().AddDate(-1, 0, 0)

	var transactions []models.Transaction
	err := tc.DB.Select("type", "created_at").
		Where("created_at >= ?", since).
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	buckets := make(map[[2]string]int64)
	for _, transaction := range transactions {
		key := [2]string{transaction.CreatedAt.Format("2006-01"), transaction.Type}
		buckets[key]++
	}

	stats := make([]MonthlyTransactionStat, 0, len(buckets))
	for key, count := range buckets {
		stats = append(stats, MonthlyTransactionStat{Month: key[0], Type: key[1], Count: count})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Month != stats[j].Month {
			return stats[i].Month > stats[j].Month
		}
		return stats[i].Type < stats[j].Type
	})

	return stats, nil
}

// staffStats возвращает десять сотрудников с наибольшим числом транзакций
func (tc *TransactionController) staffStats() ([]StaffTransactionStat, error) {
	var staff []models.Staff
	if err := tc.DB.Where("is_active = ?", true).Find(&staff).Error; err != nil {
		return nil, err
	}

	stats := make([]StaffTransactionStat, 0, len(staff))
	for _, member := range staff {
		var stat StaffTransactionStat
		stat.StaffName = member.Name

		if err := tc.DB.Model(&models.Transaction{}).Where("staff_id = ?", member.ID).Count(&stat.TransactionCount).Error; err != nil {
			return nil, err
		}
		if err := tc.DB.Model(&models.Transaction{}).
			Where("staff_id = ? AND status = ?", member.ID, models.TransactionStatusCompleted).
			Count(&stat.CompletedCount).Error; err != nil {
			return nil, err
		}

		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].TransactionCount > stats[j].TransactionCount
	})
	if len(stats) > 10 {
		stats = stats[:10]
	}

	return stats, nil
}

// loadTransactionDetail загружает транзакцию со всеми связями
func (tc *TransactionController) loadTransactionDetail(id uint) (*TransactionDetail, error) {
	var transaction models.Transaction
	err := tc.DB.Preload("Staff").Preload("Customer").Preload("Approver").Preload("Items.StockItem").
		First(&transaction, id).Error
	if err != nil {
		return nil, err
	}

	detail := toTransactionDetail(transaction)
	return &detail, nil
}

// toTransactionDetail переводит модель в представление с денормализованными именами
func toTransactionDetail(transaction models.Transaction) TransactionDetail {
	detail := TransactionDetail{
		ID:         transaction.ID,
		Type:       transaction.Type,
		StaffID:    transaction.StaffID,
		StaffName:  transaction.Staff.Name,
		CustomerID: transaction.CustomerID,
		Status:     transaction.Status,
		Notes:      transaction.Notes,
		ApprovedBy: transaction.ApprovedBy,
		ApprovedAt: transaction.ApprovedAt,
		CreatedAt:  transaction.CreatedAt,
		Items:      make([]TransactionItemDetail, 0, len(transaction.Items)),
	}

	if transaction.Customer != nil {
		detail.CustomerName = transaction.Customer.Name
	}
	if transaction.Approver != nil {
		detail.ApprovedByName = transaction.Approver.Name
	}

	for _, item := range transaction.Items {
		detail.Items = append(detail.Items, TransactionItemDetail{
			ID:        item.ID,
			StockID:   item.StockID,
			StockName: item.StockItem.Name,
			Unit:      item.StockItem.Unit,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
		})
	}

	return detail
}
