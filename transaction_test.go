package main

import (
	"fmt"
	"testing"

	"isp-inventory-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransactionSuccess(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	staff := createTestStaff(db, "tech@test.com")
	item := createTestStockItem(db, "Router X", 10, 2)

	req := jsonRequest("POST", "/api/transactions", map[string]interface{}{
		"type":     "installation",
		"staff_id": staff.ID,
		"notes":    "Монтаж у нового клиента",
		"items": []map[string]interface{}{
			{"stock_id": item.ID, "quantity": 5},
		},
	}, token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	body := decodeBody(resp)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "installation", data["type"])
	assert.Equal(t, staff.Name, data["staff_name"])

	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Router X", items[0].(map[string]interface{})["stock_name"])

	// Остаток при создании не меняется
	var stock models.StockItem
	db.First(&stock, item.ID)
	assert.Equal(t, 10, stock.Quantity)
}

func TestCreateTransactionInsufficientStock(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	staff := createTestStaff(db, "tech@test.com")
	available := createTestStockItem(db, "Router X", 10, 2)
	scarce := createTestStockItem(db, "Modem Y", 2, 1)

	req := jsonRequest("POST", "/api/transactions", map[string]interface{}{
		"type":     "installation",
		"staff_id": staff.ID,
		"notes":    "Монтаж с нехваткой остатка",
		"items": []map[string]interface{}{
			{"stock_id": available.ID, "quantity": 5},
			{"stock_id": scarce.ID, "quantity": 3},
		},
	}, token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	body := decodeBody(resp)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "Modem Y")

	// Атомарность: ни транзакция, ни позиции не сохранились
	var transactionCount, itemCount int64
	db.Model(&models.Transaction{}).Count(&transactionCount)
	db.Model(&models.TransactionItem{}).Count(&itemCount)
	assert.Equal(t, int64(0), transactionCount)
	assert.Equal(t, int64(0), itemCount)
}

func TestCreateTransactionInactiveStaff(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	staff := createTestStaff(db, "tech@test.com")
	item := createTestStockItem(db, "Router X", 10, 2)

	db.Model(&models.Staff{}).Where("id = ?", staff.ID).Update("is_active", false)

	req := jsonRequest("POST", "/api/transactions", map[string]interface{}{
		"type":     "installation",
		"staff_id": staff.ID,
		"notes":    "Заявка от уволенного сотрудника",
		"items": []map[string]interface{}{
			{"stock_id": item.ID, "quantity": 1},
		},
	}, token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, decodeBody(resp)["message"], "Сотрудник не найден")
}

func TestCreateTransactionValidationAggregatesErrors(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)

	// Нет типа, нет сотрудника, нет позиций, короткое примечание
	req := jsonRequest("POST", "/api/transactions", map[string]interface{}{
		"notes": "abc",
	}, token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	message := decodeBody(resp)["message"].(string)
	assert.Contains(t, message, "type")
	assert.Contains(t, message, "staff_id")
	assert.Contains(t, message, "items")
	assert.Contains(t, message, "notes")
}

func TestCreateReturnSkipsAvailabilityCheck(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	staff := createTestStaff(db, "tech@test.com")
	item := createTestStockItem(db, "Router X", 0, 2)

	req := jsonRequest("POST", "/api/transactions", map[string]interface{}{
		"type":     "return",
		"staff_id": staff.ID,
		"notes":    "Возврат оборудования после демонтажа",
		"items": []map[string]interface{}{
			{"stock_id": item.ID, "quantity": 3},
		},
	}, token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
}

// approveHelper создает и подтверждает транзакцию указанного типа
func approveHelper(t *testing.T, transactionType string, startQuantity, transactionQuantity int) (int, string) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	staff := createTestStaff(db, "tech@test.com")
	item := createTestStockItem(db, "Router X", startQuantity, 2)

	req := jsonRequest("POST", "/api/transactions", map[string]interface{}{
		"type":     transactionType,
		"staff_id": staff.ID,
		"notes":    "Заявка для проверки остатков",
		"items": []map[string]interface{}{
			{"stock_id": item.ID, "quantity": transactionQuantity},
		},
	}, token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var transaction models.Transaction
	require.NoError(t, db.Order("id DESC").First(&transaction).Error)

	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/approve", transaction.ID), nil, token), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var stock models.StockItem
	db.First(&stock, item.ID)
	db.First(&transaction, transaction.ID)
	return stock.Quantity, transaction.Status
}

func TestApproveInstallationDecrementsStock(t *testing.T) {
	quantity, status := approveHelper(t, "installation", 10, 5)
	assert.Equal(t, 5, quantity)
	assert.Equal(t, "approved", status)
}

func TestApproveBorrowDecrementsStock(t *testing.T) {
	quantity, status := approveHelper(t, "borrow", 10, 4)
	assert.Equal(t, 6, quantity)
	assert.Equal(t, "approved", status)
}

func TestApproveReturnIncrementsStock(t *testing.T) {
	quantity, status := approveHelper(t, "return", 10, 3)
	assert.Equal(t, 13, quantity)
	assert.Equal(t, "approved", status)
}

func TestApproveMaintenanceKeepsStock(t *testing.T) {
	quantity, status := approveHelper(t, "maintenance", 10, 5)
	assert.Equal(t, 10, quantity)
	assert.Equal(t, "approved", status)
}

func TestApproveTransactionOnlyOnce(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	admin, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	staff := createTestStaff(db, "tech@test.com")
	item := createTestStockItem(db, "Router X", 10, 2)

	resp, err := app.Test(jsonRequest("POST", "/api/transactions", map[string]interface{}{
		"type":     "installation",
		"staff_id": staff.ID,
		"notes":    "Заявка для повторного подтверждения",
		"items": []map[string]interface{}{
			{"stock_id": item.ID, "quantity": 5},
		},
	}, token), -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var transaction models.Transaction
	require.NoError(t, db.Order("id DESC").First(&transaction).Error)

	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/approve", transaction.ID), nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// Повторное подтверждение не проходит и не списывает остаток второй раз
	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/approve", transaction.ID), nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	var stock models.StockItem
	db.First(&stock, item.ID)
	assert.Equal(t, 5, stock.Quantity)

	db.First(&transaction, transaction.ID)
	assert.Equal(t, "approved", transaction.Status)
	require.NotNil(t, transaction.ApprovedBy)
	assert.Equal(t, admin.ID, *transaction.ApprovedBy)
	assert.NotNil(t, transaction.ApprovedAt)
}

func TestRejectTransactionKeepsStock(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	staff := createTestStaff(db, "tech@test.com")
	item := createTestStockItem(db, "Router X", 10, 2)

	resp, err := app.Test(jsonRequest("POST", "/api/transactions", map[string]interface{}{
		"type":     "installation",
		"staff_id": staff.ID,
		"notes":    "Заявка на отклонение",
		"items": []map[string]interface{}{
			{"stock_id": item.ID, "quantity": 5},
		},
	}, token), -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var transaction models.Transaction
	require.NoError(t, db.Order("id DESC").First(&transaction).Error)

	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/reject", transaction.ID), nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var stock models.StockItem
	db.First(&stock, item.ID)
	assert.Equal(t, 10, stock.Quantity)

	// Отклоненную транзакцию нельзя подтвердить
	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/approve", transaction.ID), nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestCompleteRequiresApprovedStatus(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	staff := createTestStaff(db, "tech@test.com")
	item := createTestStockItem(db, "Router X", 10, 2)

	resp, err := app.Test(jsonRequest("POST", "/api/transactions", map[string]interface{}{
		"type":     "installation",
		"staff_id": staff.ID,
		"notes":    "Заявка для полного жизненного цикла",
		"items": []map[string]interface{}{
			{"stock_id": item.ID, "quantity": 5},
		},
	}, token), -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var transaction models.Transaction
	require.NoError(t, db.Order("id DESC").First(&transaction).Error)

	// pending нельзя завершить, минуя подтверждение
	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/complete", transaction.ID), nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/approve", transaction.ID), nil, token), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/complete", transaction.ID), nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// Завершение не трогает остаток: списание произошло при подтверждении
	var stock models.StockItem
	db.First(&stock, item.ID)
	assert.Equal(t, 5, stock.Quantity)

	db.First(&transaction, transaction.ID)
	assert.Equal(t, "completed", transaction.Status)

	// Повторное завершение не проходит
	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/complete", transaction.ID), nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestApproveRequiresManagerRole(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, adminToken := createTestUser(db, "admin@test.com", models.RoleAdmin)
	_, technicianToken := createTestUser(db, "tech-user@test.com", models.RoleTechnician)
	staff := createTestStaff(db, "tech@test.com")
	item := createTestStockItem(db, "Router X", 10, 2)

	resp, err := app.Test(jsonRequest("POST", "/api/transactions", map[string]interface{}{
		"type":     "installation",
		"staff_id": staff.ID,
		"notes":    "Заявка для проверки прав",
		"items": []map[string]interface{}{
			{"stock_id": item.ID, "quantity": 1},
		},
	}, adminToken), -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var transaction models.Transaction
	require.NoError(t, db.Order("id DESC").First(&transaction).Error)

	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/approve", transaction.ID), nil, technicianToken), -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/reject", transaction.ID), nil, technicianToken), -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	// Завершение тоже закрыто для техников, даже после подтверждения админом
	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/approve", transaction.ID), nil, adminToken), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/transactions/%d/complete", transaction.ID), nil, technicianToken), -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	var stored models.Transaction
	db.First(&stored, transaction.ID)
	assert.Equal(t, "approved", stored.Status)
}

func TestTransactionListFilters(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	staff := createTestStaff(db, "tech@test.com")
	item := createTestStockItem(db, "Router X", 100, 2)

	for _, transactionType := range []string{"installation", "maintenance", "installation"} {
		resp, err := app.Test(jsonRequest("POST", "/api/transactions", map[string]interface{}{
			"type":     transactionType,
			"staff_id": staff.ID,
			"notes":    "Заявка для фильтрации списка",
			"items": []map[string]interface{}{
				{"stock_id": item.ID, "quantity": 1},
			},
		}, token), -1)
		require.NoError(t, err)
		require.Equal(t, 201, resp.StatusCode)
	}

	resp, err := app.Test(jsonRequest("GET", "/api/transactions?type=installation", nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeBody(resp)["data"].(map[string]interface{})
	transactions := data["transactions"].([]interface{})
	assert.Len(t, transactions, 2)

	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total"])
}

func TestTransactionStats(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	staff := createTestStaff(db, "tech@test.com")
	item := createTestStockItem(db, "Router X", 100, 2)

	resp, err := app.Test(jsonRequest("POST", "/api/transactions", map[string]interface{}{
		"type":     "installation",
		"staff_id": staff.ID,
		"notes":    "Заявка для статистики",
		"items": []map[string]interface{}{
			{"stock_id": item.ID, "quantity": 1},
		},
	}, token), -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	resp, err = app.Test(jsonRequest("GET", "/api/transactions/stats/overview", nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeBody(resp)["data"].(map[string]interface{})
	overview := data["overview"].(map[string]interface{})
	assert.Equal(t, float64(1), overview["total_transactions"])
	assert.Equal(t, float64(1), overview["pending_transactions"])
	assert.Equal(t, float64(1), overview["installations"])

	monthly := data["monthly"].([]interface{})
	require.Len(t, monthly, 1)
	assert.Equal(t, "installation", monthly[0].(map[string]interface{})["type"])
}
