package main

import (
	"fmt"
	"testing"

	"isp-inventory-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStockItem(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)

	req := jsonRequest("POST", "/api/stock", map[string]interface{}{
		"name":      "Mikrotik hAP ac2",
		"category":  "router",
		"brand":     "Mikrotik",
		"model":     "RBD52G",
		"quantity":  20,
		"min_stock": 5,
		"unit":      "pcs",
		"location":  "Склад А",
		"price":     55.0,
	}, token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	data := decodeBody(resp)["data"].(map[string]interface{})
	assert.Equal(t, "Mikrotik hAP ac2", data["name"])
	assert.Equal(t, float64(20), data["quantity"])
}

func TestCreateStockItemRequiresManagerRole(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "tech@test.com", models.RoleTechnician)

	req := jsonRequest("POST", "/api/stock", map[string]interface{}{
		"name":     "Router",
		"category": "router",
		"brand":    "X",
		"model":    "Y",
		"unit":     "pcs",
		"location": "Склад А",
	}, token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestCreateStockItemInvalidCategory(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)

	req := jsonRequest("POST", "/api/stock", map[string]interface{}{
		"name":     "Оборудование",
		"category": "spaceship",
		"brand":    "X",
		"model":    "Y",
		"unit":     "pcs",
		"location": "Склад А",
	}, token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, decodeBody(resp)["message"], "category")
}

func TestStockListFilters(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "tech@test.com", models.RoleTechnician)

	createTestStockItem(db, "Router Alpha", 10, 2)
	createTestStockItem(db, "Router Beta", 1, 5)
	cable := models.StockItem{Name: "UTP Cable", Category: models.CategoryCable, Brand: "CommScope", Model: "Cat6", Quantity: 500, MinStock: 100, Unit: "m", Location: "Склад А"}
	db.Create(&cable)

	resp, err := app.Test(jsonRequest("GET", "/api/stock?category=router", nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeBody(resp)["data"].(map[string]interface{})
	assert.Len(t, data["items"].([]interface{}), 2)

	resp, err = app.Test(jsonRequest("GET", "/api/stock?search=Beta", nil, token), -1)
	require.NoError(t, err)
	data = decodeBody(resp)["data"].(map[string]interface{})
	assert.Len(t, data["items"].([]interface{}), 1)

	resp, err = app.Test(jsonRequest("GET", "/api/stock?low_stock=true", nil, token), -1)
	require.NoError(t, err)
	data = decodeBody(resp)["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Router Beta", items[0].(map[string]interface{})["name"])
}

func TestLowStockEndpoint(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "tech@test.com", models.RoleTechnician)

	createTestStockItem(db, "Router Alpha", 10, 2)
	createTestStockItem(db, "Router Beta", 2, 5)
	createTestStockItem(db, "Router Gamma", 5, 5)

	resp, err := app.Test(jsonRequest("GET", "/api/stock/low-stock", nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// Остаток ниже и равный порогу считаются низкими
	items := decodeBody(resp)["data"].([]interface{})
	assert.Len(t, items, 2)
}

func TestAdjustQuantity(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	item := createTestStockItem(db, "Router X", 10, 2)

	resp, err := app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/stock/%d/quantity", item.ID), map[string]interface{}{
		"operation": "add",
		"quantity":  5,
		"reason":    "Поступление от поставщика",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeBody(resp)["data"].(map[string]interface{})
	assert.Equal(t, float64(15), data["quantity"])

	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/stock/%d/quantity", item.ID), map[string]interface{}{
		"operation": "subtract",
		"quantity":  3,
		"reason":    "Списание брака",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data = decodeBody(resp)["data"].(map[string]interface{})
	assert.Equal(t, float64(12), data["quantity"])
}

func TestAdjustQuantitySubtractToZero(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	item := createTestStockItem(db, "Router X", 5, 1)

	// Списание ровно до нуля проходит, остаток отрицательным не становится
	resp, err := app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/stock/%d/quantity", item.ID), map[string]interface{}{
		"operation": "subtract",
		"quantity":  5,
		"reason":    "Выдача последних единиц",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeBody(resp)["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["quantity"])

	// Следующее списание упирается в предикат остатка
	resp, err = app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/stock/%d/quantity", item.ID), map[string]interface{}{
		"operation": "subtract",
		"quantity":  1,
		"reason":    "Списание при нулевом остатке",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	var stock models.StockItem
	db.First(&stock, item.ID)
	assert.Equal(t, 0, stock.Quantity)
}

func TestAdjustQuantityInsufficient(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	item := createTestStockItem(db, "Router X", 2, 1)

	resp, err := app.Test(jsonRequest("PATCH", fmt.Sprintf("/api/stock/%d/quantity", item.ID), map[string]interface{}{
		"operation": "subtract",
		"quantity":  5,
		"reason":    "Списание больше остатка",
	}, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	var stock models.StockItem
	db.First(&stock, item.ID)
	assert.Equal(t, 2, stock.Quantity)
}

func TestDeleteStockItemWithReferences(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "admin@test.com", models.RoleAdmin)
	staff := createTestStaff(db, "tech@test.com")
	item := createTestStockItem(db, "Router X", 10, 2)

	resp, err := app.Test(jsonRequest("POST", "/api/transactions", map[string]interface{}{
		"type":     "installation",
		"staff_id": staff.ID,
		"notes":    "Заявка, удерживающая позицию",
		"items": []map[string]interface{}{
			{"stock_id": item.ID, "quantity": 1},
		},
	}, token), -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	resp, err = app.Test(jsonRequest("DELETE", fmt.Sprintf("/api/stock/%d", item.ID), nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)

	var count int64
	db.Model(&models.StockItem{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeleteStockItemRequiresAdmin(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	_, token := createTestUser(db, "sup@test.com", models.RoleSupervisor)
	item := createTestStockItem(db, "Router X", 10, 2)

	resp, err := app.Test(jsonRequest("DELETE", fmt.Sprintf("/api/stock/%d", item.ID), nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}
