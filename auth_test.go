package main

import (
	"testing"

	"isp-inventory-backend/models"
	"isp-inventory-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefaultsToTechnician(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)

	req := jsonRequest("POST", "/api/auth/register", map[string]interface{}{
		"name":     "Новый Сотрудник",
		"email":    "new@test.com",
		"password": "secret123",
	}, "")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	body := decodeBody(resp)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])

	user := data["user"].(map[string]interface{})
	assert.Equal(t, "technician", user["role"])

	// Хэш пароля не попадает в ответ
	_, hasHash := user["password_hash"]
	assert.False(t, hasHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	createTestUser(db, "taken@test.com", models.RoleTechnician)

	req := jsonRequest("POST", "/api/auth/register", map[string]interface{}{
		"name":     "Дубликат",
		"email":    "taken@test.com",
		"password": "secret123",
	}, "")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)

	req := jsonRequest("POST", "/api/auth/register", map[string]interface{}{
		"name":     "A",
		"email":    "not-an-email",
		"password": "123",
	}, "")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	message := decodeBody(resp)["message"].(string)
	assert.Contains(t, message, "name")
	assert.Contains(t, message, "email")
	assert.Contains(t, message, "password")
}

func TestLoginSuccess(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	createTestUser(db, "user@test.com", models.RoleTechnician)

	req := jsonRequest("POST", "/api/auth/login", map[string]interface{}{
		"email":    "user@test.com",
		"password": "password123",
	}, "")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeBody(resp)["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
}

func TestLoginWrongPassword(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	createTestUser(db, "user@test.com", models.RoleTechnician)

	req := jsonRequest("POST", "/api/auth/login", map[string]interface{}{
		"email":    "user@test.com",
		"password": "wrong-password",
	}, "")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestLoginInactiveAccount(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	user, _ := createTestUser(db, "user@test.com", models.RoleTechnician)
	db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false)

	req := jsonRequest("POST", "/api/auth/login", map[string]interface{}{
		"email":    "user@test.com",
		"password": "password123",
	}, "")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestMeReturnsCurrentUser(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)
	user, token := createTestUser(db, "user@test.com", models.RoleSupervisor)

	resp, err := app.Test(jsonRequest("GET", "/api/auth/me", nil, token), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeBody(resp)["data"].(map[string]interface{})
	assert.Equal(t, user.Email, data["email"])
	assert.Equal(t, "supervisor", data["role"])
}

func TestConfiguredJWTSecret(t *testing.T) {
	defer utils.SetJWTSecret("")

	utils.SetJWTSecret("configured-secret")
	token, err := utils.GenerateJWT(1, "user@test.com", models.RoleAdmin)
	require.NoError(t, err)

	claims, err := utils.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)

	// После смены ключа старый токен не проходит проверку
	utils.SetJWTSecret("rotated-secret")
	_, err = utils.ValidateJWT(token)
	assert.Error(t, err)
}

func TestMeRequiresToken(t *testing.T) {
	db := setupTestDB()
	app := setupTestApp(db)

	resp, err := app.Test(jsonRequest("GET", "/api/auth/me", nil, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}
