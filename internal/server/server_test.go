package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agri-backend/internal/config"
	"agri-backend/internal/server"
	"agri-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        "0",
			Env:         "test",
			CORSOrigins: []string{"http://localhost:3000"},
			Location:    time.UTC,
		},
		Database: config.DatabaseConfig{Driver: "sqlite"},
		JWT: config.JWTConfig{
			Secret:     "test-secret-that-is-at-least-32-characters",
			Expiration: time.Hour,
		},
	}
	return server.New(cfg, testutil.NewDB(t), zap.NewNop())
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m), string(b))
	return m
}

func decodeList(t *testing.T, b []byte) []map[string]any {
	t.Helper()
	var l []map[string]any
	require.NoError(t, json.Unmarshal(b, &l), string(b))
	return l
}

func registration(username string) map[string]any {
	return map[string]any{
		"username":         username,
		"email":            username + "@example.com",
		"first_name":       "Adjoa",
		"last_name":        "Dossou",
		"farming_type":     "mixed",
		"zone":             "Atlantique",
		"password":         "s3cure-pass",
		"password_confirm": "s3cure-pass",
	}
}

func register(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	status, body := call(t, app, http.MethodPost, "/api/auth/register", "", registration(username))
	require.Equal(t, http.StatusCreated, status, string(body))
	return decode(t, body)["token"].(string)
}

func login(t *testing.T, app *fiber.App, username, password string) (int, map[string]any) {
	t.Helper()
	status, body := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	})
	return status, decode(t, body)
}

func createCrop(t *testing.T, app *fiber.App, token, name string) uint {
	t.Helper()
	status, body := call(t, app, http.MethodPost, "/api/crops", token, map[string]any{
		"name":          name,
		"planted_on":    "2024-03-01",
		"quantity_sown": "10",
		"seed_cost":     "100",
		"labor_cost":    "150",
		"area":          "2",
		"zone":          "Atlantique",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	return uint(decode(t, body)["id"].(float64))
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", decode(t, body)["status"])

	status, body = call(t, app, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "agri_http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "adjoa")

	status, body := call(t, app, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "adjoa", decode(t, body)["username"])

	status, _ = call(t, app, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, resp := login(t, app, "adjoa", "s3cure-pass")
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodGet, "/api/auth/me", resp["token"].(string), nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "adjoa")

	mismatch := registration("kossi")
	mismatch["password_confirm"] = "something-else"
	status, body := call(t, app, http.MethodPost, "/api/auth/register", "", mismatch)
	require.Equal(t, http.StatusBadRequest, status)
	resp := decode(t, body)
	assert.Equal(t, "validation failed", resp["error"])
	assert.Contains(t, resp["fields"], "password_confirm")

	status, body = call(t, app, http.MethodPost, "/api/auth/register", "", registration("adjoa"))
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode(t, body)["fields"], "username")
}

func TestLoginFailuresLookAlike(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "adjoa")

	status, body := call(t, app, http.MethodPost, "/api/auth/register-admin", "", registration("root"))
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, "admin", decode(t, body)["role"])

	status, _ = call(t, app, http.MethodPost, "/api/auth/register-admin", "", registration("root2"))
	assert.Equal(t, http.StatusForbidden, status)

	_, adminLogin := login(t, app, "root", "s3cure-pass")
	adminToken := adminLogin["token"].(string)

	// adjoa registered first and has id 1
	status, body = call(t, app, http.MethodPut, "/api/admin/farmers/1/status", adminToken, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, false, decode(t, body)["is_active"])

	cases := []struct {
		name, username, password string
	}{
		{"unknown user", "nobody", "s3cure-pass"},
		{"wrong password", "root", "wrong-password"},
		{"inactive account", "adjoa", "s3cure-pass"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, resp := login(t, app, tc.username, tc.password)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, map[string]any{"error": "invalid credentials"}, resp)
		})
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "adjoa")

	status, _ := call(t, app, http.MethodGet, "/api/admin/farmers", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, http.MethodGet, "/api/crops", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCropOwnership(t *testing.T) {
	app := newTestApp(t)
	alice := register(t, app, "adjoa")
	bob := register(t, app, "kossi")

	cropID := createCrop(t, app, alice, "Maize")

	harvest := map[string]any{
		"crop_id":      cropID,
		"harvested_on": "2024-07-01",
		"quantity":     "10",
		"unit_price":   "5",
	}
	status, body := call(t, app, http.MethodPost, "/api/harvests", bob, harvest)
	require.Equal(t, http.StatusBadRequest, status)
	foreign := decode(t, body)["fields"].(map[string]any)["crop_id"]

	harvest["crop_id"] = 9999
	status, body = call(t, app, http.MethodPost, "/api/harvests", bob, harvest)
	require.Equal(t, http.StatusBadRequest, status)
	unknown := decode(t, body)["fields"].(map[string]any)["crop_id"]

	assert.NotEqual(t, foreign, unknown)

	status, body = call(t, app, http.MethodGet, fmt.Sprintf("/api/crops/%d", cropID), bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "crop not found", decode(t, body)["error"])

	status, body = call(t, app, http.MethodGet, "/api/crops", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decodeList(t, body))
}

func TestCropDerivedValues(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "adjoa")
	cropID := createCrop(t, app, token, "Maize")

	for _, h := range []map[string]any{
		{"crop_id": cropID, "harvested_on": "2024-07-01", "quantity": "10", "unit_price": "5"},
		{"crop_id": cropID, "harvested_on": "2024-08-01", "quantity": "2", "unit_price": "100", "linked_expenses": "210"},
	} {
		status, body := call(t, app, http.MethodPost, "/api/harvests", token, h)
		require.Equal(t, http.StatusCreated, status, string(body))
	}

	status, body := call(t, app, http.MethodGet, "/api/crops?name=mai", token, nil)
	require.Equal(t, http.StatusOK, status)
	list := decodeList(t, body)
	require.Len(t, list, 1)
	assert.Equal(t, "250.00", list[0]["total_initial_cost"])
	assert.Equal(t, "6.00", list[0]["yield_per_area"])
	assert.Equal(t, "250.00", list[0]["total_revenue"])
	assert.Equal(t, float64(2), list[0]["harvest_count"])

	status, body = call(t, app, http.MethodGet, "/api/harvests?crop_id="+fmt.Sprint(cropID)+"&from=2024-08-01", token, nil)
	require.Equal(t, http.StatusOK, status)
	harvests := decodeList(t, body)
	require.Len(t, harvests, 1)
	assert.Equal(t, "200.00", harvests[0]["revenue"])
	assert.Equal(t, "-10.00", harvests[0]["net_profit"])
	assert.Equal(t, "Maize", harvests[0]["crop_name"])
}

func TestAdvisoryReadFlag(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "adjoa")

	status, body := call(t, app, http.MethodPost, "/api/advisories", token, map[string]any{
		"title": "Apply fertilizer",
		"body":  "Top dress maize before the rains.",
		"type":  "crop",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	created := decode(t, body)
	id := uint(created["id"].(float64))
	assert.Equal(t, "medium", created["priority"])
	assert.Equal(t, false, created["is_read"])

	path := fmt.Sprintf("/api/advisories/%d", id)
	for i := 0; i < 2; i++ {
		status, body = call(t, app, http.MethodPatch, path+"/read", token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, decode(t, body)["is_read"])
	}

	status, body = call(t, app, http.MethodPatch, path, token, map[string]any{"title": "Apply NPK", "is_read": false})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, decode(t, body)["is_read"])

	status, body = call(t, app, http.MethodGet, "/api/advisories?read=false", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decodeList(t, body))

	status, body = call(t, app, http.MethodPatch, path+"/unread", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, decode(t, body)["is_read"])

	status, body = call(t, app, http.MethodGet, "/api/activity?entity_type=advisory", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeList(t, body), 5)
}

func TestDeleteCropCascades(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "adjoa")
	cropID := createCrop(t, app, token, "Maize")

	status, body := call(t, app, http.MethodPost, "/api/harvests", token, map[string]any{
		"crop_id": cropID, "harvested_on": "2024-07-01", "quantity": "10", "unit_price": "5",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	harvestID := uint(decode(t, body)["id"].(float64))

	for _, e := range []map[string]any{
		{"crop_id": cropID, "description": "Urea", "category": "fertilizer", "amount": "40", "spent_on": "2024-04-01"},
		{"description": "Diesel", "category": "fuel", "amount": "15.50", "spent_on": "2024-04-02"},
	} {
		status, body := call(t, app, http.MethodPost, "/api/expenses", token, e)
		require.Equal(t, http.StatusCreated, status, string(body))
	}

	status, _ = call(t, app, http.MethodDelete, fmt.Sprintf("/api/crops/%d", cropID), token, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = call(t, app, http.MethodGet, fmt.Sprintf("/api/harvests/%d", harvestID), token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = call(t, app, http.MethodGet, "/api/expenses", token, nil)
	require.Equal(t, http.StatusOK, status)
	expenses := decodeList(t, body)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Diesel", expenses[0]["description"])
}

func TestCreateCropValidation(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "adjoa")

	status, body := call(t, app, http.MethodPost, "/api/crops", token, map[string]any{
		"name":       "Maize",
		"planted_on": "01/03/2024",
		"area":       "0",
	})
	require.Equal(t, http.StatusBadRequest, status)
	fields := decode(t, body)["fields"].(map[string]any)
	for _, f := range []string{"planted_on", "area", "quantity_sown", "zone"} {
		assert.Contains(t, fields, f)
	}
}

func TestUpdatesRejectBlankText(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "adjoa")
	cropID := createCrop(t, app, token, "Maize")

	status, body := call(t, app, http.MethodPost, "/api/expenses", token, map[string]any{
		"description": "Diesel", "category": "fuel", "amount": "15.50", "spent_on": "2024-04-02",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	expenseID := uint(decode(t, body)["id"].(float64))

	status, body = call(t, app, http.MethodPost, "/api/harvests", token, map[string]any{
		"crop_id": cropID, "harvested_on": "2024-07-01", "quantity": "10", "unit_price": "5",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	harvestID := uint(decode(t, body)["id"].(float64))

	tests := []struct {
		path  string
		body  map[string]any
		field string
	}{
		{fmt.Sprintf("/api/expenses/%d", expenseID), map[string]any{"description": "   "}, "description"},
		{fmt.Sprintf("/api/harvests/%d", harvestID), map[string]any{"unit": "  "}, "unit"},
		{fmt.Sprintf("/api/crops/%d", cropID), map[string]any{"name": " \t "}, "name"},
	}
	for _, tt := range tests {
		status, body := call(t, app, http.MethodPatch, tt.path, token, tt.body)
		require.Equal(t, http.StatusBadRequest, status, tt.path)
		fields := decode(t, body)["fields"].(map[string]any)
		assert.Contains(t, fields, tt.field, tt.path)
	}

	status, body = call(t, app, http.MethodGet, fmt.Sprintf("/api/expenses/%d", expenseID), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Diesel", decode(t, body)["description"])

	status, body = call(t, app, http.MethodPatch, fmt.Sprintf("/api/expenses/%d", expenseID), token, map[string]any{
		"description": "  Diesel refill  ",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "Diesel refill", decode(t, body)["description"])
}

func TestMoneyAndQuantityMinimum(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "adjoa")
	cropID := createCrop(t, app, token, "Maize")

	status, body := call(t, app, http.MethodPost, "/api/expenses", token, map[string]any{
		"description": "Twine", "category": "other", "amount": "0.001", "spent_on": "2024-04-02",
	})
	require.Equal(t, http.StatusBadRequest, status, string(body))
	assert.Equal(t, "must be at least 0.01", decode(t, body)["fields"].(map[string]any)["amount"])

	status, body = call(t, app, http.MethodPost, "/api/harvests", token, map[string]any{
		"crop_id": cropID, "harvested_on": "2024-07-01", "quantity": "0.001", "unit_price": "5",
	})
	require.Equal(t, http.StatusBadRequest, status, string(body))
	assert.Contains(t, decode(t, body)["fields"].(map[string]any), "quantity")

	status, body = call(t, app, http.MethodPost, "/api/expenses", token, map[string]any{
		"description": "Twine", "category": "other", "amount": "0.01", "spent_on": "2024-04-02",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	created := decode(t, body)
	assert.Equal(t, "0.01", created["amount"])

	status, body = call(t, app, http.MethodPatch, fmt.Sprintf("/api/expenses/%d", uint(created["id"].(float64))), token, map[string]any{
		"amount": "0.004",
	})
	require.Equal(t, http.StatusBadRequest, status, string(body))
	assert.Contains(t, decode(t, body)["fields"].(map[string]any), "amount")
}

func TestExpenseCategoryValidation(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "adjoa")

	status, body := call(t, app, http.MethodPost, "/api/expenses", token, map[string]any{
		"description": "Tractor", "category": "tractors", "amount": "10", "spent_on": "2024-04-02",
	})
	require.Equal(t, http.StatusBadRequest, status, string(body))
	assert.Equal(t,
		"must be one of: seeds, fertilizer, pesticides, equipment, fuel, transport, labor, irrigation, storage, other",
		decode(t, body)["fields"].(map[string]any)["category"])

	status, _ = call(t, app, http.MethodGet, "/api/expenses?category=tractors", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodGet, "/api/expenses?category=irrigation", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestDashboard(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "adjoa")
	cropID := createCrop(t, app, token, "Maize")
	today := time.Now().UTC().Format("2006-01-02")

	for _, h := range []map[string]any{
		{"crop_id": cropID, "harvested_on": today, "quantity": "10", "unit_price": "5", "linked_expenses": "10"},
		{"crop_id": cropID, "harvested_on": today, "quantity": "2", "unit_price": "100"},
	} {
		status, body := call(t, app, http.MethodPost, "/api/harvests", token, h)
		require.Equal(t, http.StatusCreated, status, string(body))
	}
	status, body := call(t, app, http.MethodPost, "/api/expenses", token, map[string]any{
		"description": "Diesel", "category": "fuel", "amount": "40", "spent_on": today,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = call(t, app, http.MethodGet, "/api/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	stats := decode(t, body)
	assert.Equal(t, float64(1), stats["total_crops"])
	assert.Equal(t, float64(2), stats["total_harvests"])
	assert.Equal(t, "250.00", stats["total_revenue"])
	assert.Equal(t, "300.00", stats["total_expenses"])
	assert.Equal(t, "-50.00", stats["net_profit"])
	assert.Equal(t, "Maize", stats["most_profitable_crop"])
	assert.Equal(t, float64(6), stats["average_yield"])
	assert.Equal(t, float64(0), stats["unread_advisories"])

	status, body = call(t, app, http.MethodGet, "/api/dashboard/charts", token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var charts struct {
		MonthlyRevenue []struct {
			Month   string  `json:"month"`
			Revenue float64 `json:"revenue"`
		} `json:"monthly_revenue"`
		ExpensesByCategory []struct {
			Category string  `json:"category"`
			Total    float64 `json:"total"`
		} `json:"expenses_by_category"`
	}
	require.NoError(t, json.Unmarshal(body, &charts))
	require.Len(t, charts.MonthlyRevenue, 12)
	assert.Equal(t, today[:7], charts.MonthlyRevenue[11].Month)
	assert.Equal(t, 250.0, charts.MonthlyRevenue[11].Revenue)
	require.Len(t, charts.ExpensesByCategory, 1)
	assert.Equal(t, "fuel", charts.ExpensesByCategory[0].Category)
}

func TestHistoryExport(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "adjoa")
	createCrop(t, app, token, "Maize")

	req := httptest.NewRequest(http.MethodGet, "/api/history/export?format=xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Disposition"), "attachment;"))

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("History")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Crop: Maize", rows[1][2])

	status, _ := call(t, app, http.MethodGet, "/api/history/export?format=pdf", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteAccount(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "adjoa")
	createCrop(t, app, token, "Maize")

	status, _ := call(t, app, http.MethodDelete, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, resp := login(t, app, "adjoa", "s3cure-pass")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", resp["error"])
}

func TestAdminFarmerManagement(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "adjoa")

	status, body := call(t, app, http.MethodPost, "/api/auth/register-admin", "", registration("root"))
	require.Equal(t, http.StatusCreated, status, string(body))
	_, adminLogin := login(t, app, "root", "s3cure-pass")
	adminToken := adminLogin["token"].(string)

	status, body = call(t, app, http.MethodGet, "/api/admin/farmers", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeList(t, body), 2)

	status, body = call(t, app, http.MethodPost, "/api/admin/farmers/1/advisories", adminToken, map[string]any{
		"title":    "Rain expected",
		"body":     "Delay the fertilizer application.",
		"priority": "high",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, _ = call(t, app, http.MethodPost, "/api/admin/farmers/99/advisories", adminToken, map[string]any{
		"title": "x", "body": "y",
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, app, http.MethodPut, "/api/admin/farmers/2/status", adminToken, map[string]any{"is_active": false})
	assert.Equal(t, http.StatusBadRequest, status)

	_, farmerLogin := login(t, app, "adjoa", "s3cure-pass")
	status, body = call(t, app, http.MethodGet, "/api/advisories?priority=high&active=true", farmerLogin["token"].(string), nil)
	require.Equal(t, http.StatusOK, status)
	list := decodeList(t, body)
	require.Len(t, list, 1)
	assert.Equal(t, "Rain expected", list[0]["title"])

	status, body = call(t, app, http.MethodGet, "/api/dashboard/stats", farmerLogin["token"].(string), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), decode(t, body)["unread_advisories"])
}
