package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/periodcalm/period-calm-website-sub000/config"
	"github.com/periodcalm/period-calm-website-sub000/controllers"
	"github.com/periodcalm/period-calm-website-sub000/models"
	"github.com/periodcalm/period-calm-website-sub000/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "testsecret"

func buildTestApp(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "app.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	tracker := services.NewCycleTracker(services.NewMemoryCycleStore(nil), 0, nil)
	hub := services.NewRealtimeHub()
	accounts := services.NewAuthService(db, testSecret, nil)
	r := SetupRouter(Deps{
		JWTSecret:   []byte(testSecret),
		CORSOrigins: []string{"http://localhost:3000"},
		Log:         zap.NewNop(),
		Accounts:    accounts,
		Auth:        controllers.NewAuthController(accounts),
		User:        controllers.NewUserController(services.NewUserService(db)),
		Device:      controllers.NewDeviceController(nil),
		Realtime:    controllers.NewRealtimeController(hub, []string{"http://localhost:3000"}),
		Cycle:       controllers.NewCycleController(tracker, services.NewExportService(tracker, nil)),
		Admin:       controllers.NewAdminController(services.NewAdminService(db)),
	})
	return r, db
}

func call(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	w := call(r, http.MethodPost, "/auth/login", "", `{"email":"`+email+`","password":"long enough"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct{ Token string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Token
}

func register(t *testing.T, r http.Handler, email string) {
	t.Helper()
	w := call(r, http.MethodPost, "/auth/register", "", `{"email":"`+email+`","password":"long enough","full_name":"Test"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := buildTestApp(t)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/healthz", "", "").Code)

	w := call(r, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestCustomerJourney(t *testing.T) {
	r, _ := buildTestApp(t)
	register(t, r, "ana@example.com")
	assert.Equal(t, http.StatusConflict, call(r, http.MethodPost, "/auth/register", "",
		`{"email":"ana@example.com","password":"long enough","full_name":"Dup"}`).Code)
	token := login(t, r, "ana@example.com")

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/cycle/records", "", "").Code)

	for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-29"} {
		w := call(r, http.MethodPut, "/cycle/records/"+d, token, `{"isPeriod":true}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w := call(r, http.MethodGet, "/cycle/prediction", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"nextPeriodDate":"2024-02-26"`)

	w = call(r, http.MethodPut, "/user/profile", token, `{"full_name":"Ana L","email_reminders":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email_reminders":true`)

	// push is not configured in this app
	assert.Equal(t, http.StatusServiceUnavailable, call(r, http.MethodPost, "/user/devices", token,
		`{"platform":"android","token":"abc"}`).Code)

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/admin/customers", token, "").Code)
}

func TestAdminEnvelope(t *testing.T) {
	r, db := buildTestApp(t)
	register(t, r, "boss@example.com")
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "boss@example.com").Update("role", models.RoleAdmin).Error)
	token := login(t, r, "boss@example.com")

	w := call(r, http.MethodPost, "/admin/products", token, `{"sku":"CALM-TEA","name":"Calm tea","price_cents":650}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(r, http.MethodGet, "/admin/products?per_page=5", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data []map[string]any `json:"data"`
		Meta struct {
			Page    int   `json:"page"`
			PerPage int   `json:"per_page"`
			Total   int64 `json:"total"`
		} `json:"meta"`
		Links map[string]any `json:"links"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "CALM-TEA", page.Data[0]["sku"])
	assert.Equal(t, 1, page.Meta.Page)
	assert.Equal(t, 5, page.Meta.PerPage)
	assert.Equal(t, int64(1), page.Meta.Total)
	assert.NotNil(t, page.Links)

	w = call(r, http.MethodGet, "/admin/invoices", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"not_found"`)

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/admin/products?sort=password", token, "").Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/admin/products/abc", token, "").Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodDelete, "/admin/products/99", token, "").Code)

	w = call(r, http.MethodPost, "/admin/products", token, `{"sku":"CALM-TEA","name":"Calm tea again"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"conflict"`)
}

func TestAdminAccessFollowsStoredAccount(t *testing.T) {
	r, db := buildTestApp(t)
	register(t, r, "boss@example.com")
	boss := db.Model(&models.User{}).Where("email = ?", "boss@example.com")
	require.NoError(t, boss.Update("role", models.RoleAdmin).Error)
	token := login(t, r, "boss@example.com")
	require.Equal(t, http.StatusOK, call(r, http.MethodGet, "/admin", token, "").Code)

	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "boss@example.com").Update("role", models.RoleCustomer).Error)
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/admin", token, "").Code)

	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "boss@example.com").Updates(map[string]any{
		"role":     models.RoleAdmin,
		"disabled": true,
	}).Error)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/admin", token, "").Code)
}
