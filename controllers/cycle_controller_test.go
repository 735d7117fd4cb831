package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/periodcalm/period-calm-website-sub000/models"
	"github.com/periodcalm/period-calm-website-sub000/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCycleRouter(t *testing.T) (*gin.Engine, *services.CycleTracker) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tracker := services.NewCycleTracker(services.NewMemoryCycleStore(nil), 0, nil)
	cc := NewCycleController(tracker, services.NewExportService(tracker, nil))
	cc.Now = func() time.Time { return time.Date(2024, 2, 12, 9, 0, 0, 0, time.UTC) }

	r := gin.New()
	g := r.Group("/cycle", func(c *gin.Context) { c.Set("userID", uint(7)); c.Next() })
	g.GET("/records", cc.ListRecords)
	g.PUT("/records/:date", cc.SaveRecord)
	g.DELETE("/records/:date", cc.DeleteRecord)
	g.GET("/prediction", cc.Prediction)
	g.GET("/insights", cc.Insights)
	g.POST("/export", cc.ExportCSV)
	g.POST("/import", cc.Import)
	return r, tracker
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestSaveRecordMergesAndScopesToOwner(t *testing.T) {
	r, tracker := newCycleRouter(t)

	w := do(r, http.MethodPut, "/cycle/records/2024-01-01", `{"isPeriod":true,"flow":"heavy","symptoms":["cramps",{"id":"headache","severity":3}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPut, "/cycle/records/2024-01-01", `{"mood":"bad"}`)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode(t, w)["record"].(map[string]any)
	assert.Equal(t, true, rec["isPeriod"])
	assert.Equal(t, "heavy", rec["flow"])
	assert.Equal(t, "bad", rec["mood"])
	assert.Len(t, rec["symptoms"], 2)

	stored, err := tracker.Records(context.Background(), models.OwnerKey(7))
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSaveRecordRejectsBadInput(t *testing.T) {
	r, _ := newCycleRouter(t)

	w := do(r, http.MethodPut, "/cycle/records/2024-13-01", `{"isPeriod":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_date", decode(t, w)["error"])

	w = do(r, http.MethodPut, "/cycle/records/2024-01-01", `{"flow":"torrential"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPut, "/cycle/records/2024-01-01", `{"isPeriod":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteRecord(t *testing.T) {
	r, _ := newCycleRouter(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/cycle/records/2024-01-01", `{"isPeriod":true}`).Code)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/cycle/records/2024-01-01", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/cycle/records/2024-01-01", "").Code)
}

func TestPredictionEndpoint(t *testing.T) {
	r, _ := newCycleRouter(t)

	w := do(r, http.MethodGet, "/cycle/prediction", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["available"])

	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/cycle/records/2024-01-01", `{"isPeriod":true}`).Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/cycle/records/2024-01-29", `{"isPeriod":true}`).Code)

	w = do(r, http.MethodGet, "/cycle/prediction", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["available"])
	assert.Equal(t, "ovulation", body["phase"])
	assert.Equal(t, float64(14), body["daysUntilNextPeriod"])
	pred := body["prediction"].(map[string]any)
	assert.Equal(t, "2024-02-26", pred["nextPeriodDate"])
	assert.Equal(t, map[string]any{"start": "2024-02-07", "end": "2024-02-13"}, pred["fertileWindow"])
}

func TestInsightsEndpoint(t *testing.T) {
	r, _ := newCycleRouter(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/cycle/records/2024-01-01", `{"mood":"great","symptoms":["cramps","acne"]}`).Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/cycle/records/2024-01-02", `{"mood":"terrible","symptoms":["cramps"]}`).Code)

	w := do(r, http.MethodGet, "/cycle/insights?top=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(3), body["averageMoodScore"])
	top := body["topSymptoms"].([]any)
	require.Len(t, top, 1)
	assert.Equal(t, "cramps", top[0].(map[string]any)["symptomId"])

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/cycle/insights?top=lots", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/cycle/insights?top=500", "").Code)
}

func TestExportInlineCSV(t *testing.T) {
	r, _ := newCycleRouter(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/cycle/records/2024-01-01", `{"isPeriod":true}`).Code)

	w := do(r, http.MethodPost, "/cycle/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "2024-01-01,true")
}

func TestImportEndpoint(t *testing.T) {
	r, _ := newCycleRouter(t)

	w := do(r, http.MethodPost, "/cycle/import", `{"2024-01-01":{"isPeriod":true},"2024-01-29":{"isPeriod":true}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode(t, w)["imported"])

	w = do(r, http.MethodGet, "/cycle/records", "")
	assert.Len(t, decode(t, w)["records"], 2)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/cycle/import", `{"tomorrow":{}}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodPost, "/cycle/import", `[]`).Code)
}
