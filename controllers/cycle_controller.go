package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/periodcalm/period-calm-website-sub000/models"
	"github.com/periodcalm/period-calm-website-sub000/services"

	"github.com/gin-gonic/gin"
)

const (
	maxTopSymptoms = 20
	maxImportBytes = 5 << 20
)

type CycleController struct {
	Tracker *services.CycleTracker
	Export  *services.ExportService
	Now     func() time.Time
}

func NewCycleController(tracker *services.CycleTracker, export *services.ExportService) *CycleController {
	return &CycleController{Tracker: tracker, Export: export, Now: time.Now}
}

// GET /cycle/records
func (cc *CycleController) ListRecords(c *gin.Context) {
	records, err := cc.Tracker.Records(c.Request.Context(), ownerFromCtx(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// PUT /cycle/records/:date
func (cc *CycleController) SaveRecord(c *gin.Context) {
	var patch models.CycleRecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	date := c.Param("date")
	rec, err := cc.Tracker.Upsert(c.Request.Context(), ownerFromCtx(c), date, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "record": rec})
}

// DELETE /cycle/records/:date
func (cc *CycleController) DeleteRecord(c *gin.Context) {
	existed, err := cc.Tracker.Delete(c.Request.Context(), ownerFromCtx(c), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !existed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no record for that date"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /cycle/prediction
// Too little history is a normal state for new customers, so it is a 200
// with available=false rather than an error.
func (cc *CycleController) Prediction(c *gin.Context) {
	p, err := cc.Tracker.Prediction(c.Request.Context(), ownerFromCtx(c))
	if errors.Is(err, services.ErrInsufficientData) {
		c.JSON(http.StatusOK, gin.H{
			"available": false,
			"message":   "Log at least two periods to see predictions.",
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	today := cc.Now()
	c.JSON(http.StatusOK, gin.H{
		"available":           true,
		"prediction":          p,
		"phase":               p.PhaseOn(today),
		"daysUntilNextPeriod": p.DaysUntilNextPeriod(today),
	})
}

// GET /cycle/insights?top=N
func (cc *CycleController) Insights(c *gin.Context) {
	top := services.DefaultTopSymptoms
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "top must be an integer"})
			return
		}
		top = min(max(n, 1), maxTopSymptoms)
	}

	ins, err := cc.Tracker.Insights(c.Request.Context(), ownerFromCtx(c), top)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ins)
}

// POST /cycle/export
func (cc *CycleController) ExportCSV(c *gin.Context) {
	res, err := cc.Export.Export(c.Request.Context(), ownerFromCtx(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if res.URL != "" {
		c.JSON(http.StatusOK, res)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", res.CSV)
}

// POST /cycle/import?replace=true
func (cc *CycleController) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too_large", "message": "import file is too large"})
		return
	}
	replace, _ := strconv.ParseBool(c.DefaultQuery("replace", "false"))

	n, err := cc.Tracker.Import(c.Request.Context(), ownerFromCtx(c), body, replace)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n, "replaced": replace})
}
