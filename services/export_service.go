package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/periodcalm/period-calm-website-sub000/models"
)

// Uploader stores an export and returns a URL the customer can download from.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

var exportSymptomColumns = map[string]string{
	"cramps":            "cramps",
	"headache":          "headache",
	"acne":              "acne",
	"mood swings":       "mood_swings",
	"bloating":          "bloating",
	"fatigue":           "fatigue",
	"breast tenderness": "breast_tenderness",
	"back pain":         "back_pain",
	"nausea":            "nausea",
	"spotting":          "spotting",
	"irritability":      "irritability",
	"insomnia":          "insomnia",
	"food cravings":     "food_cravings",
	"diarrhea":          "diarrhea",
	"constipation":      "constipation",
}

var exportBaseColumns = []string{
	"date", "is_period", "flow", "mood", "temperature", "weight",
	"sleep_hours", "water_glasses", "exercised", "sexual_activity", "notes",
}

// exportSymptomColumn maps a symptom id onto its CSV column; ids outside the
// catalog land in "other".
func exportSymptomColumn(id string) string {
	key := strings.ToLower(strings.TrimSpace(id))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	if col, ok := exportSymptomColumns[key]; ok {
		return col
	}
	return "other"
}

// BuildCSV renders one row per date, oldest first. Catalog symptoms get a
// column holding the severity; unknown ones are listed by id under "other".
func BuildCSV(records models.RecordMap) ([]byte, error) {
	dates := make([]string, 0, len(records))
	used := map[string]bool{}
	for d, r := range records {
		dates = append(dates, d)
		for _, s := range r.Symptoms {
			if col := exportSymptomColumn(s.ID); col != "other" {
				used[col] = true
			}
		}
	}
	sort.Strings(dates)

	symptomCols := make([]string, 0, len(used))
	for c := range used {
		symptomCols = append(symptomCols, c)
	}
	sort.Strings(symptomCols)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := append(append(append([]string{}, exportBaseColumns...), symptomCols...), "other")
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, d := range dates {
		r := records[d]
		severity := map[string]int{}
		var other []string
		for _, s := range r.Symptoms {
			col := exportSymptomColumn(s.ID)
			if col == "other" {
				other = append(other, s.ID)
				continue
			}
			severity[col] = max(severity[col], s.Severity)
		}

		row := []string{
			d,
			strconv.FormatBool(r.IsPeriod),
			string(r.Flow),
			string(r.Mood),
			formatFloat(r.Temperature),
			formatFloat(r.Weight),
			formatFloat(r.SleepHours),
			formatInt(r.WaterGlasses),
			strconv.FormatBool(r.Exercised),
			strconv.FormatBool(r.SexualActivity),
			r.Notes,
		}
		for _, c := range symptomCols {
			if v, ok := severity[c]; ok {
				row = append(row, strconv.Itoa(v))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, strings.Join(other, ";"))
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

type ExportResult struct {
	Filename string `json:"filename"`
	Rows     int    `json:"rows"`
	URL      string `json:"url,omitempty"`
	CSV      []byte `json:"-"`
}

type ExportService struct {
	tracker  *CycleTracker
	uploader Uploader
	now      func() time.Time
}

// NewExportService returns inline exports when uploader is nil.
func NewExportService(tracker *CycleTracker, uploader Uploader) *ExportService {
	return &ExportService{tracker: tracker, uploader: uploader, now: time.Now}
}

func (s *ExportService) Export(ctx context.Context, owner string) (*ExportResult, error) {
	records, err := s.tracker.Records(ctx, owner)
	if err != nil {
		return nil, err
	}
	data, err := BuildCSV(records)
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	res := &ExportResult{
		Filename: fmt.Sprintf("cycle-records-%s.csv", s.now().UTC().Format("20060102-150405")),
		Rows:     len(records),
		CSV:      data,
	}
	if s.uploader == nil {
		return res, nil
	}
	url, err := s.uploader.Upload(ctx, "exports/"+owner+"/"+res.Filename, "text/csv", data)
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	res.URL = url
	return res, nil
}
