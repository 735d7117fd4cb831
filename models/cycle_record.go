package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the key format of a record map ("2024-01-29").
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date, use YYYY-MM-DD")

type Flow string

const (
	FlowSpotting  Flow = "spotting"
	FlowLight     Flow = "light"
	FlowMedium    Flow = "medium"
	FlowHeavy     Flow = "heavy"
	FlowVeryHeavy Flow = "very_heavy"
)

// Flows lists the flow levels from lightest to heaviest.
var Flows = []Flow{FlowSpotting, FlowLight, FlowMedium, FlowHeavy, FlowVeryHeavy}

func (f Flow) Valid() bool {
	for _, v := range Flows {
		if f == v {
			return true
		}
	}
	return false
}

type Mood string

const (
	MoodGreat    Mood = "great"
	MoodGood     Mood = "good"
	MoodOkay     Mood = "okay"
	MoodBad      Mood = "bad"
	MoodTerrible Mood = "terrible"
)

// Score maps a mood onto 1 (terrible) .. 5 (great). Unknown or empty moods score 0.
func (m Mood) Score() int {
	switch m {
	case MoodTerrible:
		return 1
	case MoodBad:
		return 2
	case MoodOkay:
		return 3
	case MoodGood:
		return 4
	case MoodGreat:
		return 5
	}
	return 0
}

func (m Mood) Valid() bool { return m.Score() > 0 }

const (
	MinSeverity = 1
	MaxSeverity = 5
)

// Symptom is one logged symptom. Severity is 1..5, 1 when the user did not rate it.
type Symptom struct {
	ID       string `json:"id"`
	Severity int    `json:"severity"`
}

// UnmarshalJSON accepts both the bare form ("cramps") and the rated form
// ({"id":"cramps","severity":3}).
func (s *Symptom) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*s = NewSymptom(id, 0)
		return nil
	}
	var raw struct {
		ID       string `json:"id"`
		Severity int    `json:"severity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("symptom: %w", err)
	}
	*s = NewSymptom(raw.ID, raw.Severity)
	return nil
}

// NewSymptom normalises the id and clamps severity into range.
func NewSymptom(id string, severity int) Symptom {
	switch {
	case severity < MinSeverity:
		severity = MinSeverity
	case severity > MaxSeverity:
		severity = MaxSeverity
	}
	return Symptom{ID: strings.ToLower(strings.TrimSpace(id)), Severity: severity}
}

// CycleRecord is everything logged for one calendar day.
type CycleRecord struct {
	IsPeriod       bool      `json:"isPeriod"`
	Flow           Flow      `json:"flow,omitempty"`
	Symptoms       []Symptom `json:"symptoms,omitempty"`
	Mood           Mood      `json:"mood,omitempty"`
	Temperature    *float64  `json:"temperature,omitempty"`
	Weight         *float64  `json:"weight,omitempty"`
	SleepHours     *float64  `json:"sleepHours,omitempty"`
	WaterGlasses   *int      `json:"waterGlasses,omitempty"`
	Exercised      bool      `json:"exercised"`
	SexualActivity bool      `json:"sexualActivity"`
	Notes          string    `json:"notes,omitempty"`
}

// CycleRecordPatch carries a partial save. Nil fields are left untouched; an
// empty Flow or Mood clears the stored value.
type CycleRecordPatch struct {
	IsPeriod       *bool      `json:"isPeriod"`
	Flow           *Flow      `json:"flow" validate:"omitempty,oneof='' spotting light medium heavy very_heavy"`
	Symptoms       *[]Symptom `json:"symptoms"`
	Mood           *Mood      `json:"mood" validate:"omitempty,oneof='' great good okay bad terrible"`
	Temperature    *float64   `json:"temperature" validate:"omitempty,gte=30,lte=45"`
	Weight         *float64   `json:"weight" validate:"omitempty,gt=0,lte=500"`
	SleepHours     *float64   `json:"sleepHours" validate:"omitempty,gte=0,lte=24"`
	WaterGlasses   *int       `json:"waterGlasses" validate:"omitempty,gte=0,lte=50"`
	Exercised      *bool      `json:"exercised"`
	SexualActivity *bool      `json:"sexualActivity"`
	Notes          *string    `json:"notes" validate:"omitempty,max=2000"`
}

// Apply merges p into r and returns the result; r itself is not modified.
func (r CycleRecord) Apply(p CycleRecordPatch) CycleRecord {
	if p.IsPeriod != nil {
		r.IsPeriod = *p.IsPeriod
	}
	if p.Flow != nil {
		r.Flow = *p.Flow
	}
	if p.Symptoms != nil {
		r.Symptoms = dedupeSymptoms(*p.Symptoms)
	}
	if p.Mood != nil {
		r.Mood = *p.Mood
	}
	if p.Temperature != nil {
		r.Temperature = floatPtr(*p.Temperature)
	}
	if p.Weight != nil {
		r.Weight = floatPtr(*p.Weight)
	}
	if p.SleepHours != nil {
		r.SleepHours = floatPtr(*p.SleepHours)
	}
	if p.WaterGlasses != nil {
		v := *p.WaterGlasses
		r.WaterGlasses = &v
	}
	if p.Exercised != nil {
		r.Exercised = *p.Exercised
	}
	if p.SexualActivity != nil {
		r.SexualActivity = *p.SexualActivity
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	return r
}

// dedupeSymptoms keeps the last entry for a repeated id and drops blank ids.
func dedupeSymptoms(in []Symptom) []Symptom {
	out := make([]Symptom, 0, len(in))
	pos := map[string]int{}
	for _, s := range in {
		s = NewSymptom(s.ID, s.Severity)
		if s.ID == "" {
			continue
		}
		if i, ok := pos[s.ID]; ok {
			out[i] = s
			continue
		}
		pos[s.ID] = len(out)
		out = append(out, s)
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }

// RecordMap holds one owner's records keyed by DateLayout date.
type RecordMap map[string]CycleRecord

// Clone returns a copy that shares no maps or slices with m.
func (m RecordMap) Clone() RecordMap {
	out := make(RecordMap, len(m))
	for k, v := range m {
		if v.Symptoms != nil {
			v.Symptoms = append([]Symptom(nil), v.Symptoms...)
		}
		out[k] = v
	}
	return out
}

// ParseDate parses a record key as a timezone-naive calendar date (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders t as a record key using its calendar fields.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// CalendarDay drops the clock and zone of t, keeping its calendar fields.
func CalendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
