package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymptomAcceptsBothForms(t *testing.T) {
	var rec CycleRecord
	err := json.Unmarshal([]byte(`{"symptoms":["Cramps",{"id":"headache","severity":4},{"id":"acne","severity":9},{"id":"nausea"}]}`), &rec)
	require.NoError(t, err)

	assert.Equal(t, []Symptom{
		{ID: "cramps", Severity: 1},
		{ID: "headache", Severity: 4},
		{ID: "acne", Severity: 5},
		{ID: "nausea", Severity: 1},
	}, rec.Symptoms)
}

func TestSymptomRejectsGarbage(t *testing.T) {
	var s Symptom
	assert.Error(t, json.Unmarshal([]byte(`42`), &s))
}

func TestApplyMergesOnlyProvidedFields(t *testing.T) {
	temp := 36.6
	existing := CycleRecord{
		IsPeriod:    true,
		Flow:        FlowMedium,
		Mood:        MoodGood,
		Temperature: &temp,
		Notes:       "tired",
	}

	var patch CycleRecordPatch
	require.NoError(t, json.Unmarshal([]byte(`{"mood":"great","symptoms":["cramps"]}`), &patch))
	got := existing.Apply(patch)

	assert.True(t, got.IsPeriod)
	assert.Equal(t, FlowMedium, got.Flow)
	assert.Equal(t, MoodGreat, got.Mood)
	assert.Equal(t, "tired", got.Notes)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 36.6, *got.Temperature)
	assert.Equal(t, []Symptom{{ID: "cramps", Severity: 1}}, got.Symptoms)

	// the receiver is a copy
	assert.Equal(t, MoodGood, existing.Mood)
}

func TestApplyClearsFlowAndMood(t *testing.T) {
	existing := CycleRecord{IsPeriod: true, Flow: FlowHeavy, Mood: MoodBad}
	var patch CycleRecordPatch
	require.NoError(t, json.Unmarshal([]byte(`{"flow":"","mood":"","isPeriod":false}`), &patch))

	got := existing.Apply(patch)
	assert.False(t, got.IsPeriod)
	assert.Empty(t, got.Flow)
	assert.Empty(t, got.Mood)
}

func TestApplyDedupesSymptomsLastWins(t *testing.T) {
	syms := []Symptom{{ID: "cramps", Severity: 2}, {ID: " ", Severity: 3}, {ID: "CRAMPS", Severity: 5}, {ID: "fatigue", Severity: 1}}
	got := CycleRecord{}.Apply(CycleRecordPatch{Symptoms: &syms})
	assert.Equal(t, []Symptom{{ID: "cramps", Severity: 5}, {ID: "fatigue", Severity: 1}}, got.Symptoms)
}

func TestCloneDoesNotShareSymptoms(t *testing.T) {
	m := RecordMap{"2024-01-01": {Symptoms: []Symptom{{ID: "cramps", Severity: 1}}}}
	c := m.Clone()
	c["2024-01-01"].Symptoms[0].Severity = 5
	assert.Equal(t, 1, m["2024-01-01"].Symptoms[0].Severity)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, d.Location())
	assert.Equal(t, "2024-02-29", FormatDate(d))

	for _, bad := range []string{"", "2024-2-1", "2023-02-29", "29/02/2024"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestCalendarDayKeepsLocalFields(t *testing.T) {
	loc := time.FixedZone("UTC+13", 13*3600)
	late := time.Date(2024, 3, 10, 23, 30, 0, 0, loc)
	assert.Equal(t, "2024-03-10", FormatDate(CalendarDay(late)))
}

func TestMoodScore(t *testing.T) {
	assert.Equal(t, 5, MoodGreat.Score())
	assert.Equal(t, 1, MoodTerrible.Score())
	assert.Equal(t, 0, Mood("meh").Score())
	assert.False(t, Mood("").Valid())
	assert.True(t, FlowVeryHeavy.Valid())
	assert.False(t, Flow("torrential").Valid())
}
