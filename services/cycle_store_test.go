package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/periodcalm/period-calm-website-sub000/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() models.RecordMap {
	temp := 36.8
	glasses := 6
	return models.RecordMap{
		"2024-01-01": {IsPeriod: true, Flow: models.FlowHeavy, Symptoms: []models.Symptom{{ID: "cramps", Severity: 3}}},
		"2024-01-02": {IsPeriod: true, Flow: models.FlowLight, Mood: models.MoodOkay, Temperature: &temp, WaterGlasses: &glasses},
	}
}

func TestDecodeRecordsFormats(t *testing.T) {
	versioned := []byte(`{"version":1,"records":{"2024-01-01":{"isPeriod":true}}}`)
	legacy := []byte(`{"2024-01-01":{"isPeriod":true,"symptoms":["cramps"]}}`)

	m, err := decodeRecords(versioned)
	require.NoError(t, err)
	assert.True(t, m["2024-01-01"].IsPeriod)

	m, err = decodeRecords(legacy)
	require.NoError(t, err)
	assert.Equal(t, []models.Symptom{{ID: "cramps", Severity: 1}}, m["2024-01-01"].Symptoms)

	m, err = decodeRecords(nil)
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = decodeRecords([]byte(`{"version":7,"records":{}}`))
	assert.Error(t, err)
}

func TestParseRecordDocumentRejectsBadKeys(t *testing.T) {
	_, err := ParseRecordDocument([]byte(`{"yesterday":{"isPeriod":true}}`))
	assert.ErrorIs(t, err, models.ErrInvalidDate)

	_, err = ParseRecordDocument([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestFileCycleStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileCycleStore(t.TempDir(), nil)
	require.NoError(t, err)

	empty, err := s.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.Save(ctx, "user-1", sampleRecords()))
	got, err := s.Load(ctx, "user-1")
	require.NoError(t, err)
	if diff := cmp.Diff(sampleRecords(), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	raw, err := os.ReadFile(filepath.Join(s.Dir, "user-1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version":1`)

	leftovers, _ := filepath.Glob(filepath.Join(s.Dir, "*.tmp"))
	assert.Empty(t, leftovers)
}

func TestFileCycleStoreColdStartsOnGarbage(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileCycleStore(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "user-2.json"), []byte("{not json"), 0o600))
	got, err := s.Load(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "user-3.json"),
		[]byte(`{"2024-01-05":{"isPeriod":true},"someday":{"isPeriod":true}}`), 0o600))
	got, err = s.Load(ctx, "user-3")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.True(t, got["2024-01-05"].IsPeriod)
}

func TestFileCycleStoreRejectsPathOwners(t *testing.T) {
	s, err := NewFileCycleStore(t.TempDir(), nil)
	require.NoError(t, err)
	_, err = s.Load(context.Background(), "../etc/passwd")
	assert.Error(t, err)
	assert.Error(t, s.Save(context.Background(), "a/b", models.RecordMap{}))
}

func TestLoadCanonicalisesDateKeys(t *testing.T) {
	s := NewMemoryCycleStore(nil)
	s.Put("user-1", []byte(`{"version":1,"records":{
		" 2024-01-01":{"notes":"padded"},
		"2024-01-01":{"notes":"canonical"},
		"2024-01-02 ":{"notes":"second"},
		"someday":{"notes":"dropped"}}}`))

	got, err := s.Load(context.Background(), "user-1")
	require.NoError(t, err)
	want := models.RecordMap{
		"2024-01-01": {Notes: "canonical"},
		"2024-01-02": {Notes: "second"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("canonical keys mismatch (-want +got):\n%s", diff)
	}

	imported, err := ParseRecordDocument([]byte(`{" 2024-03-01 ":{"isPeriod":true}}`))
	require.NoError(t, err)
	assert.Contains(t, imported, "2024-03-01")
}

func TestMemoryCycleStoreLegacyDocument(t *testing.T) {
	s := NewMemoryCycleStore(nil)
	s.Put("user-1", []byte(`{"2024-01-01":{"isPeriod":true,"flow":"medium"}}`))

	got, err := s.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.FlowMedium, got["2024-01-01"].Flow)

	require.NoError(t, s.Save(context.Background(), "user-1", got))
	assert.Contains(t, string(s.Raw("user-1")), `"version":1`)
}
