package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExportArray(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	data := []byte(`[
		{"name":" Alice ","question":"Q1","timestamp":"2025-06-30 09:15:00"},
		{"name":"","question":"Q2","timestamp":"2025-06-30 09:16:00"},
		{"name":"Bob","question":"Q3","timestamp":"garbage"}
	]`)

	recs, err := parseExport(data, now, time.UTC)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Alice", recs[0].Name)
	assert.Equal(t, time.Date(2025, 6, 30, 9, 15, 0, 0, time.UTC), recs[0].DrawnAt)
	assert.Equal(t, now, recs[1].DrawnAt)
}

func TestParseExportResponseShape(t *testing.T) {
	data := []byte(`{"status":"success","records":[{"name":"Carol","question":"Q","timestamp":"2025-06-30 10:00:00"}]}`)

	recs, err := parseExport(data, time.Now(), time.UTC)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Carol", recs[0].Name)
}

func TestParseExportInvalid(t *testing.T) {
	_, err := parseExport([]byte(`{`), time.Now(), time.UTC)
	assert.Error(t, err)
}

func TestRecordIDIsDeterministic(t *testing.T) {
	recs, err := parseExport([]byte(`[
		{"name":"Alice","question":"Q1","timestamp":"2025-06-30 09:15:00"},
		{"name":"Alice","question":"Q1","timestamp":"2025-06-30 09:15:00"},
		{"name":"Alice","question":"Q2","timestamp":"2025-06-30 09:15:00"}
	]`), time.Now(), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, recordID(recs[0]), recordID(recs[1]))
	assert.NotEqual(t, recordID(recs[0]), recordID(recs[2]))
}
