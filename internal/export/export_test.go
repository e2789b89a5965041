package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/emRival/GASHub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []models.RequestLog {
	epID := "ep-1"
	errMsg := "Missing API Key"
	created := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)
	return []models.RequestLog{
		{
			ID:             "l1",
			EndpointID:     &epID,
			RequestMethod:  "POST",
			RequestPayload: []byte(`{"a":1}`),
			ResponseStatus: 200,
			ResponseBody:   []byte(`{"ok":true}`),
			ResponseTimeMs: 42,
			IPAddress:      "203.0.113.9",
			UserAgent:      "curl/8.0",
			CreatedAt:      created,
		},
		{
			ID:             "l2",
			RequestMethod:  "POST",
			ResponseStatus: 401,
			ErrorMessage:   &errMsg,
			CreatedAt:      created,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleEntries()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"l1", "ep-1", "POST", "200", "42", "203.0.113.9", "curl/8.0", "", "2026-08-01T12:30:00Z"}, rows[1])
	assert.Equal(t, "", rows[2][1], "a failed resolution has no endpoint id")
	assert.Equal(t, "Missing API Key", rows[2][7])

	assert.NotContains(t, buf.String(), `{"a":1}`, "bodies stay out of the tabular export")
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "an empty export still carries the header")
}

func TestWriteJSONKeepsBodies(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleEntries()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, map[string]any{"a": float64(1)}, decoded[0]["request_payload"])
	assert.Equal(t, float64(200), decoded[0]["response_status"])
}
