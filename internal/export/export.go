// Package export renders request logs for download and archival.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/emRival/GASHub/internal/models"
)

var csvHeader = []string{
	"id", "endpoint_id", "request_method", "response_status",
	"response_time_ms", "ip_address", "user_agent", "error_message",
	"created_at",
}

// WriteCSV renders entries as CSV, one row per log entry. Payload and
// response bodies are left out; they are jsonb blobs of arbitrary size
// and the tabular export is meant for scanning, not replay.
func WriteCSV(w io.Writer, entries []models.RequestLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, entry := range entries {
		endpointID := ""
		if entry.EndpointID != nil {
			endpointID = *entry.EndpointID
		}
		errorMessage := ""
		if entry.ErrorMessage != nil {
			errorMessage = *entry.ErrorMessage
		}
		row := []string{
			entry.ID,
			endpointID,
			entry.RequestMethod,
			strconv.Itoa(entry.ResponseStatus),
			strconv.Itoa(entry.ResponseTimeMs),
			entry.IPAddress,
			entry.UserAgent,
			errorMessage,
			entry.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON renders entries as an indented JSON array, bodies included.
func WriteJSON(w io.Writer, entries []models.RequestLog) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
