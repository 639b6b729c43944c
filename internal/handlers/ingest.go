package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/fnanalytics/stats-api/internal/models"
)

// IngestEvents handles POST /api/v1/ingest/events
// @Summary Ingest Telemetry
// @Description Accepts newline-separated JSON telemetry records (elimination, damage, match_player)
// @Tags Ingestion
// @Accept json
// @Produce json
// @Param body body []models.TelemetryEvent true "Events"
// @Success 202 {object} map[string]interface{} "Accepted"
// @Failure 413 {object} map[string]string "Too Large"
// @Router /ingest/events [post]
func (h *Handler) IngestEvents(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxBodySize)

	processed, skipped, lineNum := 0, 0, 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var event models.TelemetryEvent
		if err := json.Unmarshal(line, &event); err != nil {
			h.logger.Warnw("Failed to unmarshal telemetry line", "error", err, "lineNum", lineNum)
			skipped++
			continue
		}

		if err := h.validator.Struct(&event); err != nil {
			h.logger.Warnw("Validation failed for telemetry", "error", err, "lineNum", lineNum, "type", event.Type)
			skipped++
			continue
		}

		if !h.pool.Enqueue(&event) {
			h.logger.Warnw("Worker pool queue full, dropping remaining telemetry in batch", "lineNum", lineNum)
			break
		}
		processed++
	}

	h.jsonResponse(w, http.StatusAccepted, map[string]interface{}{
		"status":    "accepted",
		"processed": processed,
		"skipped":   skipped,
	})
}
