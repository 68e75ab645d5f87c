package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/krishbhagirath/smart-interviewer/internal/costs"
	"github.com/krishbhagirath/smart-interviewer/internal/eventlog"
	"github.com/krishbhagirath/smart-interviewer/internal/report"
	"github.com/krishbhagirath/smart-interviewer/internal/vitals"
)

type generateReportRequest struct {
	SessionID string `json:"sessionId"`
}

func (r *Router) handleGenerateReport(w http.ResponseWriter, req *http.Request) {
	var body generateReportRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.SessionID == "" {
		http.Error(w, `{"error": "invalid session ID"}`, http.StatusBadRequest)
		return
	}

	if r.eventLog != nil {
		r.eventLog.LogAsync(body.SessionID, eventlog.EventReportRequested, nil)
	}

	// The session's poller samples are only available while it is still in
	// memory; for an evicted session the report falls back to the sensor files.
	var live []vitals.Sample
	if is := r.sessions.Get(body.SessionID); is != nil {
		live = is.poller.Samples()
	}

	rep, err := r.reports.Generate(req.Context(), body.SessionID, live)
	if err != nil {
		if r.eventLog != nil {
			r.eventLog.LogAsync(body.SessionID, eventlog.EventReportError, map[string]any{"error": err.Error()})
		}
		if !report.Retryable(err) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success":   false,
				"error":     "No interview data found for this session",
				"retryable": false,
			})
			return
		}
		captureError(req, err, "report: generation failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success":   false,
			"error":     "Failed to generate report. Please try again.",
			"retryable": true,
		})
		return
	}

	if r.eventLog != nil {
		r.eventLog.LogAsync(body.SessionID, eventlog.EventReportGenerated, map[string]any{
			"questionsAnalyzed": rep.Metadata.QuestionsAnalyzed,
		})
	}

	resp := map[string]any{
		"success":  true,
		"report":   rep.Markdown,
		"metadata": rep.Metadata,
	}

	// Include an estimated usage cost while the session is still in memory.
	if is := r.sessions.Get(body.SessionID); is != nil {
		c := costs.CalculateSessionCosts(is.machine.Usage())
		resp["estimatedCostCents"] = c.TotalCostCents
	}

	writeJSON(w, http.StatusOK, resp)
}
