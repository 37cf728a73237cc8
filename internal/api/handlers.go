package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cleared-dev/spendsight/internal/ingest"
	"github.com/cleared-dev/spendsight/internal/insight"
	"github.com/cleared-dev/spendsight/internal/logger"
	"github.com/cleared-dev/spendsight/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

type insightsResponse struct {
	Insights []model.Insight         `json:"insights"`
	Skipped  []ingest.ValidationError `json:"skipped,omitempty"`
}

type analysisResponse struct {
	insight.Report
	Skipped []ingest.ValidationError `json:"skipped,omitempty"`
}

type narrativeResponse struct {
	insight.NarrativeResult
	Skipped []ingest.ValidationError `json:"skipped,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, insight.Templates())
}

// Analysis runs the full report. Pass ?narrative=false to skip the model.
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	txns, skipped, ok := h.decode(w, r)
	if !ok {
		return
	}
	withNarrative := r.URL.Query().Get("narrative") != "false"
	rep := h.synth.Report(r.Context(), txns, withNarrative)
	writeJSON(w, http.StatusOK, analysisResponse{Report: rep, Skipped: skipped})
}

func (h *Handler) StatisticalInsights(w http.ResponseWriter, r *http.Request) {
	txns, skipped, ok := h.decode(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, insightsResponse{Insights: nonNil(h.synth.Statistical(txns)), Skipped: skipped})
}

func (h *Handler) NarrativeInsights(w http.ResponseWriter, r *http.Request) {
	txns, skipped, ok := h.decode(w, r)
	if !ok {
		return
	}
	res := h.synth.Narrative(r.Context(), txns)
	writeJSON(w, http.StatusOK, narrativeResponse{NarrativeResult: res, Skipped: skipped})
}

// Ask answers a templated question. Unknown template IDs are a 404 so
// clients can tell them apart from an empty answer.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "templateID")
	if _, ok := insight.LookupTemplate(id); !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown template " + id})
		return
	}
	txns, skipped, ok := h.decode(w, r)
	if !ok {
		return
	}
	insights := h.synth.Ask(r.Context(), id, txns)
	writeJSON(w, http.StatusOK, insightsResponse{Insights: nonNil(insights), Skipped: skipped})
}

// decode reads and normalizes the transaction array. Bad records are
// returned as skipped; only an unreadable body fails the request.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) ([]model.Transaction, []ingest.ValidationError, bool) {
	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	txns, skipped, err := ingest.DecodeJSON(body, h.currency)
	if err != nil {
		status := http.StatusBadRequest
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return nil, nil, false
	}
	if len(skipped) > 0 {
		l := logger.FromContext(r.Context())
		l.Warn().Int("skipped", len(skipped)).Int("accepted", len(txns)).Msg("ingest.skipped")
	}
	return txns, skipped, true
}

func nonNil(in []model.Insight) []model.Insight {
	if in == nil {
		return []model.Insight{}
	}
	return in
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
