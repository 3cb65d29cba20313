package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/optimode/bulkverify"
)

// ValidateRequest is the body of both validate endpoints.
type ValidateRequest struct {
	Emails           []string `json:"emails"`
	FilterDuplicates bool     `json:"filterDuplicates"`
}

// decode parses and checks a ValidateRequest. It writes the 400 itself.
func (a *api) decode(w http.ResponseWriter, r *http.Request) (ValidateRequest, bool) {
	var req ValidateRequest
	body := http.MaxBytesReader(w, r.Body, a.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, a.logger, http.StatusBadRequest, CodeBadRequest, "invalid JSON: "+err.Error(), nil)
		return req, false
	}
	if req.Emails == nil {
		writeError(w, a.logger, http.StatusBadRequest, CodeBadRequest, "emails is required", nil)
		return req, false
	}
	return req, true
}

// rejected writes the response for a pipeline error.
func (a *api) rejected(w http.ResponseWriter, r *http.Request, err error) {
	var be *bulkverify.BoundsError
	if errors.As(err, &be) {
		writeError(w, a.logger, http.StatusBadRequest, CodeInputBounds, be.Error(), map[string]any{
			"mode":  be.Mode,
			"count": be.Count,
			"min":   be.Min,
			"max":   be.Max,
		})
		return
	}
	a.logger.Error("validation failed", "run_id", RunID(r.Context()), "error", err)
	writeError(w, a.logger, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
}

func (a *api) validate(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decode(w, r)
	if !ok {
		return
	}
	res, err := a.svc.ValidateBatch(r.Context(), req.Emails, req.FilterDuplicates)
	if err != nil {
		a.rejected(w, r, err)
		return
	}
	writeJSON(w, a.logger, http.StatusOK, res)
}

// stream answers with Server-Sent Events. Each event is named after its kind;
// verdict events carry their list index as the event id.
func (a *api) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, a.logger, http.StatusInternalServerError, CodeInternal, "streaming not supported", nil)
		return
	}
	req, ok := a.decode(w, r)
	if !ok {
		return
	}
	events, err := a.svc.ValidateStream(r.Context(), req.Emails, req.FilterDuplicates)
	if err != nil {
		a.rejected(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			a.logger.Warn("sse encode failed", "error", err)
			continue
		}
		if ev.Kind == bulkverify.EventVerdict {
			fmt.Fprintf(w, "id: %d\n", ev.Index)
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
		flusher.Flush()
	}
}

func (a *api) cacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.logger, http.StatusOK, a.svc.CacheStats(r.Context()))
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, a.logger, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(a.started).Round(time.Second).String(),
	})
}
