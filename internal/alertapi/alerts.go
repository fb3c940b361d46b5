package alertapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/dispatch/internal/alert"
)

// maxIngestBody caps the raw payload kept on each record.
const maxIngestBody = 64 * 1024

func (a *API) handleIngestAlert(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	var wh alert.Webhook
	if err := json.Unmarshal(body, &wh); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	records := alert.Records(&wh, json.RawMessage(body), time.Now())

	var accepted []string
	var skipped int

	for _, rec := range records {
		res, err := a.svc.Submit(r.Context(), rec)
		if err != nil {
			a.logger.Error(r.Context(), err, "submit failed", "alert", rec.Name)
			skipped++
			continue
		}
		if res.Skipped {
			a.logger.Info(r.Context(), "alert skipped", "alert", rec.Name, "reason", res.Reason)
			skipped++
			continue
		}
		accepted = append(accepted, res.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	// nothing to do with errors here
	_ = json.NewEncoder(w).Encode(map[string]any{
		"accepted": accepted,
		"skipped":  skipped,
	})
}
