package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
)

type healthResponse struct {
	Status        string  `json:"status"`
	Timestamp     int64   `json:"timestamp"` // unix millis
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Health answers liveness probes. It needs no API key.
func Health(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := d.Now()
		w.Header().Set("Cache-Control", "no-store")
		WriteJSON(w, http.StatusOK, healthResponse{
			Status:        "ok",
			Timestamp:     now.UnixMilli(),
			UptimeSeconds: now.Sub(d.StartTime).Seconds(),
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
		})
	}
}
