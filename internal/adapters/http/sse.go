package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// streamProgress serves the live progress feed as server-sent events. The
// stream is global: every observer sees every extraction's events from the
// moment it connects, with no history replay.
func (rt *Router) streamProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	events, cancel := rt.progress.Subscribe(r.Context())
	defer cancel()

	rt.metrics.ObserverConnected()
	defer rt.metrics.ObserverDisconnected()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := rt.cfg.StreamKeepAlive
	if keepAlive <= 0 {
		keepAlive = 10 * time.Second
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			// Comment frame keeps intermediaries from closing an idle stream.
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
