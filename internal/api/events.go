package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleEvents streams every new snapshot as a server-sent event. A late
// subscriber gets the current snapshot first.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates, cancel := h.snapshots.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-updates:
			if !open {
				return
			}
			payload, err := json.Marshal(newListResponse(snap, snap.PullRequests))
			if err != nil {
				h.log.Error(err, "encode snapshot event failed")
				return
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: snapshot\ndata: %s\n\n", snap.ID, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
