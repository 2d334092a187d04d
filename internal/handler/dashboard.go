package handler

import "net/http"

// Dashboard renders the caller's role board once; /ws/orders keeps it live.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	d, err := h.feed.Snapshot(r.Context(), p)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) OrdersFeed(w http.ResponseWriter, r *http.Request) {
	h.feed.ServeWS(h.upgrader)(w, r)
}
