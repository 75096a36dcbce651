package handlers

import "net/http"

// Health is the liveness probe. Queue depth is included so an operator can
// spot a backed-up worker without querying the database.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if a.QueueLen != nil {
		body["queue_depth"] = a.QueueLen()
	}
	a.json(w, http.StatusOK, body)
}
